package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsPass(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Injection.Mode = "yolo" },
			wantErr: "injection.mode",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "log.level",
		},
		{
			name:    "zero budget",
			mutate:  func(c *Config) { c.Injection.TotalBudgetMS = 0 },
			wantErr: "must be > 0",
		},
		{
			name: "budget below one attempt",
			mutate: func(c *Config) {
				c.Injection.FocusTimeoutMS = 500
				c.Injection.AttemptTimeoutMS = 400
			},
			wantErr: "total_budget_ms",
		},
		{
			name:    "backoff below one",
			mutate:  func(c *Config) { c.Injection.CooldownBackoffFactor = 0.5 },
			wantErr: "cooldown_backoff_factor",
		},
		{
			name:    "cooldown cap below initial",
			mutate:  func(c *Config) { c.Injection.CooldownMaxMS = 1 },
			wantErr: "cooldown_max_ms",
		},
		{
			name:    "blank denylist entry",
			mutate:  func(c *Config) { c.Injection.Denylist = []string{"  "} },
			wantErr: "denylist",
		},
		{
			name:    "empty copy command",
			mutate:  func(c *Config) { c.Clipboard.CopyCmd = "" },
			wantErr: "clipboard.copy_cmd",
		},
		{
			name:    "unterminated paste command",
			mutate:  func(c *Config) { c.Clipboard.PasteCmd = `wl-paste "oops` },
			wantErr: "unterminated quote",
		},
		{
			name:    "empty paste shortcut",
			mutate:  func(c *Config) { c.Methods.PasteShortcut = " " },
			wantErr: "paste_shortcut",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnOverlappingLists(t *testing.T) {
	cfg := Default()
	cfg.Injection.Allowlist = []string{"kate"}
	cfg.Injection.Denylist = []string{"keepassxc"}

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "denylist is checked first")
}

func TestCommandParsesArgv(t *testing.T) {
	cmd, err := Command("wl-paste --no-newline")
	require.NoError(t, err)
	require.Equal(t, []string{"wl-paste", "--no-newline"}, cmd.Argv)
	require.Equal(t, "wl-paste --no-newline", cmd.Raw)
}
