package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// Environment variables with the SCRIVO_ prefix override file values
// (SCRIVO_INJECTION_MODE=paste, SCRIVO_LOG_LEVEL=debug, and so on).
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	v := viper.New()
	v.SetConfigFile(resolvedPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix("scrivo")
	v.AutomaticEnv()
	setDefaults(v, Default())

	exists := true
	warnings := make([]Warning, 0)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			exists = false
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
			})
		} else {
			return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	validateWarnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}
	warnings = append(warnings, validateWarnings...)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   exists,
	}, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("injection.mode", d.Injection.Mode)
	v.SetDefault("injection.focus_timeout_ms", d.Injection.FocusTimeoutMS)
	v.SetDefault("injection.attempt_timeout_ms", d.Injection.AttemptTimeoutMS)
	v.SetDefault("injection.confirm_timeout_ms", d.Injection.ConfirmTimeoutMS)
	v.SetDefault("injection.total_budget_ms", d.Injection.TotalBudgetMS)
	v.SetDefault("injection.restore_delay_ms", d.Injection.RestoreDelayMS)
	v.SetDefault("injection.restore_timeout_ms", d.Injection.RestoreTimeoutMS)
	v.SetDefault("injection.cooldown_initial_ms", d.Injection.CooldownInitialMS)
	v.SetDefault("injection.cooldown_backoff_factor", d.Injection.CooldownBackoffFactor)
	v.SetDefault("injection.cooldown_max_ms", d.Injection.CooldownMaxMS)
	v.SetDefault("injection.failure_threshold", d.Injection.FailureThreshold)
	v.SetDefault("injection.failure_grace_ms", d.Injection.FailureGraceMS)
	v.SetDefault("injection.cache_ttl_ms", d.Injection.CacheTTLMS)
	v.SetDefault("injection.sweep_interval_ms", d.Injection.SweepIntervalMS)
	v.SetDefault("injection.inject_on_unknown_focus", d.Injection.InjectOnUnknownFocus)
	v.SetDefault("injection.allowlist", d.Injection.Allowlist)
	v.SetDefault("injection.denylist", d.Injection.Denylist)
	v.SetDefault("injection.redact_logs", d.Injection.RedactLogs)

	v.SetDefault("clipboard.copy_cmd", d.Clipboard.CopyCmd)
	v.SetDefault("clipboard.paste_cmd", d.Clipboard.PasteCmd)
	v.SetDefault("clipboard.clear_cmd", d.Clipboard.ClearCmd)
	v.SetDefault("clipboard.clear_history", d.Clipboard.ClearHistory)

	v.SetDefault("methods.allow_ydotool", d.Methods.AllowYdotool)
	v.SetDefault("methods.allow_noop", d.Methods.AllowNoOp)
	v.SetDefault("methods.paste_shortcut", d.Methods.PasteShortcut)
}
