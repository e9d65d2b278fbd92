// Package config resolves, parses, validates, and defaults scrivo configuration.
package config

// Config is the fully materialized runtime configuration used by scrivo.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Injection InjectionConfig `mapstructure:"injection"`
	Clipboard ClipboardConfig `mapstructure:"clipboard"`
	Methods   MethodsConfig   `mapstructure:"methods"`
}

// LogConfig controls log verbosity and rendering.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// InjectionConfig controls budgets, ranking, cooldowns, and focus policy.
type InjectionConfig struct {
	Mode                  string   `mapstructure:"mode"`
	FocusTimeoutMS        int      `mapstructure:"focus_timeout_ms"`
	AttemptTimeoutMS      int      `mapstructure:"attempt_timeout_ms"`
	ConfirmTimeoutMS      int      `mapstructure:"confirm_timeout_ms"`
	TotalBudgetMS         int      `mapstructure:"total_budget_ms"`
	RestoreDelayMS        int      `mapstructure:"restore_delay_ms"`
	RestoreTimeoutMS      int      `mapstructure:"restore_timeout_ms"`
	CooldownInitialMS     int      `mapstructure:"cooldown_initial_ms"`
	CooldownBackoffFactor float64  `mapstructure:"cooldown_backoff_factor"`
	CooldownMaxMS         int      `mapstructure:"cooldown_max_ms"`
	FailureThreshold      int      `mapstructure:"failure_threshold"`
	FailureGraceMS        int      `mapstructure:"failure_grace_ms"`
	CacheTTLMS            int      `mapstructure:"cache_ttl_ms"`
	SweepIntervalMS       int      `mapstructure:"sweep_interval_ms"`
	InjectOnUnknownFocus  bool     `mapstructure:"inject_on_unknown_focus"`
	Allowlist             []string `mapstructure:"allowlist"`
	Denylist              []string `mapstructure:"denylist"`
	RedactLogs            bool     `mapstructure:"redact_logs"`
}

// ClipboardConfig controls the external clipboard commands and history hygiene.
type ClipboardConfig struct {
	CopyCmd      string `mapstructure:"copy_cmd"`
	PasteCmd     string `mapstructure:"paste_cmd"`
	ClearCmd     string `mapstructure:"clear_cmd"`
	ClearHistory bool   `mapstructure:"clear_history"`
}

// MethodsConfig gates optional injection methods.
type MethodsConfig struct {
	AllowYdotool  bool   `mapstructure:"allow_ydotool"`
	AllowNoOp     bool   `mapstructure:"allow_noop"`
	PasteShortcut string `mapstructure:"paste_shortcut"`
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal configuration condition surfaced to the user.
type Warning struct {
	Message string
}
