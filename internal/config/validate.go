package config

import (
	"fmt"
	"strings"
)

var validModes = map[string]bool{"auto": true, "paste": true, "type": true}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validLogFormats = map[string]bool{"auto": true, "json": true, "text": true}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	level := strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if !validLogLevels[level] {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	format := strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if !validLogFormats[format] {
		return nil, fmt.Errorf("log.format must be one of: auto, json, text")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Injection.Mode))
	if !validModes[mode] {
		return nil, fmt.Errorf("injection.mode must be one of: auto, paste, type")
	}

	inj := cfg.Injection
	for name, v := range map[string]int{
		"injection.focus_timeout_ms":   inj.FocusTimeoutMS,
		"injection.attempt_timeout_ms": inj.AttemptTimeoutMS,
		"injection.confirm_timeout_ms": inj.ConfirmTimeoutMS,
		"injection.total_budget_ms":    inj.TotalBudgetMS,
	} {
		if v <= 0 {
			return nil, fmt.Errorf("%s must be > 0", name)
		}
	}
	if inj.FocusTimeoutMS+inj.AttemptTimeoutMS > inj.TotalBudgetMS {
		return nil, fmt.Errorf("injection.total_budget_ms must cover at least one focus check and one attempt")
	}
	if inj.RestoreDelayMS < 0 || inj.RestoreTimeoutMS < 0 {
		return nil, fmt.Errorf("injection restore delays must be >= 0")
	}
	if inj.CooldownInitialMS <= 0 {
		return nil, fmt.Errorf("injection.cooldown_initial_ms must be > 0")
	}
	if inj.CooldownBackoffFactor < 1.0 {
		return nil, fmt.Errorf("injection.cooldown_backoff_factor must be >= 1.0")
	}
	if inj.CooldownMaxMS < inj.CooldownInitialMS {
		return nil, fmt.Errorf("injection.cooldown_max_ms must be >= injection.cooldown_initial_ms")
	}
	if inj.FailureThreshold <= 0 {
		return nil, fmt.Errorf("injection.failure_threshold must be > 0")
	}
	if inj.FailureGraceMS < 0 {
		return nil, fmt.Errorf("injection.failure_grace_ms must be >= 0")
	}
	if inj.CacheTTLMS <= 0 {
		return nil, fmt.Errorf("injection.cache_ttl_ms must be > 0")
	}
	if inj.SweepIntervalMS <= 0 {
		return nil, fmt.Errorf("injection.sweep_interval_ms must be > 0")
	}

	for _, pattern := range inj.Allowlist {
		if strings.TrimSpace(pattern) == "" {
			return nil, fmt.Errorf("injection.allowlist entries must not be blank")
		}
	}
	for _, pattern := range inj.Denylist {
		if strings.TrimSpace(pattern) == "" {
			return nil, fmt.Errorf("injection.denylist entries must not be blank")
		}
	}
	if len(inj.Allowlist) > 0 && len(inj.Denylist) > 0 {
		warnings = append(warnings, Warning{Message: "both allowlist and denylist configured; denylist is checked first"})
	}

	for name, raw := range map[string]string{
		"clipboard.copy_cmd":  cfg.Clipboard.CopyCmd,
		"clipboard.paste_cmd": cfg.Clipboard.PasteCmd,
		"clipboard.clear_cmd": cfg.Clipboard.ClearCmd,
	} {
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("%s must not be empty", name)
		}
	}

	if strings.TrimSpace(cfg.Methods.PasteShortcut) == "" {
		return nil, fmt.Errorf("methods.paste_shortcut must not be empty")
	}

	return warnings, nil
}

// Command parses a configured command string into its argv form.
func Command(raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, err
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}
