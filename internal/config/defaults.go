package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Injection: InjectionConfig{
			Mode:                  "auto",
			FocusTimeoutMS:        75,
			AttemptTimeoutMS:      50,
			ConfirmTimeoutMS:      75,
			TotalBudgetMS:         800,
			RestoreDelayMS:        150,
			RestoreTimeoutMS:      500,
			CooldownInitialMS:     200,
			CooldownBackoffFactor: 2.0,
			CooldownMaxMS:         30_000,
			FailureThreshold:      3,
			FailureGraceMS:        120_000,
			CacheTTLMS:            3_600_000,
			SweepIntervalMS:       300_000,
			InjectOnUnknownFocus:  true,
			RedactLogs:            true,
		},
		Clipboard: ClipboardConfig{
			CopyCmd:      "wl-copy",
			PasteCmd:     "wl-paste --no-newline",
			ClearCmd:     "wl-copy --clear",
			ClearHistory: true,
		},
		Methods: MethodsConfig{
			AllowYdotool:  false,
			AllowNoOp:     false,
			PasteShortcut: "CTRL,V",
		},
	}
}
