//go:build windows

package doctor

import (
	"fmt"

	"golang.design/x/clipboard"

	"scrivo/internal/config"
)

// Run executes environment/config/runtime checks for a loaded config.
// Both Windows injection methods ride on user32 SendInput, so the only
// runtime dependency worth probing is clipboard access.
func Run(cfg config.Loaded) Report {
	checks := []Check{
		{
			Name:    "config",
			Pass:    true,
			Message: fmt.Sprintf("loaded %q", cfg.Path),
		},
		checkClipboard(),
		{
			Name:    "sendinput",
			Pass:    true,
			Message: "user32 SendInput available",
		},
	}
	return Report{Checks: checks}
}

func checkClipboard() Check {
	if err := clipboard.Init(); err != nil {
		return Check{Name: "clipboard", Pass: false, Message: fmt.Sprintf("clipboard unavailable: %v", err)}
	}
	return Check{Name: "clipboard", Pass: true, Message: "clipboard accessible"}
}
