package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandBackend drives the clipboard through external tools
// (wl-copy/wl-paste on Wayland), each invocation bounded by the caller's
// context.
type CommandBackend struct {
	copyArgv  []string
	pasteArgv []string
	clearArgv []string
}

// NewCommandBackend builds a backend from the three tool invocations.
func NewCommandBackend(copyArgv, pasteArgv, clearArgv []string) (*CommandBackend, error) {
	if len(copyArgv) == 0 {
		return nil, fmt.Errorf("clipboard copy command argv cannot be empty")
	}
	if len(pasteArgv) == 0 {
		return nil, fmt.Errorf("clipboard paste command argv cannot be empty")
	}
	if len(clearArgv) == 0 {
		return nil, fmt.Errorf("clipboard clear command argv cannot be empty")
	}
	return &CommandBackend{copyArgv: copyArgv, pasteArgv: pasteArgv, clearArgv: clearArgv}, nil
}

// Read captures the current clipboard text. An exit status of 1 with no
// output is how wl-paste reports an empty clipboard.
func (b *CommandBackend) Read(ctx context.Context) (Snapshot, error) {
	out, err := runCommandOutput(ctx, b.pasteArgv)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && len(out) == 0 {
			return Snapshot{Empty: true}, nil
		}
		return Snapshot{}, err
	}
	return Snapshot{Text: string(out)}, nil
}

// Write replaces the clipboard text.
func (b *CommandBackend) Write(ctx context.Context, text string) error {
	return runCommandWithInput(ctx, b.copyArgv, text)
}

// Clear empties the clipboard.
func (b *CommandBackend) Clear(ctx context.Context) error {
	return runCommandWithInput(ctx, b.clearArgv, "")
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

// runCommandOutput executes argv and returns stdout.
func runCommandOutput(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			trimmed := strings.TrimSpace(string(exitErr.Stderr))
			if trimmed != "" {
				return out, fmt.Errorf("%s failed: %w (%s)", argv[0], err, trimmed)
			}
		}
		return out, fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return out, nil
}
