package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"scrivo/internal/app"
)

func newInjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject [text...]",
		Short: "Inject text into the focused application",
		Long: `Delivers text into whatever application currently holds focus. Text is
taken from the arguments, or from stdin when no arguments are given:

  scrivo inject "hello world"
  transcribe-audio | scrivo inject

With a running daemon the text is forwarded over the runtime socket so
injection reuses warm sessions and per-app method history. Without one
a one-shot stack is built for this call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := gatherText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return nil
			}

			resp, handled, err := app.Forward(cmd.Context(), "inject", text)
			if handled {
				if err != nil {
					return err
				}
				if resp.Method != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "injected via %s\n", resp.Method)
				}
				return nil
			}

			loaded, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := terminalLogger(loaded.Config)
			return app.InjectOnce(cmd.Context(), loaded, logger, text)
		},
	}
	return cmd
}

func gatherText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
