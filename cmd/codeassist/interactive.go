package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/tui"
)

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Pick services from a menu until you quit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInteractive(cmd.Context())
		},
	}
}

// runInteractive loops over menu choices. A failing run is reported and the
// menu comes back; only quitting or an interrupt ends the loop.
func (a *app) runInteractive(ctx context.Context) error {
	next := a.menu(ctx)
	for {
		choice, err := next()
		if err != nil {
			return err
		}
		if choice.Interrupted {
			return errInterrupted
		}
		if choice.Quit {
			fmt.Fprintln(a.stdout, "Goodbye!")
			return nil
		}

		if err := a.runService(ctx, choice.Service, choice.Path); err != nil {
			if ctx.Err() != nil {
				return err
			}
			a.logger.Debug("interactive: run failed", zap.String("service", choice.Service), zap.Error(err))
			fmt.Fprintf(a.stderr, "error: %v\n", err)
		}
	}
}

// menu returns the bubbletea menu on a terminal and the line prompt otherwise.
func (a *app) menu(ctx context.Context) func() (tui.Choice, error) {
	if isTerminal(a.stdin) && isTerminal(a.stdout) {
		return func() (tui.Choice, error) { return tui.Run(ctx, a.stdin, a.stdout) }
	}
	prompter := tui.NewPrompter(a.stdin, a.stdout)
	return func() (tui.Choice, error) { return prompter.Next(ctx) }
}
