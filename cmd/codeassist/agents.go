package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/codeassist/internal/presenter"
)

func newAgentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "agents [path]",
		Short: "Show which agent serves each capability",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context(), pathArg(args), io.Discard, isTerminal(a.stdout))
			if err != nil {
				return err
			}
			defer sess.pipeline.Close()

			t := presenter.NewTable("CAPABILITY", "AGENT", "BINDING")
			for _, e := range sess.registry.Summary() {
				t.AddRow(string(e.Capability), e.Agent, e.StateName)
			}
			t.Render(a.stdout, lipgloss.NewStyle().Bold(true))
			if sess.cfg.Source != "" {
				fmt.Fprintf(a.stdout, "\nConfig: %s\n", sess.cfg.Source)
			}
			if a.pluginDir != "" {
				fmt.Fprintf(a.stdout, "Plugins: %s\n", a.pluginDir)
			}
			return nil
		},
	}
}
