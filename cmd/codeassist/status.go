package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/codeassist/internal/presenter"
	"github.com/dusk-indust/codeassist/internal/status"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [path]",
		Short: "Summarize the saved results of earlier runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runStatus(pathArg(args))
		},
	}
}

func (a *app) runStatus(path string) error {
	cfg, err := a.loadConfig(path)
	if err != nil {
		return err
	}
	report, err := status.ScanResults(cfg.Path(cfg.ResultsDir))
	if err != nil {
		return err
	}

	if len(report.Runs) == 0 && len(report.Unreadable) == 0 {
		fmt.Fprintf(a.stdout, "No saved results in %s\n", report.Dir)
		fmt.Fprintln(a.stdout, "Run 'codeassist analyze' (or any service) to create one.")
		return nil
	}

	fmt.Fprintf(a.stdout, "Results in %s\n\n", report.Dir)
	t := presenter.NewTable("SERVICE", "STATUS", "SAVED", "MESSAGE")
	for _, run := range report.Runs {
		saved := "-"
		if !run.SavedAt.IsZero() {
			saved = run.SavedAt.Local().Format(time.DateTime)
		}
		msg := run.Message
		if run.Failed() {
			msg = run.Error
		}
		t.AddRow(run.Service, run.Status, saved, presenter.Truncate(msg, 60))
	}
	t.Render(a.stdout, lipgloss.NewStyle().Bold(true))

	if latest, ok := report.Latest(); ok {
		fmt.Fprintf(a.stdout, "\nLatest: %s (%s)\n", latest.Service, latest.Status)
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(a.stdout, "Not run yet: %v\n", report.Missing)
	}

	files := make([]string, 0, len(report.Unreadable))
	for file := range report.Unreadable {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		fmt.Fprintf(a.stdout, "Unreadable: %s: %s\n", file, report.Unreadable[file])
	}
	return nil
}
