package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codeassist/internal/export"
	"github.com/dusk-indust/codeassist/internal/orchestrator"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <service> [path]",
		Short: "Print the last saved result of a service as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runExport(args[0], pathArg(args[1:]))
		},
	}
}

func (a *app) runExport(input, path string) error {
	cfg, err := a.loadConfig(path)
	if err != nil {
		return err
	}
	name := orchestrator.Normalize(input)
	file := export.ResultsFile(cfg.Path(cfg.ResultsDir), name)

	dump, err := export.Load(file)
	if err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}

	out, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = a.stdout.Write(append(out, '\n'))
	return err
}
