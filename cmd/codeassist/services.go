package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/orchestrator"
	"github.com/dusk-indust/codeassist/internal/service"
)

// serviceCommands builds one subcommand per canonical service.
func serviceCommands(a *app) []*cobra.Command {
	verbs := []struct {
		use  string
		name string
	}{
		{"test", service.Testing},
		{"refactor", service.Refactoring},
		{"debug", service.Debugging},
		{"docs", service.Documentation},
		{"analyze", service.Analysis},
		{"plan", service.Planning},
	}

	cmds := make([]*cobra.Command, 0, len(verbs))
	for _, v := range verbs {
		info := orchestrator.ServiceInfo(v.name)
		cmds = append(cmds, &cobra.Command{
			Use:   v.use + " [path]",
			Short: info.Description,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runService(cmd.Context(), v.name, pathArg(args))
			},
		})
	}
	return cmds
}

// runService executes one service over path and renders the result to stdout.
func (a *app) runService(ctx context.Context, name, path string) error {
	sess, err := a.openSession(ctx, path, a.stdout, isTerminal(a.stdout))
	if err != nil {
		return err
	}
	p := sess.pipeline

	if sess.cfg.Verbose {
		fmt.Fprintln(a.stdout, orchestrator.FormatRunHeader(name, absOr(path)))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range p.Progress() {
			a.logger.Debug("pipeline: progress",
				zap.String("phase", ev.Section),
				zap.String("status", string(ev.Status)),
				zap.String("message", ev.Message))
		}
	}()

	res, err := p.Run(ctx, name, path)
	p.Close()
	<-done
	if n := p.DroppedProgress(); n > 0 {
		a.logger.Debug("pipeline: progress events dropped", zap.Int("count", n))
	}
	if err != nil {
		return err
	}
	if res.NoFiles() {
		fmt.Fprintf(a.stdout, "No supported files found in %s\n", path)
	}
	return nil
}

func pathArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func absOr(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
