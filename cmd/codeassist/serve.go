package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/discovery"
	"github.com/dusk-indust/codeassist/internal/mcptools"
)

func newServeMCPCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-mcp [path]",
		Short: "Serve the services as MCP tools over stdio (or HTTP with --http)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// stdout carries the protocol; rendered results are dropped.
			sess, err := a.openSession(ctx, pathArg(args), io.Discard, false)
			if err != nil {
				return err
			}
			defer sess.pipeline.Close()

			// Progress is not consumed over MCP; drain it so nothing piles up.
			go func() {
				for range sess.pipeline.Progress() {
				}
			}()

			svc := mcptools.NewService(sess.pipeline, sess.normalizer, mcptools.Config{
				ResultsDir: sess.cfg.Path(sess.cfg.ResultsDir),
				Discovery: discovery.Options{
					MaxFiles:     sess.cfg.MaxFiles,
					ExcludeDirs:  sess.cfg.ExcludeDirs,
					ExcludePaths: sess.cfg.ArtifactDirs(sess.cfg.Dir),
				},
				Agents: sess.registry.Summary,
			})
			server := mcptools.NewServer(svc)

			if addr != "" {
				a.logger.Info("mcp: serving over HTTP", zap.String("addr", addr))
				return mcptools.RunHTTP(ctx, server, addr)
			}
			a.logger.Debug("mcp: serving over stdio")
			return mcptools.RunStdio(ctx, server)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address instead of stdio (e.g. :8080)")
	return cmd
}
