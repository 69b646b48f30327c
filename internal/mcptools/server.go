// Package mcptools exposes the assistant services as MCP tools.
package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the codeassist tools registered:
// run_service, list_services, parse_files, get_status and list_agents.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codeassist",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_service",
		Description: "Run one assistant service (testing, refactoring, debugging, documentation, analysis, planning) over a file or directory and return its result.",
	}, svc.RunService)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_services",
		Description: "List the available assistant services.",
	}, svc.ListServices)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_files",
		Description: "Discover and parse source files, returning the classes, functions and imports found in each.",
	}, svc.ParseFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Summarize the saved results of earlier service runs.",
	}, svc.GetStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_agents",
		Description: "Show which agent serves each capability and whether it is an LLM, plugin or fallback.",
	}, svc.ListAgents)

	return server
}

// RunStdio runs the server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
