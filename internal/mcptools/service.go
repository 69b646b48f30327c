package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/discovery"
	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/orchestrator"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/status"
)

// Config holds the settings the tool handlers share.
type Config struct {
	// ResultsDir is where run dumps are saved and read back by get_status.
	ResultsDir string

	// Discovery bounds parse_files. MaxFiles is overridden per call.
	Discovery discovery.Options

	// Agents reports the current capability bindings. Nil lists nothing.
	Agents func() []agent.SummaryEntry
}

// Service handles MCP tool calls. It wraps an Orchestrator for service runs
// and reads saved dumps for status queries.
type Service struct {
	pipeline   orchestrator.Orchestrator
	normalizer *parser.Normalizer
	cfg        Config

	// mu serializes runs; generated artifacts share fixed output paths.
	mu sync.Mutex
}

// NewService creates a Service.
func NewService(pipeline orchestrator.Orchestrator, normalizer *parser.Normalizer, cfg Config) *Service {
	return &Service{
		pipeline:   pipeline,
		normalizer: normalizer,
		cfg:        cfg,
	}
}

// RunService runs one service over a path and returns its envelope.
func (s *Service) RunService(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunServiceInput,
) (*mcp.CallToolResult, RunServiceOutput, error) {
	name := orchestrator.Normalize(input.Service)
	if name == "" {
		return nil, RunServiceOutput{}, errors.New("service is required")
	}

	s.mu.Lock()
	res, err := s.pipeline.Run(ctx, name, input.Path)
	s.mu.Unlock()

	out := RunServiceOutput{Service: name, Files: orEmpty(res.Files)}
	if err != nil {
		out.Status = "failed"
		out.Message = err.Error()
		return nil, out, nil
	}
	if res.NoFiles() {
		out.Status = "no_files"
		out.Message = "No supported files found in " + res.Root
		return nil, out, nil
	}

	result, err := envelopeMap(res.Envelope)
	if err != nil {
		return nil, out, fmt.Errorf("encode result: %w", err)
	}
	out.Status = string(res.Envelope.Status)
	out.Message = res.Envelope.Message
	out.Error = res.Envelope.Error
	out.SavedTo = res.SavedTo
	out.Result = result
	return nil, out, nil
}

// ListServices lists the canonical services in menu order.
func (s *Service) ListServices(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListServicesInput,
) (*mcp.CallToolResult, ListServicesOutput, error) {
	infos := orchestrator.Services()
	out := ListServicesOutput{Services: make([]ServiceSummary, 0, len(infos))}
	for _, info := range infos {
		out.Services = append(out.Services, ServiceSummary{
			Name:        info.Name,
			Title:       info.Title,
			Description: info.Description,
		})
	}
	return nil, out, nil
}

// ParseFiles discovers and parses files without running a service.
func (s *Service) ParseFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ParseFilesInput,
) (*mcp.CallToolResult, ParseFilesOutput, error) {
	path := input.Path
	if path == "" {
		path = "."
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, ParseFilesOutput{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	if input.MaxFiles < 0 {
		return nil, ParseFilesOutput{}, fmt.Errorf("maxFiles must not be negative, got %d", input.MaxFiles)
	}

	opts := s.cfg.Discovery
	if input.MaxFiles > 0 {
		opts.MaxFiles = input.MaxFiles
	}
	paths, err := discovery.Discover(root, opts)
	if err != nil {
		return nil, ParseFilesOutput{}, err
	}

	set := s.normalizer.ParseAll(ctx, paths)
	out := ParseFilesOutput{Files: make([]FileSummary, 0, set.Len())}
	for _, rec := range set.Records() {
		out.Files = append(out.Files, FileSummary{
			Path:      rec.Path,
			Language:  string(rec.Language),
			Lines:     rec.Lines,
			Parsed:    rec.Parsed,
			Error:     rec.Error,
			Classes:   factNames(rec.Classes),
			Functions: factNames(rec.Functions),
			Imports:   len(rec.Imports),
		})
	}
	return nil, out, nil
}

// GetStatus summarizes the saved result dumps.
func (s *Service) GetStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	dir := input.ResultsDir
	if dir == "" {
		dir = s.cfg.ResultsDir
	}
	report, err := status.ScanResults(dir)
	if err != nil {
		return nil, GetStatusOutput{}, fmt.Errorf("scan results: %w", err)
	}

	out := GetStatusOutput{
		ResultsDir: report.Dir,
		Runs:       make([]SavedRun, 0, len(report.Runs)),
		Missing:    orEmpty(report.Missing),
	}
	for _, run := range report.Runs {
		saved := SavedRun{
			Service: run.Service,
			Status:  run.Status,
			Message: run.Message,
			Error:   run.Error,
			RunID:   run.RunID,
			File:    run.FilePath,
		}
		if !run.SavedAt.IsZero() {
			saved.SavedAt = run.SavedAt.UTC().Format(time.RFC3339)
		}
		out.Runs = append(out.Runs, saved)
	}
	for file := range report.Unreadable {
		out.Unreadable = append(out.Unreadable, file)
	}
	sort.Strings(out.Unreadable)
	return nil, out, nil
}

// ListAgents reports which agent serves each capability.
func (s *Service) ListAgents(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListAgentsInput,
) (*mcp.CallToolResult, ListAgentsOutput, error) {
	out := ListAgentsOutput{Agents: []AgentBinding{}}
	if s.cfg.Agents == nil {
		return nil, out, nil
	}
	for _, e := range s.cfg.Agents() {
		out.Agents = append(out.Agents, AgentBinding{
			Capability: string(e.Capability),
			Agent:      e.Agent,
			State:      e.StateName,
		})
	}
	return nil, out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// envelopeMap flattens an envelope into the JSON object its dump would hold.
func envelopeMap(env envelope.Envelope) (map[string]any, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func factNames(facts []parser.Fact) []string {
	names := make([]string, 0, len(facts))
	for _, f := range facts {
		names = append(names, strings.TrimSpace(f.Name))
	}
	return names
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
