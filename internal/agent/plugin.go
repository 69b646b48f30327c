package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/runner"
)

// Compile-time checks.
var (
	_ RefactorAgent = (*PluginRefactor)(nil)
	_ DebugAgent    = (*PluginDebug)(nil)
)

// DefaultPluginTimeout applies when a descriptor sets no timeout.
const DefaultPluginTimeout = 30 * time.Second

// PluginDescriptor declares an external reviewer. It is read from
// <pluginDir>/<capability>.toml:
//
//	[agent]
//	name = "semgrep"
//	command = "semgrep-review"
//	args = ["--quiet"]
//	timeout = "20s"
type PluginDescriptor struct {
	Name    string            `toml:"name"`
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Timeout string            `toml:"timeout"`
	Env     map[string]string `toml:"env"`

	timeout time.Duration
}

type pluginFile struct {
	Agent PluginDescriptor `toml:"agent"`
}

// DescriptorPath returns where the descriptor for c lives under dir.
func DescriptorPath(dir string, c Capability) string {
	return filepath.Join(dir, string(c)+".toml")
}

// LoadPlugin reads and validates the descriptor for c.
func LoadPlugin(dir string, c Capability) (PluginDescriptor, error) {
	path := DescriptorPath(dir, c)
	var f pluginFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return PluginDescriptor{}, fmt.Errorf("plugin: parse %s: %w", path, err)
	}

	d := f.Agent
	if d.Command == "" {
		return PluginDescriptor{}, fmt.Errorf("plugin: %s: command is required", path)
	}
	if d.Name == "" {
		d.Name = filepath.Base(d.Command)
	}
	d.timeout = DefaultPluginTimeout
	if d.Timeout != "" {
		t, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return PluginDescriptor{}, fmt.Errorf("plugin: %s: timeout: %w", path, err)
		}
		d.timeout = t
	}
	if d.timeout <= 0 || d.timeout > runner.MaxTimeout {
		d.timeout = runner.MaxTimeout
	}
	return d, nil
}

// ErrNoPluginDir is returned by ProbePlugin when no plugin directory is set.
var ErrNoPluginDir = errors.New("plugin: no plugin directory")

// ProbePlugin checks that the descriptor for c decodes and its command is on PATH.
func ProbePlugin(dir string, c Capability) error {
	if dir == "" {
		return ErrNoPluginDir
	}
	d, err := LoadPlugin(dir, c)
	if err != nil {
		return err
	}
	if _, err := exec.LookPath(d.Command); err != nil {
		return fmt.Errorf("plugin: %s: %w", d.Name, err)
	}
	return nil
}

// pluginFinding is one entry of a plugin's answer.
type pluginFinding struct {
	Type     string `json:"type"`
	Location string `json:"location"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

type pluginRequest struct {
	Capability Capability      `json:"capability"`
	Files      []parser.Record `json:"files"`
}

type pluginResponse struct {
	Findings []pluginFinding `json:"findings"`
}

// invoke pipes the parsed set to the plugin and decodes its findings.
func (d PluginDescriptor) invoke(ctx context.Context, c Capability, set parser.Set, logger *zap.Logger) ([]pluginFinding, error) {
	payload, err := json.Marshal(pluginRequest{Capability: c, Files: set.Parsed()})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.Command, d.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if len(d.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range d.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("plugin: finished",
		zap.String("plugin", d.Name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("timed out after %s", d.timeout)
	}
	if runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, runErr
		}
		return nil, fmt.Errorf("%w: %s", runErr, msg)
	}

	var resp pluginResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return resp.Findings, nil
}

// PluginRefactor runs the built-in heuristics and appends an external
// reviewer's findings as code smells.
type PluginRefactor struct {
	builtin *HeuristicRefactor
	plugin  PluginDescriptor
	logger  *zap.Logger
}

// NewPluginRefactor loads the refactor descriptor from dir.
func NewPluginRefactor(dir string, limits Thresholds, logger *zap.Logger) (*PluginRefactor, error) {
	d, err := LoadPlugin(dir, CapRefactor)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginRefactor{builtin: NewHeuristicRefactor(limits), plugin: d, logger: logger}, nil
}

func (p *PluginRefactor) Name() string { return "plugin-refactor(" + p.plugin.Name + ")" }

// Review never fails: a plugin error is recorded in the report.
func (p *PluginRefactor) Review(ctx context.Context, set parser.Set) RefactorReport {
	report := p.builtin.Review(ctx, set)

	findings, err := p.plugin.invoke(ctx, CapRefactor, set, p.logger)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("plugin %s: %v", p.plugin.Name, err))
		return report
	}
	for _, f := range findings {
		report.Smells = append(report.Smells, Smell{Type: f.Type, Location: f.Location, Description: f.Message})
	}
	if len(findings) > 0 {
		report.RecommendedActions = append(report.RecommendedActions, "Review findings reported by "+p.plugin.Name)
	}
	return report
}

// PluginDebug runs the built-in heuristics and appends an external
// inspector's findings. Findings with severity "bug" or "error" count as
// potential bugs; the rest are warnings.
type PluginDebug struct {
	builtin *HeuristicDebug
	plugin  PluginDescriptor
	logger  *zap.Logger
}

// NewPluginDebug loads the debug descriptor from dir.
func NewPluginDebug(dir string, limits Thresholds, logger *zap.Logger) (*PluginDebug, error) {
	d, err := LoadPlugin(dir, CapDebug)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginDebug{builtin: NewHeuristicDebug(limits), plugin: d, logger: logger}, nil
}

func (p *PluginDebug) Name() string { return "plugin-debug(" + p.plugin.Name + ")" }

// Inspect never fails: a plugin error is recorded in the report.
func (p *PluginDebug) Inspect(ctx context.Context, set parser.Set) DebugReport {
	report := p.builtin.Inspect(ctx, set)

	findings, err := p.plugin.invoke(ctx, CapDebug, set, p.logger)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("plugin %s: %v", p.plugin.Name, err))
		return report
	}
	for _, f := range findings {
		finding := Finding{Type: f.Type, Location: f.Location, Message: f.Message}
		switch strings.ToLower(f.Severity) {
		case "bug", "error":
			report.PotentialBugs = append(report.PotentialBugs, finding)
		default:
			report.Warnings = append(report.Warnings, finding)
		}
	}
	if len(findings) > 0 {
		report.RecommendedActions = append(report.RecommendedActions, "Review findings reported by "+p.plugin.Name)
	}
	return report
}
