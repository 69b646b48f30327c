// Package runner executes generated test files with the language toolchain
// that happens to be installed. Each runner tries an ordered list of
// strategies and falls back to a structural estimate when no toolchain
// binary exists.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/parser"
)

// MaxTimeout caps every subprocess invocation.
const MaxTimeout = 60 * time.Second

// ErrToolchainMissing is logged when none of a runner's binaries are on PATH.
var ErrToolchainMissing = errors.New("runner: toolchain not installed")

// Request describes one test file to execute.
type Request struct {
	TestFile string
	WorkDir  string   // working directory for the subprocess; empty means the test file's dir
	Env      []string // extra KEY=VALUE pairs
}

// Result is the outcome of executing one test file.
type Result struct {
	Success   bool    `json:"success"`
	Method    string  `json:"method"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Skipped   int     `json:"skipped"`
	Duration  float64 `json:"duration_seconds"`
	Simulated bool    `json:"simulated,omitempty"`
	TimedOut  bool    `json:"timed_out,omitempty"`
	Error     string  `json:"error,omitempty"`
	Output    string  `json:"output,omitempty"`
}

// Runner executes a test file and never returns an error: failures are
// described in the Result.
type Runner interface {
	Run(ctx context.Context, req Request) Result
	Language() parser.Language
}

// execResult is what a strategy sees after its command finished.
type execResult struct {
	output   string
	exitCode int
}

// strategy is one way of running a test file.
type strategy struct {
	name string
	// binaries are candidates for the executable; the first one on PATH wins.
	binaries []string
	args     func(testFile string) []string
	// interpret turns process output into a Result. ok=false means the
	// strategy could not run the tests and the next one should be tried.
	interpret func(res execResult, testFile string) (Result, bool)
}

// execFunc runs a command and returns its combined output and exit code.
type execFunc func(ctx context.Context, dir string, env []string, name string, args ...string) (execResult, error)

// StrategyRunner runs strategies in order until one succeeds.
type StrategyRunner struct {
	lang       parser.Language
	strategies []strategy
	timeout    time.Duration
	logger     *zap.Logger

	lookPath func(string) (string, error)
	exec     execFunc
}

// Compile-time check.
var _ Runner = (*StrategyRunner)(nil)

// Option configures a StrategyRunner.
type Option func(*StrategyRunner)

// WithTimeout sets the per-invocation timeout, capped at MaxTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *StrategyRunner) {
		if d > 0 && d <= MaxTimeout {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *StrategyRunner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns the runner for lang. Unknown languages get a runner with no
// strategies, which always yields a simulated result.
func New(lang parser.Language, opts ...Option) *StrategyRunner {
	r := &StrategyRunner{
		lang:     lang,
		timeout:  MaxTimeout,
		logger:   zap.NewNop(),
		lookPath: exec.LookPath,
		exec:     runCommand,
	}
	switch lang {
	case parser.LangPython:
		r.strategies = pythonStrategies()
	case parser.LangJavaScript:
		r.strategies = jsStrategies()
	case parser.LangJava:
		r.strategies = javaStrategies()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Language returns the language this runner executes.
func (r *StrategyRunner) Language() parser.Language { return r.lang }

// Run tries each strategy whose binary is installed. A timeout stops the
// run and is reported as a failed result. When no binary is installed at
// all the result is estimated from the test file's structure.
func (r *StrategyRunner) Run(ctx context.Context, req Request) Result {
	workDir := req.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(req.TestFile)
	}

	var attempted []string
	for _, s := range r.strategies {
		bin, ok := r.resolve(s.binaries)
		if !ok {
			continue
		}
		attempted = append(attempted, s.name)

		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		res, err := r.exec(callCtx, workDir, req.Env, bin, s.args(req.TestFile)...)
		timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
		cancel()
		elapsed := time.Since(start).Seconds()

		if timedOut {
			r.logger.Warn("runner: timed out",
				zap.String("strategy", s.name),
				zap.String("file", req.TestFile),
				zap.Duration("timeout", r.timeout))
			return Result{
				Method:   s.name,
				Duration: elapsed,
				TimedOut: true,
				Error:    fmt.Sprintf("%s timed out after %s", s.name, r.timeout),
				Output:   truncate(res.output),
			}
		}
		if ctx.Err() != nil {
			return Result{Method: s.name, Duration: elapsed, Error: ctx.Err().Error()}
		}
		if err != nil {
			r.logger.Debug("runner: strategy failed to start",
				zap.String("strategy", s.name), zap.Error(err))
			continue
		}

		result, ok := s.interpret(res, req.TestFile)
		if !ok {
			r.logger.Debug("runner: strategy could not run tests",
				zap.String("strategy", s.name),
				zap.Int("exitCode", res.exitCode))
			continue
		}
		result.Method = s.name
		result.Duration = elapsed
		result.Output = truncate(res.output)
		return result
	}

	if len(attempted) == 0 {
		r.logger.Debug("runner: using structural estimate",
			zap.String("language", string(r.lang)),
			zap.Error(ErrToolchainMissing))
		return r.simulate(req.TestFile)
	}

	return Result{
		Method: attempted[len(attempted)-1],
		Error:  "all test execution strategies failed: " + strings.Join(attempted, ", "),
	}
}

func (r *StrategyRunner) resolve(candidates []string) (string, bool) {
	for _, c := range candidates {
		if p, err := r.lookPath(c); err == nil {
			return p, true
		}
	}
	return "", false
}

// simulate reports the number of tests found in the file as skipped.
func (r *StrategyRunner) simulate(testFile string) Result {
	data, err := os.ReadFile(testFile)
	if err != nil {
		return Result{
			Method:    "structure_analysis",
			Simulated: true,
			Error:     fmt.Sprintf("read %s: %v", testFile, err),
		}
	}
	return Result{
		Success:   true,
		Method:    "structure_analysis",
		Skipped:   CountTests(string(data), r.lang),
		Simulated: true,
	}
}

// runCommand is the production execFunc.
func runCommand(ctx context.Context, dir string, env []string, name string, args ...string) (execResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := execResult{output: out.String(), exitCode: 0}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.exitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

const maxOutput = 4000

func truncate(s string) string {
	if len(s) <= maxOutput {
		return s
	}
	return s[:maxOutput] + "\n... (truncated)"
}
