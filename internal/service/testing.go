package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/runner"
)

var _ Handler = (*TestingHandler)(nil)

// TestingHandler generates and runs tests file by file.
type TestingHandler struct {
	tester agent.TestAgent
	logger *zap.Logger
}

// NewTestingHandler creates a TestingHandler.
func NewTestingHandler(tester agent.TestAgent, logger *zap.Logger) *TestingHandler {
	return &TestingHandler{tester: tester, logger: nopIfNil(logger)}
}

func (h *TestingHandler) Name() string { return Testing }

// Handle calls the test agent for every parsed record with structure.
func (h *TestingHandler) Handle(ctx context.Context, set parser.Set, projectPath string) envelope.Envelope {
	var (
		processed, generated, passed, failed int
		testFiles                            = []string{}
		execution                            = map[string]*runner.Result{}
		errs                                 = []string{}
		status                               = ""
		attempted, unavailable               int
		firstUnavailable                     error
	)

	for _, rec := range set.Parsed() {
		if !rec.HasStructure() {
			continue
		}
		if msg, stop := interrupted(ctx); stop {
			errs = append(errs, msg)
			break
		}
		attempted++

		outcome, err := h.tester.GenerateTests(ctx, rec)
		if err != nil {
			if errors.Is(err, agent.ErrAgentUnavailable) {
				unavailable++
				if firstUnavailable == nil {
					firstUnavailable = err
				}
			}
			h.logger.Debug("testing: file failed", zap.String("path", rec.Path), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", rec.Path, err))
			continue
		}

		processed++
		generated += outcome.TestsGenerated
		passed += outcome.Passed
		failed += outcome.Failed
		testFiles = append(testFiles, outcome.TestFile)
		if outcome.Execution != nil {
			execution[rec.Path] = outcome.Execution
		}
		if status == "" {
			status = outcome.LLMStatus
		}
	}

	if attempted > 0 && unavailable == attempted {
		return envelope.Failed(Testing, projectPath, "Test generation is not available in this environment.",
			fmt.Errorf("testing: %w", firstUnavailable))
	}
	if status == "" {
		status = agentLLMStatus(h.tester)
	}

	return envelope.Completed(Testing, projectPath,
		fmt.Sprintf("Generated %d tests for %d files", generated, processed),
		map[string]any{
			"files_processed":   processed,
			"tests_generated":   generated,
			"tests_passed":      passed,
			"tests_failed":      failed,
			"test_files":        testFiles,
			"execution_results": execution,
			"errors":            errs,
			"llm_status":        status,
		})
}

// agentLLMStatus asks the agent for its LLM status when no outcome carried one.
func agentLLMStatus(a agent.TestAgent) string {
	if r, ok := a.(interface{ LLMStatus() string }); ok {
		return r.LLMStatus()
	}
	return agent.LLMUnavailable
}
