package orchestrator

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/service"
)

// mockHandler is a test double for service.Handler that records calls.
type mockHandler struct {
	name   string
	called int
	panics bool
}

func (m *mockHandler) Name() string { return m.name }

func (m *mockHandler) Handle(_ context.Context, set parser.Set, projectPath string) envelope.Envelope {
	m.called++
	if m.panics {
		panic("handler exploded")
	}
	return envelope.Completed(m.name, projectPath, "ok", map[string]any{"files": set.Len()})
}

func TestNormalize_Aliases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1", "testing"}, {"t", "testing"}, {"test", "testing"}, {"testing", "testing"},
		{"2", "refactoring"}, {"r", "refactoring"}, {"refactor", "refactoring"},
		{"3", "debugging"}, {"d", "debugging"}, {"debug", "debugging"},
		{"4", "documentation"}, {"doc", "documentation"}, {"docs", "documentation"},
		{"5", "analysis"}, {"a", "analysis"}, {"analyze", "analysis"},
		{"6", "planning"}, {"p", "planning"}, {"plan", "planning"},
		{"  TEST  ", "testing"},
		{"Docs", "documentation"},
		{"Security", "security"},
		{"  ", ""},
		{"7", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"1", "T", "docs", " Plan ", "analysis", "unknown-thing", "", "  MiXeD  "}
	for key := range aliases {
		inputs = append(inputs, key, " "+key+" ")
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_CoversCanonicalNames(t *testing.T) {
	for _, name := range service.Canonical {
		assert.Equal(t, name, Normalize(name))
	}
}

func TestRouter_RegisteredHandler(t *testing.T) {
	router := NewRouter()
	h := &mockHandler{name: "analysis"}
	router.RegisterHandler("analysis", h)

	got, ok := router.Handler("analysis")
	require.True(t, ok)
	env := got.Handle(context.Background(), parser.Set{}, "/p")
	assert.Equal(t, envelope.StatusCompleted, env.Status)
	assert.Equal(t, 1, h.called)

	routed := router.Route(" 5 ")
	routed.Handle(context.Background(), parser.Set{}, "/p")
	assert.Equal(t, 2, h.called, "aliases reach the registered handler")
	assert.Equal(t, []string{"analysis"}, router.Registered())
}

func TestRouter_UnknownServiceGetsGenericHandler(t *testing.T) {
	router := NewRouter()

	_, ok := router.Handler("security")
	assert.False(t, ok)

	h := router.Route("Security")
	assert.Equal(t, "security", h.Name())

	env := h.Handle(context.Background(), parser.Set{}, "/p")
	assert.Equal(t, "security", env.Service)
	assert.Equal(t, envelope.StatusCompleted, env.Status)
}

func TestRouter_HandlerPanicBecomesFailedEnvelope(t *testing.T) {
	router := NewRouter()
	router.RegisterHandler("testing", &mockHandler{name: "testing", panics: true})

	env := router.Route("t").Handle(context.Background(), parser.Set{}, "/p")
	assert.Equal(t, envelope.StatusFailed, env.Status)
	assert.Equal(t, "testing handler: unexpected failure: handler exploded", env.Error)
}

func TestNewServiceRouter_RegistersAllServices(t *testing.T) {
	reg, err := agent.NewRegistry(nil, agent.DefaultFallbacks(agent.Deps{
		Out:       &bytes.Buffer{},
		TestsDir:  t.TempDir(),
		DocsDir:   t.TempDir(),
		PluginDir: t.TempDir(),
	}))
	require.NoError(t, err)

	router := NewServiceRouter(reg, HandlerConfig{DocsDir: t.TempDir()})
	assert.ElementsMatch(t, service.Canonical, router.Registered())

	for _, name := range service.Canonical {
		h, ok := router.Handler(name)
		require.True(t, ok, name)
		assert.Equal(t, name, h.Name())
	}
}

func TestServiceInfo(t *testing.T) {
	assert.Equal(t, "🧪", ServiceInfo("testing").Icon)
	assert.Equal(t, "🔧", ServiceInfo("r").Icon)
	assert.Equal(t, "🐛", ServiceInfo("debugging").Icon)
	assert.Equal(t, "📚", ServiceInfo("docs").Icon)
	assert.Equal(t, "📊", ServiceInfo("analysis").Icon)
	assert.Equal(t, "📋", ServiceInfo("plan").Icon)

	unknown := ServiceInfo("security")
	assert.Equal(t, "security", unknown.Title)

	services := Services()
	require.Len(t, services, 6)
	assert.Equal(t, "testing", services[0].Name)
	assert.Equal(t, "planning", services[5].Name)
}
