package orchestrator

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/service"
)

// aliases maps every accepted spelling to a canonical service name.
var aliases = map[string]string{
	"1": service.Testing, "t": service.Testing, "test": service.Testing, "testing": service.Testing,
	"2": service.Refactoring, "r": service.Refactoring, "refactor": service.Refactoring, "refactoring": service.Refactoring,
	"3": service.Debugging, "d": service.Debugging, "debug": service.Debugging, "debugging": service.Debugging,
	"4": service.Documentation, "doc": service.Documentation, "docs": service.Documentation, "documentation": service.Documentation,
	"5": service.Analysis, "a": service.Analysis, "analyze": service.Analysis, "analysis": service.Analysis,
	"6": service.Planning, "p": service.Planning, "plan": service.Planning, "planning": service.Planning,
}

// Normalize maps user input to a canonical service name. Unknown input is
// returned trimmed and lower-cased. Normalize(Normalize(x)) == Normalize(x).
func Normalize(input string) string {
	key := strings.ToLower(strings.TrimSpace(input))
	if name, ok := aliases[key]; ok {
		return name
	}
	return key
}

// Info is how a service is shown in menus and headers.
type Info struct {
	Name        string
	Title       string
	Icon        string
	Description string
}

var serviceInfo = map[string]Info{
	service.Testing:       {service.Testing, "Testing", "🧪", "Generate and run tests"},
	service.Refactoring:   {service.Refactoring, "Refactoring", "🔧", "Find code smells and refactoring opportunities"},
	service.Debugging:     {service.Debugging, "Debugging", "🐛", "Look for likely bugs and leftovers"},
	service.Documentation: {service.Documentation, "Documentation", "📚", "Write markdown documentation per file"},
	service.Analysis:      {service.Analysis, "Analysis", "📊", "Summarize languages and structure"},
	service.Planning:      {service.Planning, "Planning", "📋", "Derive a task list for the project"},
}

// ServiceInfo returns display details for a service. Unknown names get a
// generic entry.
func ServiceInfo(name string) Info {
	if info, ok := serviceInfo[Normalize(name)]; ok {
		return info
	}
	return Info{Name: name, Title: name, Icon: "•", Description: "No dedicated workflow"}
}

// Services returns the canonical services in menu order.
func Services() []Info {
	out := make([]Info, 0, len(service.Canonical))
	for _, name := range service.Canonical {
		out = append(out, serviceInfo[name])
	}
	return out
}

// Router maps canonical service names to their handlers.
type Router struct {
	handlers map[string]service.Handler
}

// NewRouter creates a Router with an empty handler registry.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]service.Handler)}
}

// RegisterHandler associates a handler with a canonical service name.
func (r *Router) RegisterHandler(name string, h service.Handler) {
	r.handlers[Normalize(name)] = service.Safe(h)
}

// Handler looks up the handler registered for name.
func (r *Router) Handler(name string) (service.Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Route normalizes input and returns its handler. Names without a
// registered handler get the generic handler.
func (r *Router) Route(input string) service.Handler {
	name := Normalize(input)
	if h, ok := r.Handler(name); ok {
		return h
	}
	return service.Safe(service.GenericHandler{Service: name})
}

// Registered returns the registered service names, sorted.
func (r *Router) Registered() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandlerConfig carries what the handlers need besides their agents.
type HandlerConfig struct {
	DocsDir     string
	MinDocLines int
	Logger      *zap.Logger
}

// NewServiceRouter registers the six workflows backed by the agents in reg.
func NewServiceRouter(reg *agent.Registry, cfg HandlerConfig) *Router {
	r := NewRouter()
	r.RegisterHandler(service.Testing, service.NewTestingHandler(reg.Test(), cfg.Logger))
	r.RegisterHandler(service.Refactoring, service.NewRefactoringHandler(reg.Refactor()))
	r.RegisterHandler(service.Debugging, service.NewDebuggingHandler(reg.Debug()))
	r.RegisterHandler(service.Documentation,
		service.NewDocumentationHandler(reg.Documentation(), cfg.DocsDir, cfg.MinDocLines, cfg.Logger))
	r.RegisterHandler(service.Analysis, service.AnalysisHandler{})
	r.RegisterHandler(service.Planning, service.NewPlanningHandler(reg.Planner()))
	return r
}
