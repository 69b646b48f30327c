package agent

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// BindingState reports how a capability ended up bound.
type BindingState int

const (
	Unresolved BindingState = iota
	BoundReal
	BoundFallback
)

func (s BindingState) String() string {
	switch s {
	case BoundReal:
		return "real"
	case BoundFallback:
		return "fallback"
	default:
		return "unresolved"
	}
}

// Binding is one attempt to bind a real implementation to a capability.
//
// Probe checks that whatever the implementation needs is present; a non-nil
// error means absent. Build constructs the implementation. A nil Probe is
// treated as always present.
type Binding struct {
	Capability Capability
	Name       string
	Probe      func() error
	Build      func() (any, error)
}

// Fallbacks holds the always-available implementation of every capability.
type Fallbacks struct {
	Parser        ParserAgent
	Output        OutputAgent
	Test          TestAgent
	Refactor      RefactorAgent
	Debug         DebugAgent
	Planner       PlannerAgent
	Documentation DocumentationAgent
}

func (f Fallbacks) byCapability() map[Capability]any {
	m := make(map[Capability]any, len(AllCapabilities))
	if f.Parser != nil {
		m[CapParser] = f.Parser
	}
	if f.Output != nil {
		m[CapOutput] = f.Output
	}
	if f.Test != nil {
		m[CapTest] = f.Test
	}
	if f.Refactor != nil {
		m[CapRefactor] = f.Refactor
	}
	if f.Debug != nil {
		m[CapDebug] = f.Debug
	}
	if f.Planner != nil {
		m[CapPlanner] = f.Planner
	}
	if f.Documentation != nil {
		m[CapDocumentation] = f.Documentation
	}
	return m
}

// Registry maps each capability to exactly one implementation. Getters never
// return nil: until a real binding succeeds the fallback is served.
type Registry struct {
	mu     sync.Mutex
	logger *zap.Logger
	agents map[Capability]any
	states map[Capability]BindingState
}

// NewRegistry creates a Registry serving the given fallbacks. Every
// capability must have a fallback.
func NewRegistry(logger *zap.Logger, fb Fallbacks) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	agents := fb.byCapability()

	var missing []error
	for _, c := range AllCapabilities {
		if _, ok := agents[c]; !ok {
			missing = append(missing, fmt.Errorf("no fallback for capability %q", c))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	states := make(map[Capability]BindingState, len(AllCapabilities))
	for _, c := range AllCapabilities {
		states[c] = Unresolved
	}
	return &Registry{logger: logger, agents: agents, states: states}, nil
}

// Resolve tries the bindings in order and binds the first one that passes
// all three stages for its capability. A capability that is already bound is
// left alone, so calling Resolve twice is harmless.
func (r *Registry) Resolve(bindings []Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byCap := make(map[Capability][]Binding)
	for _, b := range bindings {
		if _, known := r.states[b.Capability]; !known {
			r.logger.Debug("registry: ignore binding for unknown capability",
				zap.String("capability", string(b.Capability)),
				zap.String("binding", b.Name))
			continue
		}
		byCap[b.Capability] = append(byCap[b.Capability], b)
	}

	for _, c := range AllCapabilities {
		if r.states[c] != Unresolved {
			continue
		}
		r.states[c] = BoundFallback
		for _, b := range byCap[c] {
			impl, err := r.attempt(b)
			if err != nil {
				r.logger.Debug("registry: keep fallback",
					zap.String("capability", string(c)),
					zap.String("binding", b.Name),
					zap.Error(err))
				continue
			}
			r.agents[c] = impl
			r.states[c] = BoundReal
			r.logger.Debug("registry: bound",
				zap.String("capability", string(c)),
				zap.String("binding", b.Name))
			break
		}
	}
}

// attempt runs the presence, instantiation and binding stages for b.
func (r *Registry) attempt(b Binding) (impl any, err error) {
	if b.Probe != nil {
		if perr := safeProbe(b.Probe); perr != nil {
			return nil, fmt.Errorf("presence: %w", perr)
		}
	}
	if b.Build == nil {
		return nil, errors.New("instantiation: no constructor")
	}

	impl, err = safeBuild(b.Build)
	if err != nil {
		return nil, fmt.Errorf("instantiation: %w", err)
	}
	if impl == nil {
		return nil, errors.New("instantiation: constructor returned nil")
	}
	if !satisfies(b.Capability, impl) {
		return nil, fmt.Errorf("binding: %T does not implement the %s capability", impl, b.Capability)
	}
	return impl, nil
}

func safeProbe(probe func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("probe panicked: %v", rec)
		}
	}()
	return probe()
}

func safeBuild(build func() (any, error)) (impl any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			impl, err = nil, fmt.Errorf("constructor panicked: %v", rec)
		}
	}()
	return build()
}

func satisfies(c Capability, impl any) bool {
	var ok bool
	switch c {
	case CapParser:
		_, ok = impl.(ParserAgent)
	case CapOutput:
		_, ok = impl.(OutputAgent)
	case CapTest:
		_, ok = impl.(TestAgent)
	case CapRefactor:
		_, ok = impl.(RefactorAgent)
	case CapDebug:
		_, ok = impl.(DebugAgent)
	case CapPlanner:
		_, ok = impl.(PlannerAgent)
	case CapDocumentation:
		_, ok = impl.(DocumentationAgent)
	}
	return ok
}

// State reports how c is bound.
func (r *Registry) State(c Capability) BindingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[c]
}

func (r *Registry) get(c Capability) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[c]
}

func (r *Registry) Parser() ParserAgent               { return r.get(CapParser).(ParserAgent) }
func (r *Registry) Output() OutputAgent               { return r.get(CapOutput).(OutputAgent) }
func (r *Registry) Test() TestAgent                   { return r.get(CapTest).(TestAgent) }
func (r *Registry) Refactor() RefactorAgent           { return r.get(CapRefactor).(RefactorAgent) }
func (r *Registry) Debug() DebugAgent                 { return r.get(CapDebug).(DebugAgent) }
func (r *Registry) Planner() PlannerAgent             { return r.get(CapPlanner).(PlannerAgent) }
func (r *Registry) Documentation() DocumentationAgent { return r.get(CapDocumentation).(DocumentationAgent) }

// SummaryEntry describes one capability binding.
type SummaryEntry struct {
	Capability Capability   `json:"capability"`
	Agent      string       `json:"agent"`
	State      BindingState `json:"-"`
	StateName  string       `json:"state"`
}

// Summary lists every capability with the agent serving it.
func (r *Registry) Summary() []SummaryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SummaryEntry, 0, len(AllCapabilities))
	for _, c := range AllCapabilities {
		name := "?"
		if n, ok := r.agents[c].(interface{ Name() string }); ok {
			name = n.Name()
		}
		st := r.states[c]
		out = append(out, SummaryEntry{Capability: c, Agent: name, State: st, StateName: st.String()})
	}
	return out
}
