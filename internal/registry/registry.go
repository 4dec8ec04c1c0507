package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobmcallan/calc-portal/internal/calculator"
	"github.com/bobmcallan/calc-portal/internal/common"
)

// Validator checks a raw request body against one tool's declared parameters.
type Validator interface {
	Validate(body []byte) (*calculator.Request, error)
}

// CompileFunc builds the request validator of a tool. It runs eagerly for
// every tool on each load.
type CompileFunc func(tool *ToolSpec) Validator

// Snapshot is one immutable generation of the registry: the loaded tools,
// their compiled validators, and the resolver that caches calculator
// instances for this generation.
type Snapshot struct {
	Generation uint64
	LoadedAt   time.Time
	Resolver   *calculator.Resolver

	tools      map[string]*ToolSpec
	ordered    []*ToolSpec
	validators map[string]Validator
}

// NewSnapshot assembles a snapshot from already validated tools.
func NewSnapshot(tools map[string]*ToolSpec, factories *calculator.Factories, compile CompileFunc) *Snapshot {
	s := &Snapshot{
		LoadedAt:   time.Now(),
		Resolver:   calculator.NewResolver(factories),
		tools:      tools,
		ordered:    make([]*ToolSpec, 0, len(tools)),
		validators: make(map[string]Validator, len(tools)),
	}
	for _, t := range tools {
		s.ordered = append(s.ordered, t)
		if compile != nil {
			s.validators[t.ID] = compile(t)
		}
	}
	sort.Slice(s.ordered, func(i, j int) bool { return s.ordered[i].ID < s.ordered[j].ID })
	return s
}

// Get returns the tool with the given id.
func (s *Snapshot) Get(id string) (*ToolSpec, bool) {
	t, ok := s.tools[id]
	return t, ok
}

// Validator returns the compiled validator of a tool.
func (s *Snapshot) Validator(id string) (Validator, bool) {
	v, ok := s.validators[id]
	return v, ok
}

// List returns all tools sorted by id.
func (s *Snapshot) List() []*ToolSpec {
	return s.ordered
}

// Summaries returns the listing entries of all tools, sorted by id.
func (s *Snapshot) Summaries() []Summary {
	out := make([]Summary, 0, len(s.ordered))
	for _, t := range s.ordered {
		out = append(out, Summary{ID: t.ID, DisplayName: t.DisplayName, Description: t.Description})
	}
	return out
}

// Len returns the number of tools.
func (s *Snapshot) Len() int {
	return len(s.ordered)
}

// Registry serves the current snapshot to concurrent readers and replaces it
// on Reload. Readers never block; reloads are serialized.
type Registry struct {
	dir       string
	factories *calculator.Factories
	compile   CompileFunc
	logger    *common.Logger

	current    atomic.Pointer[Snapshot]
	reloadMu   sync.Mutex
	generation uint64

	listenersMu sync.Mutex
	listeners   []func(*Snapshot)
}

// New creates a registry over the definitions in dir. Call Reload to load it.
func New(dir string, factories *calculator.Factories, compile CompileFunc, logger *common.Logger) *Registry {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Registry{
		dir:       dir,
		factories: factories,
		compile:   compile,
		logger:    logger,
	}
}

// Dir returns the definition directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Current returns the active snapshot, or nil before the first successful load.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// OnReload registers fn to be called with every newly installed snapshot.
func (r *Registry) OnReload(fn func(*Snapshot)) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, fn)
	r.listenersMu.Unlock()
}

// Reload loads the definition directory and installs a new snapshot. On
// failure the previous snapshot stays in place and the error is returned.
func (r *Registry) Reload() error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	start := time.Now()
	tools, err := LoadAll(r.dir, r.factories.Has)
	if err != nil {
		r.logger.Warn().Err(err).Str("dir", r.dir).Msg("Tool definition load failed, keeping previous registry")
		return fmt.Errorf("load tool definitions: %w", err)
	}

	snap := NewSnapshot(tools, r.factories, r.compile)
	r.generation++
	snap.Generation = r.generation
	r.current.Store(snap)

	r.logger.Info().
		Int("tools", snap.Len()).
		Str("dir", r.dir).
		Dur("elapsed", time.Since(start)).
		Msg("Tool registry loaded")

	r.listenersMu.Lock()
	listeners := append([]func(*Snapshot){}, r.listeners...)
	r.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}
