// Package registry maps sequence identifiers to factories.
// Demo packages register themselves in init() functions, allowing
// the loader and the CLI to discover and instantiate sequences without
// hardcoded dependencies.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/rastercade/internal/sequence"
)

// ErrUnknownSequence is returned by Create for identifiers nobody registered.
var ErrUnknownSequence = errors.New("registry: unknown sequence")

// Info contains metadata about a registered sequence.
type Info struct {
	ID          string
	Title       string
	Description string
}

// Factory creates a new sequence instance bound to an engine context.
type Factory func(ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error)

type entry struct {
	info    Info
	factory Factory
}

// Registry is a concurrency-safe set of sequence factories.
// It implements sequence.Resolver.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Default is the registry filled by init() functions.
var Default = New()

// Register adds a sequence factory.
// Panics if a sequence with the same ID is already registered.
func (r *Registry) Register(info Info, f Factory) {
	if info.ID == "" || f == nil {
		panic("registry: empty id or nil factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[info.ID]; exists {
		panic(fmt.Sprintf("registry: sequence %q already registered", info.ID))
	}
	if info.Title == "" {
		info.Title = info.ID
	}
	r.entries[info.ID] = entry{info: info, factory: f}
}

// List returns information about all registered sequences, sorted by ID.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e.info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a sequence by its ID.
func (r *Registry) Create(id string, ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSequence, id)
	}
	if ctx.Registry == nil {
		ctx.Registry = r
	}

	seq, err := e.factory(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("registry: create %q: %w", id, err)
	}
	return seq, nil
}

// Exists checks if a sequence with the given ID is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[id]
	return ok
}

// Register adds a factory to the Default registry.
func Register(info Info, f Factory) { Default.Register(info, f) }

// List returns the sequences of the Default registry.
func List() []Info { return Default.List() }

// Create instantiates a sequence from the Default registry.
func Create(id string, ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
	return Default.Create(id, ctx, args)
}

// Exists checks the Default registry.
func Exists(id string) bool { return Default.Exists(id) }
