package hook

import (
	"fmt"
	"slices"
	"sync"

	"github.com/fieldwatch/fieldwatch/internal/field"
)

// Registry is the process-wide table of declared hooks, scoped per object
// type. It has two phases: a registration phase, during which Add appends
// validated descriptors to a per-type pending list, and a dispatch phase,
// entered the first time a type's hooks are looked up, after which the
// type's table is immutable and shared by all its instances.
//
// The per-type build runs at most once under concurrent first use
// (sync.Once), and rebuilding from the same declarations always yields the
// same ordered sequence: sorting is stable over the declaration-order
// counter, never over an unordered collection.
//
// Own the registry at the application root and pass it to the dispatcher;
// it is deliberately not a package-level singleton.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*typeEntry
}

type typeEntry struct {
	schema  *field.Schema
	pending []*Descriptor
	nextSeq int
	frozen  bool // guarded by Registry.mu

	buildOnce sync.Once
	built     map[Trigger][]*Descriptor // immutable after buildOnce
	watchSet  []string                  // immutable after buildOnce
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*typeEntry)}
}

// Add declares a hook for the schema's type. The declaration is validated
// now: unknown triggers, paths missing from the schema, value constraints
// without a watch path, and nil handlers are all registration errors, never
// dispatch-time failures. Duplicate priorities are not an error.
//
// Declaring the same handler under several Add calls is the stacked-hooks
// pattern: each call produces an independent descriptor with its own
// trigger, condition and ordering.
func (r *Registry) Add(schema *field.Schema, name string, trigger Trigger, h Handler, opts ...Option) error {
	if schema == nil || schema.Name == "" {
		return &RegistrationError{
			Code: ErrCodeMalformed, Hook: name,
			Message: "schema is required",
		}
	}
	if !trigger.Valid() {
		return &RegistrationError{
			Code: ErrCodeInvalidTrigger, TypeName: schema.Name, Hook: name,
			Message: fmt.Sprintf("unknown trigger %q", trigger),
		}
	}
	if h == nil {
		return &RegistrationError{
			Code: ErrCodeMalformed, TypeName: schema.Name, Hook: name,
			Message: "handler is required",
		}
	}

	d := &Descriptor{Name: name, Trigger: trigger, Handler: h}
	for _, opt := range opts {
		opt(d)
	}

	if d.Watch == "" && (d.hasWas || d.hasIsNow || d.requireChanged) {
		return &RegistrationError{
			Code: ErrCodeMalformed, TypeName: schema.Name, Hook: name,
			Message: "value constraints require a watch path",
		}
	}
	for _, p := range d.watchPaths() {
		if err := schema.ValidatePath(p); err != nil {
			return &RegistrationError{
				Code: ErrCodeUnknownPath, TypeName: schema.Name, Hook: name, Path: p,
				Message: err.Error(),
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.types[schema.Name]
	if !ok {
		entry = &typeEntry{schema: schema}
		r.types[schema.Name] = entry
	}
	if entry.frozen {
		return &RegistrationError{
			Code: ErrCodeFrozen, TypeName: schema.Name, Hook: name,
			Message: "type table already built; register hooks before first dispatch",
		}
	}
	d.seq = entry.nextSeq
	entry.nextSeq++
	entry.pending = append(entry.pending, d)
	return nil
}

// MustAdd is Add that panics on error. Hook declarations are part of a
// program's static shape, so failing at startup is the right default.
func (r *Registry) MustAdd(schema *field.Schema, name string, trigger Trigger, h Handler, opts ...Option) {
	if err := r.Add(schema, name, trigger, h, opts...); err != nil {
		panic(err)
	}
}

// Hooks returns the descriptors for (type, trigger) sorted by priority
// descending, declaration order ascending. The first call for a type builds
// and freezes its table; the returned slice is shared and must not be
// mutated.
func (r *Registry) Hooks(typeName string, trigger Trigger) []*Descriptor {
	entry := r.entry(typeName)
	if entry == nil {
		return nil
	}
	r.build(entry)
	return entry.built[trigger]
}

// WatchSet returns the distinct field paths referenced by any of the type's
// descriptors, sorted for deterministic snapshots. Building the watch set
// freezes the type's table.
func (r *Registry) WatchSet(typeName string) []string {
	entry := r.entry(typeName)
	if entry == nil {
		return nil
	}
	r.build(entry)
	return entry.watchSet
}

// Schema returns the schema registered for a type name, or nil.
func (r *Registry) Schema(typeName string) *field.Schema {
	entry := r.entry(typeName)
	if entry == nil {
		return nil
	}
	return entry.schema
}

// TypeNames returns the registered type names in sorted order.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) entry(typeName string) *typeEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[typeName]
}

// build sorts the pending list into the per-trigger table and derives the
// watch set. Guarded by sync.Once: concurrent first dispatches build at most
// one table, and the table never changes afterwards.
func (r *Registry) build(e *typeEntry) {
	e.buildOnce.Do(func() {
		r.mu.Lock()
		e.frozen = true
		ordered := slices.Clone(e.pending)
		r.mu.Unlock()

		// Stable sort over the declaration-order counter keeps priority
		// ties deterministic across rebuilds.
		slices.SortStableFunc(ordered, func(a, b *Descriptor) int {
			if a.Priority != b.Priority {
				return b.Priority - a.Priority
			}
			return a.seq - b.seq
		})

		built := make(map[Trigger][]*Descriptor)
		seen := make(map[string]bool)
		var watch []string
		for _, d := range ordered {
			built[d.Trigger] = append(built[d.Trigger], d)
			for _, p := range d.watchPaths() {
				if !seen[p] {
					seen[p] = true
					watch = append(watch, p)
				}
			}
		}
		slices.Sort(watch)

		e.watchSet = watch
		e.built = built
	})
}
