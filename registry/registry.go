package registry

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/types"
)

var (
	ErrComponentNotRegistered = eris.New("component not registered")
	ErrComponentNotFound      = eris.New("component not found on entity")
	ErrRegistryFrozen         = eris.New("registry is frozen")
	ErrNoSchemaFound          = eris.New("no schema found")
)

// SchemaStorage persists component schemas across engine versions so that a
// registration whose shape drifted from saved data fails fast. GetSchema
// returns an error matching ErrNoSchemaFound when no schema is stored yet.
type SchemaStorage interface {
	GetSchema(componentName string) ([]byte, error)
	SetSchema(componentName string, schemaData []byte) error
}

// Registry is the append-only table of component descriptors. It is built
// once at start-up, frozen before the first world is constructed, and
// read-only afterwards, so lookups need no synchronization.
type Registry struct {
	entries map[string]*Entry
	ordered []*Entry
	schemas SchemaStorage
	frozen  bool
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithSchemaStorage validates every registration against the persisted schema
// for its type name, storing the schema on first sight.
func WithSchemaStorage(storage SchemaStorage) Option {
	return func(r *Registry) { r.schemas = storage }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{entries: map[string]*Entry{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds entries to the registry. A duplicate type name or a schema
// mismatch against persisted schemas is a configuration error; the caller
// must treat it as fatal. Registration order is preserved and determines the
// iteration order of All.
func (r *Registry) Register(entries ...*Entry) error {
	if r.frozen {
		return eris.Wrap(ErrRegistryFrozen, "cannot register components after start-up")
	}
	for _, entry := range entries {
		if _, ok := r.entries[entry.Name()]; ok {
			return eris.Errorf("component %q is already registered", entry.Name())
		}
		if r.schemas != nil {
			if err := r.validateSchema(entry); err != nil {
				return err
			}
		}
		r.entries[entry.Name()] = entry
		r.ordered = append(r.ordered, entry)
	}
	return nil
}

// MustRegister is Register for start-up registration lists.
func (r *Registry) MustRegister(entries ...*Entry) {
	if err := r.Register(entries...); err != nil {
		panic(err)
	}
}

// Freeze marks the end of the start-up registration pass. Further Register
// calls fail. Freeze is idempotent.
func (r *Registry) Freeze() { r.frozen = true }

// Find resolves a type name to its entry. An unknown name yields ok == false,
// never a panic; callers on configuration-sensitive paths decide whether that
// is fatal.
func (r *Registry) Find(name string) (*Entry, bool) {
	entry, ok := r.entries[name]
	return entry, ok
}

// All returns every entry in registration order.
func (r *Registry) All() []*Entry {
	out := make([]*Entry, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered component types.
func (r *Registry) Len() int { return len(r.ordered) }

// ConstructDefault inserts the named component's default value onto the
// entity, inserting any declared dependency components first (recursively,
// skipping ones the entity already owns). The post-construct hook of each
// component runs after its dependencies exist, so it never observes a
// partially built entity.
func (r *Registry) ConstructDefault(w *ecs.World, id types.EntityID, name string) error {
	entry, ok := r.entries[name]
	if !ok {
		return eris.Wrapf(ErrComponentNotRegistered, "cannot construct component %q", name)
	}
	return r.constructDefault(w, id, entry, map[string]bool{})
}

func (r *Registry) constructDefault(w *ecs.World, id types.EntityID, entry *Entry, seen map[string]bool) error {
	if seen[entry.Name()] {
		return eris.Errorf("dependency cycle detected while constructing component %q", entry.Name())
	}
	seen[entry.Name()] = true

	for _, depName := range entry.Dependencies() {
		dep, ok := r.entries[depName]
		if !ok {
			return eris.Wrapf(ErrComponentNotRegistered,
				"component %q depends on unregistered component %q", entry.Name(), depName)
		}
		if dep.Has(w, id) {
			continue
		}
		if err := r.constructDefault(w, id, dep, seen); err != nil {
			return err
		}
	}

	v := entry.NewDefault()
	v = entry.PostConstruct(w, id, v)
	entry.InsertBoxed(w, id, v)
	return nil
}

func (r *Registry) validateSchema(entry *Entry) error {
	storedSchema, err := r.schemas.GetSchema(entry.Name())
	if eris.Is(err, ErrNoSchemaFound) {
		return r.schemas.SetSchema(entry.Name(), entry.Schema())
	} else if err != nil {
		return eris.Wrapf(err, "could not load stored schema for component %q", entry.Name())
	}
	valid, err := types.IsSchemaValid(entry.Schema(), storedSchema)
	if err != nil {
		return eris.Wrapf(err, "could not compare schemas for component %q", entry.Name())
	}
	if !valid {
		return eris.Wrap(types.ErrComponentSchemaMismatch,
			fmt.Sprintf("component %q does not match the schema in storage", entry.Name()))
	}
	return nil
}
