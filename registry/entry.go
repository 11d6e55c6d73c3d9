package registry

import (
	"fmt"

	luajson "github.com/alicebob/gopher-json"
	"github.com/rotisserie/eris"
	lua "github.com/yuin/gopher-lua"

	"github.com/lodengine/loden/codec"
	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/types"
)

// Entry is the type-erasure dispatch table for one component type. Every
// function is generated alongside the concrete type by NewEntry, so both
// sides of each erase/unerase boundary always agree on the type. An Entry is
// immutable after creation and holds no world state.
type Entry struct {
	name         string
	dependencies []string
	schema       []byte
	fields       []types.Field

	has           func(*ecs.World, types.EntityID) bool
	remove        func(*ecs.World, types.EntityID)
	cloneBoxed    func(*ecs.World, types.EntityID) (any, error)
	encode        func(any) ([]byte, error)
	decode        func([]byte) (any, error)
	insertBoxed   func(*ecs.World, types.EntityID, any)
	newDefault    func() any
	postConstruct func(*ecs.World, types.EntityID, any) any
	toScript      func(*lua.LState, any) (lua.LValue, error)
	fromScript    func(*lua.LState, lua.LValue) (any, error)
}

// Name returns the stable type name used as the wire and script-facing key.
func (e *Entry) Name() string { return e.name }

// Dependencies returns the names of components that ConstructDefault inserts
// before this one.
func (e *Entry) Dependencies() []string { return e.dependencies }

// Has reports whether the entity currently owns this component.
func (e *Entry) Has(w *ecs.World, id types.EntityID) bool { return e.has(w, id) }

// Remove detaches this component from the entity.
func (e *Entry) Remove(w *ecs.World, id types.EntityID) { e.remove(w, id) }

// CloneBoxed returns a copy of the entity's component as an erased value.
// ErrComponentNotFound is returned when the entity does not own it.
func (e *Entry) CloneBoxed(w *ecs.World, id types.EntityID) (any, error) {
	return e.cloneBoxed(w, id)
}

// Encode serializes an erased component value to its text payload.
func (e *Entry) Encode(v any) ([]byte, error) { return e.encode(v) }

// Decode deserializes a text payload back into an erased component value.
func (e *Entry) Decode(bz []byte) (any, error) { return e.decode(bz) }

// InsertBoxed writes an erased component value onto the entity, overwriting
// any existing value.
func (e *Entry) InsertBoxed(w *ecs.World, id types.EntityID, v any) { e.insertBoxed(w, id, v) }

// NewDefault returns the erased default value for this component type.
func (e *Entry) NewDefault() any { return e.newDefault() }

// PostConstruct runs the optional post-construct hook on an erased value and
// returns the (possibly adjusted) value. Without a hook it is the identity.
func (e *Entry) PostConstruct(w *ecs.World, id types.EntityID, v any) any {
	return e.postConstruct(w, id, v)
}

// ToScriptValue converts an erased component value into a script value.
func (e *Entry) ToScriptValue(l *lua.LState, v any) (lua.LValue, error) {
	return e.toScript(l, v)
}

// FromScriptValue converts a script value back into an erased component value.
func (e *Entry) FromScriptValue(l *lua.LState, lv lua.LValue) (any, error) {
	return e.fromScript(l, lv)
}

// Schema returns the JSON schema of the component type.
func (e *Entry) Schema() []byte { return e.schema }

// Fields returns the component's fields in declaration order, for
// presentation purposes only.
func (e *Entry) Fields() []types.Field { return e.fields }

// PostConstructFn adjusts a freshly constructed or deserialized component
// before it is inserted. It may read sibling components but must not insert
// or remove any.
type PostConstructFn[T types.Component] func(w *ecs.World, id types.EntityID, c *T)

// EntryOption augments the creation of an Entry.
type EntryOption[T types.Component] func(*entryConfig[T])

type entryConfig[T types.Component] struct {
	dependencies []string
	defaultVal   *T
	postCreate   PostConstructFn[T]
}

// WithDependencies declares the components that must exist on the entity
// before this one is default-constructed. The set is a type-level constant.
func WithDependencies[T types.Component](names ...string) EntryOption[T] {
	return func(c *entryConfig[T]) { c.dependencies = names }
}

// WithDefault replaces the zero value used by ConstructDefault.
func WithDefault[T types.Component](defaultVal T) EntryOption[T] {
	return func(c *entryConfig[T]) { c.defaultVal = &defaultVal }
}

// WithPostConstruct installs a hook run after default construction and after
// deserializing from a bag or a script value, for runtime-only derived state.
func WithPostConstruct[T types.Component](fn PostConstructFn[T]) EntryOption[T] {
	return func(c *entryConfig[T]) { c.postCreate = fn }
}

// NewEntry builds the full dispatch table for component type T.
func NewEntry[T types.Component](opts ...EntryOption[T]) (*Entry, error) {
	var zero T
	name := zero.Name()
	if name == "" {
		return nil, eris.Errorf("component type %T has an empty name", zero)
	}

	cfg := entryConfig[T]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	schema, err := types.SerializeComponentSchema(zero)
	if err != nil {
		return nil, eris.Wrapf(err, "could not reflect schema for component %q", name)
	}

	unbox := func(v any, op string) T {
		c, ok := v.(T)
		if !ok {
			panic(fmt.Sprintf("component %q: %s received %T, want %T", name, op, v, zero))
		}
		return c
	}

	entry := &Entry{
		name:         name,
		dependencies: cfg.dependencies,
		schema:       schema,
		fields:       types.FieldsOf(zero),

		has: func(w *ecs.World, id types.EntityID) bool {
			return ecs.StoreFor[T](w).Contains(id)
		},
		remove: func(w *ecs.World, id types.EntityID) {
			ecs.StoreFor[T](w).Remove(id)
		},
		cloneBoxed: func(w *ecs.World, id types.EntityID) (any, error) {
			c, ok := ecs.StoreFor[T](w).Get(id)
			if !ok {
				return nil, eris.Wrapf(ErrComponentNotFound, "entity %d has no %q component", id, name)
			}
			return c, nil
		},
		encode: func(v any) ([]byte, error) {
			return codec.Encode(unbox(v, "encode"))
		},
		decode: func(bz []byte) (any, error) {
			c, err := codec.Decode[T](bz)
			if err != nil {
				return nil, eris.Wrapf(err, "could not decode component %q", name)
			}
			return c, nil
		},
		insertBoxed: func(w *ecs.World, id types.EntityID, v any) {
			ecs.StoreFor[T](w).Set(id, unbox(v, "insert"))
		},
		newDefault: func() any {
			if cfg.defaultVal != nil {
				return *cfg.defaultVal
			}
			var c T
			return c
		},
		postConstruct: func(w *ecs.World, id types.EntityID, v any) any {
			c := unbox(v, "post-construct")
			if cfg.postCreate != nil {
				cfg.postCreate(w, id, &c)
			}
			return c
		},
		toScript: func(l *lua.LState, v any) (lua.LValue, error) {
			bz, err := codec.Encode(unbox(v, "to-script"))
			if err != nil {
				return lua.LNil, err
			}
			lv, err := luajson.Decode(l, bz)
			if err != nil {
				return lua.LNil, eris.Wrapf(err, "could not convert component %q to a script value", name)
			}
			return lv, nil
		},
		fromScript: func(_ *lua.LState, lv lua.LValue) (any, error) {
			bz, err := luajson.Encode(lv)
			if err != nil {
				return nil, eris.Wrapf(err, "could not read script value for component %q", name)
			}
			c, err := codec.Decode[T](bz)
			if err != nil {
				return nil, eris.Wrapf(err, "script value does not match component %q", name)
			}
			return c, nil
		},
	}
	return entry, nil
}

// MustNewEntry is NewEntry for start-up registration lists.
func MustNewEntry[T types.Component](opts ...EntryOption[T]) *Entry {
	entry, err := NewEntry[T](opts...)
	if err != nil {
		panic(err)
	}
	return entry
}
