package ecs

import (
	"os"
	"reflect"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lodengine/loden/types"
)

// World owns one type-erased container per component type and hands out the
// strongly typed stores on demand. It knows nothing about the component
// registry; the registry dispatches to stores through functions generated
// alongside each concrete type, never the other way around.
type World struct {
	id         string
	nextEntity types.EntityID
	stores     map[reflect.Type]any
	logger     zerolog.Logger
}

// eraser is the part of a typed store the world can reach without knowing T.
type eraser interface {
	remove(types.EntityID)
	contains(types.EntityID) bool
}

// NewWorld creates an empty world.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		id:     uuid.NewString(),
		stores: map[reflect.Type]any{},
		logger: zerolog.New(os.Stdout),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().Str("world_id", w.id).Logger()
	return w
}

// WorldOption configures a world at construction time.
type WorldOption func(*World)

// WithLogger replaces the default stdout logger.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) { w.logger = logger }
}

// ID returns the unique id of this world instance.
func (w *World) ID() string { return w.id }

// Logger returns the world's logger.
func (w *World) Logger() *zerolog.Logger { return &w.logger }

// Create allocates a fresh entity. IDs start at 1 and are never reused.
func (w *World) Create() types.EntityID {
	w.nextEntity++
	return w.nextEntity
}

// Destroy removes every component the entity owns. The id itself is retired;
// it will not be handed out again by Create.
func (w *World) Destroy(id types.EntityID) {
	for _, store := range w.stores {
		store.(eraser).remove(id)
	}
}

// Alive reports whether any store still holds a component for the entity.
func (w *World) Alive(id types.EntityID) bool {
	for _, store := range w.stores {
		if store.(eraser).contains(id) {
			return true
		}
	}
	return false
}

// StoreFor resolves the typed store for T, creating it on first access.
// A type with zero live components simply yields an empty store.
func StoreFor[T types.Component](w *World) *Store[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if s, ok := w.stores[key]; ok {
		return s.(*Store[T])
	}
	s := newStore[T]()
	w.stores[key] = s
	return s
}

// Set attaches (or overwrites) a component on an entity.
func Set[T types.Component](w *World, id types.EntityID, component T) {
	StoreFor[T](w).Set(id, component)
}

// Get returns the entity's component of type T, if present.
func Get[T types.Component](w *World, id types.EntityID) (T, bool) {
	return StoreFor[T](w).Get(id)
}

// Contains reports whether the entity owns a component of type T.
func Contains[T types.Component](w *World, id types.EntityID) bool {
	return StoreFor[T](w).Contains(id)
}

// Remove detaches the component of type T from the entity.
func Remove[T types.Component](w *World, id types.EntityID) {
	StoreFor[T](w).Remove(id)
}
