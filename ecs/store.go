package ecs

import (
	"sort"

	"github.com/lodengine/loden/types"
)

// Store holds all live values of one concrete component type. A given entity
// maps to at most one value. Stores are owned by exactly one world and are
// only ever touched by code holding that world.
type Store[T types.Component] struct {
	data map[types.EntityID]T
}

func newStore[T types.Component]() *Store[T] {
	return &Store[T]{data: map[types.EntityID]T{}}
}

// Set inserts or overwrites the component for the given entity.
func (s *Store[T]) Set(id types.EntityID, component T) {
	s.data[id] = component
}

// Get returns the component for the given entity, if present.
func (s *Store[T]) Get(id types.EntityID) (T, bool) {
	c, ok := s.data[id]
	return c, ok
}

// Update applies fn to the component in place. It reports whether the entity
// had the component.
func (s *Store[T]) Update(id types.EntityID, fn func(*T)) bool {
	c, ok := s.data[id]
	if !ok {
		return false
	}
	fn(&c)
	s.data[id] = c
	return true
}

// Remove deletes the component for the given entity. Removing an absent
// component is a no-op.
func (s *Store[T]) Remove(id types.EntityID) {
	delete(s.data, id)
}

// Contains reports whether the entity currently owns this component.
func (s *Store[T]) Contains(id types.EntityID) bool {
	_, ok := s.data[id]
	return ok
}

// Len returns the number of live components in the store.
func (s *Store[T]) Len() int {
	return len(s.data)
}

// IDs returns the owning entities in ascending order.
func (s *Store[T]) IDs() []types.EntityID {
	ids := make([]types.EntityID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each visits every component in ascending entity order. Returning false from
// fn stops the iteration.
func (s *Store[T]) Each(fn func(types.EntityID, T) bool) {
	for _, id := range s.IDs() {
		if !fn(id, s.data[id]) {
			return
		}
	}
}

// remove and contains let the world erase an entity from every store without
// knowing the concrete component types.
func (s *Store[T]) remove(id types.EntityID)        { delete(s.data, id) }
func (s *Store[T]) contains(id types.EntityID) bool { _, ok := s.data[id]; return ok }
