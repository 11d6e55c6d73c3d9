// Package snapshot captures everything an entity owns as an entity-agnostic
// component bag and re-materializes bags onto (possibly different) entities.
// It is a pure consumer of the component registry; it holds no dispatch logic
// of its own.
package snapshot

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/types"
)

// Record is one (type name, serialized payload) pair inside a bag.
type Record struct {
	TypeName string          `json:"type_name"`
	Data     json.RawMessage `json:"data"`
}

// Bag is an ordered snapshot of every component one entity owned at a point
// in time. Bags contain no entity identifiers, so they survive entity
// re-numbering. Record order follows registration order, which keeps capture
// output deterministic.
type Bag []Record

// Capture walks the registry and extracts every component the entity owns.
func Capture(reg *registry.Registry, w *ecs.World, id types.EntityID) (Bag, error) {
	var bag Bag
	for _, entry := range reg.All() {
		if !entry.Has(w, id) {
			continue
		}
		boxed, err := entry.CloneBoxed(w, id)
		if err != nil {
			return nil, eris.Wrapf(err, "could not capture component %q from entity %d", entry.Name(), id)
		}
		data, err := entry.Encode(boxed)
		if err != nil {
			return nil, eris.Wrapf(err, "could not serialize component %q from entity %d", entry.Name(), id)
		}
		bag = append(bag, Record{TypeName: entry.Name(), Data: data})
	}
	return bag, nil
}

// Restore re-materializes a bag onto the entity, in bag order. Components the
// entity already owns are overwritten. A record whose type name is unknown to
// the registry aborts the restore: the bag was produced by a build that does
// not match the running registry, and silently dropping records would corrupt
// state invisibly.
func Restore(reg *registry.Registry, w *ecs.World, id types.EntityID, bag Bag) error {
	for _, record := range bag {
		entry, ok := reg.Find(record.TypeName)
		if !ok {
			return eris.Wrapf(registry.ErrComponentNotRegistered,
				"bag references unknown component %q; refusing partial restore onto entity %d",
				record.TypeName, id)
		}
		boxed, err := entry.Decode(record.Data)
		if err != nil {
			return eris.Wrapf(err, "could not restore component %q onto entity %d", record.TypeName, id)
		}
		boxed = entry.PostConstruct(w, id, boxed)
		entry.InsertBoxed(w, id, boxed)
	}
	return nil
}
