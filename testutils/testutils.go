// Package testutils holds component fixtures shared by tests across the
// module.
package testutils

import (
	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/script"
	"github.com/lodengine/loden/types"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Position) Name() string { return "Position" }

type Velocity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Velocity) Name() string { return "Velocity" }

type Health struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

func (Health) Name() string { return "Health" }

// Sprite carries runtime-only derived state (Loaded) that is never
// serialized; the post-construct hook rebuilds it.
type Sprite struct {
	Path   string `json:"path"`
	Loaded bool   `json:"-"`
}

func (Sprite) Name() string { return "Sprite" }

// NewTestRegistry registers the fixture components the way a game's start-up
// pass would: Velocity depends on Position, Sprite re-derives Loaded after
// construction.
func NewTestRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(
		registry.MustNewEntry[Position](),
		registry.MustNewEntry[Velocity](registry.WithDependencies[Velocity]("Position")),
		registry.MustNewEntry[Health](registry.WithDefault(Health{Current: 10, Max: 10})),
		registry.MustNewEntry[Sprite](registry.WithPostConstruct(
			func(_ *ecs.World, _ types.EntityID, s *Sprite) {
				s.Loaded = s.Path != ""
			},
		)),
		registry.MustNewEntry[script.Script](),
	)
	return reg
}
