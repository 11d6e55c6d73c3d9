// Package loden wires the runtime core of the engine together: one world, a
// frozen component registry, and a script manager, driven by an external game
// loop calling Tick once per frame.
package loden

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lodengine/loden/config"
	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/log"
	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/script"
	"github.com/lodengine/loden/snapshot"
	storage "github.com/lodengine/loden/storage/redis"
	"github.com/lodengine/loden/types"
)

// Engine owns the runtime core for one game. The registry must be fully
// populated before NewEngine is called; it is frozen here so everything after
// start-up sees a read-only table.
type Engine struct {
	cfg     config.EngineConfig
	reg     *registry.Registry
	world   *ecs.World
	scripts *script.Manager
	logger  zerolog.Logger
}

// NewEngine builds an engine around a populated registry.
func NewEngine(reg *registry.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    config.Default(),
		reg:    reg,
		logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	level, err := zerolog.ParseLevel(e.cfg.LogLevel)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level %q", e.cfg.LogLevel)
	}
	e.logger = e.logger.Level(level)

	reg.Freeze()
	e.world = ecs.NewWorld(ecs.WithLogger(e.logger))
	e.scripts = script.NewManager(reg, e.world, script.WithLogger(e.logger))

	log.Registry(e.world.Logger(), reg, zerolog.DebugLevel)
	return e, nil
}

// World returns the engine's world.
func (e *Engine) World() *ecs.World { return e.world }

// Registry returns the (frozen) component registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Scripts returns the script manager.
func (e *Engine) Scripts() *script.Manager { return e.scripts }

// Logger returns the engine logger.
func (e *Engine) Logger() *zerolog.Logger { return &e.logger }

// CreateEntity allocates an entity and default-constructs the named
// components (dependencies first) onto it.
func (e *Engine) CreateEntity(componentNames ...string) (types.EntityID, error) {
	id := e.world.Create()
	for _, name := range componentNames {
		if err := e.reg.ConstructDefault(e.world, id, name); err != nil {
			// The caller never sees the id, so the half-built entity would
			// otherwise leak.
			e.world.Destroy(id)
			return types.NilEntity, err
		}
	}
	var owned []*registry.Entry
	for _, entry := range e.reg.All() {
		if entry.Has(e.world, id) {
			owned = append(owned, entry)
		}
	}
	log.Entity(e.world.Logger(), zerolog.DebugLevel, id, owned)
	return id, nil
}

// DestroyEntity removes every component the entity owns. Script instances
// belonging to it are discarded on the next Tick.
func (e *Engine) DestroyEntity(id types.EntityID) {
	e.world.Destroy(id)
}

// CaptureEntity snapshots everything the entity owns.
func (e *Engine) CaptureEntity(id types.EntityID) (snapshot.Bag, error) {
	return snapshot.Capture(e.reg, e.world, id)
}

// RestoreEntity re-materializes a bag onto a freshly allocated entity (paste
// semantics) and returns the new entity.
func (e *Engine) RestoreEntity(bag snapshot.Bag) (types.EntityID, error) {
	id := e.world.Create()
	if err := snapshot.Restore(e.reg, e.world, id, bag); err != nil {
		return types.NilEntity, err
	}
	return id, nil
}

// RestoreEntityOnto re-materializes a bag onto an existing entity (undo
// semantics), overwriting components it already owns.
func (e *Engine) RestoreEntityOnto(id types.EntityID, bag snapshot.Bag) error {
	return snapshot.Restore(e.reg, e.world, id, bag)
}

// Tick runs one frame of script dispatch.
func (e *Engine) Tick(dt float64) {
	e.scripts.Update(dt)
}

// OpenStorage connects the redis-backed prefab and schema stores using the
// engine's configuration. The caller owns the returned storage.
func (e *Engine) OpenStorage() storage.Storage {
	return storage.NewRedisStorage(storage.Options{
		Addr:     e.cfg.RedisAddress,
		Password: e.cfg.RedisPassword,
	}, e.cfg.Namespace)
}

// Close releases the script VM.
func (e *Engine) Close() {
	e.scripts.Close()
}
