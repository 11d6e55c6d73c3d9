package script

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/log"
	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/types"
)

var (
	ErrUnknownScript  = eris.New("unknown script id")
	ErrNotATable      = eris.New("script chunk did not return a table")
	ErrEmptyScript    = eris.New("empty script source")
	ErrScriptDetached = eris.New("entity has no script component")
)

const (
	initCallback   = "init"
	updateCallback = "update"
	publicTable    = "public"
)

// definition is one compiled script. The proto is instantiated once per
// (entity, script) pair; the definition is evicted when no script component
// points at it anymore.
type definition struct {
	id       types.ScriptID
	name     string
	proto    *lua.FunctionProto
	refs     int
	attached bool
}

type instanceKey struct {
	entity types.EntityID
	script types.ScriptID
}

// instance is the Lua-side state of one (entity, script) pair.
type instance struct {
	table   *lua.LTable
	update  *lua.LFunction
	initRan bool
	// failed marks the instance as skipped for the remainder of the current
	// frame after one of its callbacks raised an error.
	failed bool
}

// Manager owns the Lua VM for one world: loaded script definitions,
// per-(entity, script) instances, and the deferred command queue.
type Manager struct {
	ls     *lua.LState
	reg    *registry.Registry
	world  *ecs.World
	logger zerolog.Logger

	defs     map[types.ScriptID]*definition
	nameToID map[string]types.ScriptID
	nextID   types.ScriptID

	instances map[instanceKey]*instance
	queue     []Command
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithLogger replaces the default stdout logger.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a script manager bound to one world. The registry must
// already be fully populated.
func NewManager(reg *registry.Registry, world *ecs.World, opts ...ManagerOption) *Manager {
	m := &Manager{
		ls:        lua.NewState(),
		reg:       reg,
		world:     world,
		logger:    zerolog.New(os.Stdout),
		defs:      map[types.ScriptID]*definition{},
		nameToID:  map[string]types.ScriptID{},
		nextID:    1,
		instances: map[instanceKey]*instance{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = *log.CreateSystemLogger(&m.logger, "scripts")
	m.registerEntityType()
	m.registerGlobals()
	return m
}

// Close releases the Lua VM.
func (m *Manager) Close() {
	m.ls.Close()
}

// State exposes the underlying Lua state, mainly for tests and tooling.
func (m *Manager) State() *lua.LState { return m.ls }

// Load compiles a script source under a unique name and returns its id.
// Loading the same name twice returns the original id.
func (m *Manager) Load(name, source string) (types.ScriptID, error) {
	if strings.TrimSpace(source) == "" {
		return types.NilScript, eris.Wrap(ErrEmptyScript, name)
	}
	if id, ok := m.nameToID[name]; ok {
		return id, nil
	}
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return types.NilScript, eris.Wrapf(err, "could not parse script %q", name)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return types.NilScript, eris.Wrapf(err, "could not compile script %q", name)
	}

	id := m.nextID
	m.nextID++
	m.defs[id] = &definition{id: id, name: name, proto: proto}
	m.nameToID[name] = id
	return id, nil
}

// LoadFile reads and compiles a script file. The file's base name is the
// script name.
func (m *Manager) LoadFile(path string) (types.ScriptID, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return types.NilScript, eris.Wrapf(err, "could not read script file %q", path)
	}
	return m.Load(filepath.Base(path), string(src))
}

// HasDefinition reports whether a compiled definition is still cached for the
// given id.
func (m *Manager) HasDefinition(id types.ScriptID) bool {
	_, ok := m.defs[id]
	return ok
}

// Attach points the entity's script component at the given definition. Any
// previous script on the entity is swapped out and its instance discarded.
func (m *Manager) Attach(e types.EntityID, id types.ScriptID) error {
	def, ok := m.defs[id]
	if !ok {
		return eris.Wrapf(ErrUnknownScript, "cannot attach script %d to entity %d", id, e)
	}
	store := ecs.StoreFor[Script](m.world)
	sc := Script{ID: id}
	if prev, ok := store.Get(e); ok {
		if prev.ID == id {
			sc.Fields = prev.Fields
		} else {
			m.discardInstance(instanceKey{entity: e, script: prev.ID})
		}
	}
	store.Set(e, sc)
	def.attached = true
	m.recount()
	return nil
}

// Detach removes the entity's script component and discards its instance.
func (m *Manager) Detach(e types.EntityID) error {
	store := ecs.StoreFor[Script](m.world)
	sc, ok := store.Get(e)
	if !ok {
		return eris.Wrapf(ErrScriptDetached, "entity %d", e)
	}
	m.discardInstance(instanceKey{entity: e, script: sc.ID})
	store.Remove(e)
	m.recount()
	return nil
}

// Update runs one frame of script dispatch: for every entity whose script
// declares an update callback, the callback is called once with the instance
// table and dt. After each individual script returns, its queued commands are
// applied before the next entity's script runs, so writes propagate in
// entity-id order within the frame. A callback that raises an error is
// logged, its queued writes are dropped, and it is skipped for the remainder
// of the frame; other scripts and the rest of the frame proceed.
func (m *Manager) Update(dt float64) {
	m.recount()

	store := ecs.StoreFor[Script](m.world)
	for _, e := range store.IDs() {
		sc, _ := store.Get(e)
		if sc.ID == types.NilScript {
			continue
		}
		def, ok := m.defs[sc.ID]
		if !ok {
			m.scriptLogger(e, sc.ID).Error().Msg("script component references an unknown script id")
			continue
		}

		inst, err := m.ensureInstance(e, def)
		if err != nil {
			m.scriptLogger(e, sc.ID).Err(err).Msg("could not instantiate script")
			continue
		}

		if !inst.initRan {
			inst.initRan = true
			if initFn, ok := inst.table.RawGetString(initCallback).(*lua.LFunction); ok {
				if err := m.protectedCall(initFn, lua.LValue(inst.table)); err != nil {
					m.scriptLogger(e, sc.ID).Err(err).Msg("script init failed")
					inst.failed = true
				}
			}
		}

		if inst.update != nil && !inst.failed {
			if err := m.protectedCall(inst.update, inst.table, lua.LNumber(dt)); err != nil {
				m.scriptLogger(e, sc.ID).Err(err).Msg("script update failed")
				inst.failed = true
			}
		}

		// Flush point: this script's turn is over. A callback that raised
		// forfeits its queued writes; applying a half-finished mutation set
		// would leave the world in a state the script never intended.
		if inst.failed {
			m.discardCommands()
		} else {
			m.drainCommands()
		}
	}

	for _, inst := range m.instances {
		inst.failed = false
	}
}

// ensureInstance lazily creates the Lua-side state for an (entity, script)
// pair: the chunk is evaluated to a fresh table and the entity's public
// fields are synced both ways.
func (m *Manager) ensureInstance(e types.EntityID, def *definition) (*instance, error) {
	key := instanceKey{entity: e, script: def.id}
	if inst, ok := m.instances[key]; ok {
		return inst, nil
	}

	m.ls.Push(m.ls.NewFunctionFromProto(def.proto))
	if err := m.ls.PCall(0, 1, nil); err != nil {
		return nil, eris.Wrapf(err, "script %q raised while loading", def.name)
	}
	ret := m.ls.Get(-1)
	m.ls.Pop(1)
	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, eris.Wrapf(ErrNotATable, "script %q returned %s", def.name, ret.Type())
	}

	inst := &instance{table: table}
	if fn, ok := table.RawGetString(updateCallback).(*lua.LFunction); ok {
		inst.update = fn
	}
	table.RawSetString("entity", m.newEntityHandle(e))
	m.syncPublicFields(e, table)

	m.instances[key] = inst
	return inst, nil
}

// syncPublicFields mirrors the script's declared public fields into the
// entity's Script component and pushes engine-side values (edited in the
// inspector or restored from a save) back into the instance.
func (m *Manager) syncPublicFields(e types.EntityID, table *lua.LTable) {
	public, ok := table.RawGetString(publicTable).(*lua.LTable)
	if !ok {
		return
	}
	store := ecs.StoreFor[Script](m.world)
	sc, ok := store.Get(e)
	if !ok {
		return
	}
	if sc.Fields == nil {
		sc.Fields = map[string]any{}
	}

	declared := map[string]bool{}
	public.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		declared[string(name)] = true
		if _, exists := sc.Fields[string(name)]; exists {
			return
		}
		switch v := v.(type) {
		case lua.LBool:
			sc.Fields[string(name)] = bool(v)
		case lua.LNumber:
			sc.Fields[string(name)] = float64(v)
		case lua.LString:
			sc.Fields[string(name)] = string(v)
		}
	})

	// Drop engine-side fields the script no longer declares.
	for name := range sc.Fields {
		if !declared[name] {
			delete(sc.Fields, name)
		}
	}

	for name, v := range sc.Fields {
		switch v := v.(type) {
		case bool:
			public.RawSetString(name, lua.LBool(v))
		case float64:
			public.RawSetString(name, lua.LNumber(v))
		case int:
			public.RawSetString(name, lua.LNumber(v))
		case string:
			public.RawSetString(name, lua.LString(v))
		}
	}
	store.Set(e, sc)
}

func (m *Manager) protectedCall(fn *lua.LFunction, args ...lua.LValue) error {
	err := m.ls.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	if err != nil {
		return eris.Wrap(err, "")
	}
	return nil
}

// recount recomputes per-definition reference counts from the live script
// components, discards instances whose component is gone or points at a
// different script, and evicts definitions whose count fell back to zero.
func (m *Manager) recount() {
	store := ecs.StoreFor[Script](m.world)

	counts := map[types.ScriptID]int{}
	store.Each(func(_ types.EntityID, sc Script) bool {
		if sc.ID != types.NilScript {
			counts[sc.ID]++
		}
		return true
	})

	for key := range m.instances {
		sc, ok := store.Get(key.entity)
		if !ok || sc.ID != key.script {
			m.discardInstance(key)
		}
	}

	for id, def := range m.defs {
		def.refs = counts[id]
		if def.refs > 0 {
			def.attached = true
		}
		if def.attached && def.refs == 0 {
			delete(m.defs, id)
			delete(m.nameToID, def.name)
		}
	}
}

func (m *Manager) discardInstance(key instanceKey) {
	delete(m.instances, key)
}

func (m *Manager) scriptLogger(e types.EntityID, id types.ScriptID) *zerolog.Logger {
	return log.CreateScriptLogger(&m.logger, e, id)
}
