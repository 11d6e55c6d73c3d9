package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/types"
)

const entityTypeName = "loden.entity"

// entityHandle carries an entity id into Lua. All component access resolves
// through the registry by type name, so scripts can address component types
// the engine has never compiled dispatch code for.
type entityHandle struct {
	entity types.EntityID
	mgr    *Manager
}

func (m *Manager) registerEntityType() {
	mt := m.ls.NewTypeMetatable(entityTypeName)
	m.ls.SetField(mt, "__index", m.ls.SetFuncs(m.ls.NewTable(), map[string]lua.LGFunction{
		"has":     entityHas,
		"get":     entityGet,
		"set":     entitySet,
		"has_any": entityHasAny,
		"has_all": entityHasAll,
		"id":      entityID,
	}))
}

func (m *Manager) registerGlobals() {
	m.ls.SetGlobal("entity", m.ls.NewFunction(func(l *lua.LState) int {
		id := l.CheckNumber(1)
		l.Push(m.newEntityHandle(types.EntityID(id)))
		return 1
	}))
	m.ls.SetGlobal("log", m.ls.NewFunction(func(l *lua.LState) int {
		msg := l.CheckString(1)
		m.logger.Info().Str("source", "script").Msg(msg)
		return 0
	}))
}

func (m *Manager) newEntityHandle(e types.EntityID) *lua.LUserData {
	ud := m.ls.NewUserData()
	ud.Value = &entityHandle{entity: e, mgr: m}
	m.ls.SetMetatable(ud, m.ls.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntityHandle(l *lua.LState) *entityHandle {
	ud := l.CheckUserData(1)
	h, ok := ud.Value.(*entityHandle)
	if !ok {
		l.ArgError(1, "entity handle expected")
	}
	return h
}

// resolveEntry turns an unknown component name into a Lua error. The error is
// caught at the callback boundary, logged, and the script is skipped for the
// rest of the frame.
func resolveEntry(l *lua.LState, h *entityHandle, name string) *registry.Entry {
	entry, ok := h.mgr.reg.Find(name)
	if !ok {
		l.RaiseError("component %q not known", name)
	}
	return entry
}

// entity:has(name)
func entityHas(l *lua.LState) int {
	h := checkEntityHandle(l)
	entry := resolveEntry(l, h, l.CheckString(2))
	l.Push(lua.LBool(entry.Has(h.mgr.world, h.entity)))
	return 1
}

// entity:get(name) returns nil when the component is absent.
func entityGet(l *lua.LState) int {
	h := checkEntityHandle(l)
	entry := resolveEntry(l, h, l.CheckString(2))
	if !entry.Has(h.mgr.world, h.entity) {
		l.Push(lua.LNil)
		return 1
	}
	boxed, err := entry.CloneBoxed(h.mgr.world, h.entity)
	if err != nil {
		l.RaiseError("%v", err)
	}
	lv, err := entry.ToScriptValue(l, boxed)
	if err != nil {
		l.RaiseError("%v", err)
	}
	l.Push(lv)
	return 1
}

// entity:set(name, value) queues the write; the world is mutated only after
// the current callback returns.
func entitySet(l *lua.LState) int {
	h := checkEntityHandle(l)
	entry := resolveEntry(l, h, l.CheckString(2))
	value := l.CheckAny(3)
	boxed, err := entry.FromScriptValue(l, value)
	if err != nil {
		l.RaiseError("%v", err)
	}
	h.mgr.enqueue(setComponentCommand{entity: h.entity, entry: entry, value: boxed})
	return 0
}

// entity:has_any(names...)
func entityHasAny(l *lua.LState) int {
	h := checkEntityHandle(l)
	top := l.GetTop()
	for i := 2; i <= top; i++ {
		entry := resolveEntry(l, h, l.CheckString(i))
		if entry.Has(h.mgr.world, h.entity) {
			l.Push(lua.LTrue)
			return 1
		}
	}
	l.Push(lua.LFalse)
	return 1
}

// entity:has_all(names...)
func entityHasAll(l *lua.LState) int {
	h := checkEntityHandle(l)
	top := l.GetTop()
	for i := 2; i <= top; i++ {
		entry := resolveEntry(l, h, l.CheckString(i))
		if !entry.Has(h.mgr.world, h.entity) {
			l.Push(lua.LFalse)
			return 1
		}
	}
	l.Push(lua.LTrue)
	return 1
}

// entity:id()
func entityID(l *lua.LState) int {
	h := checkEntityHandle(l)
	l.Push(lua.LNumber(h.entity))
	return 1
}
