package script_test

import (
	"testing"

	"github.com/rotisserie/eris"
	lua "github.com/yuin/gopher-lua"
	"gotest.tools/v3/assert"

	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/script"
	"github.com/lodengine/loden/testutils"
	"github.com/lodengine/loden/types"
)

func newTestManager(t *testing.T) (*script.Manager, *ecs.World) {
	t.Helper()
	reg := testutils.NewTestRegistry()
	w := ecs.NewWorld()
	mgr := script.NewManager(reg, w)
	t.Cleanup(mgr.Close)
	return mgr, w
}

func globalNumber(t *testing.T, mgr *script.Manager, name string) float64 {
	t.Helper()
	v, ok := mgr.State().GetGlobal(name).(lua.LNumber)
	assert.Assert(t, ok, "global %q is not a number", name)
	return float64(v)
}

func globalBool(t *testing.T, mgr *script.Manager, name string) bool {
	t.Helper()
	v, ok := mgr.State().GetGlobal(name).(lua.LBool)
	assert.Assert(t, ok, "global %q is not a boolean", name)
	return bool(v)
}

func TestLoadAssignsStableIDs(t *testing.T) {
	mgr, _ := newTestManager(t)

	id1, err := mgr.Load("mover", `return {}`)
	assert.NilError(t, err)
	assert.Assert(t, id1 != types.NilScript)

	id2, err := mgr.Load("spinner", `return {}`)
	assert.NilError(t, err)
	assert.Assert(t, id2 != id1)

	again, err := mgr.Load("mover", `return {}`)
	assert.NilError(t, err)
	assert.Equal(t, id1, again)
}

func TestLoadRejectsEmptyAndBrokenSources(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.Load("empty", "   \n\t")
	assert.Assert(t, eris.Is(err, script.ErrEmptyScript))

	_, err = mgr.Load("broken", `return {`)
	assert.ErrorContains(t, err, "broken")
}

func TestAttachUnknownScriptFails(t *testing.T) {
	mgr, w := newTestManager(t)
	err := mgr.Attach(w.Create(), types.ScriptID(42))
	assert.Assert(t, eris.Is(err, script.ErrUnknownScript))
}

func TestDetachWithoutScriptFails(t *testing.T) {
	mgr, w := newTestManager(t)
	err := mgr.Detach(w.Create())
	assert.Assert(t, eris.Is(err, script.ErrScriptDetached))
}

func TestInitRunsExactlyOnce(t *testing.T) {
	mgr, w := newTestManager(t)
	id, err := mgr.Load("counter", `
		local m = {}
		function m.init(self)
			inits = (inits or 0) + 1
		end
		function m.update(self, dt)
		end
		return m
	`)
	assert.NilError(t, err)
	assert.NilError(t, mgr.Attach(w.Create(), id))

	mgr.Update(0.016)
	mgr.Update(0.016)
	assert.Equal(t, 1.0, globalNumber(t, mgr, "inits"))
}

func TestSetIsDeferredUntilCallbackReturns(t *testing.T) {
	mgr, w := newTestManager(t)
	e := w.Create()
	ecs.Set(w, e, testutils.Position{X: 1, Y: 2})

	id, err := mgr.Load("mover", `
		local m = {}
		function m.update(self, dt)
			local before = self.entity:get("Position")
			self.entity:set("Position", {x = before.x + 1, y = before.y})
			local after = self.entity:get("Position")
			seen_during = after.x
		end
		return m
	`)
	assert.NilError(t, err)
	assert.NilError(t, mgr.Attach(e, id))

	mgr.Update(0.016)

	// The write was invisible inside the callback that issued it.
	assert.Equal(t, 1.0, globalNumber(t, mgr, "seen_during"))
	pos, _ := ecs.Get[testutils.Position](w, e)
	assert.Equal(t, 2.0, pos.X)
	assert.Equal(t, 2.0, pos.Y)
}

func TestWritesPropagateInEntityOrderWithinFrame(t *testing.T) {
	mgr, w := newTestManager(t)
	e1 := w.Create()
	e2 := w.Create()
	ecs.Set(w, e2, testutils.Health{Current: 1, Max: 10})

	writer, err := mgr.Load("writer", `
		local m = {}
		function m.update(self, dt)
			entity(target):set("Health", {current = 5, max = 10})
		end
		return m
	`)
	assert.NilError(t, err)
	reader, err := mgr.Load("reader", `
		local m = {}
		function m.update(self, dt)
			seen_by_reader = self.entity:get("Health").current
		end
		return m
	`)
	assert.NilError(t, err)

	mgr.State().SetGlobal("target", lua.LNumber(e2))
	assert.NilError(t, mgr.Attach(e1, writer))
	assert.NilError(t, mgr.Attach(e2, reader))

	// e1 runs first; its queued write is applied before e2's callback.
	mgr.Update(0.016)
	assert.Equal(t, 5.0, globalNumber(t, mgr, "seen_by_reader"))
}

func TestHasAnyHasAll(t *testing.T) {
	mgr, w := newTestManager(t)
	e := w.Create()
	ecs.Set(w, e, testutils.Position{})

	id, err := mgr.Load("checker", `
		local m = {}
		function m.update(self, dt)
			any = self.entity:has_any("Health", "Position")
			all = self.entity:has_all("Health", "Position")
			has_pos = self.entity:has("Position")
			missing = self.entity:get("Health") == nil
		end
		return m
	`)
	assert.NilError(t, err)
	assert.NilError(t, mgr.Attach(e, id))

	mgr.Update(0.016)
	assert.Assert(t, globalBool(t, mgr, "any"))
	assert.Assert(t, !globalBool(t, mgr, "all"))
	assert.Assert(t, globalBool(t, mgr, "has_pos"))
	assert.Assert(t, globalBool(t, mgr, "missing"))
}

func TestUnknownComponentNameSkipsScriptNotFrame(t *testing.T) {
	mgr, w := newTestManager(t)
	e1 := w.Create()
	e2 := w.Create()

	bad, err := mgr.Load("bad", `
		local m = {}
		function m.update(self, dt)
			self.entity:get("Ghost")
			unreachable = 1
		end
		return m
	`)
	assert.NilError(t, err)
	good, err := mgr.Load("good", `
		local m = {}
		function m.update(self, dt)
			good_ran = (good_ran or 0) + 1
		end
		return m
	`)
	assert.NilError(t, err)

	assert.NilError(t, mgr.Attach(e1, bad))
	assert.NilError(t, mgr.Attach(e2, good))

	mgr.Update(0.016)
	assert.Equal(t, lua.LNil, mgr.State().GetGlobal("unreachable"))
	assert.Equal(t, 1.0, globalNumber(t, mgr, "good_ran"))

	// A failure only lasts the frame it happened in.
	mgr.Update(0.016)
	assert.Equal(t, 2.0, globalNumber(t, mgr, "good_ran"))
}

func TestFailedCallbackForfeitsQueuedWrites(t *testing.T) {
	mgr, w := newTestManager(t)
	e := w.Create()
	ecs.Set(w, e, testutils.Position{X: 1, Y: 1})

	id, err := mgr.Load("raiser", `
		local m = {}
		function m.update(self, dt)
			self.entity:set("Position", {x = 42, y = 42})
			error("boom")
		end
		return m
	`)
	assert.NilError(t, err)
	assert.NilError(t, mgr.Attach(e, id))

	mgr.Update(0.016)
	pos, _ := ecs.Get[testutils.Position](w, e)
	assert.Equal(t, testutils.Position{X: 1, Y: 1}, pos)
}

func TestNonTableChunkIsIsolated(t *testing.T) {
	mgr, w := newTestManager(t)
	e1 := w.Create()
	e2 := w.Create()

	notATable, err := mgr.Load("oops", `return 5`)
	assert.NilError(t, err)
	good, err := mgr.Load("good", `
		local m = {}
		function m.update(self, dt)
			good_ran = true
		end
		return m
	`)
	assert.NilError(t, err)

	assert.NilError(t, mgr.Attach(e1, notATable))
	assert.NilError(t, mgr.Attach(e2, good))

	mgr.Update(0.016)
	assert.Assert(t, globalBool(t, mgr, "good_ran"))
}

func TestPublicFieldsSyncBothWays(t *testing.T) {
	mgr, w := newTestManager(t)
	e := w.Create()

	id, err := mgr.Load("walker", `
		local m = {}
		m.public = {speed = 5, label = "walk"}
		function m.update(self, dt)
			effective_speed = m.public.speed
		end
		return m
	`)
	assert.NilError(t, err)
	assert.NilError(t, mgr.Attach(e, id))

	// Engine-side edit made before the instance exists wins over the script
	// default.
	store := ecs.StoreFor[script.Script](w)
	sc, _ := store.Get(e)
	sc.Fields = map[string]any{"speed": 9.0, "stale": 1.0}
	store.Set(e, sc)

	mgr.Update(0.016)
	assert.Equal(t, 9.0, globalNumber(t, mgr, "effective_speed"))

	sc, _ = store.Get(e)
	assert.Equal(t, 9.0, sc.Fields["speed"])
	assert.Equal(t, "walk", sc.Fields["label"])
	// Fields the script no longer declares are dropped.
	_, ok := sc.Fields["stale"]
	assert.Assert(t, !ok)
}

func TestDefinitionEvictedWhenLastReferenceDies(t *testing.T) {
	mgr, w := newTestManager(t)
	id, err := mgr.Load("doomed", `
		local m = {}
		function m.update(self, dt) end
		return m
	`)
	assert.NilError(t, err)

	entities := []types.EntityID{w.Create(), w.Create(), w.Create()}
	for _, e := range entities {
		assert.NilError(t, mgr.Attach(e, id))
	}
	mgr.Update(0.016)
	assert.Assert(t, mgr.HasDefinition(id))

	// Destroy bypasses Detach; the next frame notices the refs are gone.
	for _, e := range entities {
		w.Destroy(e)
	}
	mgr.Update(0.016)
	assert.Assert(t, !mgr.HasDefinition(id))
}

func TestNeverAttachedDefinitionSurvivesUpdates(t *testing.T) {
	mgr, _ := newTestManager(t)
	id, err := mgr.Load("idle", `return {}`)
	assert.NilError(t, err)

	mgr.Update(0.016)
	assert.Assert(t, mgr.HasDefinition(id))
}

func TestDetachEvictsOnLastReference(t *testing.T) {
	mgr, w := newTestManager(t)
	id, err := mgr.Load("brief", `return {}`)
	assert.NilError(t, err)

	e1, e2 := w.Create(), w.Create()
	assert.NilError(t, mgr.Attach(e1, id))
	assert.NilError(t, mgr.Attach(e2, id))

	assert.NilError(t, mgr.Detach(e1))
	assert.Assert(t, mgr.HasDefinition(id))

	assert.NilError(t, mgr.Detach(e2))
	assert.Assert(t, !mgr.HasDefinition(id))
}

func TestAttachSwapsOutPreviousScript(t *testing.T) {
	mgr, w := newTestManager(t)
	e := w.Create()

	first, err := mgr.Load("first", `
		local m = {}
		function m.update(self, dt)
			first_ran = (first_ran or 0) + 1
		end
		return m
	`)
	assert.NilError(t, err)
	second, err := mgr.Load("second", `
		local m = {}
		function m.update(self, dt)
			second_ran = (second_ran or 0) + 1
		end
		return m
	`)
	assert.NilError(t, err)

	assert.NilError(t, mgr.Attach(e, first))
	mgr.Update(0.016)
	assert.NilError(t, mgr.Attach(e, second))
	mgr.Update(0.016)

	assert.Equal(t, 1.0, globalNumber(t, mgr, "first_ran"))
	assert.Equal(t, 1.0, globalNumber(t, mgr, "second_ran"))
	assert.Assert(t, !mgr.HasDefinition(first))
}

func TestSetRunsPostConstruct(t *testing.T) {
	mgr, w := newTestManager(t)
	e := w.Create()

	id, err := mgr.Load("loader", `
		local m = {}
		function m.update(self, dt)
			self.entity:set("Sprite", {path = "tree.png"})
		end
		return m
	`)
	assert.NilError(t, err)
	assert.NilError(t, mgr.Attach(e, id))

	mgr.Update(0.016)
	sprite, ok := ecs.Get[testutils.Sprite](w, e)
	assert.Assert(t, ok)
	assert.Equal(t, "tree.png", sprite.Path)
	assert.Assert(t, sprite.Loaded)
}
