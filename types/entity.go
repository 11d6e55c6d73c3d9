package types

// EntityID identifies a single entity inside a world. IDs are allocated
// monotonically by the world and are never reused for its lifetime, so a
// captured component bag can always be restored onto a fresh entity.
type EntityID uint64

// NilEntity is never allocated by a world and can be used as a sentinel.
const NilEntity = EntityID(0)

// ScriptID is an opaque handle to one loaded script definition. The zero
// value means "no script assigned".
type ScriptID uint64

// NilScript is the unset ScriptID.
const NilScript = ScriptID(0)
