// Package script bridges the component world and the embedded Lua runtime.
// Script code addresses components by type name through the component
// registry, so no script-visible operation needs new dispatch code when a
// component type is added. Mutations requested from inside a script callback
// are queued and applied after that callback returns.
package script

import (
	"github.com/lodengine/loden/types"
)

// Script is the component that attaches a loaded script to an entity.
type Script struct {
	// ID is the handle assigned by the manager. Zero means no script.
	ID types.ScriptID `json:"script_id"`
	// Fields holds the engine-side copies of the script's declared public
	// fields, editable in the inspector and synced into the Lua instance
	// when it is created.
	Fields map[string]any `json:"fields,omitempty"`
}

func (Script) Name() string { return "Script" }
