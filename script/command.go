package script

import (
	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/types"
)

// Command is a world mutation requested from inside a script callback. The
// manager drains and applies queued commands strictly after the current
// callback returns, so a running script never mutates a world it may still be
// reading from.
type Command interface {
	Apply(w *ecs.World)
}

// setComponentCommand writes a component value converted from a script value.
type setComponentCommand struct {
	entity types.EntityID
	entry  *registry.Entry
	value  any
}

func (c setComponentCommand) Apply(w *ecs.World) {
	v := c.entry.PostConstruct(w, c.entity, c.value)
	c.entry.InsertBoxed(w, c.entity, v)
}

func (m *Manager) enqueue(cmd Command) {
	m.queue = append(m.queue, cmd)
}

// drainCommands applies every queued command in enqueue order and empties the
// queue. Called after each individual script callback returns, so one
// script's writes are visible to the next script in the same frame.
func (m *Manager) drainCommands() {
	queue := m.queue
	m.queue = nil
	for _, cmd := range queue {
		cmd.Apply(m.world)
	}
}

// discardCommands empties the queue without applying anything. Used when the
// callback that enqueued them raised an error before returning.
func (m *Manager) discardCommands() {
	m.queue = nil
}
