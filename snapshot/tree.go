package snapshot

import (
	"github.com/rotisserie/eris"

	"github.com/lodengine/loden/ecs"
	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/types"
)

// Tree is a recursive snapshot of an entity and every entity it transitively
// owns. Children appear in the order the ChildrenFn reported them.
type Tree struct {
	Root     Bag    `json:"root"`
	Children []Tree `json:"children,omitempty"`
}

// ChildrenFn reports the direct children of an entity. Ownership semantics
// (parent components, room membership, ...) live with the caller.
type ChildrenFn func(types.EntityID) []types.EntityID

// ReparentFn re-establishes the parent/child relationship between two freshly
// restored entities after all of them exist.
type ReparentFn func(parent, child types.EntityID)

// CaptureTree captures the root's bag plus the bag of each transitive child,
// in pre-order.
func CaptureTree(reg *registry.Registry, w *ecs.World, root types.EntityID, children ChildrenFn) (Tree, error) {
	bag, err := Capture(reg, w, root)
	if err != nil {
		return Tree{}, err
	}
	tree := Tree{Root: bag}
	for _, child := range children(root) {
		sub, err := CaptureTree(reg, w, child, children)
		if err != nil {
			return Tree{}, eris.Wrapf(err, "could not capture child %d of entity %d", child, root)
		}
		tree.Children = append(tree.Children, sub)
	}
	return tree, nil
}

// RestoreTree replays a tree's captures onto freshly allocated entities in
// pre-order and re-parents each child after every entity exists. It returns
// the new root entity.
func RestoreTree(reg *registry.Registry, w *ecs.World, tree Tree, reparent ReparentFn) (types.EntityID, error) {
	type link struct{ parent, child types.EntityID }
	var links []link

	var restore func(t Tree) (types.EntityID, error)
	restore = func(t Tree) (types.EntityID, error) {
		id := w.Create()
		if err := Restore(reg, w, id, t.Root); err != nil {
			return types.NilEntity, err
		}
		for _, sub := range t.Children {
			child, err := restore(sub)
			if err != nil {
				return types.NilEntity, err
			}
			links = append(links, link{parent: id, child: child})
		}
		return id, nil
	}

	root, err := restore(tree)
	if err != nil {
		return types.NilEntity, err
	}
	if reparent != nil {
		for _, l := range links {
			reparent(l.parent, l.child)
		}
	}
	return root, nil
}
