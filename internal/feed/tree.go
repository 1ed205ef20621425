// internal/feed/tree.go
// Reply forest reconstruction from a flat creation-ordered list.

package feed

// BuildReplyTree converts a flat reply list into a forest. Nodes are
// built into an arena first, then linked in a second pass: a reply
// whose parent is absent from the input becomes a root instead of an
// error, and cyclic pointers cannot form because children are only
// attached to nodes that exist in the arena. Input order is preserved
// at every level.
func BuildReplyTree(replies []*Reply) []*ReplyNode {
	arena := make(map[int64]*ReplyNode, len(replies))
	for _, r := range replies {
		arena[r.ID] = &ReplyNode{Reply: r, Children: []*ReplyNode{}}
	}

	roots := []*ReplyNode{}
	for _, r := range replies {
		node := arena[r.ID]
		if r.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := arena[*r.ParentID]
		if !ok || *r.ParentID == r.ID {
			// Dangling or self-referencing parent: render at top level.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
