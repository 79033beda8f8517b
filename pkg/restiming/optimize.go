package restiming

// Result is the outcome of optimizing one node: either Collapsed, asking the
// caller to fuse the node into its parent edge, or Uncollapsed.
type Result interface {
	result()
}

// Collapsed is returned for a non-root node with exactly one key. The
// caller replaces its edge e with e+Label pointing at Node.
type Collapsed struct {
	Label string
	Node  *Node
}

// Uncollapsed is returned for the root and for nodes that cannot be fused.
type Uncollapsed struct {
	Node *Node
}

func (Collapsed) result()   {}
func (Uncollapsed) result() {}

// Optimize path-compresses the trie rooted at n in place, bottom-up.
//
// A child reached through the break delimiter is fused without the
// delimiter, and the node holding it is pinned so it is never merged into
// its own parent; otherwise the broken word would be rebuilt on the wire.
// The root is always returned Uncollapsed.
func Optimize(n *Node, isRoot bool) Result {
	for _, label := range n.labels() {
		child := n.Children[label]
		if child.IsLeaf() {
			continue
		}

		c, ok := Optimize(child, false).(Collapsed)
		if !ok {
			continue
		}

		delete(n.Children, label)
		switch {
		case label == XSSBreakDelim && c.Label != "" && n.Children[c.Label] == nil:
			n.Children[c.Label] = c.Node
			n.pinned = true
		default:
			// Plain edges, and break edges whose fused label a sibling owns.
			n.Children[label+c.Label] = c.Node
		}
	}

	if isRoot || n.pinned || n.countKeys() != 1 {
		return Uncollapsed{Node: n}
	}

	if n.HasValue {
		// A branch whose only key is its own value is a leaf.
		return Collapsed{Node: NewLeaf(n.Value)}
	}
	for label, child := range n.Children {
		return Collapsed{Label: label, Node: child}
	}
	return Uncollapsed{Node: n}
}

// OptimizeTrie optimizes root in place and returns it.
func OptimizeTrie(root *Node) *Node {
	if root == nil {
		return NewBranch()
	}
	return Optimize(root, true).(Uncollapsed).Node
}
