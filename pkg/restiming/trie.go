package restiming

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ValueKey is the key under which a branch stores the value of a URL that
// ends at that branch (a URL that is a strict prefix of another).
const ValueKey = "|"

// Node is a trie node. It is a leaf when it holds a value and no children,
// a branch when it has children, or both when a branch also terminates a
// key. Edge labels are single characters until the trie is optimized.
type Node struct {
	Value    string
	HasValue bool
	Children map[string]*Node

	// pinned marks a node that was fused through a break delimiter; it is
	// never folded into its parent on later optimization passes.
	pinned bool
}

// NewBranch returns an empty branch node.
func NewBranch() *Node {
	return &Node{Children: make(map[string]*Node)}
}

// NewLeaf returns a leaf node holding value.
func NewLeaf(value string) *Node {
	return &Node{Value: value, HasValue: true}
}

// IsLeaf reports whether n holds a value and has no children.
func (n *Node) IsLeaf() bool {
	return n.HasValue && len(n.Children) == 0
}

// setValue stores value, appending to an existing value with EntrySeparator.
func (n *Node) setValue(value string) {
	if n.HasValue {
		n.Value += EntrySeparator + value
		return
	}
	n.Value = value
	n.HasValue = true
}

// child returns the child for label, creating a branch when missing.
func (n *Node) child(label string) *Node {
	if n.Children == nil {
		n.Children = make(map[string]*Node)
	}
	c, ok := n.Children[label]
	if !ok {
		c = &Node{}
		n.Children[label] = c
	}
	return c
}

// Build inserts every URL key of payloads into a new trie, after applying
// the break rules. A key that already has a value gets the new value
// appended with EntrySeparator.
func Build(payloads map[string]string, rules BreakRules) *Node {
	root := NewBranch()

	// Sorted insertion keeps duplicate-key appends deterministic.
	keys := make([]string, 0, len(payloads))
	for k := range payloads {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, url := range keys {
		Insert(root, rules.Apply(url), payloads[url])
	}
	return root
}

// Insert adds key to the trie rooted at root, one character per edge.
func Insert(root *Node, key, value string) {
	if key == "" {
		return
	}
	cur := root
	for _, r := range key {
		cur = cur.child(string(r))
	}
	cur.setValue(value)
}

// MarshalJSON renders the textual trie: leaves as strings, branches as
// objects, and a terminating value of a branch under ValueKey.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("{}"), nil
	}
	if n.IsLeaf() {
		return marshalString(n.Value)
	}

	keys := make([]string, 0, len(n.Children)+1)
	for k := range n.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKey := func(k string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := marshalString(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		return nil
	}

	if n.HasValue {
		if err := writeKey(ValueKey); err != nil {
			return nil, err
		}
		vb, err := marshalString(n.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	for _, k := range keys {
		if err := writeKey(k); err != nil {
			return nil, err
		}
		cb, err := n.Children[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(cb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalString quotes s as a JSON string without HTML escaping, so "&",
// "<" and ">" stay one byte each.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON parses a textual trie.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Node{Value: s, HasValue: true}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding trie node: %w", err)
	}

	*n = Node{Children: make(map[string]*Node, len(raw))}
	for k, v := range raw {
		if k == ValueKey {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("decoding value: %w", err)
			}
			n.Value = s
			n.HasValue = true
			continue
		}
		child := &Node{}
		if err := child.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("decoding %q: %w", k, err)
		}
		n.Children[k] = child
	}
	return nil
}

// Equal reports whether a and b have the same shape and values.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.HasValue != o.HasValue || n.Value != o.Value || len(n.Children) != len(o.Children) {
		return false
	}
	for k, c := range n.Children {
		oc, ok := o.Children[k]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}

// String returns the JSON form of the trie.
func (n *Node) String() string {
	b, err := n.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid trie: %v>", err)
	}
	return string(b)
}

// Expand reverses optimization and break insertion, returning every URL
// mapped to its payload.
func Expand(root *Node) map[string]string {
	out := make(map[string]string)
	expand(root, "", out)
	return out
}

func expand(n *Node, prefix string, out map[string]string) {
	if n == nil {
		return
	}
	if n.HasValue {
		out[Unbreak(prefix)] = n.Value
	}
	for label, child := range n.Children {
		expand(child, prefix+label, out)
	}
}

// countKeys returns the number of keys in n, counting a value as one.
func (n *Node) countKeys() int {
	c := len(n.Children)
	if n.HasValue {
		c++
	}
	return c
}

// labels returns the sorted child labels of n.
func (n *Node) labels() []string {
	keys := make([]string, 0, len(n.Children))
	for k := range n.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Value: n.Value, HasValue: n.HasValue, pinned: n.pinned}
	if n.Children != nil {
		c.Children = make(map[string]*Node, len(n.Children))
		for k, child := range n.Children {
			c.Children[k] = child.Clone()
		}
	}
	return c
}
