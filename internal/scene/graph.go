// Package scene holds the in-memory hierarchical scene model rebuilt
// from a recorded command stream.
package scene

import (
	"sort"

	mmath "github.com/meshport/meshport/pkg/math"
	"github.com/meshport/meshport/pkg/recording"
)

// Node is a single scene graph node. Geometry and Material are replaced
// wholesale, never patched; Properties hold named typed values such as
// visibility and color overrides.
type Node struct {
	Path       recording.Path
	Geometry   *recording.Geometry
	Material   *recording.Material
	Transform  mmath.Mat4 // local, relative to parent
	Properties map[string]any

	parent   int
	children []int
}

// IsGroup reports whether the node carries no geometry.
func (n *Node) IsGroup() bool {
	return n.Geometry == nil
}

// Graph is an arena of nodes indexed by path. Children are stored as
// index lists to avoid ownership cycles. The zero index is the root.
type Graph struct {
	nodes  []*Node
	index  map[recording.Path]int
	frozen bool
}

// NewGraph returns a graph holding only the root node.
func NewGraph() *Graph {
	g := &Graph{index: make(map[recording.Path]int)}
	root := &Node{
		Path:       recording.RootPath,
		Transform:  mmath.Identity(),
		Properties: make(map[string]any),
		parent:     -1,
	}
	g.nodes = append(g.nodes, root)
	g.index[recording.RootPath] = 0
	return g
}

// Root returns the root node.
func (g *Graph) Root() *Node {
	return g.nodes[0]
}

// Lookup returns the node at path, if present.
func (g *Graph) Lookup(path recording.Path) (*Node, bool) {
	i, ok := g.index[recording.NormalizePath(string(path))]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Ensure returns the node at path, synthesizing it and any missing
// ancestors as empty group nodes. Every non-root node's parent is
// guaranteed to exist (no orphans).
func (g *Graph) Ensure(path recording.Path) *Node {
	g.mustBeMutable()
	path = recording.NormalizePath(string(path))
	if i, ok := g.index[path]; ok {
		return g.nodes[i]
	}

	parent := g.Ensure(path.Parent())
	parentIdx := g.index[parent.Path]

	node := &Node{
		Path:       path,
		Transform:  mmath.Identity(),
		Properties: make(map[string]any),
		parent:     parentIdx,
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.index[path] = idx
	parent.children = append(parent.children, idx)
	return node
}

// Delete removes the node at path and its entire subtree, returning the
// removed paths. Deleting an absent path or the root is a no-op.
func (g *Graph) Delete(path recording.Path) []recording.Path {
	g.mustBeMutable()
	path = recording.NormalizePath(string(path))
	idx, ok := g.index[path]
	if !ok || idx == 0 {
		return nil
	}

	// Detach from parent.
	parent := g.nodes[g.nodes[idx].parent]
	for i, c := range parent.children {
		if c == idx {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}

	// Collect and unlink the subtree. Arena slots stay allocated but
	// become unreachable.
	var removed []recording.Path
	stack := []int{idx}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := g.nodes[i]
		removed = append(removed, n.Path)
		delete(g.index, n.Path)
		stack = append(stack, n.children...)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}

// Children returns the node's children in insertion order.
func (g *Graph) Children(n *Node) []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, i := range n.children {
		out = append(out, g.nodes[i])
	}
	return out
}

// Parent returns the node's parent, nil for the root.
func (g *Graph) Parent(n *Node) *Node {
	if n.parent < 0 {
		return nil
	}
	return g.nodes[n.parent]
}

// WorldTransform composes local transforms along the path from root to
// the node. Recomputed on demand, never cached.
func (g *Graph) WorldTransform(path recording.Path) (mmath.Mat4, bool) {
	idx, ok := g.index[recording.NormalizePath(string(path))]
	if !ok {
		return mmath.Identity(), false
	}

	world := mmath.Identity()
	var chain []int
	for i := idx; i >= 0; i = g.nodes[i].parent {
		chain = append(chain, i)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		world = world.Mul(g.nodes[chain[i]].Transform)
	}
	return world, true
}

// Walk visits every reachable node top-down, parents strictly before
// children. Stops early if fn returns a non-nil error.
func (g *Graph) Walk(fn func(*Node) error) error {
	return g.walk(0, fn)
}

func (g *Graph) walk(idx int, fn func(*Node) error) error {
	n := g.nodes[idx]
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := g.walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of reachable nodes, including the root.
func (g *Graph) Len() int {
	return len(g.index)
}

// Freeze marks the graph read-only. Mutations after the freeze point are
// programming errors.
func (g *Graph) Freeze() {
	g.frozen = true
}

// Frozen reports whether the graph has been frozen.
func (g *Graph) Frozen() bool {
	return g.frozen
}

func (g *Graph) mustBeMutable() {
	if g.frozen {
		panic("scene: mutating frozen graph")
	}
}
