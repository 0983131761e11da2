// Package scene is the editor's scene graph: an arena of nodes addressed by
// stable IDs, each carrying a local transform, an optional mesh and a
// material.
package scene

import (
	"errors"
	"slices"

	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/render"
)

// NodeID identifies a node for the lifetime of its graph. Zero is never
// assigned.
type NodeID uint64

var (
	// ErrCycle is returned when a reparent would make a node its own ancestor.
	ErrCycle = errors.New("scene: reparent would create a cycle")
	// ErrForeignNode is returned for nodes that are dead or owned by another graph.
	ErrForeignNode = errors.New("scene: node does not belong to this graph")
)

// Graph owns a set of nodes. Parent and child links are stored as IDs, so
// removing a subtree never leaves dangling pointers inside the graph.
type Graph struct {
	nodes map[NodeID]*Node
	roots []NodeID
	next  NodeID
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NewNode creates a node under parent, or at the root when parent is nil.
func (g *Graph) NewNode(name string, parent *Node) *Node {
	g.next++
	n := &Node{
		id:      g.next,
		graph:   g,
		Name:    name,
		local:   math3d.Identity(),
		Visible: true,
	}
	g.nodes[n.id] = n
	if parent != nil && g.owns(parent) {
		n.parent = parent.id
		parent.children = append(parent.children, n.id)
	} else {
		g.roots = append(g.roots, n.id)
	}
	return n
}

// NewMeshNode creates a visible node drawing mesh with a solid color.
func (g *Graph) NewMeshNode(name string, parent *Node, mesh *models.Mesh, color render.Color) *Node {
	n := g.NewNode(name, parent)
	n.Mesh = mesh
	n.Material = NewMaterial(color)
	return n
}

// Node looks up a live node.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) owns(n *Node) bool {
	return n != nil && g.nodes[n.id] == n
}

// Remove deletes n and its descendants and returns how many nodes died.
func (g *Graph) Remove(n *Node) int {
	if !g.owns(n) {
		return 0
	}
	g.detach(n)
	count := 0
	var kill func(id NodeID)
	kill = func(id NodeID) {
		child := g.nodes[id]
		for _, c := range child.children {
			kill(c)
		}
		delete(g.nodes, id)
		child.graph = nil
		count++
	}
	kill(n.id)
	return count
}

// detach unlinks n from its parent or the root list.
func (g *Graph) detach(n *Node) {
	if p, ok := g.nodes[n.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(id NodeID) bool { return id == n.id })
	} else {
		g.roots = slices.DeleteFunc(g.roots, func(id NodeID) bool { return id == n.id })
	}
	n.parent = 0
}

// Reparent moves child under parent (nil for root). With keepWorld the
// child's world transform is preserved, otherwise its local transform is.
func (g *Graph) Reparent(child, parent *Node, keepWorld bool) error {
	if !g.owns(child) || (parent != nil && !g.owns(parent)) {
		return ErrForeignNode
	}
	if parent != nil && (parent == child || g.IsDescendant(parent, child)) {
		return ErrCycle
	}
	world := child.WorldMatrix()
	g.detach(child)
	if parent == nil {
		g.roots = append(g.roots, child.id)
	} else {
		child.parent = parent.id
		parent.children = append(parent.children, child.id)
	}
	if keepWorld {
		child.SetWorldMatrix(world)
	}
	return nil
}

// IsDescendant reports whether n lies strictly below ancestor.
func (g *Graph) IsDescendant(n, ancestor *Node) bool {
	if !g.owns(n) || !g.owns(ancestor) {
		return false
	}
	for id := n.parent; id != 0; {
		if id == ancestor.id {
			return true
		}
		p, ok := g.nodes[id]
		if !ok {
			return false
		}
		id = p.parent
	}
	return false
}

// Roots filters nodes down to those with no ancestor in the same set,
// keeping their order. Duplicates and dead nodes are dropped.
func Roots(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for i, n := range nodes {
		if !n.Alive() || slices.Contains(nodes[:i], n) {
			continue
		}
		covered := false
		for _, other := range nodes {
			if other != n && n.IsDescendantOf(other) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits nodes depth-first in creation order. Returning false from fn
// skips that node's children.
func (g *Graph) Walk(fn func(*Node) bool) {
	var visit func(id NodeID)
	visit = func(id NodeID) {
		n, ok := g.nodes[id]
		if !ok || !fn(n) {
			return
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	for _, id := range g.roots {
		visit(id)
	}
}
