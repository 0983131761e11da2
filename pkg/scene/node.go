package scene

import (
	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/render"
)

// Node is one element of a Graph.
type Node struct {
	id       NodeID
	graph    *Graph
	parent   NodeID
	children []NodeID
	local    math3d.Mat4

	Name     string
	Mesh     *models.Mesh
	Material *Material
	Visible  bool
}

// ID returns the node's stable identifier.
func (n *Node) ID() NodeID {
	return n.id
}

// Alive reports whether the node is still part of its graph.
func (n *Node) Alive() bool {
	return n.graph != nil && n.graph.nodes[n.id] == n
}

// Parent returns the parent node, or nil for roots and dead nodes.
func (n *Node) Parent() *Node {
	if n.graph == nil {
		return nil
	}
	return n.graph.nodes[n.parent]
}

// IsDescendantOf reports whether n lies strictly below ancestor in the
// same graph.
func (n *Node) IsDescendantOf(ancestor *Node) bool {
	return n.graph != nil && n.graph.IsDescendant(n, ancestor)
}

// Children returns the live children in insertion order.
func (n *Node) Children() []*Node {
	if n.graph == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.children))
	for _, id := range n.children {
		if c, ok := n.graph.nodes[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Local returns the transform relative to the parent.
func (n *Node) Local() math3d.Mat4 {
	return n.local
}

// SetLocal replaces the transform relative to the parent.
func (n *Node) SetLocal(m math3d.Mat4) {
	n.local = m
}

// WorldMatrix returns the node's transform in world space.
func (n *Node) WorldMatrix() math3d.Mat4 {
	if p := n.Parent(); p != nil {
		return p.WorldMatrix().Mul(n.local)
	}
	return n.local
}

// SetWorldMatrix sets the local transform so the world transform becomes m.
func (n *Node) SetWorldMatrix(m math3d.Mat4) {
	if p := n.Parent(); p != nil {
		n.local = p.WorldMatrix().Inverse().Mul(m)
		return
	}
	n.local = m
}

// WorldPosition returns the world-space origin of the node.
func (n *Node) WorldPosition() math3d.Vec3 {
	return n.WorldMatrix().Translation()
}

// SetWorldPosition moves the node so its origin lands on p, keeping its
// world orientation.
func (n *Node) SetWorldPosition(p math3d.Vec3) {
	w := n.WorldMatrix()
	w.SetTranslation(p)
	n.SetWorldMatrix(w)
}

// TranslateWorld moves the node by delta in world space.
func (n *Node) TranslateWorld(delta math3d.Vec3) {
	n.SetWorldPosition(n.WorldPosition().Add(delta))
}

// Forward returns the node's world -Z axis.
func (n *Node) Forward() math3d.Vec3 {
	return n.WorldMatrix().Column(2).Negate().Normalize()
}

// Up returns the node's world +Y axis.
func (n *Node) Up() math3d.Vec3 {
	return n.WorldMatrix().Column(1).Normalize()
}

// WorldBounds returns the world-space box of the node's mesh, or false when
// it has none.
func (n *Node) WorldBounds() (math3d.AABB, bool) {
	if n.Mesh == nil {
		return math3d.AABB{}, false
	}
	return n.Mesh.Bounds().Transform(n.WorldMatrix()), true
}

// Material is the flat surface color of a node.
type Material struct {
	color render.Color
}

// NewMaterial creates a material with color c.
func NewMaterial(c render.Color) *Material {
	return &Material{color: c}
}

// Color returns the current color.
func (m *Material) Color() render.Color {
	return m.color
}

// SetColor changes the color.
func (m *Material) SetColor(c render.Color) {
	m.color = c
}
