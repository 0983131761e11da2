// Package selection maps scene nodes to picking proxies and tracks the
// selected set.
package selection

import (
	"log/slog"
	"slices"

	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/observer"
	"github.com/taigrr/stage/pkg/picking"
	"github.com/taigrr/stage/pkg/scene"
)

// Change reports a node entering or leaving the selection.
type Change struct {
	Node     *scene.Node
	Selected bool
}

// Scene is the scene-wide picker plus the selection set.
type Scene struct {
	log      *slog.Logger
	picker   *picking.Registry[*scene.Node]
	ids      map[scene.NodeID]picking.ID
	selected []*scene.Node
	changes  observer.List[Change]
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the logger for selection changes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) { s.log = l }
}

// New creates an empty selection scene.
func New(opts ...Option) *Scene {
	s := &Scene{
		log:    slog.New(slog.DiscardHandler),
		picker: picking.NewRegistry[*scene.Node](),
		ids:    make(map[scene.NodeID]picking.ID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for selection changes.
func (s *Scene) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// AddSelectable makes node pickable through proxy. Registering a node again
// replaces its proxy.
func (s *Scene) AddSelectable(node *scene.Node, proxy picking.Collider) picking.ID {
	if old, ok := s.ids[node.ID()]; ok {
		s.picker.Remove(old)
	}
	id := s.picker.Add(node, proxy)
	s.ids[node.ID()] = id
	return id
}

// RemoveSelectable unregisters node and drops it from the selection.
func (s *Scene) RemoveSelectable(node *scene.Node) bool {
	id, ok := s.ids[node.ID()]
	if !ok {
		return false
	}
	delete(s.ids, node.ID())
	s.picker.Remove(id)
	s.Deselect(node)
	return true
}

// Len returns the number of selectable nodes.
func (s *Scene) Len() int {
	return s.picker.Len()
}

// Lookup returns the node registered under id.
func (s *Scene) Lookup(id picking.ID) (*scene.Node, bool) {
	return s.picker.Visual(id)
}

// Pick returns the nearest live, visible node along the pointer ray at
// pixel (x, y).
func (s *Scene) Pick(cam math3d.Projector, vp math3d.Viewport, x, y float64) (*scene.Node, bool) {
	for _, hit := range s.picker.CastRay(math3d.RayFromScreenPoint(cam, vp, x, y)) {
		if n := hit.Visual; n.Alive() && n.Visible {
			return n, true
		}
	}
	return nil, false
}

// CastForSelection resolves a click at pixel (x, y).
//
// With add the hit toggles in the selection and nil is returned when it is
// toggled off. With replace the selection is cleared and the hit, if any,
// selected. With neither the selection is left alone. The hit node is
// returned in every other case.
func (s *Scene) CastForSelection(cam math3d.Projector, vp math3d.Viewport, x, y float64, replace, add bool) *scene.Node {
	hit, _ := s.Pick(cam, vp, x, y)
	switch {
	case add:
		if hit == nil {
			return nil
		}
		if s.IsSelected(hit) {
			s.Deselect(hit)
			return nil
		}
		s.Select(hit)
	case replace:
		s.Clear()
		if hit != nil {
			s.Select(hit)
		}
	}
	return hit
}

// Selected returns the live selected nodes in selection order.
func (s *Scene) Selected() []*scene.Node {
	out := make([]*scene.Node, 0, len(s.selected))
	for _, n := range s.selected {
		if n.Alive() {
			out = append(out, n)
		}
	}
	return out
}

// IsSelected reports whether n is selected.
func (s *Scene) IsSelected(n *scene.Node) bool {
	return slices.Contains(s.selected, n)
}

// Select adds n to the selection.
func (s *Scene) Select(n *scene.Node) {
	if n == nil || s.IsSelected(n) {
		return
	}
	s.selected = append(s.selected, n)
	s.log.Debug("selected", "node", n.Name, "count", len(s.selected))
	s.changes.Notify(Change{Node: n, Selected: true})
}

// Deselect removes n from the selection.
func (s *Scene) Deselect(n *scene.Node) {
	i := slices.Index(s.selected, n)
	if i < 0 {
		return
	}
	s.selected = slices.Delete(s.selected, i, i+1)
	s.log.Debug("deselected", "node", n.Name, "count", len(s.selected))
	s.changes.Notify(Change{Node: n, Selected: false})
}

// Clear empties the selection.
func (s *Scene) Clear() {
	prev := s.selected
	s.selected = nil
	for _, n := range prev {
		s.changes.Notify(Change{Node: n, Selected: false})
	}
}
