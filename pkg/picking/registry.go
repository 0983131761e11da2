// Package picking resolves rays against a registry of pickable entries.
//
// Each entry pairs a visual handle with a collision proxy. Proxies are
// usually cheaper than the visual geometry (a fattened box around a thin
// arrow, a mesh bounding box) but any Collider works.
package picking

import (
	"cmp"
	"slices"

	"github.com/taigrr/stage/pkg/math3d"
)

// ID identifies a registry entry. IDs are never reused.
type ID uint32

// None is never allocated and means "no entry".
const None ID = 0

// Collider is the geometry a ray is tested against.
type Collider interface {
	// IntersectRay returns the distance along r to the nearest surface.
	IntersectRay(r math3d.Ray) (float64, bool)
}

// Hit is one intersection reported by CastRay.
type Hit[T any] struct {
	ID       ID
	Visual   T
	Distance float64
	Point    math3d.Vec3
}

type entry[T any] struct {
	id     ID
	visual T
	proxy  Collider
}

// Registry holds pickable entries. It is not safe for concurrent use; all
// access happens on the render thread.
type Registry[T any] struct {
	entries []entry[T]
	next    ID
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Add registers visual with its collision proxy and returns a fresh ID.
func (r *Registry[T]) Add(visual T, proxy Collider) ID {
	r.next++
	r.entries = append(r.entries, entry[T]{id: r.next, visual: visual, proxy: proxy})
	return r.next
}

// Remove unregisters id. It reports whether the entry existed.
func (r *Registry[T]) Remove(id ID) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return true
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}

// Visual returns the visual registered under id.
func (r *Registry[T]) Visual(id ID) (T, bool) {
	if i := r.index(id); i >= 0 {
		return r.entries[i].visual, true
	}
	var zero T
	return zero, false
}

func (r *Registry[T]) index(id ID) int {
	return slices.IndexFunc(r.entries, func(e entry[T]) bool { return e.id == id })
}

// CastRay tests ray against every proxy and returns the hits nearest first.
// Entries at equal distance keep registration order.
func (r *Registry[T]) CastRay(ray math3d.Ray) []Hit[T] {
	var hits []Hit[T]
	for _, e := range r.entries {
		t, ok := e.proxy.IntersectRay(ray)
		if !ok {
			continue
		}
		hits = append(hits, Hit[T]{
			ID:       e.id,
			Visual:   e.visual,
			Distance: t,
			Point:    ray.At(t),
		})
	}
	slices.SortStableFunc(hits, func(a, b Hit[T]) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits
}

// Nearest returns the closest hit along ray, if any.
func (r *Registry[T]) Nearest(ray math3d.Ray) (Hit[T], bool) {
	hits := r.CastRay(ray)
	if len(hits) == 0 {
		return Hit[T]{}, false
	}
	return hits[0], true
}
