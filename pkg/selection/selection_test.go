package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/picking"
	"github.com/taigrr/stage/pkg/render"
	"github.com/taigrr/stage/pkg/scene"
)

var testViewport = math3d.NewViewport(400, 300)

type world struct {
	graph *scene.Graph
	sel   *Scene
	cam   *render.Camera
}

func newWorld() *world {
	cam := render.NewCamera()
	cam.SetAspectRatio(testViewport.Aspect())
	cam.SetPosition(math3d.V3(0, 0, 10))
	cam.LookAt(math3d.Zero3())
	return &world{graph: scene.NewGraph(), sel: New(), cam: cam}
}

func (w *world) cube(name string, at math3d.Vec3) *scene.Node {
	n := w.graph.NewMeshNode(name, nil, models.NewCube(name, 1), render.ColorGray)
	n.SetLocal(math3d.Translate(at))
	w.sel.AddSelectable(n, picking.NewMeshCollider(n.Mesh, n))
	return n
}

// pixelOf returns where p is drawn, nudged off triangle diagonals.
func (w *world) pixelOf(p math3d.Vec3) (float64, float64) {
	x, y, _, _ := w.cam.Project(p.Add(math3d.V3(0.11, 0.07, 0)), testViewport)
	return x, y
}

func TestReplaceSelectsNearestOnly(t *testing.T) {
	w := newWorld()
	front := w.cube("front", math3d.V3(0, 0, 2))
	back := w.cube("back", math3d.V3(0, 0, -2))
	side := w.cube("side", math3d.V3(3, 0, 0))

	w.sel.Select(side)
	x, y := w.pixelOf(math3d.V3(0, 0, 2))
	got := w.sel.CastForSelection(w.cam, testViewport, x, y, true, false)

	assert.Same(t, front, got)
	assert.Equal(t, []*scene.Node{front}, w.sel.Selected())
	assert.False(t, w.sel.IsSelected(back))
}

func TestReplaceOnMissClears(t *testing.T) {
	w := newWorld()
	n := w.cube("n", math3d.Zero3())
	w.sel.Select(n)

	assert.Nil(t, w.sel.CastForSelection(w.cam, testViewport, 1, 1, true, false))
	assert.Empty(t, w.sel.Selected())
}

func TestAddToggles(t *testing.T) {
	w := newWorld()
	a := w.cube("a", math3d.V3(-2, 0, 0))
	b := w.cube("b", math3d.V3(2, 0, 0))
	ax, ay := w.pixelOf(a.WorldPosition())
	bx, by := w.pixelOf(b.WorldPosition())

	assert.Same(t, a, w.sel.CastForSelection(w.cam, testViewport, ax, ay, false, true))
	assert.Same(t, b, w.sel.CastForSelection(w.cam, testViewport, bx, by, false, true))
	assert.Equal(t, []*scene.Node{a, b}, w.sel.Selected())

	assert.Nil(t, w.sel.CastForSelection(w.cam, testViewport, ax, ay, false, true), "toggled off")
	assert.Equal(t, []*scene.Node{b}, w.sel.Selected())

	assert.Nil(t, w.sel.CastForSelection(w.cam, testViewport, 1, 1, false, true))
	assert.Equal(t, []*scene.Node{b}, w.sel.Selected(), "a miss leaves the selection alone")
}

func TestQueryOnlyLeavesSelection(t *testing.T) {
	w := newWorld()
	n := w.cube("n", math3d.Zero3())
	x, y := w.pixelOf(n.WorldPosition())

	assert.Same(t, n, w.sel.CastForSelection(w.cam, testViewport, x, y, false, false))
	assert.Empty(t, w.sel.Selected())
}

func TestPickSkipsHiddenAndDead(t *testing.T) {
	w := newWorld()
	front := w.cube("front", math3d.V3(0, 0, 2))
	back := w.cube("back", math3d.V3(0, 0, -2))
	x, y := w.pixelOf(math3d.V3(0, 0, 2))

	front.Visible = false
	got, ok := w.sel.Pick(w.cam, testViewport, x, y)
	require.True(t, ok)
	assert.Same(t, back, got)

	w.graph.Remove(back)
	_, ok = w.sel.Pick(w.cam, testViewport, x, y)
	assert.False(t, ok)
}

func TestRemoveSelectableDeselects(t *testing.T) {
	w := newWorld()
	n := w.cube("n", math3d.Zero3())
	w.sel.Select(n)

	assert.True(t, w.sel.RemoveSelectable(n))
	assert.False(t, w.sel.RemoveSelectable(n))
	assert.Empty(t, w.sel.Selected())
	assert.Zero(t, w.sel.Len())

	x, y := w.pixelOf(n.WorldPosition())
	_, ok := w.sel.Pick(w.cam, testViewport, x, y)
	assert.False(t, ok)
}

func TestAddSelectableReplacesProxy(t *testing.T) {
	w := newWorld()
	n := w.cube("n", math3d.Zero3())
	id := w.sel.AddSelectable(n, picking.NewBoxCollider(n.Mesh.Bounds(), n))
	assert.Equal(t, 1, w.sel.Len())

	got, ok := w.sel.Lookup(id)
	require.True(t, ok)
	assert.Same(t, n, got)
}

func TestSubscribeReportsChanges(t *testing.T) {
	w := newWorld()
	a := w.cube("a", math3d.V3(-2, 0, 0))
	b := w.cube("b", math3d.V3(2, 0, 0))

	var changes []Change
	unsub := w.sel.Subscribe(func(c Change) { changes = append(changes, c) })
	w.sel.Select(a)
	w.sel.Select(a)
	w.sel.Select(b)
	w.sel.Clear()

	assert.Equal(t, []Change{
		{Node: a, Selected: true},
		{Node: b, Selected: true},
		{Node: a, Selected: false},
		{Node: b, Selected: false},
	}, changes)

	unsub()
	w.sel.Select(a)
	assert.Len(t, changes, 4)
}
