package render

import (
	"math"

	"github.com/taigrr/stage/pkg/math3d"
)

// minClipW rejects geometry at or behind the eye plane.
const minClipW = 1e-5

// Vertex carries the attributes interpolated across a triangle.
type Vertex struct {
	Position math3d.Vec3 // world position
	Normal   math3d.Vec3 // world normal, used for lighting
	Color    Color
}

// Triangle is three vertices with counter-clockwise front faces.
type Triangle struct {
	V [3]Vertex
}

// MeshRenderer is the geometry view the rasterizer needs from a mesh.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer adds local bounds for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// CullingStats counts frustum culling results since the last reset.
type CullingStats struct {
	MeshesTested int
	MeshesCulled int
	MeshesDrawn  int
}

// Rasterizer draws triangles and lines into a framebuffer with a depth
// buffer. The camera can be swapped between passes, for example to draw an
// overlay from a different viewpoint.
type Rasterizer struct {
	camera  *Camera
	fb      *Framebuffer
	zbuffer []float64

	frustum   Frustum
	frustumVP math3d.Mat4
	hasFrust  bool

	CullingStats           CullingStats
	DisableBackfaceCulling bool
}

// NewRasterizer creates a rasterizer drawing through camera into fb.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{camera: camera, fb: fb}
	r.Resize()
	return r
}

// Camera returns the camera used for projection.
func (r *Rasterizer) Camera() *Camera {
	return r.camera
}

// SetCamera replaces the projection camera.
func (r *Rasterizer) SetCamera(c *Camera) {
	r.camera = c
	r.hasFrust = false
}

// Framebuffer returns the color target.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// Resize matches the depth buffer to the framebuffer size.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	if n := r.fb.Width * r.fb.Height; len(r.zbuffer) != n {
		r.zbuffer = make([]float64, n)
	}
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// Viewport returns the framebuffer as a pixel viewport.
func (r *Rasterizer) Viewport() math3d.Viewport {
	return math3d.NewViewport(r.Width(), r.Height())
}

// ClearDepth resets the depth buffer while leaving colors intact.
func (r *Rasterizer) ClearDepth() {
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// Frustum returns the camera frustum, recomputed when the camera's
// view-projection matrix changes.
func (r *Rasterizer) Frustum() Frustum {
	vp := r.camera.ViewProjectionMatrix()
	if !r.hasFrust || vp != r.frustumVP {
		r.frustum = NewFrustumFromMatrix(vp)
		r.frustumVP = vp
		r.hasFrust = true
	}
	return r.frustum
}

// ResetCullingStats zeroes the culling counters.
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// IsVisible reports whether a world-space box touches the frustum.
func (r *Rasterizer) IsVisible(worldBounds math3d.AABB) bool {
	return r.Frustum().IntersectAABB(worldBounds)
}

func (r *Rasterizer) culled(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}
	r.CullingStats.MeshesTested++
	lo, hi := bounded.GetBounds()
	if !r.IsVisible(math3d.NewAABB(lo, hi).Transform(transform)) {
		r.CullingStats.MeshesCulled++
		return true
	}
	r.CullingStats.MeshesDrawn++
	return false
}

// screenVertex is a vertex after projection to pixel space.
type screenVertex struct {
	X, Y, Z float64
	Color   Color
}

// project returns the pixel position of p, or false when p is behind the
// eye plane.
func (r *Rasterizer) project(vp math3d.Mat4, p math3d.Vec3) (screenVertex, bool) {
	clip := vp.MulVec4(math3d.V4FromV3(p, 1))
	if clip.W < minClipW {
		return screenVertex{}, false
	}
	ndc := clip.PerspectiveDivide()
	return screenVertex{
		X: (ndc.X + 1) * 0.5 * float64(r.Width()),
		Y: (1 - ndc.Y) * 0.5 * float64(r.Height()),
		Z: ndc.Z,
	}, true
}

// DrawTriangle rasterizes tri, interpolating vertex colors.
func (r *Rasterizer) DrawTriangle(tri Triangle) {
	if r.fb == nil {
		return
	}
	vp := r.camera.ViewProjectionMatrix()
	var sv [3]screenVertex
	for i := range 3 {
		v, ok := r.project(vp, tri.V[i].Position)
		if !ok {
			return
		}
		v.Color = tri.V[i].Color
		sv[i] = v
	}
	r.fill(sv)
}

// fill scan-converts a projected triangle with depth testing.
func (r *Rasterizer) fill(sv [3]screenVertex) {
	// Screen y grows downward, so counter-clockwise faces have negative area.
	area := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if area == 0 || (area > 0 && !r.DisableBackfaceCulling) {
		return
	}

	minX := max(0, int(math.Floor(min(sv[0].X, sv[1].X, sv[2].X))))
	maxX := min(r.Width()-1, int(math.Ceil(max(sv[0].X, sv[1].X, sv[2].X))))
	minY := max(0, int(math.Floor(min(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := min(r.Height()-1, int(math.Ceil(max(sv[0].Y, sv[1].Y, sv[2].Y))))

	inv := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5

			w0 := ((sv[1].X-px)*(sv[2].Y-py) - (sv[1].Y-py)*(sv[2].X-px)) * inv
			w1 := ((sv[2].X-px)*(sv[0].Y-py) - (sv[2].Y-py)*(sv[0].X-px)) * inv
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*sv[0].Z + w1*sv[1].Z + w2*sv[2].Z
			idx := y*r.fb.Width + x
			if z >= r.zbuffer[idx] {
				continue
			}
			r.zbuffer[idx] = z
			r.fb.Pixels[idx] = blend3(sv[0].Color, sv[1].Color, sv[2].Color, w0, w1, w2)
		}
	}
}

func blend3(c0, c1, c2 Color, w0, w1, w2 float64) Color {
	ch := func(a, b, c uint8) uint8 {
		v := float64(a)*w0 + float64(b)*w1 + float64(c)*w2
		return uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
	return RGB(ch(c0.R, c1.R, c2.R), ch(c0.G, c1.G, c2.G), ch(c0.B, c1.B, c2.B))
}

// shade applies ambient plus Lambert diffuse lighting.
func shade(c Color, normal, lightDir math3d.Vec3) Color {
	k := 0.3 + 0.7*math.Max(0, normal.Dot(lightDir))
	ch := func(v uint8) uint8 { return uint8(math.Round(float64(v) * k)) }
	return RGB(ch(c.R), ch(c.G), ch(c.B))
}

// DrawTriangleGouraud lights each vertex and interpolates the result.
func (r *Rasterizer) DrawTriangleGouraud(tri Triangle, lightDir math3d.Vec3) {
	l := lightDir.Normalize()
	for i := range 3 {
		tri.V[i].Color = shade(tri.V[i].Color, tri.V[i].Normal, l)
	}
	r.DrawTriangle(tri)
}

// DrawMeshGouraud draws mesh with per-vertex lighting.
func (r *Rasterizer) DrawMeshGouraud(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.culled(mesh, transform) {
		return
	}
	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)
		var tri Triangle
		for k := range 3 {
			p, n := mesh.GetVertex(face[k])
			tri.V[k] = Vertex{
				Position: transform.MulVec3(p),
				Normal:   transform.MulVec3Dir(n).Normalize(),
				Color:    color,
			}
		}
		r.DrawTriangleGouraud(tri, lightDir)
	}
}

// DrawMeshFlat draws mesh with one lit color per face.
func (r *Rasterizer) DrawMeshFlat(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.culled(mesh, transform) {
		return
	}
	l := lightDir.Normalize()
	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)
		var p [3]math3d.Vec3
		for k := range 3 {
			local, _ := mesh.GetVertex(face[k])
			p[k] = transform.MulVec3(local)
		}
		c := shade(color, p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Normalize(), l)
		r.DrawTriangle(Triangle{V: [3]Vertex{
			{Position: p[0], Color: c},
			{Position: p[1], Color: c},
			{Position: p[2], Color: c},
		}})
	}
}

// DrawMeshWireframe draws the triangle edges of mesh without depth testing.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	if r.culled(mesh, transform) {
		return
	}
	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)
		var p [3]math3d.Vec3
		for k := range 3 {
			local, _ := mesh.GetVertex(face[k])
			p[k] = transform.MulVec3(local)
		}
		r.DrawLine3D(p[0], p[1], color)
		r.DrawLine3D(p[1], p[2], color)
		r.DrawLine3D(p[2], p[0], color)
	}
}

// DrawLine3D projects a world segment and draws it. Segments crossing the
// near plane are clipped in clip space.
func (r *Rasterizer) DrawLine3D(a, b math3d.Vec3, color Color) {
	if r.fb == nil {
		return
	}
	vp := r.camera.ViewProjectionMatrix()
	ca := vp.MulVec4(math3d.V4FromV3(a, 1))
	cb := vp.MulVec4(math3d.V4FromV3(b, 1))

	// Inside the near plane when z >= -w.
	da, db := ca.Z+ca.W, cb.Z+cb.W
	if da < 0 && db < 0 {
		return
	}
	if da < 0 {
		ca = lerp4(cb, ca, db/(db-da))
	} else if db < 0 {
		cb = lerp4(ca, cb, da/(da-db))
	}
	if ca.W < minClipW || cb.W < minClipW {
		return
	}

	toScreen := func(c math3d.Vec4) (int, int) {
		ndc := c.PerspectiveDivide()
		return int((ndc.X + 1) * 0.5 * float64(r.Width())),
			int((1 - ndc.Y) * 0.5 * float64(r.Height()))
	}
	x0, y0 := toScreen(ca)
	x1, y1 := toScreen(cb)

	// Keep Bresenham bounded for lines that run far offscreen.
	limit := 8 * (r.Width() + r.Height())
	if abs(x0) > limit || abs(y0) > limit || abs(x1) > limit || abs(y1) > limit {
		return
	}
	r.fb.DrawLine(x0, y0, x1, y1, color)
}

func lerp4(a, b math3d.Vec4, t float64) math3d.Vec4 {
	return math3d.V4(
		a.X+(b.X-a.X)*t,
		a.Y+(b.Y-a.Y)*t,
		a.Z+(b.Z-a.Z)*t,
		a.W+(b.W-a.W)*t,
	)
}
