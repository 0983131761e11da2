package math3d

// Ray is a half-line starting at Origin. Dir is unit length when built by
// the constructors in this package.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay returns a ray with a normalized direction.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns the point at parameter t.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// Viewport is a pixel rectangle with its origin at the top-left.
type Viewport struct {
	X, Y          float64
	Width, Height float64
}

// NewViewport returns a viewport anchored at the origin.
func NewViewport(width, height int) Viewport {
	return Viewport{Width: float64(width), Height: float64(height)}
}

// Aspect returns width / height.
func (v Viewport) Aspect() float64 {
	w, h := v.size()
	return w / h
}

// NDC maps a pixel position to normalized device coordinates with y up.
// Points outside the viewport map outside [-1, 1] and stay valid.
func (v Viewport) NDC(px, py float64) (x, y float64) {
	w, h := v.size()
	x = (px-v.X)/w*2 - 1
	y = 1 - (py-v.Y)/h*2
	return x, y
}

// size guards against zero-sized viewports during startup and resizes.
func (v Viewport) size() (w, h float64) {
	w, h = v.Width, v.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

// Projector exposes the combined projection * view matrix of a camera.
type Projector interface {
	ViewProjectionMatrix() Mat4
}

// RayFromScreenPoint builds the world-space ray under pixel (x, y) by
// unprojecting the near and far clip-space points of that pixel.
func RayFromScreenPoint(cam Projector, vp Viewport, x, y float64) Ray {
	nx, ny := vp.NDC(x, y)
	inv := cam.ViewProjectionMatrix().Inverse()
	near := inv.MulVec4(V4(nx, ny, -1, 1)).PerspectiveDivide()
	far := inv.MulVec4(V4(nx, ny, 1, 1)).PerspectiveDivide()
	return NewRay(near, far.Sub(near))
}
