// Package input turns raw terminal mouse events into normalized gestures.
package input

import (
	"fmt"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/stage/pkg/math3d"
	"github.com/taigrr/stage/pkg/observer"
)

// Kind classifies a gesture.
type Kind int

const (
	Move Kind = iota
	Press
	Drag
	Release
	Scroll
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Press:
		return "press"
	case Drag:
		return "drag"
	case Release:
		return "release"
	case Scroll:
		return "scroll"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Button is the logical role of the pointer button. The primary button
// selects and grabs gizmo handles on Press and rotates on Drag.
type Button int

const (
	ButtonNone Button = iota
	ButtonRotate
	ButtonPan
)

// Mods is a set of held modifier keys.
type Mods uint8

const (
	ModShift Mods = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether every modifier in m is held.
func (s Mods) Has(m Mods) bool {
	return s&m == m
}

// Gesture is one normalized pointer step in pixel coordinates. For Drag,
// Start is the previous pointer position and End the current one.
type Gesture struct {
	Kind   Kind
	Start  math3d.Vec2
	End    math3d.Vec2
	Button Button
	Scroll float64
	Mods   Mods
}

// Delta returns End - Start.
func (g Gesture) Delta() math3d.Vec2 {
	return g.End.Sub(g.Start)
}

// Tracker converts ultraviolet mouse events to gestures. Terminal cells are
// mapped to framebuffer pixels with CellWidth x CellHeight pixels per cell.
type Tracker struct {
	CellWidth  float64
	CellHeight float64

	pressed   Button
	last      math3d.Vec2
	listeners observer.List[Gesture]
}

// NewTracker returns a tracker for half-block rendering, where every
// terminal row holds two pixel rows.
func NewTracker() *Tracker {
	return &Tracker{CellWidth: 1, CellHeight: 2}
}

// Subscribe registers fn for every gesture the tracker produces.
func (t *Tracker) Subscribe(fn func(Gesture)) (unsubscribe func()) {
	return t.listeners.Subscribe(fn)
}

// Dragging reports whether a button is held.
func (t *Tracker) Dragging() bool {
	return t.pressed != ButtonNone
}

// Handle feeds one terminal event. Non-mouse events are ignored and return
// false.
func (t *Tracker) Handle(ev uv.Event) (Gesture, bool) {
	var g Gesture
	switch ev := ev.(type) {
	case uv.MouseClickEvent:
		b := buttonOf(ev.Button)
		if b == ButtonNone {
			return g, false
		}
		p := t.pixel(ev.X, ev.Y)
		t.pressed, t.last = b, p
		g = Gesture{Kind: Press, Start: p, End: p, Button: b, Mods: modsOf(ev.Mod)}

	case uv.MouseMotionEvent:
		p := t.pixel(ev.X, ev.Y)
		if t.pressed != ButtonNone {
			g = Gesture{Kind: Drag, Start: t.last, End: p, Button: t.pressed, Mods: modsOf(ev.Mod)}
		} else {
			g = Gesture{Kind: Move, Start: p, End: p, Mods: modsOf(ev.Mod)}
		}
		t.last = p

	case uv.MouseReleaseEvent:
		p := t.pixel(ev.X, ev.Y)
		g = Gesture{Kind: Release, Start: t.last, End: p, Button: t.pressed, Mods: modsOf(ev.Mod)}
		t.pressed, t.last = ButtonNone, p

	case uv.MouseWheelEvent:
		p := t.pixel(ev.X, ev.Y)
		g = Gesture{Kind: Scroll, Start: p, End: p, Mods: modsOf(ev.Mod)}
		switch ev.Button {
		case uv.MouseWheelUp:
			g.Scroll = 1
		case uv.MouseWheelDown:
			g.Scroll = -1
		default:
			return Gesture{}, false
		}

	default:
		return g, false
	}
	t.listeners.Notify(g)
	return g, true
}

// pixel returns the framebuffer position at the center of a cell.
func (t *Tracker) pixel(x, y int) math3d.Vec2 {
	return math3d.V2(
		(float64(x)+0.5)*t.CellWidth,
		(float64(y)+0.5)*t.CellHeight,
	)
}

func buttonOf(b uv.MouseButton) Button {
	switch b {
	case uv.MouseLeft:
		return ButtonRotate
	case uv.MouseRight, uv.MouseMiddle:
		return ButtonPan
	}
	return ButtonNone
}

func modsOf(m uv.KeyMod) Mods {
	var out Mods
	if m.Contains(uv.ModShift) {
		out |= ModShift
	}
	if m.Contains(uv.ModCtrl) {
		out |= ModCtrl
	}
	if m.Contains(uv.ModAlt) {
		out |= ModAlt
	}
	return out
}
