package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Display is a screen that can push its contents to the output device.
// *uv.Terminal satisfies it.
type Display interface {
	uv.Screen
	Display() error
}

// TerminalRenderer presents framebuffers on a cell screen using upper half
// blocks: the foreground paints the top pixel, the background the bottom.
type TerminalRenderer struct {
	scr    Display
	width  int
	height int
}

// NewTerminalRenderer creates a renderer for a screen of width columns by
// height rows.
func NewTerminalRenderer(scr Display, width, height int) *TerminalRenderer {
	return &TerminalRenderer{scr: scr, width: width, height: height}
}

// Resize updates the screen dimensions in cells.
func (t *TerminalRenderer) Resize(width, height int) {
	t.width, t.height = width, height
}

// FramebufferSize returns the pixel size matching the screen.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.width, t.height * 2
}

// Render copies fb onto the screen.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(t.scr, uv.Rect(0, 0, t.width, t.height))
}

// Text draws a possibly ANSI-styled string starting at cell (x, y).
func (t *TerminalRenderer) Text(x, y int, s string) {
	if y < 0 || y >= t.height {
		return
	}
	uv.NewStyledString(s).Draw(t.scr, uv.Rect(x, y, t.width-x, 1))
}

// Flush writes pending changes to the terminal.
func (t *TerminalRenderer) Flush() error {
	return t.scr.Display()
}

// Draw converts the framebuffer to half-block cells inside area.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		top, bot := row*2, row*2+1
		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(col, top)),
					Bg: cellColor(fb.GetPixel(col, bot)),
				},
			})
		}
	}
}

// cellColor maps transparent pixels to the terminal default color.
func cellColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// Color is the pixel color type.
type Color = color.RGBA

// Palette used by the editor.
var (
	ColorBlack  = RGB(0, 0, 0)
	ColorWhite  = RGB(255, 255, 255)
	ColorRed    = RGB(230, 60, 60)
	ColorGreen  = RGB(80, 200, 90)
	ColorBlue   = RGB(70, 120, 235)
	ColorYellow = RGB(250, 220, 40)
	ColorGray   = RGB(90, 90, 100)
	ColorOrange = RGB(255, 150, 40)
)

// RGB creates an opaque color.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}
