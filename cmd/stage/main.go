// stage - terminal 3D scene editor
// Load GLB models, select them with the mouse and move them with a
// translate gizmo while orbiting the camera.
//
// Controls:
//
//	Left click        - Select (shift+click toggles)
//	Left drag         - Orbit camera, or move along a gizmo handle
//	Right/middle drag - Pan
//	Scroll            - Dolly
//	F                 - Focus selection
//	H                 - Home view
//	G                 - Toggle grid
//	X / Delete        - Remove selection
//	?                 - Toggle HUD overlay
//	Esc               - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/stage/pkg/config"
	"github.com/taigrr/stage/pkg/editor"
	"github.com/taigrr/stage/pkg/input"
	"github.com/taigrr/stage/pkg/models"
	"github.com/taigrr/stage/pkg/render"
)

var (
	configPath = flag.String("config", config.DefaultPath, "Path to settings file (TOML)")
	targetFPS  = flag.Int("fps", 0, "Target FPS (overrides the settings file)")
	bgColor    = flag.String("bg", "", "Background color #rrggbb (overrides the settings file)")
	debug      = flag.Bool("debug", false, "Write debug messages to the log")
	logPath    = flag.String("log", filepath.Join("logs", "stage.log"), "Log file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "stage - Terminal 3D Scene Editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: stage [options] [model.glb ...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Left click        - Select (shift+click toggles)\n")
		fmt.Fprintf(os.Stderr, "  Left drag         - Orbit, or move along a gizmo handle\n")
		fmt.Fprintf(os.Stderr, "  Right/middle drag - Pan\n")
		fmt.Fprintf(os.Stderr, "  Scroll            - Dolly\n")
		fmt.Fprintf(os.Stderr, "  F / H / G         - Focus selection / home view / grid\n")
		fmt.Fprintf(os.Stderr, "  X, Delete         - Remove selection\n")
		fmt.Fprintf(os.Stderr, "  ?                 - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc               - Quit\n")
	}
	flag.Parse()

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLog sends slog output to path. The terminal belongs to the editor.
func openLog(path string, level slog.Level) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	l := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return l, func() { f.Close() }, nil
}

// withFlags applies command line overrides on top of the settings file.
func withFlags(cfg config.File) (config.File, error) {
	if *targetFPS > 0 {
		cfg.View.FPS = *targetFPS
	}
	if *bgColor != "" {
		if _, err := config.ParseColor(*bgColor); err != nil {
			return cfg, fmt.Errorf("-bg: %w", err)
		}
		cfg.View.Background = *bgColor
	}
	return cfg, nil
}

// HUD renders a status overlay on the top and bottom rows.
type HUD struct {
	visible   bool
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a hidden HUD.
func NewHUD() *HUD {
	return &HUD{fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the HUD through tr.
func (h *HUD) Render(tr *render.TerminalRenderer, ed *editor.Editor, height int) {
	const (
		reset    = "\x1b[0m"
		bold     = "\x1b[1m"
		dim      = "\x1b[2m"
		bgBlack  = "\x1b[40m"
		fgWhite  = "\x1b[97m"
		fgGreen  = "\x1b[92m"
		fgYellow = "\x1b[93m"
	)
	if !h.visible {
		return
	}
	tr.Text(0, 0, fmt.Sprintf("%s%s %.0f FPS %s%s%s %s %s", bgBlack, fgGreen, h.fps, fgWhite, bold, bgBlack, ed.Status(), reset))
	tr.Text(0, height-1, fmt.Sprintf("%s%s%s click select  drag orbit  f focus  h home  g grid  x delete  esc quit %s", bgBlack, dim, fgYellow, reset))
}

func run(paths []string) error {
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger, closeLog, err := openLog(*logPath, level)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg, err = withFlags(cfg); err != nil {
		return err
	}

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fbWidth, fbHeight := termRenderer.FramebufferSize()
	fb := render.NewFramebuffer(fbWidth, fbHeight)
	camera := render.NewCamera()
	camera.SetClipPlanes(0.1, 100)

	ed := editor.New(render.NewRasterizer(camera, fb), editor.WithConfig(cfg), editor.WithLogger(logger))
	if len(paths) == 0 {
		ed.AddModel("cube", models.NewCube("cube", editor.ModelSize))
	}
	hud := NewHUD()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g := background(ctx, logger, ed, *configPath, paths)

	// Event handler: translates terminal events and posts them to the
	// render loop.
	tracker := input.NewTracker()
	defer forwardGestures(tracker, ed)()
	go func() {
		for ev := range term.Events() {
			if _, ok := tracker.Handle(ev); ok {
				continue
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				w, h := ev.Width, ev.Height
				ed.Post(func() {
					width, height = w, h
					term.Erase()
					term.Resize(width, height)
					termRenderer.Resize(width, height)
					ed.Resize(termRenderer.FramebufferSize())
				})

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "ctrl+c"):
					cancel()
					return
				case ev.MatchString("f"):
					ed.Post(func() { ed.FocusSelection() })
				case ev.MatchString("h"):
					ed.Post(ed.Home)
				case ev.MatchString("g"):
					ed.Post(func() { ed.ToggleGrid() })
				case ev.MatchString("x", "delete"):
					ed.Post(func() { ed.DeleteSelection() })
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					ed.Post(func() { hud.visible = !hud.visible })
				}
			}
		}
	}()

	// Main loop
	var loopErr error
	for ctx.Err() == nil {
		start := time.Now()

		ed.Frame()
		ed.Render()

		termRenderer.Render(fb)
		hud.UpdateFPS()
		hud.Render(termRenderer, ed, height)
		if err := termRenderer.Flush(); err != nil {
			loopErr = fmt.Errorf("flush: %w", err)
			break
		}

		// Frame timing
		targetDuration := time.Second / time.Duration(ed.Config().View.FPS)
		if elapsed := time.Since(start); elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}

	cancel()
	g.Wait()
	return loopErr
}

// background starts the settings watcher and the model loads. Neither
// returns an error to the group, so a watcher that fails to start is
// logged and never cancels the loads.
func background(ctx context.Context, logger *slog.Logger, ed *editor.Editor, cfgPath string, paths []string) *errgroup.Group {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := config.Watch(gctx, cfgPath, func(f config.File, err error) {
			if err == nil {
				f, err = withFlags(f)
			}
			if err != nil {
				logger.Warn("config reload failed", "err", err)
				return
			}
			ed.Post(func() { ed.ApplyConfig(f) })
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config watch stopped", "path", cfgPath, "err", err)
		}
		return nil
	})
	if len(paths) > 0 {
		g.Go(func() error {
			if err := ed.LoadModels(gctx, paths); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("model load failed", "err", err)
			}
			return nil
		})
	}
	return g
}

// forwardGestures posts every gesture tr produces to the render loop.
func forwardGestures(tr *input.Tracker, ed *editor.Editor) (unsubscribe func()) {
	return tr.Subscribe(func(g input.Gesture) {
		ed.Post(func() { ed.HandleGesture(g) })
	})
}
