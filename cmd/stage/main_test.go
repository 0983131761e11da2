package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/stage/pkg/editor"
	"github.com/taigrr/stage/pkg/input"
	"github.com/taigrr/stage/pkg/render"
)

func newEditor() *editor.Editor {
	return editor.New(render.NewRasterizer(render.NewCamera(), render.NewFramebuffer(160, 96)))
}

func writeTriangle(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	})
	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestBackgroundLoadsSurviveWatcherFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	ed := newEditor()

	// The settings directory does not exist, so the watcher fails at once.
	cfgPath := filepath.Join(t.TempDir(), "missing", "stage.toml")
	g := background(context.Background(), logger, ed, cfgPath, []string{writeTriangle(t)})
	require.NoError(t, g.Wait())

	assert.Contains(t, logs.String(), "config watch stopped")
	assert.NotContains(t, logs.String(), "model load failed")
	assert.Equal(t, 1, ed.Pending(), "the load was not cancelled")

	ed.Frame()
	assert.Equal(t, 1, ed.Graph().Len())
}

func TestForwardGesturesPostsToEditor(t *testing.T) {
	ed := newEditor()
	tr := input.NewTracker()
	unsubscribe := forwardGestures(tr, ed)

	d := ed.Camera().Position.Len()
	_, ok := tr.Handle(uv.MouseWheelEvent{X: 10, Y: 10, Button: uv.MouseWheelUp})
	require.True(t, ok)
	assert.Equal(t, 1, ed.Pending())
	assert.InDelta(t, d, ed.Camera().Position.Len(), 1e-12, "nothing runs before the frame")

	ed.Frame()
	assert.Less(t, ed.Camera().Position.Len(), d)

	unsubscribe()
	tr.Handle(uv.MouseWheelEvent{X: 10, Y: 10, Button: uv.MouseWheelUp})
	assert.Zero(t, ed.Pending())
}
