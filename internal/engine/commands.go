package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wethinkt/go-niiview/internal/layout"
	"github.com/wethinkt/go-niiview/internal/nav4d"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/render"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/viewport"
	"github.com/wethinkt/go-niiview/internal/viewsync"
)

var (
	errNot4D        = errors.New("viewport has no 4D series")
	errNotSelected  = errors.New("viewport is not selected")
	errNoViewports  = errors.New("no viewports")
	errNoOverlay    = errors.New("no overlay to remove")
	errBadOverlayOp = errors.New("not an overlay request kind")
)

// ExampleName is the URI given to the built-in example image.
const ExampleName = "example.nii"

// command enqueues a user command. Failures are logged; they never reach
// the caller.
func (e *Engine) command(name string, fn func() error) {
	e.enqueue(func() {
		if err := fn(); err != nil {
			tuilog.Log.Warn("engine: command failed", "command", name, "error", err)
		}
	})
}

// targets are the instances broadcastable commands apply to.
func (e *Engine) targets() []*viewport.Instance {
	var out []*viewport.Instance
	for _, i := range e.sel.Targets(e.coll.Len()) {
		if in, err := e.coll.At(i); err == nil {
			out = append(out, in)
		}
	}
	return out
}

// reselect runs fn and stops playback on every viewport it deselected.
func (e *Engine) reselect(fn func()) {
	before := e.sel.Indices()
	fn()
	for _, i := range before {
		if e.sel.Selected(i) {
			continue
		}
		if in, err := e.coll.At(i); err == nil && in.Nav != nil {
			in.Nav.Stop()
			e.touch(in)
		}
	}
}

func clampHideUI(level int) int {
	return max(0, min(DefaultHideUI, level))
}

// AddViewports appends n empty viewports.
func (e *Engine) AddViewports(n int) {
	e.command("add viewports", func() error {
		e.initCanvas(n)
		return nil
	})
}

// Remove closes the viewport at i and drops it from the grid.
func (e *Engine) Remove(i int) {
	e.command("remove", func() error {
		in, err := e.coll.Remove(i)
		if in == nil {
			return err
		}
		if err != nil {
			tuilog.Log.Warn("engine: closing viewport", "key", in.Key, "error", err)
		}
		delete(e.deferred, in.Key)
		delete(e.loading, in.Key)
		delete(e.dirty, in.Key)

		n := e.coll.Len()
		e.sel.Removed(i, n)
		if n == 0 {
			e.location = ""
		}
		e.redrawAll = true
		tuilog.Log.Info("engine: viewport removed", "key", in.Key, "remaining", n)
		return nil
	})
}

// Move reorders the viewport at from to position to.
func (e *Engine) Move(from, to int) {
	e.command("move", func() error {
		if err := e.coll.Move(from, to); err != nil {
			return err
		}
		e.sel.Moved(from, to, e.coll.Len())
		e.redrawAll = true
		return nil
	})
}

// Replace loads p as the new base image of the viewport at i. A replace
// still decoding is discarded when a newer one arrives.
func (e *Engine) Replace(i int, p protocol.Payload) {
	e.command("replace", func() error {
		in, err := e.coll.At(i)
		if err != nil {
			return err
		}
		delete(e.deferred, in.Key)
		e.loadImage(in, p)
		return nil
	})
}

// Click applies a click on viewport i to the selection.
func (e *Engine) Click(i int) {
	e.command("click", func() error {
		if _, err := e.coll.At(i); err != nil {
			return err
		}
		e.reselect(func() { e.sel.Click(i, e.coll.Len()) })
		e.redrawAll = true
		return nil
	})
}

// SetSelectionActive turns selection mode on or off.
func (e *Engine) SetSelectionActive(on bool) {
	e.command("selection mode", func() error {
		e.reselect(func() { e.sel.SetActive(on, e.coll.Len()) })
		e.redrawAll = true
		return nil
	})
}

// SetMultiSelect switches between single and multiple selection.
func (e *Engine) SetMultiSelect(on bool) {
	e.command("multi-select", func() error {
		e.reselect(func() { e.sel.SetMultiple(on, e.coll.Len()) })
		e.redrawAll = true
		return nil
	})
}

// SelectAll selects every viewport.
func (e *Engine) SelectAll() {
	e.command("select all", func() error {
		e.sel.SelectAll(e.coll.Len())
		e.redrawAll = true
		return nil
	})
}

// ToggleSync opts the viewport at i in or out of the sync group.
func (e *Engine) ToggleSync(i int) {
	e.command("toggle sync", func() error {
		in, err := e.coll.At(i)
		if err != nil {
			return err
		}
		in.SyncEnabled = !in.SyncEnabled
		e.touch(in)
		return nil
	})
}

// SetSyncAxes enables or disables the planar and rotational sync axes.
func (e *Engine) SetSyncAxes(planar, rotational bool) {
	e.command("sync axes", func() error {
		e.syncer.Toggle(viewsync.Planar, planar)
		e.syncer.Toggle(viewsync.Rotational, rotational)
		return nil
	})
}

// nav runs fn on the frame controller of viewport i.
func (e *Engine) nav(name string, i int, fn func(*nav4d.Controller) error) {
	e.command(name, func() error {
		in, err := e.coll.At(i)
		if err != nil {
			return err
		}
		if in.Nav == nil {
			return fmt.Errorf("viewport %d: %w", i, errNot4D)
		}
		e.touch(in)
		return fn(in.Nav)
	})
}

// NextFrame advances viewport i by one frame.
func (e *Engine) NextFrame(i int) {
	e.nav("next frame", i, func(c *nav4d.Controller) error {
		c.Next()
		return nil
	})
}

// PrevFrame steps viewport i back one frame.
func (e *Engine) PrevFrame(i int) {
	e.nav("previous frame", i, func(c *nav4d.Controller) error {
		c.Previous()
		return nil
	})
}

// SetFrame jumps viewport i to frame n, clamped.
func (e *Engine) SetFrame(i, n int) {
	e.nav("set frame", i, func(c *nav4d.Controller) error {
		c.Set(n)
		return nil
	})
}

// TogglePlay starts or stops playback on viewport i. Only selected
// viewports start playing.
func (e *Engine) TogglePlay(i int) {
	e.nav("toggle play", i, func(c *nav4d.Controller) error {
		if c.State() == nav4d.Stopped && !e.sel.Selected(i) {
			return fmt.Errorf("viewport %d: %w", i, errNotSelected)
		}
		c.Toggle()
		return nil
	})
}

// BeginFrameEdit opens the frame entry field of viewport i.
func (e *Engine) BeginFrameEdit(i int) {
	e.nav("begin frame edit", i, func(c *nav4d.Controller) error {
		c.BeginEdit()
		return nil
	})
}

// FrameInput replaces the text of the frame entry field of viewport i.
func (e *Engine) FrameInput(i int, text string) {
	e.nav("frame input", i, func(c *nav4d.Controller) error {
		c.Input(text)
		return nil
	})
}

// CommitFrameEdit applies the frame entry field of viewport i.
func (e *Engine) CommitFrameEdit(i int) {
	e.nav("commit frame edit", i, func(c *nav4d.Controller) error {
		return c.Commit()
	})
}

// CancelFrameEdit reverts the frame entry field of viewport i.
func (e *Engine) CancelFrameEdit(i int) {
	e.nav("cancel frame edit", i, func(c *nav4d.Controller) error {
		c.Cancel()
		return nil
	})
}

// Interact applies a view change made on viewport i and shares it with the
// sync group.
func (e *Engine) Interact(i int, view scene.View, button viewsync.Button) {
	e.command("interact", func() error {
		in, err := e.coll.At(i)
		if err != nil {
			return err
		}
		items := e.coll.All()
		peers := e.syncer.Broadcast(i, items, viewsync.Interaction{View: view, Button: button})
		e.touch(in)
		for _, j := range peers {
			e.touch(items[j])
		}
		if sel := e.sel.Indices(); len(sel) > 0 && sel[0] == i {
			e.location = location(in)
		}
		return nil
	})
}

// location formats the crosshair of in in millimetres.
func location(in *viewport.Instance) string {
	if len(in.Scene.Volumes) == 0 {
		return ""
	}
	h := in.Scene.Volumes[0].Header
	c := in.Scene.View.Crosshair
	return fmt.Sprintf("%.2f x %.2f x %.2f mm", c[0]*h.Extent(0), c[1]*h.Extent(1), c[2]*h.Extent(2))
}

// ResetZoom recentres every viewport at zoom 1.
func (e *Engine) ResetZoom() {
	e.command("reset zoom", func() error {
		for _, in := range e.coll.All() {
			in.Scene.View.Pan = [4]float64{0, 0, 0, 1}
		}
		e.redrawAll = true
		return nil
	})
}

// SetSliceType changes the plane every viewport shows.
func (e *Engine) SetSliceType(st scene.SliceType) {
	e.command("slice type", func() error {
		e.sliceType = st
		e.redrawAll = true
		return nil
	})
}

// SetHideUI sets how much viewport chrome is drawn, from 0 (none) to 3.
func (e *Engine) SetHideUI(level int) {
	e.command("hide ui", func() error {
		e.hideUI = clampHideUI(level)
		e.redrawAll = true
		return nil
	})
}

// Resize sets the container the grid is laid out in.
func (e *Engine) Resize(size layout.Size) {
	e.command("resize", func() error {
		e.container = size
		return nil
	})
}

// ResetVoxelSize sets unit spacing on the targeted viewports' volumes.
func (e *Engine) ResetVoxelSize() {
	e.command("reset voxel size", func() error {
		for _, in := range e.targets() {
			for k := range in.Scene.Volumes {
				in.Scene.Volumes[k].Header.Spacing = [3]float64{1, 1, 1}
			}
			e.touch(in)
		}
		return nil
	})
}

// SetLayerDisplay changes the scaling, colormap, opacity or inversion of
// layer n on every targeted viewport. Layer n is the n-th volume, or the
// n-th scalar layer of the first mesh for mesh-only viewports. Targets
// without that layer are skipped.
func (e *Engine) SetLayerDisplay(n int, d scene.LayerDisplay) {
	e.command("layer display", func() error {
		if err := d.Validate(); err != nil {
			return err
		}
		targets := e.targets()
		if len(targets) == 0 {
			return errNoViewports
		}
		var (
			applied int
			lastErr error
		)
		for _, in := range targets {
			if err := in.Scene.SetLayerDisplay(n, d); err != nil {
				tuilog.Log.Debug("engine: layer display skipped", "key", in.Key, "layer", n, "error", err)
				lastErr = err
				continue
			}
			applied++
			e.touch(in)
		}
		if applied == 0 {
			return lastErr
		}
		layerDisplayTotal.Inc()
		return nil
	})
}

// RemoveLastOverlay drops the newest overlay of the target viewport.
func (e *Engine) RemoveLastOverlay() {
	e.command("remove overlay", func() error {
		return e.removeLastOverlay()
	})
}

func (e *Engine) removeLastOverlay() error {
	ts := e.targets()
	if len(ts) == 0 {
		return errNoViewports
	}
	in := ts[0]
	if !in.Scene.RemoveLastOverlay() {
		return errNoOverlay
	}
	e.touch(in)
	return nil
}

// ReplaceLastOverlay drops the newest overlay and asks the host for a new
// one.
func (e *Engine) ReplaceLastOverlay() {
	e.command("replace overlay", func() error {
		if err := e.removeLastOverlay(); err != nil {
			return err
		}
		return e.requestOverlay(protocol.KindOverlay)
	})
}

// RequestOverlay asks the host to pick a file for the target viewport and
// send it back as a message of the given kind.
func (e *Engine) RequestOverlay(kind protocol.Kind) {
	e.command("request overlay", func() error {
		return e.requestOverlay(kind)
	})
}

var overlayKinds = []protocol.Kind{
	protocol.KindOverlay,
	protocol.KindAddMeshOverlay,
	protocol.KindAddMeshCurvature,
	protocol.KindReplaceMeshOverlay,
}

func (e *Engine) requestOverlay(kind protocol.Kind) error {
	if !slices.Contains(overlayKinds, kind) {
		return fmt.Errorf("%q: %w", kind, errBadOverlayOp)
	}
	idx := e.sel.Target(e.coll.Len())
	if idx < 0 {
		return errNoViewports
	}
	env, err := protocol.NewEnvelope(protocol.KindAddOverlay, protocol.OverlayRequest{Type: kind, Index: idx})
	if err != nil {
		return err
	}
	e.send(env)
	return nil
}

// RequestImages asks the host to pick images to open.
func (e *Engine) RequestImages() {
	e.command("request images", func() error {
		e.send(protocol.Envelope{Type: protocol.KindAddImages})
		return nil
	})
}

// RequestDcmFolder asks the host to pick a DICOM folder to open.
func (e *Engine) RequestDcmFolder() {
	e.command("request dicom folder", func() error {
		e.send(protocol.Envelope{Type: protocol.KindAddDcmFolder})
		return nil
	})
}

// OpenExample loads a small synthetic 4D series.
func (e *Engine) OpenExample() {
	data := render.Synthetic([4]int{32, 32, 16, 5}, [3]float64{2, 2, 3})
	e.Post(protocol.AddImage{Payload: protocol.NewPayload(ExampleName, data)})
}
