package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wethinkt/go-niiview/internal/layout"
	"github.com/wethinkt/go-niiview/internal/host/memhost"
	"github.com/wethinkt/go-niiview/internal/nav4d"
	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/presets"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/render"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/viewport"
	"github.com/wethinkt/go-niiview/internal/viewsync"
)

var (
	vol3D = render.Synthetic([4]int{8, 8, 8, 1}, [3]float64{1, 1, 1})
	vol4D = render.Synthetic([4]int{4, 4, 4, 6}, [3]float64{2, 2, 2})
)

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	b, ok := f[uri]
	if !ok {
		return nil, fmt.Errorf("%s: not found", uri)
	}
	return b, nil
}

type harness struct {
	e         *Engine
	host      *memhost.Host
	clock     *nav4d.FakeClock
	renderers []*render.Headless
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{host: memhost.New(memhost.DefaultBuffer), clock: &nav4d.FakeClock{}}
	opts.Bridge = h.host
	opts.Clock = h.clock
	if opts.Fetcher == nil {
		opts.Fetcher = fakeFetcher{}
	}
	if opts.Container == (layout.Size{}) {
		opts.Container = layout.Size{Width: 800, Height: 600}
	}
	opts.Renderer = func() viewport.Renderer {
		r := &render.Headless{}
		h.renderers = append(h.renderers, r)
		return r
	}
	h.e = New(opts)
	return h
}

func image(name string, data []byte) protocol.AddImage {
	return protocol.AddImage{Payload: protocol.NewPayload(name, data)}
}

func (h *harness) viewport(t *testing.T, i int) ViewportState {
	t.Helper()
	vs, ok := h.e.State().Viewport(i)
	if !ok {
		t.Fatalf("no viewport %d (have %d)", i, len(h.e.State().Viewports))
	}
	return vs
}

func TestEngine_InitCanvasThenThreeImages(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(protocol.InitCanvas{N: 2})
	h.e.Flush()
	placeholders := h.e.State().Viewports
	if len(placeholders) != 2 {
		t.Fatalf("viewports after initCanvas = %d, want 2", len(placeholders))
	}
	if got := h.e.State().SliceType; got != scene.Axial {
		t.Errorf("slice type = %v, want axial for a multi-viewport canvas", got)
	}

	h.e.Post(image("a.nii", vol3D))
	h.e.Post(image("b.nii", vol3D))
	h.e.Post(image("c.nii", vol3D))
	h.e.Flush()

	st := h.e.State()
	if len(st.Viewports) != 3 {
		t.Fatalf("viewports = %d, want 3", len(st.Viewports))
	}
	for i, uri := range []string{"a.nii", "b.nii", "c.nii"} {
		vs := st.Viewports[i]
		if vs.URI != uri || !vs.Loaded || vs.IsNew || vs.Loading {
			t.Errorf("viewport %d = %+v", i, vs)
		}
	}
	if st.Viewports[0].Key != placeholders[0].Key || st.Viewports[1].Key != placeholders[1].Key {
		t.Error("placeholders were not reused in order")
	}
	if st.Canvas.Cell.Width <= 0 || st.Canvas.Cell.Height <= 0 {
		t.Errorf("canvas = %+v", st.Canvas)
	}
	if _, draws := h.renderers[2].Last(); draws == 0 {
		t.Error("third viewport never drawn")
	}
}

func TestEngine_SingleImageKeepsMultiplanar(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol3D))
	h.e.Flush()
	if got := h.e.State().SliceType; got != scene.Multiplanar {
		t.Errorf("slice type = %v, want multiplanar", got)
	}
}

func TestEngine_RemoveOnlyViewport(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("bold.nii", vol4D))
	h.e.Flush()

	h.e.TogglePlay(0)
	h.e.Interact(0, scene.DefaultView(), viewsync.ButtonLeft)
	h.e.Flush()
	if !h.viewport(t, 0).Playing {
		t.Fatal("expected playback")
	}
	if h.e.State().Location == "" {
		t.Fatal("expected a location after interacting with the first selected viewport")
	}

	h.e.Remove(0)
	h.e.Flush()

	st := h.e.State()
	if len(st.Viewports) != 0 || len(st.Selected) != 0 || st.Location != "" {
		t.Errorf("state after removal = %+v", st)
	}
	if h.clock.Active() != 0 {
		t.Error("frame timer still running")
	}
	if err := h.renderers[0].Draw(viewport.Frame{}); !errors.Is(err, render.ErrClosed) {
		t.Errorf("renderer not closed: %v", err)
	}
	if st.Canvas.Cell.Width < 1 {
		t.Errorf("empty canvas = %+v", st.Canvas)
	}
}

func TestEngine_RemoveOutOfRangeIsIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(protocol.InitCanvas{N: 1})
	h.e.Remove(3)
	h.e.Flush()
	if n := len(h.e.State().Viewports); n != 1 {
		t.Errorf("viewports = %d, want 1", n)
	}
}

func TestEngine_SyncedFrames(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol4D))
	h.e.Post(image("b.nii", vol4D))
	h.e.Post(image("c.nii", vol4D))
	h.e.Flush()

	h.e.ToggleSync(0)
	h.e.ToggleSync(1)
	h.e.SetFrame(0, 3)
	h.e.Flush()

	if f := h.viewport(t, 1).Frame; f != 3 {
		t.Errorf("synced peer frame = %d, want 3", f)
	}
	if f := h.viewport(t, 2).Frame; f != 0 {
		t.Errorf("unsynced viewport frame = %d, want 0", f)
	}
	if v := h.e.coll.All()[1].Scene.Volumes[0].Frame; v != 3 {
		t.Errorf("peer volume frame = %d", v)
	}

	// playback ticks arrive through the loop and propagate the same way
	h.e.TogglePlay(0)
	h.e.Flush()
	h.clock.Advance(nav4d.DefaultInterval)
	h.e.Flush()
	if f0, f1 := h.viewport(t, 0).Frame, h.viewport(t, 1).Frame; f0 != 4 || f1 != 4 {
		t.Errorf("after one tick frames = %d, %d, want 4, 4", f0, f1)
	}
	if h.viewport(t, 1).Playing {
		t.Error("receiving a frame must not start playback on the peer")
	}
}

func TestEngine_DeselectStopsPlayback(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol4D))
	h.e.Post(image("b.nii", vol4D))
	h.e.Flush()

	h.e.TogglePlay(0)
	h.e.SetSelectionActive(true)
	h.e.Flush()
	if !h.viewport(t, 0).Playing {
		t.Fatal("viewport 0 should still play while selected")
	}

	h.e.Click(1)
	h.e.Flush()
	if h.viewport(t, 0).Playing || h.clock.Active() != 0 {
		t.Error("deselected viewport kept playing")
	}

	h.e.TogglePlay(0)
	h.e.Flush()
	if h.viewport(t, 0).Playing {
		t.Error("unselected viewport started playing")
	}
}

func TestEngine_FrameEdit(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol4D))
	h.e.Flush()

	h.e.BeginFrameEdit(0)
	h.e.FrameInput(0, "4 frames")
	h.e.Flush()
	if vs := h.viewport(t, 0); !vs.Editing || vs.Field != "4 frames" || vs.Frame != 0 {
		t.Fatalf("while editing = %+v", vs)
	}
	h.e.CommitFrameEdit(0)
	h.e.Flush()
	if vs := h.viewport(t, 0); vs.Editing || vs.Frame != 4 {
		t.Errorf("after commit = frame %d editing %v", vs.Frame, vs.Editing)
	}

	h.e.BeginFrameEdit(0)
	h.e.FrameInput(0, "99")
	h.e.CancelFrameEdit(0)
	h.e.NextFrame(0)
	h.e.NextFrame(0)
	h.e.Flush()
	if vs := h.viewport(t, 0); vs.Frame != 5 || vs.Field != "5" {
		t.Errorf("after cancel and next = frame %d field %q", vs.Frame, vs.Field)
	}
}

// orderedDecoder holds back first.nii until second.nii has decoded.
type orderedDecoder struct {
	*render.Decoder
	secondDone chan struct{}
}

func (d *orderedDecoder) Volume(ctx context.Context, p protocol.Payload) (scene.Volume, error) {
	if p.Name() == "first.nii" {
		<-d.secondDone
	}
	v, err := d.Decoder.Volume(ctx, p)
	if p.Name() == "second.nii" {
		close(d.secondDone)
	}
	return v, err
}

func TestEngine_LastWriteWins(t *testing.T) {
	dec := &orderedDecoder{Decoder: render.NewDecoder(), secondDone: make(chan struct{})}
	h := newHarness(t, Options{Decoder: dec})

	h.e.Post(image("first.nii", vol3D))
	h.e.Replace(0, protocol.NewPayload("second.nii", vol4D))
	h.e.Flush()

	vs := h.viewport(t, 0)
	if vs.URI != "second.nii" || len(vs.Volumes) != 1 || vs.Volumes[0].Name != "second.nii" {
		t.Fatalf("viewport = %+v, want second.nii", vs)
	}
	if vs.Frames != 6 {
		t.Errorf("frames = %d, want 6 from the later load", vs.Frames)
	}
}

func TestEngine_ReadyOnce(t *testing.T) {
	for _, surfaceFirst := range []bool{true, false} {
		t.Run(fmt.Sprint("surfaceFirst=", surfaceFirst), func(t *testing.T) {
			h := newHarness(t, Options{})
			if surfaceFirst {
				h.e.SurfaceReady()
			} else {
				h.e.Listen()
			}
			h.e.Flush()
			if n := len(h.host.SentOf(protocol.KindReady)); n != 0 {
				t.Fatalf("ready sent after one condition (%d)", n)
			}

			if surfaceFirst {
				h.e.Listen()
			} else {
				h.e.SurfaceReady()
			}
			h.e.SurfaceReady()
			h.e.Flush()
			if n := len(h.host.SentOf(protocol.KindReady)); n != 1 {
				t.Errorf("ready sent %d times, want 1", n)
			}
			if !h.e.State().Ready {
				t.Error("snapshot not ready")
			}
		})
	}
}

func TestEngine_Run(t *testing.T) {
	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.e.Run(ctx) }()

	h.e.SurfaceReady()
	select {
	case env := <-h.host.Out():
		if env.Type != protocol.KindReady {
			t.Fatalf("first envelope = %q, want ready", env.Type)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ready")
	}

	states, unsub := h.e.Subscribe()
	defer unsub()
	h.e.Post(image("a.nii", vol3D))
	deadline := time.After(5 * time.Second)
	for loaded := false; !loaded; {
		select {
		case st := <-states:
			loaded = len(st.Viewports) == 1 && st.Viewports[0].Loaded
		case <-deadline:
			t.Fatal("timed out waiting for the image to load")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func debugAnswers(t *testing.T, h *harness) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, env := range h.host.SentOf(protocol.KindDebugAnswer) {
		out = append(out, env.Body)
	}
	return out
}

func TestEngine_DebugRequests(t *testing.T) {
	h := newHarness(t, Options{})

	h.e.Post(protocol.DebugRequest{Tag: DebugMinMaxFirst})
	h.e.Post(protocol.DebugRequest{Tag: "getEverything"})
	h.e.Flush()
	if got := debugAnswers(t, h); len(got) != 0 {
		t.Fatalf("unanswerable requests got replies: %s", got)
	}

	h.e.Post(protocol.InitCanvas{N: 2})
	h.e.Post(image("a.nii", vol3D))
	h.e.Post(protocol.Overlay{Payload: protocol.NewPayload("b.nii", vol3D), Index: 0})
	h.e.Flush()
	h.e.Post(protocol.DebugRequest{Tag: DebugNCanvas})
	h.e.Post(protocol.DebugRequest{Tag: DebugNVolumes})
	h.e.Post(protocol.DebugRequest{Tag: DebugMinMaxFirst})
	h.e.Post(protocol.DebugRequest{Tag: DebugFrames})
	h.e.Post(protocol.DebugRequest{Tag: DebugLayout})
	h.e.Flush()

	got := debugAnswers(t, h)
	if len(got) != 5 {
		t.Fatalf("answers = %s", got)
	}
	if string(got[0]) != "2" || string(got[1]) != "2" {
		t.Errorf("nCanvas, nVolumes = %s, %s", got[0], got[1])
	}
	var mm [2]float64
	if err := json.Unmarshal(got[2], &mm); err != nil || !(mm[1] > mm[0]) {
		t.Errorf("minmax = %s (%v)", got[2], err)
	}
	if string(got[3]) != "[0,0]" {
		t.Errorf("frames = %s", got[3])
	}
	var grid layout.Grid
	if err := json.Unmarshal(got[4], &grid); err != nil || grid.Rows*grid.Cols < 2 {
		t.Errorf("layout = %s (%v)", got[4], err)
	}
}

func TestEngine_SendFailureNotifies(t *testing.T) {
	h := newHarness(t, Options{})
	h.host.FailWith(errors.New("pipe closed"))
	h.e.Post(protocol.DebugRequest{Tag: DebugNCanvas})
	h.e.Flush()

	notes := h.host.Notifications()
	if len(notes) != 1 || notes[0].Level != protocol.LevelError {
		t.Fatalf("notifications = %+v", notes)
	}
	if n := len(h.e.State().Viewports); n != 0 {
		t.Errorf("collection changed on send failure: %d", n)
	}
}

func TestEngine_HandlerPanicIsRecovered(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.enqueue(func() { panic("boom") })
	h.e.Post(protocol.InitCanvas{N: 1})
	h.e.Flush()
	if n := len(h.e.State().Viewports); n != 1 {
		t.Errorf("viewports = %d, want 1 after a panicking handler", n)
	}
}

type panickyDecoder struct{ *render.Decoder }

func (panickyDecoder) Volume(context.Context, protocol.Payload) (scene.Volume, error) {
	panic("corrupt header")
}

func TestEngine_DecoderPanicFailsOnlyThatViewport(t *testing.T) {
	h := newHarness(t, Options{Decoder: panickyDecoder{render.NewDecoder()}})
	h.e.Post(image("bad.nii", vol3D))
	h.e.Post(image("surface.gii", []byte("mesh")))
	h.e.Flush()

	if vs := h.viewport(t, 0); !strings.Contains(vs.Error, "panic") || vs.Loaded || vs.Loading {
		t.Errorf("bad viewport = %+v", vs)
	}
	if vs := h.viewport(t, 1); !vs.Loaded || len(vs.Meshes) != 1 {
		t.Errorf("mesh viewport = %+v", vs)
	}
}

func TestEngine_OverlayHeldUntilImageLoads(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("t1.nii", vol3D))
	h.e.Post(protocol.Overlay{Payload: protocol.NewPayload("zstat.nii", vol3D), Index: 0})
	h.e.Flush()

	vs := h.viewport(t, 0)
	if len(vs.Volumes) != 2 {
		t.Fatalf("volumes = %d, want base and overlay", len(vs.Volumes))
	}
	if vs.Volumes[0].Name != "t1.nii" || vs.Volumes[1].Name != "zstat.nii" {
		t.Errorf("layer order = %q, %q", vs.Volumes[0].Name, vs.Volumes[1].Name)
	}
	ov := vs.Volumes[1]
	if ov.Colormap != prefs.Default().DefaultOverlayColormap || ov.Opacity != 0.5 {
		t.Errorf("overlay = %+v", ov)
	}
	if vs.Volumes[0].Colormap != prefs.Default().DefaultVolumeColormap {
		t.Errorf("base colormap = %q", vs.Volumes[0].Colormap)
	}
}

func TestEngine_FailedImageDropsHeldLayers(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("broken.nii", []byte("not a nifti file")))
	h.e.Post(protocol.Overlay{Payload: protocol.NewPayload("zstat.nii", vol3D), Index: 0})
	h.e.Post(image("fine.nii", vol3D))
	h.e.Flush()

	bad := h.viewport(t, 0)
	if bad.Error == "" || len(bad.Volumes) != 0 || bad.Loaded {
		t.Errorf("failed viewport = %+v", bad)
	}
	if !h.viewport(t, 1).Loaded {
		t.Error("a failed load must not affect other viewports")
	}
}

func TestEngine_OverlayOutOfRange(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(protocol.Overlay{Payload: protocol.NewPayload("zstat.nii", vol3D), Index: 4})
	h.e.Flush()
	if n := len(h.e.State().Viewports); n != 0 {
		t.Errorf("viewports = %d", n)
	}
}

func TestEngine_MeshLayers(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("lh.pial.gii", []byte("mesh")))
	h.e.Post(protocol.MeshLayer{
		Payload: protocol.NewPayload("lh.curv", []byte("curv")),
		Index:   0,
		Op:      protocol.KindAddMeshCurvature,
	})
	h.e.Flush()
	h.e.Post(protocol.MeshLayer{
		Payload: protocol.NewPayload("lh.thickness", []byte("t")),
		Index:   0,
		Op:      protocol.KindAddMeshOverlay,
	})
	h.e.Flush()
	h.e.Post(protocol.MeshLayer{
		Payload: protocol.NewPayload("lh.area", []byte("a")),
		Index:   0,
		Op:      protocol.KindReplaceMeshOverlay,
	})
	h.e.Flush()

	vs := h.viewport(t, 0)
	if len(vs.Meshes) != 1 {
		t.Fatalf("meshes = %d", len(vs.Meshes))
	}
	layers := vs.Meshes[0].Layers
	if len(layers) != 2 || layers[0].Name != "lh.curv" || layers[1].Name != "lh.area" {
		t.Fatalf("layers = %+v", layers)
	}
	if layers[0].Colormap != "gray" || layers[0].ColorbarVisible {
		t.Errorf("curvature layer = %+v", layers[0])
	}
	if layers[1].Colormap != prefs.Default().DefaultMeshOverlayColormap {
		t.Errorf("overlay layer colormap = %q", layers[1].Colormap)
	}
	if !vs.Colorbar {
		t.Error("mesh layer should turn the colorbar on")
	}
	if name := h.viewport(t, 0).Name; !strings.Contains(name, "pial") {
		t.Errorf("display name = %q", name)
	}
}

func TestEngine_ReplacesPopAtArrival(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("lh.pial.gii", []byte("mesh")))
	for _, name := range []string{"lh.curv", "lh.thickness"} {
		h.e.Post(protocol.MeshLayer{
			Payload: protocol.NewPayload(name, []byte(name)),
			Op:      protocol.KindAddMeshOverlay,
		})
	}
	h.e.Flush()

	// Two replaces in flight each pop one existing layer.
	for _, name := range []string{"lh.area", "lh.sulc"} {
		h.e.Post(protocol.MeshLayer{
			Payload: protocol.NewPayload(name, []byte(name)),
			Op:      protocol.KindReplaceMeshOverlay,
		})
	}
	h.e.Flush()

	layers := h.viewport(t, 0).Meshes[0].Layers
	got := make(map[string]bool)
	for _, l := range layers {
		got[l.Name] = true
	}
	if len(layers) != 2 || !got["lh.area"] || !got["lh.sulc"] {
		t.Errorf("layers = %+v, want only the two replacements", layers)
	}
}

func TestEngine_MeshLayerWithoutMesh(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("t1.nii", vol3D))
	h.e.Flush()
	h.e.Post(protocol.MeshLayer{
		Payload: protocol.NewPayload("lh.curv", []byte("curv")),
		Index:   0,
		Op:      protocol.KindAddMeshCurvature,
	})
	h.e.Flush()

	notes := h.host.Notifications()
	if len(notes) != 1 || notes[0].Level != protocol.LevelInfo {
		t.Errorf("notifications = %+v", notes)
	}
	if vs := h.viewport(t, 0); len(vs.Meshes) != 0 {
		t.Errorf("meshes = %+v", vs.Meshes)
	}
}

func TestEngine_RemoveWhileLoading(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol3D))
	h.e.Remove(0)
	h.e.Flush()
	st := h.e.State()
	if len(st.Viewports) != 0 {
		t.Errorf("viewports = %+v", st.Viewports)
	}
	if len(h.e.loading) != 0 {
		t.Errorf("loading bookkeeping leaked: %v", h.e.loading)
	}
}

func TestEngine_Bootstrap(t *testing.T) {
	h := newHarness(t, Options{Fetcher: fakeFetcher{
		"https://example.org/a.nii": vol3D,
		"https://example.org/b.nii": vol4D,
	}})
	h.e.Bootstrap(context.Background(), []string{
		"https://example.org/a.nii",
		"https://example.org/b.nii",
		"https://example.org/missing.nii",
	})
	h.e.Flush()

	st := h.e.State()
	if len(st.Viewports) != 3 {
		t.Fatalf("viewports = %d, want one per URL", len(st.Viewports))
	}
	var loaded, failed int
	for _, vs := range st.Viewports {
		switch {
		case vs.Loaded:
			loaded++
		case vs.Error != "":
			failed++
			if !strings.HasSuffix(vs.URI, "missing.nii") {
				t.Errorf("failed viewport uri = %q", vs.URI)
			}
		}
	}
	if loaded != 2 || failed != 1 {
		t.Errorf("loaded %d failed %d", loaded, failed)
	}
	if notes := h.host.Notifications(); len(notes) != 1 || notes[0].Level != protocol.LevelError {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestEngine_URIOnlyPayloadIsFetched(t *testing.T) {
	h := newHarness(t, Options{Fetcher: fakeFetcher{"remote.nii": vol3D}})
	h.e.Post(image("remote.nii", nil))
	h.e.Flush()
	if vs := h.viewport(t, 0); !vs.Loaded {
		t.Errorf("viewport = %+v", vs)
	}
}

func TestEngine_InitSettingsPersists(t *testing.T) {
	store := prefs.NewFileStore(t.TempDir() + "/prefs.json")
	h := newHarness(t, Options{Prefs: store})
	h.e.Post(image("a.nii", vol3D))
	h.e.Post(protocol.InitSettings{Settings: json.RawMessage(`{"colorbar":true,"defaultOverlayColormap":"jet"}`)})
	h.e.Flush()

	st := h.e.State()
	if !st.Settings.Colorbar || st.Settings.DefaultOverlayColormap != "jet" {
		t.Errorf("settings = %+v", st.Settings)
	}
	if !st.Settings.ShowCrosshairs {
		t.Error("fields absent from the message must keep their values")
	}
	saved, err := prefs.Load(context.Background(), store)
	if err != nil || saved != st.Settings {
		t.Errorf("saved = %+v, %v", saved, err)
	}
	if !h.viewport(t, 0).Colorbar {
		t.Error("settings not applied to loaded viewport")
	}

	// a new engine on the same store starts from the saved settings
	again := newHarness(t, Options{Prefs: store})
	if got := again.e.State().Settings; got != saved {
		t.Errorf("reloaded settings = %+v", got)
	}
}

func TestEngine_ReloadSettingsDoesNotWrite(t *testing.T) {
	store := prefs.NewFileStore(t.TempDir() + "/prefs.json")
	h := newHarness(t, Options{Prefs: store})

	s := prefs.Default()
	s.RadiologicalConvention = true
	if err := prefs.Save(context.Background(), store, s); err != nil {
		t.Fatal(err)
	}
	h.e.ReloadSettings()
	h.e.Flush()
	if !h.e.State().Settings.RadiologicalConvention {
		t.Error("external edit not picked up")
	}
}

func TestEngine_ApplyPreset(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(protocol.InitCanvas{N: 2})
	h.e.Post(image("dwi.nii", vol3D))
	h.e.Post(protocol.Overlay{Payload: protocol.NewPayload("fa.nii", vol3D), Index: 0})
	h.e.Post(image("bold.nii", vol4D))
	h.e.Flush()

	builtin := presets.Builtin()
	dti, _ := presets.Find(builtin, "dti")
	fmri, _ := presets.Find(builtin, "fmri")

	h.e.ApplyPreset(dti)
	h.e.Flush()
	if cm := h.viewport(t, 0).Volumes[1].Colormap; cm != "jet" {
		t.Errorf("overlay colormap = %q, want jet", cm)
	}
	if st := h.e.State(); !st.Settings.Colorbar || st.Settings.DefaultOverlayColormap != "jet" {
		t.Errorf("settings = %+v", st.Settings)
	}

	h.e.SetSliceType(scene.Axial)
	h.e.ApplyPreset(fmri)
	h.e.Flush()
	st := h.e.State()
	if st.SliceType != scene.Multiplanar {
		t.Errorf("slice type = %v", st.SliceType)
	}
	if g := h.viewport(t, 1).Graph; !g.AutoSizeMultiplanar || !g.MultiplanarForceRender || g.Opacity != 1 {
		t.Errorf("graph = %+v", g)
	}
}

func TestEngine_ApplyPresetTargetsSelection(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol3D))
	h.e.Post(image("b.nii", vol3D))
	h.e.Flush()

	h.e.SetSelectionActive(true)
	h.e.Click(1)
	phase, _ := presets.Find(presets.Builtin(), "phase")
	h.e.ApplyPreset(phase)
	h.e.Flush()

	if cm := h.viewport(t, 1).Volumes[0].Colormap; cm != "hsv" {
		t.Errorf("selected viewport colormap = %q", cm)
	}
	if cm := h.viewport(t, 0).Volumes[0].Colormap; cm == "hsv" {
		t.Error("unselected viewport changed")
	}
}

func TestEngine_SetLayerDisplayTargetsSelection(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol3D))
	h.e.Post(image("b.nii", vol3D))
	h.e.Post(image("c.nii", vol3D))
	h.e.Flush()
	h.e.Post(protocol.Overlay{Payload: protocol.NewPayload("mask.nii", vol3D), Index: 2})
	h.e.Flush()

	h.e.SetSelectionActive(true)
	h.e.SetMultiSelect(true)
	h.e.Click(0)
	h.e.Click(2)
	cm, op, inv := "hot", 0.4, true
	h.e.SetLayerDisplay(0, scene.LayerDisplay{
		Scaling:  &scene.Scaling{Min: 10, Max: 20},
		Colormap: &cm,
		Opacity:  &op,
		Invert:   &inv,
	})
	h.e.Flush()

	for _, i := range []int{0, 2} {
		v := h.viewport(t, i).Volumes[0]
		if v.Colormap != "hot" || v.CalMin != 10 || v.CalMax != 20 || v.Opacity != 0.4 || !v.Invert {
			t.Errorf("viewport %d base = %+v", i, v)
		}
	}
	if v := h.viewport(t, 1).Volumes[0]; v.Colormap == "hot" || v.Invert {
		t.Errorf("unselected viewport changed: %+v", v)
	}

	// Layer 1 exists only in viewport 2; viewport 0 is skipped.
	sym := scene.Symmetric
	h.e.SetLayerDisplay(1, scene.LayerDisplay{Colormap: &sym})
	h.e.Flush()
	if v := h.viewport(t, 2).Volumes[1]; v.Colormap != "warm" || v.ColormapNegative != "winter" {
		t.Errorf("overlay = %+v", v)
	}
	if n := len(h.viewport(t, 0).Volumes); n != 1 {
		t.Errorf("viewport 0 volumes = %d", n)
	}
}

func TestEngine_SetLayerDisplayOnMeshLayer(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("lh.pial.gii", []byte("mesh")))
	h.e.Post(protocol.MeshLayer{
		Payload: protocol.NewPayload("lh.curv", []byte("curv")),
		Op:      protocol.KindAddMeshCurvature,
	})
	h.e.Flush()

	cm := "ge_color"
	h.e.SetLayerDisplay(0, scene.LayerDisplay{Colormap: &cm})
	h.e.Flush()
	if l := h.viewport(t, 0).Meshes[0].Layers[0]; l.Colormap != "ge_color" {
		t.Errorf("mesh layer colormap = %q", l.Colormap)
	}

	bad := "redyell"
	h.e.SetLayerDisplay(0, scene.LayerDisplay{Colormap: &bad})
	h.e.Flush()
	if l := h.viewport(t, 0).Meshes[0].Layers[0]; l.Colormap != "ge_color" {
		t.Errorf("volume colormap reached a mesh layer: %q", l.Colormap)
	}
}

func TestEngine_InteractSync(t *testing.T) {
	h := newHarness(t, Options{})
	for _, n := range []string{"a.nii", "b.nii", "c.nii"} {
		h.e.Post(image(n, vol3D))
	}
	h.e.Flush()
	h.e.ToggleSync(0)
	h.e.ToggleSync(1)

	v := scene.DefaultView()
	v.Azimuth = 30
	v.Crosshair = [3]float64{0.25, 0.5, 0.75}
	h.e.Interact(0, v, viewsync.ButtonLeft)
	h.e.Flush()

	if got := h.viewport(t, 1).View; got.Azimuth != 30 || got.Crosshair != v.Crosshair {
		t.Errorf("synced peer view = %+v", got)
	}
	if got := h.viewport(t, 2).View; got.Azimuth == 30 {
		t.Error("unsynced viewport followed a left drag")
	}
	if loc := h.e.State().Location; loc != "2.00 x 4.00 x 6.00 mm" {
		t.Errorf("location = %q", loc)
	}

	v.Pan = [4]float64{5, 0, 0, 2}
	h.e.Interact(0, v, viewsync.ButtonRight)
	h.e.Flush()
	if got := h.viewport(t, 2).View.Pan; got != v.Pan {
		t.Errorf("right drag pan not broadcast: %v", got)
	}

	h.e.ResetZoom()
	h.e.Flush()
	for i := range 3 {
		if got := h.viewport(t, i).View.Pan; got != [4]float64{0, 0, 0, 1} {
			t.Errorf("viewport %d pan after reset = %v", i, got)
		}
	}
}

func TestEngine_MoveKeepsSelection(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(protocol.InitCanvas{N: 3})
	h.e.SetSelectionActive(true)
	h.e.Click(0)
	h.e.Flush()
	key := h.viewport(t, 0).Key

	h.e.Move(0, 2)
	h.e.Flush()
	st := h.e.State()
	if st.Viewports[2].Key != key {
		t.Fatal("viewport did not move")
	}
	if len(st.Selected) != 1 || st.Selected[0] != 2 {
		t.Errorf("selection = %v, want [2]", st.Selected)
	}
}

func TestEngine_RequestOverlay(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.RequestOverlay(protocol.KindOverlay)
	h.e.Flush()
	if n := len(h.host.SentOf(protocol.KindAddOverlay)); n != 0 {
		t.Fatalf("request sent with no viewports")
	}

	h.e.Post(protocol.InitCanvas{N: 3})
	h.e.RequestOverlay(protocol.KindAddMeshCurvature)
	h.e.RequestOverlay(protocol.KindInitCanvas)
	h.e.RequestImages()
	h.e.Flush()

	reqs := h.host.SentOf(protocol.KindAddOverlay)
	if len(reqs) != 1 {
		t.Fatalf("overlay requests = %d", len(reqs))
	}
	var req protocol.OverlayRequest
	if err := json.Unmarshal(reqs[0].Body, &req); err != nil {
		t.Fatal(err)
	}
	if req.Index != 2 || req.Type != protocol.KindAddMeshCurvature {
		t.Errorf("request = %+v, want last viewport", req)
	}
	if n := len(h.host.SentOf(protocol.KindAddImages)); n != 1 {
		t.Errorf("addImages sent %d times", n)
	}
}

func TestEngine_RemoveAndReplaceLastOverlay(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("t1.nii", vol3D))
	h.e.Post(protocol.Overlay{Payload: protocol.NewPayload("a.nii", vol3D), Index: 0})
	h.e.Flush()

	h.e.ReplaceLastOverlay()
	h.e.Flush()
	if n := len(h.viewport(t, 0).Volumes); n != 1 {
		t.Errorf("volumes = %d, want the base only", n)
	}
	if n := len(h.host.SentOf(protocol.KindAddOverlay)); n != 1 {
		t.Errorf("overlay requests = %d", n)
	}

	h.e.RemoveLastOverlay()
	h.e.Flush()
	if n := len(h.viewport(t, 0).Volumes); n != 1 {
		t.Error("base image must never be removed as an overlay")
	}
}

func TestEngine_ViewControls(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Post(image("a.nii", vol3D))
	h.e.SetHideUI(7)
	h.e.Resize(layout.Size{Width: 300, Height: 200})
	h.e.ResetVoxelSize()
	h.e.Flush()

	st := h.e.State()
	if st.HideUI != DefaultHideUI {
		t.Errorf("hide ui = %d", st.HideUI)
	}
	if st.Container.Width != 300 || st.Canvas.Cell.Width > 300 {
		t.Errorf("container %+v canvas %+v", st.Container, st.Canvas)
	}
	h.e.SetHideUI(-1)
	h.e.OpenExample()
	h.e.Flush()
	st = h.e.State()
	if st.HideUI != 0 {
		t.Errorf("hide ui = %d", st.HideUI)
	}
	if vs, _ := st.Viewport(1); vs.URI != ExampleName || vs.Frames < 2 {
		t.Errorf("example viewport = %+v", vs)
	}
}

func TestEngine_ReceiveRejectsGarbage(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.Receive([]byte(`{"type":"initCanvas","body":{"n":-1}}`))
	h.e.Receive([]byte(`not json`))
	h.e.Receive([]byte(`{"type":"initCanvas","body":{"n":2}}`))
	h.e.Flush()
	if n := len(h.e.State().Viewports); n != 2 {
		t.Errorf("viewports = %d, want 2", n)
	}
}
