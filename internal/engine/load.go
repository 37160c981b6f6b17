package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/nav4d"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/viewport"
)

// Layer labels for load metrics.
const (
	layerImage     = "image"
	layerOverlay   = "overlay"
	layerMeshLayer = "mesh_layer"
)

// overlayOpacity is the opacity of volumes and meshes added on top of an
// existing image.
const overlayOpacity = 0.5

// decoded is the result of decoding one payload off the loop. Exactly one of
// vol, mesh and layer is set when err is nil.
type decoded struct {
	vol   *scene.Volume
	mesh  *scene.Mesh
	layer *scene.MeshLayer
	err   error
}

// resolve fills in the bytes of a URI-only payload.
func (e *Engine) resolve(ctx context.Context, p protocol.Payload) (protocol.Payload, error) {
	if p.HasData() {
		return p, nil
	}
	data := make([][]byte, len(p.URI))
	for i, uri := range p.URI {
		b, err := e.fetcher.Fetch(ctx, uri)
		if err != nil {
			return p, fmt.Errorf("fetch %s: %w", uri, err)
		}
		data[i] = b
	}
	p.Data = data
	return p, nil
}

// decodeAsset reads p as a volume when its name is an image format and as a
// mesh otherwise.
func (e *Engine) decodeAsset(ctx context.Context, p protocol.Payload) decoded {
	p, err := e.resolve(ctx, p)
	if err != nil {
		return decoded{err: err}
	}
	if p.Series() || scene.IsImage(p.Name()) {
		v, err := e.decoder.Volume(ctx, p)
		if err != nil {
			return decoded{err: err}
		}
		return decoded{vol: &v}
	}
	m, err := e.decoder.Mesh(ctx, p)
	if err != nil {
		return decoded{err: err}
	}
	return decoded{mesh: &m}
}

func (e *Engine) decodeLayer(ctx context.Context, p protocol.Payload) decoded {
	p, err := e.resolve(ctx, p)
	if err != nil {
		return decoded{err: err}
	}
	l, err := e.decoder.Layer(ctx, p)
	if err != nil {
		return decoded{err: err}
	}
	return decoded{layer: &l}
}

// startLoad runs decode off the loop and posts done back onto it.
func (e *Engine) startLoad(in *viewport.Instance, decode func(context.Context) decoded, done func(*viewport.Instance, decoded)) {
	key := in.Key
	ctx := e.ctx
	e.loading[key]++
	e.async(func() {
		res := guard(ctx, decode)
		e.enqueue(func() {
			if e.loading[key]--; e.loading[key] <= 0 {
				delete(e.loading, key)
			}
			idx := e.coll.Index(key)
			if idx < 0 {
				tuilog.Log.Debug("engine: load finished for removed viewport", "key", key)
				loadsTotal.WithLabelValues("any", "orphaned").Inc()
				return
			}
			in, _ := e.coll.At(idx)
			done(in, res)
			e.touch(in)
		})
	})
}

// guard turns a panicking decoder into a load error.
func guard(ctx context.Context, decode func(context.Context) decoded) (res decoded) {
	defer func() {
		if r := recover(); r != nil {
			panicsTotal.Inc()
			tuilog.Log.Error("engine: decoder panicked", "panic", fmt.Sprint(r))
			res = decoded{err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()
	return decode(ctx)
}

// loadImage attaches p as the base image of in. A later loadImage on the
// same viewport supersedes this one even if it finishes first.
func (e *Engine) loadImage(in *viewport.Instance, p protocol.Payload) {
	gen := in.Attach(p)
	p, _ = in.Consume()
	start := time.Now()
	e.touch(in)

	e.startLoad(in, func(ctx context.Context) decoded {
		return e.decodeAsset(ctx, p)
	}, func(in *viewport.Instance, res decoded) {
		if !in.Current(gen) {
			loadsTotal.WithLabelValues(layerImage, "superseded").Inc()
			return
		}
		loadDurationSeconds.WithLabelValues(layerImage).Observe(time.Since(start).Seconds())
		if res.err != nil {
			loadsTotal.WithLabelValues(layerImage, "error").Inc()
			tuilog.Log.Warn("engine: image load failed", "uri", p.Name(), "error", res.err)
			in.Fail(res.err)
			e.replay(in)
			return
		}

		in.Scene.Volumes = nil
		in.Scene.Meshes = nil
		if res.vol != nil {
			v := *res.vol
			if e.settings.DefaultVolumeColormap != "" {
				v.Colormap = e.settings.DefaultVolumeColormap
			}
			in.Scene.Volumes = []scene.Volume{v}
		} else {
			in.Scene.Meshes = []scene.Mesh{*res.mesh}
		}
		in.Scene.Colorbar = e.settings.Colorbar
		in.MarkLoaded()
		e.attachNav(in)
		loadsTotal.WithLabelValues(layerImage, "ok").Inc()
		tuilog.Log.Info("engine: image loaded", "uri", p.Name(), "frames", in.Frames())
		e.replay(in)
	})
}

// loadOverlay adds a volume or mesh on top of whatever in shows.
func (e *Engine) loadOverlay(in *viewport.Instance, p protocol.Payload) {
	start := time.Now()
	e.startLoad(in, func(ctx context.Context) decoded {
		return e.decodeAsset(ctx, p)
	}, func(in *viewport.Instance, res decoded) {
		loadDurationSeconds.WithLabelValues(layerOverlay).Observe(time.Since(start).Seconds())
		if res.err != nil {
			loadsTotal.WithLabelValues(layerOverlay, "error").Inc()
			tuilog.Log.Warn("engine: overlay load failed", "uri", p.Name(), "error", res.err)
			e.bridge.Notify(protocol.LevelWarning,
				i18n.Tf("engine.notify.overlayFailed", "Could not load overlay %s: %v", p.Name(), res.err))
			return
		}
		if res.vol != nil {
			v := *res.vol
			v.Colormap = e.settings.DefaultOverlayColormap
			v.Opacity = overlayOpacity
			in.Scene.Volumes = append(in.Scene.Volumes, v)
			if len(in.Scene.Volumes) == 1 {
				e.attachNav(in)
			}
		} else {
			m := *res.mesh
			m.Opacity = overlayOpacity
			in.Scene.Meshes = append(in.Scene.Meshes, m)
		}
		in.MarkLoaded()
		loadsTotal.WithLabelValues(layerOverlay, "ok").Inc()
	})
}

// loadMeshLayer puts a scalar layer on the first mesh of in.
func (e *Engine) loadMeshLayer(in *viewport.Instance, kind scene.LayerKind, p protocol.Payload) {
	start := time.Now()
	e.startLoad(in, func(ctx context.Context) decoded {
		return e.decodeLayer(ctx, p)
	}, func(in *viewport.Instance, res decoded) {
		loadDurationSeconds.WithLabelValues(layerMeshLayer).Observe(time.Since(start).Seconds())
		if res.err != nil {
			loadsTotal.WithLabelValues(layerMeshLayer, "error").Inc()
			tuilog.Log.Warn("engine: mesh layer load failed", "uri", p.Name(), "error", res.err)
			e.bridge.Notify(protocol.LevelWarning,
				i18n.Tf("engine.notify.overlayFailed", "Could not load overlay %s: %v", p.Name(), res.err))
			return
		}
		layer := scene.LayerDefaults(kind)
		layer.Name = res.layer.Name
		if kind != scene.LayerCurvature && e.settings.DefaultMeshOverlayColormap != "" {
			layer.Colormap = e.settings.DefaultMeshOverlayColormap
		}
		if !in.Scene.AddMeshLayer(layer) {
			loadsTotal.WithLabelValues(layerMeshLayer, "orphaned").Inc()
			tuilog.Log.Debug("engine: mesh went away before its layer loaded", "key", in.Key)
			return
		}
		loadsTotal.WithLabelValues(layerMeshLayer, "ok").Inc()
	})
}

// attachNav gives in a frame controller when its base volume is 4D.
func (e *Engine) attachNav(in *viewport.Instance) {
	if in.Nav != nil {
		in.Nav.Close()
		in.Nav = nil
	}
	frames := in.Frames()
	if frames <= 1 {
		return
	}
	key := in.Key
	nav := nav4d.New(frames, e.clock, e.interval)
	nav.OnChange(func(frame int) { e.frameChanged(key, frame) })
	in.Nav = nav
}

// frameChanged applies a local frame change and pushes it to synced peers.
func (e *Engine) frameChanged(key viewport.Key, frame int) {
	idx := e.coll.Index(key)
	if idx < 0 {
		return
	}
	in, _ := e.coll.At(idx)
	if len(in.Scene.Volumes) > 0 {
		in.Scene.Volumes[0].Frame = frame
	}
	e.touch(in)
	items := e.coll.All()
	for _, i := range e.syncer.BroadcastFrame(idx, items, frame) {
		e.touch(items[i])
	}
}
