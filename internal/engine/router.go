package engine

import (
	"errors"
	"fmt"

	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/viewport"
)

var errNoMesh = errors.New("viewport has no mesh")

// route handles one inbound message on the loop.
func (e *Engine) route(m protocol.Message) {
	kind := string(m.Kind())

	var err error
	switch m := m.(type) {
	case protocol.InitCanvas:
		e.initCanvas(m.N)
	case protocol.AddImage:
		e.addImage(m.Payload)
	case protocol.Overlay:
		err = e.overlay(m)
	case protocol.MeshLayer:
		err = e.meshLayer(m)
	case protocol.DebugRequest:
		err = e.debug(m.Tag)
	case protocol.InitSettings:
		err = e.initSettings(m.Settings)
	default:
		messagesTotal.WithLabelValues(kind, "ignored").Inc()
		tuilog.Log.Debug("engine: unhandled message", "kind", kind)
		return
	}

	if err != nil {
		messagesTotal.WithLabelValues(kind, "ignored").Inc()
		tuilog.Log.Warn("engine: message ignored", "kind", kind, "error", err)
		return
	}
	messagesTotal.WithLabelValues(kind, "ok").Inc()
}

// initCanvas appends n empty viewports. Opening several at once on an empty
// grid switches to single-plane views so each cell stays readable.
func (e *Engine) initCanvas(n int) {
	if e.coll.Len() == 0 && n > 1 {
		e.sliceType = scene.Axial
		e.redrawAll = true
	}
	e.coll.Grow(n)
	e.sel.Correct(e.coll.Len())
}

// addImage gives p to the first viewport still waiting for one.
func (e *Engine) addImage(p protocol.Payload) {
	in := e.coll.Claim()
	e.sel.Correct(e.coll.Len())
	e.loadImage(in, p)
}

// waiting reports whether in has a base image attached that has not
// finished decoding. Layers sent meanwhile are held until it has.
func waiting(in *viewport.Instance) bool {
	return !in.IsNew && !in.Loaded && in.LoadErr == nil
}

func (e *Engine) hold(in *viewport.Instance, m protocol.Message) {
	e.deferred[in.Key] = append(e.deferred[in.Key], m)
	tuilog.Log.Debug("engine: holding layer until image loads", "key", in.Key, "kind", m.Kind())
}

// replay routes the layers held for in, in arrival order.
func (e *Engine) replay(in *viewport.Instance) {
	held := e.deferred[in.Key]
	delete(e.deferred, in.Key)
	if in.LoadErr != nil {
		if len(held) > 0 {
			tuilog.Log.Debug("engine: dropping held layers of failed image", "key", in.Key, "count", len(held))
		}
		return
	}
	for _, m := range held {
		e.route(m)
	}
}

func (e *Engine) overlay(m protocol.Overlay) error {
	in, err := e.coll.At(m.Index)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	if waiting(in) {
		e.hold(in, m)
		return nil
	}
	e.loadOverlay(in, m.Payload)
	return nil
}

func (e *Engine) meshLayer(m protocol.MeshLayer) error {
	in, err := e.coll.At(m.Index)
	if err != nil {
		return fmt.Errorf("%s: %w", m.Op, err)
	}
	if waiting(in) {
		e.hold(in, m)
		return nil
	}
	if len(in.Scene.Meshes) == 0 {
		e.bridge.Notify(protocol.LevelInfo, i18n.T("engine.notify.noMesh", "Load a mesh before adding a mesh layer"))
		return fmt.Errorf("%s: %w", m.Op, errNoMesh)
	}
	kind := layerKind(m.Op)
	if kind == scene.LayerReplace && in.Scene.PopMeshLayer() {
		e.touch(in)
	}
	e.loadMeshLayer(in, kind, m.Payload)
	return nil
}

func layerKind(k protocol.Kind) scene.LayerKind {
	switch k {
	case protocol.KindAddMeshCurvature:
		return scene.LayerCurvature
	case protocol.KindReplaceMeshOverlay:
		return scene.LayerReplace
	default:
		return scene.LayerOverlay
	}
}
