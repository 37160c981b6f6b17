package tui

import (
	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/scene"
)

// topLayer describes the newest layer of a viewport: its last volume, or the
// last scalar layer of its first mesh.
type topLayer struct {
	index     int
	colormap  string
	opacity   float64
	invert    bool
	colormaps []string
}

func newestLayer(vs engine.ViewportState) (topLayer, bool) {
	if n := len(vs.Volumes); n > 0 {
		v := vs.Volumes[n-1]
		return topLayer{
			index:     n - 1,
			colormap:  scene.ColormapName(v.Colormap, v.ColormapNegative),
			opacity:   v.Opacity,
			invert:    v.Invert,
			colormaps: scene.VolumeColormaps,
		}, true
	}
	if len(vs.Meshes) > 0 {
		if ls := vs.Meshes[0].Layers; len(ls) > 0 {
			l := ls[len(ls)-1]
			return topLayer{
				index:     len(ls) - 1,
				colormap:  scene.ColormapName(l.Colormap, l.ColormapNegative),
				opacity:   l.Opacity,
				invert:    l.Invert,
				colormaps: scene.MeshColormaps,
			}, true
		}
	}
	return topLayer{}, false
}

// layerDisplay sends d for the focused viewport's newest layer. The engine
// applies it to every targeted viewport that has that layer.
func (m Model) layerDisplay(fn func(topLayer) scene.LayerDisplay) {
	vs, ok := m.state.Viewport(m.focus)
	if !ok || !vs.Loaded {
		return
	}
	top, ok := newestLayer(vs)
	if !ok {
		return
	}
	m.engine.SetLayerDisplay(top.index, fn(top))
}

func (m Model) cycleColormap() {
	m.layerDisplay(func(top topLayer) scene.LayerDisplay {
		cm := scene.NextColormap(top.colormaps, top.colormap)
		return scene.LayerDisplay{Colormap: &cm}
	})
}

func (m Model) toggleInvert() {
	m.layerDisplay(func(top topLayer) scene.LayerDisplay {
		inv := !top.invert
		return scene.LayerDisplay{Invert: &inv}
	})
}

func (m Model) stepOpacity(delta float64) {
	m.layerDisplay(func(top topLayer) scene.LayerDisplay {
		op := top.opacity + delta
		return scene.LayerDisplay{Opacity: &op}
	})
}
