package scene

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Symmetric is a pseudo colormap: warm for positive values, winter for
// negative ones.
const Symmetric = "symmetric"

// MeshColormaps are the colormaps a mesh scalar layer can use.
var MeshColormaps = []string{"ge_color", "gray", "hsv", Symmetric, "warm"}

// VolumeColormaps are the colormaps offered for volume layers. Renderers
// may know more; volumes accept any name.
var VolumeColormaps = []string{Symmetric, "gray", "hot", "warm", "winter", "cool", "redyell", "bluegrn", "plasma", "viridis", "inferno"}

var (
	ErrNoLayer         = errors.New("no such layer")
	ErrUnknownColormap = errors.New("unknown colormap")
	ErrBadScaling      = errors.New("invalid scaling")
)

// Scaling is a manual calibration window.
type Scaling struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LayerDisplay changes how one layer is drawn. Nil fields are left alone.
type LayerDisplay struct {
	Scaling  *Scaling `json:"scaling,omitempty"`
	Colormap *string  `json:"colormap,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Invert   *bool    `json:"invert,omitempty"`
}

// Validate rejects non-finite numbers and an empty colormap name.
func (d LayerDisplay) Validate() error {
	if sc := d.Scaling; sc != nil {
		if !finite(sc.Min) || !finite(sc.Max) {
			return fmt.Errorf("%w: %v..%v", ErrBadScaling, sc.Min, sc.Max)
		}
	}
	if d.Opacity != nil && !finite(*d.Opacity) {
		return fmt.Errorf("opacity %v is not a number", *d.Opacity)
	}
	if d.Colormap != nil && *d.Colormap == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownColormap)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SetLayerDisplay applies d to layer n: the n-th volume when the scene has
// volumes, else the n-th scalar layer of the first mesh. Opacity is clamped
// to [0, 1].
func (s *Scene) SetLayerDisplay(n int, d LayerDisplay) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if len(s.Volumes) > 0 {
		if n < 0 || n >= len(s.Volumes) {
			return fmt.Errorf("volume %d: %w", n, ErrNoLayer)
		}
		d.applyVolume(&s.Volumes[n])
		return nil
	}
	if len(s.Meshes) == 0 || n < 0 || n >= len(s.Meshes[0].Layers) {
		return fmt.Errorf("mesh layer %d: %w", n, ErrNoLayer)
	}
	if d.Colormap != nil && !slices.Contains(MeshColormaps, *d.Colormap) {
		return fmt.Errorf("%w for meshes: %q", ErrUnknownColormap, *d.Colormap)
	}
	d.applyMeshLayer(&s.Meshes[0].Layers[n])
	return nil
}

func (d LayerDisplay) applyVolume(v *Volume) {
	if sc := d.Scaling; sc != nil {
		v.CalMin, v.CalMax = sc.Min, sc.Max
	}
	if cm := d.Colormap; cm != nil {
		v.Colormap, v.ColormapNegative = splitColormap(*cm)
	}
	if d.Opacity != nil {
		v.Opacity = clamp01(*d.Opacity)
	}
	if d.Invert != nil {
		v.Invert = *d.Invert
	}
}

func (d LayerDisplay) applyMeshLayer(l *MeshLayer) {
	if sc := d.Scaling; sc != nil {
		l.CalMin, l.CalMax = sc.Min, sc.Max
	}
	if cm := d.Colormap; cm != nil {
		l.Colormap, l.ColormapNegative = splitColormap(*cm)
		l.UseNegativeCmap = l.ColormapNegative != ""
	}
	if d.Opacity != nil {
		l.Opacity = clamp01(*d.Opacity)
	}
	if d.Invert != nil {
		l.Invert = *d.Invert
	}
}

func splitColormap(name string) (positive, negative string) {
	if name == Symmetric {
		return "warm", "winter"
	}
	return name, ""
}

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}

// ColormapName is the name a colormap pair was chosen by.
func ColormapName(positive, negative string) string {
	if positive == "warm" && negative == "winter" {
		return Symmetric
	}
	return positive
}

// NextColormap returns the entry after current in list, wrapping around.
// An unknown current starts at the first entry.
func NextColormap(list []string, current string) string {
	if len(list) == 0 {
		return current
	}
	i := slices.Index(list, current)
	return list[(i+1)%len(list)]
}
