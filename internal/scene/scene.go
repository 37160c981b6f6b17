// Package scene holds the layer and view-state model of a single viewport.
package scene

import (
	"fmt"
	"path"
	"strings"
)

// SliceType selects the plane (or rendering) a viewport displays.
type SliceType int

const (
	Axial SliceType = iota
	Coronal
	Sagittal
	Multiplanar
	Render
)

var sliceTypeNames = [...]string{"axial", "coronal", "sagittal", "multiplanar", "render"}

func (s SliceType) String() string {
	if s < 0 || int(s) >= len(sliceTypeNames) {
		return fmt.Sprintf("slicetype(%d)", int(s))
	}
	return sliceTypeNames[s]
}

// ParseSliceType accepts the lowercase names printed by String.
func ParseSliceType(s string) (SliceType, error) {
	for i, n := range sliceTypeNames {
		if strings.EqualFold(s, n) {
			return SliceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown slice type %q", s)
}

// MarshalText encodes the slice type by name.
func (s SliceType) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(sliceTypeNames) {
		return nil, fmt.Errorf("unknown slice type %d", int(s))
	}
	return []byte(sliceTypeNames[s]), nil
}

// UnmarshalText accepts what ParseSliceType accepts.
func (s *SliceType) UnmarshalText(b []byte) error {
	v, err := ParseSliceType(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Header is the geometry of a decoded volume.
type Header struct {
	Dims    [4]int     // nx, ny, nz, nt
	Spacing [3]float64 // dx, dy, dz in mm
}

// Frames returns the number of 4D frames, at least 1.
func (h Header) Frames() int {
	return max(h.Dims[3], 1)
}

// Extent returns the physical size of axis i in mm.
func (h Header) Extent(i int) float64 {
	return float64(h.Dims[i]) * h.Spacing[i]
}

// Volume is one image layer. The first volume of a scene is the base image.
type Volume struct {
	Name     string  `json:"name"`
	Header   Header  `json:"header"`
	Colormap string  `json:"colormap"`
	Opacity  float64 `json:"opacity"`
	CalMin   float64 `json:"cal_min"`
	CalMax   float64 `json:"cal_max"`
	Frame    int     `json:"frame"`

	ColormapNegative string `json:"colormap_negative,omitempty"`
	Invert           bool   `json:"invert"`

	// Full intensity range of the data, when known.
	GlobalMin float64 `json:"global_min"`
	GlobalMax float64 `json:"global_max"`
}

// MeshLayer is a per-vertex scalar layer drawn on a mesh.
type MeshLayer struct {
	Name             string  `json:"name"`
	Opacity          float64 `json:"opacity"`
	Colormap         string  `json:"colormap"`
	ColormapNegative string  `json:"colormap_negative,omitempty"`
	UseNegativeCmap  bool    `json:"use_negative_cmap"`
	CalMin           float64 `json:"cal_min,omitempty"`
	CalMax           float64 `json:"cal_max,omitempty"`
	ColorbarVisible  bool    `json:"colorbar_visible"`
	Invert           bool    `json:"invert"`
}

// Mesh is a surface layer.
type Mesh struct {
	Name    string      `json:"name"`
	Opacity float64     `json:"opacity"`
	Points  int         `json:"points"`
	Layers  []MeshLayer `json:"layers,omitempty"`
}

// View is the interactive view state of a viewport.
type View struct {
	Pan       [4]float64 `json:"pan"`       // x, y, z in mm and zoom
	Crosshair [3]float64 `json:"crosshair"` // fractional position
	Azimuth   float64    `json:"azimuth"`
	Elevation float64    `json:"elevation"`
}

// DefaultView is the view of a freshly created viewport.
func DefaultView() View {
	return View{
		Pan:       [4]float64{0, 0, 0, 1},
		Crosshair: [3]float64{0.5, 0.5, 0.5},
		Azimuth:   110,
		Elevation: 10,
	}
}

// Graph controls the timeseries plot drawn beside 4D volumes in
// multiplanar layouts.
type Graph struct {
	AutoSizeMultiplanar    bool    `json:"auto_size_multiplanar"`
	MultiplanarForceRender bool    `json:"multiplanar_force_render"`
	NormalizeValues        bool    `json:"normalize_values"`
	Opacity                float64 `json:"opacity"`
}

// Scene is everything attached to one renderer.
type Scene struct {
	Volumes  []Volume `json:"volumes"`
	Meshes   []Mesh   `json:"meshes"`
	View     View     `json:"view"`
	Colorbar bool     `json:"colorbar"`
	Graph    Graph    `json:"graph"`
}

// Empty reports whether no volume or mesh is attached.
func (s *Scene) Empty() bool {
	return len(s.Volumes) == 0 && len(s.Meshes) == 0
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Scene) Clone() Scene {
	out := Scene{View: s.View, Colorbar: s.Colorbar, Graph: s.Graph}
	out.Volumes = append([]Volume(nil), s.Volumes...)
	out.Meshes = make([]Mesh, len(s.Meshes))
	for i, m := range s.Meshes {
		m.Layers = append([]MeshLayer(nil), m.Layers...)
		out.Meshes[i] = m
	}
	return out
}

var imageExts = []string{
	".nii", ".nii.gz", ".dcm", ".mha", ".mhd", ".nhdr", ".nrrd", ".mgh", ".mgz",
	".npy", ".npz", ".v", ".v16", ".vmr", ".mnc", ".mnc.gz",
}

// IsImage reports whether uri names a volume format rather than a mesh.
func IsImage(uri string) bool {
	for _, ext := range imageExts {
		if strings.HasSuffix(uri, ext) {
			return true
		}
	}
	return false
}

// IsDICOM reports whether uri names a DICOM slice. .ima files count.
func IsDICOM(uri string) bool {
	switch strings.ToLower(path.Ext(uri)) {
	case ".dcm", ".ima":
		return true
	}
	return false
}
