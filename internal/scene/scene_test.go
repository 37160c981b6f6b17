package scene

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestSliceType_RoundTrip(t *testing.T) {
	for st := Axial; st <= Render; st++ {
		got, err := ParseSliceType(st.String())
		if err != nil || got != st {
			t.Errorf("ParseSliceType(%q) = %v, %v", st.String(), got, err)
		}
	}
	if _, err := ParseSliceType("oblique"); err == nil {
		t.Error("expected error for unknown slice type")
	}
	if Multiplanar != 3 || Render != 4 {
		t.Error("slice type values changed")
	}
}

func TestSliceType_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		S SliceType `json:"s"`
	}{Sagittal})
	if err != nil || string(b) != `{"s":"sagittal"}` {
		t.Fatalf("Marshal = %s, %v", b, err)
	}
	var got struct {
		S SliceType `json:"s"`
	}
	if err := json.Unmarshal([]byte(`{"s":"Render"}`), &got); err != nil || got.S != Render {
		t.Errorf("Unmarshal = %v, %v", got.S, err)
	}
	if _, err := SliceType(9).MarshalText(); err == nil {
		t.Error("expected error for out-of-range slice type")
	}
}

func TestIsImage(t *testing.T) {
	tests := map[string]bool{
		"brain.nii":     true,
		"brain.nii.gz":  true,
		"scan.mnc.gz":   true,
		"lh.pial":       false,
		"lh.curv":       false,
		"surface.gii":   false,
		"slice001.dcm":  true,
		"notes.txt.bak": false,
	}
	for uri, want := range tests {
		if got := IsImage(uri); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", uri, got, want)
		}
	}
	if !IsDICOM("x.IMA") || IsDICOM("x.nii") {
		t.Error("IsDICOM misclassified")
	}
}

func TestAddMeshLayer(t *testing.T) {
	s := Scene{}
	if s.AddMeshLayer(LayerDefaults(LayerOverlay)) {
		t.Fatal("scene without mesh should refuse layers")
	}
	if s.Colorbar {
		t.Error("colorbar should stay off when nothing was added")
	}
	if s.PopMeshLayer() {
		t.Error("pop on a scene without mesh succeeded")
	}

	s.Meshes = []Mesh{{Name: "lh.pial"}}
	a := LayerDefaults(LayerOverlay)
	a.Name = "a"
	b := LayerDefaults(LayerCurvature)
	b.Name = "b"
	s.AddMeshLayer(a)
	s.AddMeshLayer(b)
	if n := len(s.Meshes[0].Layers); n != 2 {
		t.Fatalf("expected 2 layers, got %d", n)
	}
	if s.Meshes[0].Layers[1].ColorbarVisible {
		t.Error("curvature layer should hide its colorbar")
	}
	if !s.Colorbar {
		t.Error("colorbar should be switched on")
	}

	if !s.PopMeshLayer() {
		t.Fatal("pop failed")
	}
	layers := s.Meshes[0].Layers
	if len(layers) != 1 || layers[0].Name != "a" {
		t.Errorf("pop should drop the newest layer, got %+v", layers)
	}
}

func TestLayerDefaults(t *testing.T) {
	c := LayerDefaults(LayerCurvature)
	if c.Opacity != 0.7 || c.Colormap != "gray" || c.CalMin != 0.3 || c.CalMax != 0.5 {
		t.Errorf("curvature defaults = %+v", c)
	}
	o := LayerDefaults(LayerReplace)
	if o.Opacity != 0.7 || o.Colormap != "hsv" || o.UseNegativeCmap || o.ColormapNegative != "" {
		t.Errorf("overlay defaults = %+v", o)
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := Scene{Meshes: []Mesh{{Name: "m", Layers: []MeshLayer{{Name: "l"}}}}, Volumes: []Volume{{Name: "v"}}}
	c := s.Clone()
	c.Meshes[0].Layers[0].Name = "changed"
	c.Volumes[0].Name = "changed"
	if s.Meshes[0].Layers[0].Name != "l" || s.Volumes[0].Name != "v" {
		t.Error("Clone shares backing arrays")
	}
}

func TestHeader(t *testing.T) {
	h := Header{Dims: [4]int{10, 20, 30, 0}, Spacing: [3]float64{1, 2, 0.5}}
	if h.Frames() != 1 {
		t.Errorf("Frames = %d", h.Frames())
	}
	if h.Extent(1) != 40 || h.Extent(2) != 15 {
		t.Errorf("Extent wrong: %v %v", h.Extent(1), h.Extent(2))
	}
}

func TestSetLayerDisplay_Volume(t *testing.T) {
	s := Scene{Volumes: []Volume{{Name: "t1", Colormap: "gray", Opacity: 1}, {Name: "mask", Colormap: "redyell", Opacity: 0.5}}}
	cm, op, inv := Symmetric, 1.7, true
	err := s.SetLayerDisplay(1, LayerDisplay{
		Scaling:  &Scaling{Min: -2, Max: 3},
		Colormap: &cm,
		Opacity:  &op,
		Invert:   &inv,
	})
	if err != nil {
		t.Fatalf("SetLayerDisplay: %v", err)
	}
	v := s.Volumes[1]
	if v.CalMin != -2 || v.CalMax != 3 || v.Opacity != 1 || !v.Invert {
		t.Errorf("overlay = %+v", v)
	}
	if v.Colormap != "warm" || v.ColormapNegative != "winter" || ColormapName(v.Colormap, v.ColormapNegative) != Symmetric {
		t.Errorf("symmetric colormap = %q/%q", v.Colormap, v.ColormapNegative)
	}
	if s.Volumes[0].Colormap != "gray" || s.Volumes[0].Invert {
		t.Errorf("base image changed: %+v", s.Volumes[0])
	}

	hot := "hot"
	s.SetLayerDisplay(1, LayerDisplay{Colormap: &hot})
	if v := s.Volumes[1]; v.Colormap != "hot" || v.ColormapNegative != "" || !v.Invert {
		t.Errorf("after colormap change = %+v", v)
	}

	if err := s.SetLayerDisplay(2, LayerDisplay{Invert: &inv}); !errors.Is(err, ErrNoLayer) {
		t.Errorf("missing layer err = %v", err)
	}
	nan := math.NaN()
	if err := s.SetLayerDisplay(0, LayerDisplay{Scaling: &Scaling{Min: nan, Max: 1}}); !errors.Is(err, ErrBadScaling) {
		t.Errorf("NaN scaling err = %v", err)
	}
}

func TestSetLayerDisplay_MeshLayer(t *testing.T) {
	s := Scene{Meshes: []Mesh{{Name: "lh.pial", Layers: []MeshLayer{LayerDefaults(LayerCurvature)}}}}
	cm, op := Symmetric, -0.3
	if err := s.SetLayerDisplay(0, LayerDisplay{Colormap: &cm, Opacity: &op}); err != nil {
		t.Fatalf("SetLayerDisplay: %v", err)
	}
	l := s.Meshes[0].Layers[0]
	if !l.UseNegativeCmap || l.Colormap != "warm" || l.ColormapNegative != "winter" || l.Opacity != 0 {
		t.Errorf("layer = %+v", l)
	}

	hot := "hot"
	if err := s.SetLayerDisplay(0, LayerDisplay{Colormap: &hot}); !errors.Is(err, ErrUnknownColormap) {
		t.Errorf("volume-only colormap on mesh err = %v", err)
	}
	gray := "gray"
	s.SetLayerDisplay(0, LayerDisplay{Colormap: &gray})
	if l := s.Meshes[0].Layers[0]; l.UseNegativeCmap || l.ColormapNegative != "" {
		t.Errorf("plain colormap kept the negative map: %+v", l)
	}
	if err := s.SetLayerDisplay(1, LayerDisplay{Colormap: &gray}); !errors.Is(err, ErrNoLayer) {
		t.Errorf("missing mesh layer err = %v", err)
	}
}

func TestNextColormap(t *testing.T) {
	if got := NextColormap(MeshColormaps, "warm"); got != "ge_color" {
		t.Errorf("wrap = %q", got)
	}
	if got := NextColormap(MeshColormaps, "gray"); got != "hsv" {
		t.Errorf("next = %q", got)
	}
	if got := NextColormap(MeshColormaps, "nope"); got != "ge_color" {
		t.Errorf("unknown = %q", got)
	}
}
