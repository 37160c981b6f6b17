// Package presets holds named bundles of display settings for common kinds
// of data, built in or saved by the user.
package presets

import (
	"errors"
	"math"
	"slices"
	"time"

	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/scene"
)

var (
	// ErrNotFound is returned for unknown preset IDs.
	ErrNotFound = errors.New("preset not found")
	// ErrBuiltin is returned when deleting a built-in preset.
	ErrBuiltin = errors.New("built-in presets cannot be deleted")
)

// SettingsPatch changes only the settings it names.
type SettingsPatch struct {
	ShowCrosshairs             *bool  `toml:"show_crosshairs,omitempty" json:"showCrosshairs,omitempty"`
	Interpolation              *bool  `toml:"interpolation,omitempty" json:"interpolation,omitempty"`
	Colorbar                   *bool  `toml:"colorbar,omitempty" json:"colorbar,omitempty"`
	RadiologicalConvention     *bool  `toml:"radiological_convention,omitempty" json:"radiologicalConvention,omitempty"`
	ZoomDragMode               *bool  `toml:"zoom_drag_mode,omitempty" json:"zoomDragMode,omitempty"`
	DefaultVolumeColormap      string `toml:"default_volume_colormap,omitempty" json:"defaultVolumeColormap,omitempty"`
	DefaultOverlayColormap     string `toml:"default_overlay_colormap,omitempty" json:"defaultOverlayColormap,omitempty"`
	DefaultMeshOverlayColormap string `toml:"default_mesh_overlay_colormap,omitempty" json:"defaultMeshOverlayColormap,omitempty"`
}

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s prefs.Settings) prefs.Settings {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.ShowCrosshairs, p.ShowCrosshairs)
	set(&s.Interpolation, p.Interpolation)
	set(&s.Colorbar, p.Colorbar)
	set(&s.RadiologicalConvention, p.RadiologicalConvention)
	set(&s.ZoomDragMode, p.ZoomDragMode)
	if p.DefaultVolumeColormap != "" {
		s.DefaultVolumeColormap = p.DefaultVolumeColormap
	}
	if p.DefaultOverlayColormap != "" {
		s.DefaultOverlayColormap = p.DefaultOverlayColormap
	}
	if p.DefaultMeshOverlayColormap != "" {
		s.DefaultMeshOverlayColormap = p.DefaultMeshOverlayColormap
	}
	return s
}

// PatchFrom records every field of s.
func PatchFrom(s prefs.Settings) SettingsPatch {
	return SettingsPatch{
		ShowCrosshairs:         &s.ShowCrosshairs,
		Interpolation:          &s.Interpolation,
		Colorbar:               &s.Colorbar,
		RadiologicalConvention: &s.RadiologicalConvention,
		ZoomDragMode:           &s.ZoomDragMode,

		DefaultVolumeColormap:      s.DefaultVolumeColormap,
		DefaultOverlayColormap:     s.DefaultOverlayColormap,
		DefaultMeshOverlayColormap: s.DefaultMeshOverlayColormap,
	}
}

// ViewOptions adjust the grid-wide view.
type ViewOptions struct {
	SliceType              *scene.SliceType `toml:"slice_type,omitempty" json:"sliceType,omitempty"`
	HideUI                 *int             `toml:"hide_ui,omitempty" json:"hideUI,omitempty"`
	AutoSizeMultiplanar    *bool            `toml:"auto_size_multiplanar,omitempty" json:"autoSizeMultiplanar,omitempty"`
	MultiplanarForceRender *bool            `toml:"multiplanar_force_render,omitempty" json:"multiplanarForceRender,omitempty"`
	NormalizeValues        *bool            `toml:"normalize_values,omitempty" json:"normalizeValues,omitempty"`
	GraphOpacity           *float64         `toml:"graph_opacity,omitempty" json:"graphOpacity,omitempty"`
}

// OverlayDefaults adjust every volume of the targeted viewports.
type OverlayDefaults struct {
	Colormap string   `toml:"colormap,omitempty" json:"colormap,omitempty"`
	Opacity  *float64 `toml:"opacity,omitempty" json:"opacity,omitempty"`
	CalMin   *float64 `toml:"cal_min,omitempty" json:"cal_min,omitempty"`
	CalMax   *float64 `toml:"cal_max,omitempty" json:"cal_max,omitempty"`
}

// Apply changes v in place. Each calibration bound is only replaced while it
// is still automatic: zero or the data extreme.
func (o OverlayDefaults) Apply(v *scene.Volume) {
	if o.CalMin != nil && (v.CalMin == 0 || v.CalMin == v.GlobalMin) {
		v.CalMin = *o.CalMin
	}
	if o.CalMax != nil && (v.CalMax == 0 || v.CalMax == v.GlobalMax) {
		v.CalMax = *o.CalMax
	}
	if o.Colormap != "" {
		v.Colormap = o.Colormap
	}
	if o.Opacity != nil {
		v.Opacity = *o.Opacity
	}
}

// Preset is a named bundle.
type Preset struct {
	ID          string           `toml:"id" json:"id"`
	Name        string           `toml:"name" json:"name"`
	Description string           `toml:"description,omitempty" json:"description,omitempty"`
	Settings    SettingsPatch    `toml:"settings" json:"settings"`
	View        *ViewOptions     `toml:"view,omitempty" json:"viewOptions,omitempty"`
	Overlay     *OverlayDefaults `toml:"overlay,omitempty" json:"overlayDefaults,omitempty"`
	CreatedAt   time.Time        `toml:"created_at,omitempty" json:"createdAt,omitzero"`
	Builtin     bool             `toml:"-" json:"builtin"`
}

func ptr[T any](v T) *T { return &v }

// Builtin returns the shipped presets in display order.
func Builtin() []Preset {
	return []Preset{
		{
			ID:          "fmri",
			Name:        "fMRI",
			Description: "Optimized for functional MRI with 4D timeseries visualization",
			Settings: SettingsPatch{
				ShowCrosshairs:         ptr(true),
				Interpolation:          ptr(true),
				Colorbar:               ptr(true),
				DefaultOverlayColormap: "redyell",
			},
			View: &ViewOptions{
				SliceType:              ptr(scene.Multiplanar),
				AutoSizeMultiplanar:    ptr(true),
				MultiplanarForceRender: ptr(true),
				NormalizeValues:        ptr(false),
				GraphOpacity:           ptr(1.0),
			},
			Builtin: true,
		},
		{
			ID:          "phase",
			Name:        "Phase Data",
			Description: "Optimized for phase images with no interpolation and full range scaling",
			Settings: SettingsPatch{
				Interpolation:         ptr(false),
				Colorbar:              ptr(true),
				DefaultVolumeColormap: "hsv",
			},
			Overlay: &OverlayDefaults{
				CalMin: ptr(-math.Pi),
				CalMax: ptr(math.Pi),
			},
			Builtin: true,
		},
		{
			ID:          "anatomical",
			Name:        "Anatomical",
			Description: "Standard settings for anatomical T1/T2 images",
			Settings: SettingsPatch{
				ShowCrosshairs:        ptr(true),
				Interpolation:         ptr(true),
				Colorbar:              ptr(false),
				DefaultVolumeColormap: "gray",
			},
			View:    &ViewOptions{SliceType: ptr(scene.Multiplanar)},
			Builtin: true,
		},
		{
			ID:          "dti",
			Name:        "DTI/Diffusion",
			Description: "Optimized for diffusion tensor imaging overlays",
			Settings: SettingsPatch{
				ShowCrosshairs:         ptr(true),
				Interpolation:          ptr(true),
				Colorbar:               ptr(true),
				DefaultOverlayColormap: "jet",
			},
			Builtin: true,
		},
	}
}

// Find looks id up in list.
func Find(list []Preset, id string) (Preset, error) {
	i := slices.IndexFunc(list, func(p Preset) bool { return p.ID == id })
	if i < 0 {
		return Preset{}, ErrNotFound
	}
	return list[i], nil
}
