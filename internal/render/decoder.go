// Package render provides a headless decoder and renderer. The decoder
// reads NIfTI-1 geometry and intensity range, enough to drive layout,
// naming and 4D navigation without a GPU.
package render

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/scene"
)

// Robust range quantiles used when the header carries no calibration.
const (
	lowQuantile  = 0.02
	highQuantile = 0.98
	sampleLimit  = 1 << 16
)

// Decoder implements viewport.Decoder for NIfTI-1 volumes. Meshes and mesh
// layers are accepted by name only.
type Decoder struct{}

// NewDecoder returns a headless decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Volume reads the base or overlay volume in p.
func (d *Decoder) Volume(ctx context.Context, p protocol.Payload) (scene.Volume, error) {
	if err := ctx.Err(); err != nil {
		return scene.Volume{}, err
	}
	if !p.HasData() {
		return scene.Volume{}, fmt.Errorf("decode %s: no data", p.Name())
	}
	if p.Series() || scene.IsDICOM(p.Name()) {
		return scene.Volume{}, fmt.Errorf("decode %s: %w: DICOM series need an external converter", p.Name(), ErrUnsupportedFormat)
	}

	h, voxels, err := readNIfTI(p.Data[0])
	if err != nil {
		return scene.Volume{}, fmt.Errorf("decode %s: %w", p.Name(), err)
	}

	v := scene.Volume{
		Name:     p.Name(),
		Header:   h.geometry(),
		Colormap: "gray",
		Opacity:  1,
		CalMin:   float64(h.calMin),
		CalMax:   float64(h.calMax),
	}
	xs := h.samples(voxels, sampleLimit)
	lo, hi := robustRange(xs)
	if len(xs) > 0 {
		v.GlobalMin, v.GlobalMax = xs[0], xs[len(xs)-1]
	}
	if !(v.CalMax > v.CalMin) {
		v.CalMin, v.CalMax = lo, hi
	}
	return v, nil
}

// Mesh accepts any non-empty payload as a surface.
func (d *Decoder) Mesh(ctx context.Context, p protocol.Payload) (scene.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return scene.Mesh{}, err
	}
	if !p.HasData() {
		return scene.Mesh{}, fmt.Errorf("decode mesh %s: no data", p.Name())
	}
	return scene.Mesh{Name: p.Name(), Opacity: 1}, nil
}

// Layer accepts any non-empty payload as a scalar layer.
func (d *Decoder) Layer(ctx context.Context, p protocol.Payload) (scene.MeshLayer, error) {
	if err := ctx.Err(); err != nil {
		return scene.MeshLayer{}, err
	}
	if !p.HasData() {
		return scene.MeshLayer{}, fmt.Errorf("decode layer %s: no data", p.Name())
	}
	return scene.MeshLayer{Name: p.Name()}, nil
}

// robustRange sorts xs in place and returns its 2nd and 98th percentile,
// widening to the full range when they coincide.
func robustRange(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sort.Float64s(xs)
	lo := stat.Quantile(lowQuantile, stat.Empirical, xs, nil)
	hi := stat.Quantile(highQuantile, stat.Empirical, xs, nil)
	if hi <= lo {
		lo, hi = xs[0], xs[len(xs)-1]
	}
	return lo, hi
}
