// Package layout sizes the viewport grid for a container.
package layout

import (
	"math"

	"github.com/wethinkt/go-niiview/internal/scene"
)

// DefaultGap is the spacing in pixels between grid cells.
const DefaultGap = 4

// Size is a width and height in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Grid is the chosen arrangement and the uniform cell size.
type Grid struct {
	Rows int  `json:"rows"`
	Cols int  `json:"cols"`
	Cell Size `json:"cell"`
}

// Plan tries every row count from 1 to count and keeps the arrangement with
// the widest cell. A count of zero reserves one placeholder cell. Invalid
// aspect ratios fall back to 1 and the cell width never drops below 1, so
// the result is always strictly positive.
func Plan(count int, aspect float64, container Size, gap float64) Grid {
	count = max(count, 1)
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		aspect = 1
	}

	best := Grid{Rows: 1, Cols: count, Cell: Size{Width: math.Inf(-1)}}
	for rows := 1; rows <= count; rows++ {
		cols := (count + rows - 1) / rows
		maxHeight := math.Floor(container.Height/float64(rows) - gap)
		maxWidth := math.Floor(math.Min(container.Width/float64(cols)-gap, maxHeight*aspect))
		if maxWidth > best.Cell.Width {
			best = Grid{Rows: rows, Cols: cols, Cell: Size{Width: maxWidth}}
		}
	}

	if !(best.Cell.Width >= 1) {
		best.Cell.Width = 1
	}
	best.Cell.Height = best.Cell.Width / aspect
	return best
}

// Compute returns the cell size for count viewports with the default gap.
func Compute(count int, aspect float64, container Size) Size {
	return Plan(count, aspect, container, DefaultGap).Cell
}

// AspectRatio is the width over height of the reference volume as seen in
// the given slice type. Extents are voxel counts times spacing. A missing
// header, render mode or degenerate geometry yields 1.
func AspectRatio(h *scene.Header, st scene.SliceType) float64 {
	if h == nil || h.Dims[0] == 0 {
		return 1
	}
	x, y, z := h.Extent(0), h.Extent(1), h.Extent(2)

	var r float64
	switch st {
	case scene.Axial:
		r = x / y
	case scene.Coronal:
		r = x / z
	case scene.Sagittal:
		r = y / z
	case scene.Multiplanar:
		r = (x + y) / (z + y)
	default:
		return 1
	}
	if !(r > 0) || math.IsInf(r, 0) {
		return 1
	}
	return r
}
