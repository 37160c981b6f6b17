package render

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wethinkt/go-niiview/internal/scene"
)

// ErrUnsupportedFormat is returned for payloads the headless decoder cannot
// read.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const niftiHeaderSize = 348

// NIfTI-1 datatype codes the headless decoder can sample.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtUint16  = 512
)

type niftiHeader struct {
	order    binary.ByteOrder
	dims     [8]int16
	datatype int16
	bitpix   int16
	pixdim   [8]float32
	voxOff   float32
	slope    float32
	inter    float32
	calMax   float32
	calMin   float32
}

// readNIfTI parses a NIfTI-1 single-file image, gzipped or not.
func readNIfTI(data []byte) (niftiHeader, []byte, error) {
	var h niftiHeader
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return h, nil, fmt.Errorf("gunzip: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return h, nil, fmt.Errorf("gunzip: %w", err)
		}
	}
	if len(data) < niftiHeaderSize {
		return h, nil, fmt.Errorf("%w: %d bytes is too short for a NIfTI header", ErrUnsupportedFormat, len(data))
	}

	switch {
	case binary.LittleEndian.Uint32(data) == niftiHeaderSize:
		h.order = binary.LittleEndian
	case binary.BigEndian.Uint32(data) == niftiHeaderSize:
		h.order = binary.BigEndian
	default:
		return h, nil, fmt.Errorf("%w: bad sizeof_hdr", ErrUnsupportedFormat)
	}
	if magic := string(data[344:347]); magic != "n+1" && magic != "ni1" {
		return h, nil, fmt.Errorf("%w: bad magic %q", ErrUnsupportedFormat, magic)
	}

	for i := range h.dims {
		h.dims[i] = int16(h.order.Uint16(data[40+2*i:]))
	}
	h.datatype = int16(h.order.Uint16(data[70:]))
	h.bitpix = int16(h.order.Uint16(data[72:]))
	for i := range h.pixdim {
		h.pixdim[i] = math.Float32frombits(h.order.Uint32(data[76+4*i:]))
	}
	h.voxOff = math.Float32frombits(h.order.Uint32(data[108:]))
	h.slope = math.Float32frombits(h.order.Uint32(data[112:]))
	h.inter = math.Float32frombits(h.order.Uint32(data[116:]))
	h.calMax = math.Float32frombits(h.order.Uint32(data[124:]))
	h.calMin = math.Float32frombits(h.order.Uint32(data[128:]))

	if h.dims[0] < 1 || h.dims[0] > 7 {
		return h, nil, fmt.Errorf("%w: dim[0]=%d", ErrUnsupportedFormat, h.dims[0])
	}

	var voxels []byte
	if off := int(h.voxOff); off >= niftiHeaderSize && off < len(data) {
		voxels = data[off:]
	}
	return h, voxels, nil
}

// geometry converts the header into the scene form. Missing dimensions
// count as 1 and non-positive spacing as 1mm.
func (h niftiHeader) geometry() scene.Header {
	var g scene.Header
	for i := 0; i < 4; i++ {
		n := 1
		if int(h.dims[0]) > i && h.dims[i+1] > 0 {
			n = int(h.dims[i+1])
		}
		g.Dims[i] = n
	}
	for i := 0; i < 3; i++ {
		d := float64(h.pixdim[i+1])
		if !(d > 0) {
			d = 1
		}
		g.Spacing[i] = d
	}
	return g
}

// samples decodes up to limit scaled voxel values of the first frame.
func (h niftiHeader) samples(voxels []byte, limit int) []float64 {
	size := 0
	switch h.datatype {
	case dtUint8:
		size = 1
	case dtInt16, dtUint16:
		size = 2
	case dtInt32, dtFloat32:
		size = 4
	case dtFloat64:
		size = 8
	default:
		return nil
	}

	g := h.geometry()
	n := min(g.Dims[0]*g.Dims[1]*g.Dims[2], len(voxels)/size)
	step := max(1, n/max(limit, 1))

	slope, inter := float64(h.slope), float64(h.inter)
	if slope == 0 || math.IsNaN(slope) {
		slope, inter = 1, 0
	}

	out := make([]float64, 0, n/step+1)
	for i := 0; i < n; i += step {
		b := voxels[i*size:]
		var v float64
		switch h.datatype {
		case dtUint8:
			v = float64(b[0])
		case dtInt16:
			v = float64(int16(h.order.Uint16(b)))
		case dtUint16:
			v = float64(h.order.Uint16(b))
		case dtInt32:
			v = float64(int32(h.order.Uint32(b)))
		case dtFloat32:
			v = float64(math.Float32frombits(h.order.Uint32(b)))
		case dtFloat64:
			v = math.Float64frombits(h.order.Uint64(b))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v*slope+inter)
	}
	return out
}

// Synthetic builds an uncompressed little-endian NIfTI-1 float32 image
// whose voxel values ramp from 0 upwards. It serves as demo data.
func Synthetic(dims [4]int, spacing [3]float64) []byte {
	nd := 3
	if dims[3] > 1 {
		nd = 4
	}
	n := 1
	for i := 0; i < nd; i++ {
		n *= max(dims[i], 1)
	}

	buf := make([]byte, 352+4*n)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], niftiHeaderSize)
	le.PutUint16(buf[40:], uint16(nd))
	for i := 0; i < 4; i++ {
		le.PutUint16(buf[42+2*i:], uint16(max(dims[i], 1)))
	}
	le.PutUint16(buf[70:], dtFloat32)
	le.PutUint16(buf[72:], 32)
	le.PutUint32(buf[76:], math.Float32bits(1))
	for i := 0; i < 3; i++ {
		le.PutUint32(buf[80+4*i:], math.Float32bits(float32(spacing[i])))
	}
	le.PutUint32(buf[108:], math.Float32bits(352))
	le.PutUint32(buf[112:], math.Float32bits(1))
	copy(buf[344:], "n+1\x00")
	for i := 0; i < n; i++ {
		le.PutUint32(buf[352+4*i:], math.Float32bits(float32(i)))
	}
	return buf
}
