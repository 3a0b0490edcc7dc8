// Package fitsimg loads 2-D astronomical images and their world coordinate
// system. Pixel data are held as float32 in row-major order with row 0 at
// the bottom of the sky image (FITS row 1), and pixel coordinates are
// zero-based throughout.
package fitsimg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/astrogo/fitsio"
)

// Image is one 2-D plane of pixel values. No-data pixels hold NaN.
// Pixels are stored at float32, the precision radio tiles are written in;
// accessors return float64.
type Image struct {
	Name   string
	Width  int
	Height int
	Data   []float32
	WCS    *WCS // nil when the header carries no celestial WCS
}

// NewImage allocates a zero-filled image.
func NewImage(name string, width, height int) *Image {
	return &Image{Name: name, Width: width, Height: height, Data: make([]float32, width*height)}
}

// At returns the value at (x, y). The caller must check InBounds.
func (im *Image) At(x, y int) float64 { return float64(im.Data[y*im.Width+x]) }

// Set writes the value at (x, y).
func (im *Image) Set(x, y int, v float64) { im.Data[y*im.Width+x] = float32(v) }

// InBounds reports whether (x, y) addresses a pixel.
func (im *Image) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < im.Width && y < im.Height
}

// Window copies the w×h block whose lower-left pixel is (x0, y0). The block
// must lie inside the image.
func (im *Image) Window(x0, y0, w, h int) ([]float64, error) {
	if w <= 0 || h <= 0 || !im.InBounds(x0, y0) || !im.InBounds(x0+w-1, y0+h-1) {
		return nil, fmt.Errorf("window %dx%d at (%d,%d) exceeds %dx%d image", w, h, x0, y0, im.Width, im.Height)
	}
	out := make([]float64, 0, w*h)
	for y := y0; y < y0+h; y++ {
		for _, v := range im.Data[y*im.Width+x0 : y*im.Width+x0+w] {
			out = append(out, float64(v))
		}
	}
	return out, nil
}

// ErrNotImage is returned when the primary HDU holds no pixel array.
var ErrNotImage = errors.New("primary HDU is not an image")

// Load reads the primary HDU of a FITS file. Degenerate trailing axes
// (frequency, Stokes) are dropped by taking the first plane, so a
// [W, H, 1, 1] cube yields a W×H image.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fits: %w", err)
	}
	defer f.Close()

	ff, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer ff.Close()

	hdu := ff.HDU(0)
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	hdr := img.Header()

	axes := hdr.Axes()
	if len(axes) < 2 {
		return nil, fmt.Errorf("%s: need at least 2 axes, got %d: %w", path, len(axes), ErrNotImage)
	}
	width, height := axes[0], axes[1]

	data, err := decodePlane(img.Raw(), hdr.Bitpix(), width*height, scaling(hdr))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := &Image{Name: path, Width: width, Height: height, Data: data}
	if wcs, err := WCSFromHeader(headerLookup(hdr)); err == nil {
		out.WCS = wcs
	} else if !errors.Is(err, ErrNoWCS) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

var nan32 = float32(math.NaN())

type pixelScaling struct {
	bscale, bzero float64
	blank         *int64
}

func scaling(hdr *fitsio.Header) pixelScaling {
	s := pixelScaling{bscale: 1}
	lookup := headerLookup(hdr)
	if v, ok := lookup.Float("BSCALE"); ok {
		s.bscale = v
	}
	if v, ok := lookup.Float("BZERO"); ok {
		s.bzero = v
	}
	if v, ok := lookup.Float("BLANK"); ok {
		b := int64(v)
		s.blank = &b
	}
	return s
}

// decodePlane converts the first n big-endian pixels of raw to physical
// values. Integer pixels equal to BLANK and non-finite floats become NaN.
func decodePlane(raw []byte, bitpix, n int, s pixelScaling) ([]float32, error) {
	size := bitpix / 8
	if size < 0 {
		size = -size
	}
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	if len(raw) < n*size {
		return nil, fmt.Errorf("pixel data truncated: have %d bytes, need %d", len(raw), n*size)
	}

	out := make([]float32, n)
	for i := 0; i < n; i++ {
		b := raw[i*size : (i+1)*size]
		var v float64
		var iv int64
		isInt := true
		switch bitpix {
		case 8:
			iv = int64(b[0])
		case 16:
			iv = int64(int16(binary.BigEndian.Uint16(b)))
		case 32:
			iv = int64(int32(binary.BigEndian.Uint32(b)))
		case 64:
			iv = int64(binary.BigEndian.Uint64(b))
		case -32:
			v = float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
			isInt = false
		case -64:
			v = math.Float64frombits(binary.BigEndian.Uint64(b))
			isInt = false
		}
		if isInt {
			if s.blank != nil && iv == *s.blank {
				out[i] = nan32
				continue
			}
			v = float64(iv)
		} else if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = nan32
			continue
		}
		out[i] = float32(s.bzero + s.bscale*v)
	}
	return out, nil
}
