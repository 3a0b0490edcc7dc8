// Package render draws radio contour overlays on optical postage stamps.
// For each matched galaxy it finds the first radio tile, in priority order,
// that actually holds data at the galaxy's position, crops a window around
// it, and plots contours of that window over the optical stamp.
package render

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/radioxmatch/internal/fitsimg"
)

// Reason says why a tile cannot serve a target.
type Reason string

const (
	ReasonNoWCS         Reason = "no-wcs"
	ReasonUnprojectable Reason = "unprojectable"
	ReasonOutside       Reason = "outside"   // crop window leaves the pixel grid
	ReasonNoData        Reason = "no-data"   // centre pixel is blank
	ReasonNoSignal      Reason = "no-signal" // no positive finite pixel in the window
)

var (
	// ErrNotInImage matches every *NotInImageError.
	ErrNotInImage = errors.New("target not in image")
	// ErrNoCandidate means every candidate tile rejected the target.
	ErrNoCandidate = errors.New("no candidate image contains target")
	// ErrStamp wraps failures to load or crop the optical stamp.
	ErrStamp = errors.New("optical stamp unavailable")
)

// NotInImageError is the typed rejection returned by LocateAndCrop.
type NotInImageError struct {
	Image  string
	Reason Reason
	X, Y   int // nearest pixel to the target, when known
}

func (e *NotInImageError) Error() string {
	return fmt.Sprintf("%s: target at pixel (%d,%d) rejected: %s", e.Image, e.X, e.Y, e.Reason)
}

// Is lets errors.Is(err, ErrNotInImage) match.
func (e *NotInImageError) Is(target error) bool { return target == ErrNotInImage }

// Crop is a square window of a radio tile centred on a target.
type Crop struct {
	Source *fitsimg.Image
	CX, CY int // centre pixel in the source
	X0, Y0 int // lower-left pixel in the source
	Size   int // side length, 2*radius
	Data   []float64
	Max    float64 // maximum finite value in the window
}

// At returns the window value at (x, y), 0 <= x, y < Size.
func (c *Crop) At(x, y int) float64 { return c.Data[y*c.Size+x] }

// LocateAndCrop projects (ra, dec) into im and cuts the [c-radius, c+radius)
// window around the nearest pixel c. The target is rejected, never clamped,
// when the window leaves the image, when the centre pixel is blank, or when
// the window holds no positive signal to contour.
func LocateAndCrop(im *fitsimg.Image, ra, dec float64, radius int) (*Crop, error) {
	if im.WCS == nil {
		return nil, &NotInImageError{Image: im.Name, Reason: ReasonNoWCS}
	}
	px, py, err := im.WCS.WorldToPixel(ra, dec)
	if err != nil {
		return nil, &NotInImageError{Image: im.Name, Reason: ReasonUnprojectable}
	}
	if math.IsNaN(px) || math.IsNaN(py) || math.Abs(px) > math.MaxInt32 || math.Abs(py) > math.MaxInt32 {
		return nil, &NotInImageError{Image: im.Name, Reason: ReasonOutside}
	}
	cx, cy := int(math.Floor(px+0.5)), int(math.Floor(py+0.5))
	rejected := func(r Reason) error {
		return &NotInImageError{Image: im.Name, Reason: r, X: cx, Y: cy}
	}

	size := 2 * radius
	x0, y0 := cx-radius, cy-radius
	if !im.InBounds(x0, y0) || !im.InBounds(x0+size-1, y0+size-1) {
		return nil, rejected(ReasonOutside)
	}
	if math.IsNaN(im.At(cx, cy)) {
		return nil, rejected(ReasonNoData)
	}

	data, err := im.Window(x0, y0, size, size)
	if err != nil {
		return nil, rejected(ReasonOutside)
	}
	peak, ok := finiteMax(data)
	if !ok || peak <= 0 {
		return nil, rejected(ReasonNoSignal)
	}

	return &Crop{
		Source: im,
		CX:     cx, CY: cy,
		X0: x0, Y0: y0,
		Size: size,
		Data: data,
		Max:  peak,
	}, nil
}

// finiteMax returns the largest non-NaN value of xs.
func finiteMax(xs []float64) (float64, bool) {
	finite := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, false
	}
	return floats.Max(finite), true
}

// finiteRange returns the smallest and largest finite values of xs.
func finiteRange(xs []float64) (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	return floats.Min(finite), floats.Max(finite), true
}
