// Package testutil provides shared test fixtures: small catalogue and
// annotation files, synthetic radio tiles and optical stamps written as FITS.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/astrogo/fitsio"

	"github.com/banshee-data/radioxmatch/internal/fitsimg"
)

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TileHeader returns SIN-projection WCS keywords for a width×height tile
// centred on (ra, dec) with square pixels of pixArcsec.
func TileHeader(ra, dec float64, width, height int, pixArcsec float64) fitsimg.MapHeader {
	return fitsimg.MapHeader{
		"CTYPE1": "RA---SIN",
		"CTYPE2": "DEC--SIN",
		"CRPIX1": float64(width)/2 + 1,
		"CRPIX2": float64(height)/2 + 1,
		"CRVAL1": ra,
		"CRVAL2": dec,
		"CDELT1": -pixArcsec / 3600,
		"CDELT2": pixArcsec / 3600,
	}
}

// Gaussian returns a width×height plane holding a circular Gaussian of the
// given peak at pixel (cx, cy) over a flat floor.
func Gaussian(width, height int, cx, cy, sigma, peak, floor float64) []float32 {
	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			out[y*width+x] = float32(floor + peak*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
		}
	}
	return out
}

// Blank sets every pixel with x < cols to NaN, imitating the no-data margin
// of a mosaic tile.
func Blank(data []float32, width, cols int) {
	nan := float32(math.NaN())
	for i := range data {
		if i%width < cols {
			data[i] = nan
		}
	}
}

// WriteFITS writes a BITPIX -32 primary image with the given header cards.
func WriteFITS(t testing.TB, path string, width, height int, data []float32, header fitsimg.MapHeader) {
	t.Helper()
	if len(data) != width*height {
		t.Fatalf("WriteFITS: %d pixels for %dx%d image", len(data), width, height)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	ff, err := fitsio.Create(f)
	if err != nil {
		t.Fatalf("fitsio create: %v", err)
	}
	defer ff.Close()

	img := fitsio.NewImage(-32, []int{width, height})
	defer img.Close()

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cards := make([]fitsio.Card, 0, len(keys))
	for _, k := range keys {
		cards = append(cards, fitsio.Card{Name: k, Value: header[k]})
	}
	if err := img.Header().Append(cards...); err != nil {
		t.Fatalf("append header: %v", err)
	}
	if err := img.Write(data); err != nil {
		t.Fatalf("write pixels: %v", err)
	}
	if err := ff.Write(img); err != nil {
		t.Fatalf("write hdu: %v", err)
	}
}
