package testutil

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radioxmatch/internal/fitsimg"
)

func TestGaussianPeak(t *testing.T) {
	data := Gaussian(9, 9, 4, 4, 1.5, 10, 1)
	if got := data[4*9+4]; math.Abs(float64(got)-11) > 1e-6 {
		t.Errorf("peak = %v, want 11", got)
	}
	if data[0] >= data[4*9+4] {
		t.Error("corner should be below peak")
	}
}

func TestBlank(t *testing.T) {
	data := Gaussian(4, 2, 0, 0, 1, 1, 0)
	Blank(data, 4, 2)
	for i, v := range data {
		isNaN := math.IsNaN(float64(v))
		if want := i%4 < 2; isNaN != want {
			t.Errorf("pixel %d NaN = %v, want %v", i, isNaN, want)
		}
	}
}

func TestWriteFITSLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tile.fits")
	data := Gaussian(40, 30, 20, 15, 2, 5, 0)
	WriteFITS(t, path, 40, 30, data, TileHeader(90, -32, 40, 30, 2.5))

	im, err := fitsimg.Load(path)
	require.NoError(t, err)
	if im.Width != 40 || im.Height != 30 {
		t.Fatalf("size = %dx%d, want 40x30", im.Width, im.Height)
	}
	if im.WCS == nil {
		t.Fatal("expected WCS")
	}
	x, y, err := im.WCS.WorldToPixel(90, -32)
	require.NoError(t, err)
	if math.Abs(x-20) > 1e-6 || math.Abs(y-15) > 1e-6 {
		t.Errorf("reference pixel = (%v, %v), want (20, 15)", x, y)
	}
	if math.Abs(im.At(20, 15)-5) > 1e-6 {
		t.Errorf("peak pixel = %v, want 5", im.At(20, 15))
	}
	if p := WriteFile(t, dir, "sub/a.txt", "x"); filepath.Base(p) != "a.txt" {
		t.Errorf("WriteFile path = %q", p)
	}
}
