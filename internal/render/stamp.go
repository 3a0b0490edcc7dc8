package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"
	"golang.org/x/text/unicode/norm"

	"github.com/banshee-data/radioxmatch/internal/fitsimg"
	"github.com/banshee-data/radioxmatch/internal/security"
)

// DefaultStampSuffix is appended to the galaxy name to form the stamp file.
const DefaultStampSuffix = "_DSS.fits"

// StampFilename maps a catalogue name to its postage-stamp file name:
// "ESO 364- G 011" becomes "ESO_364-_G_011_DSS.fits".
func StampFilename(name, suffix string) string {
	n := norm.NFC.String(strings.TrimSpace(name))
	return strings.ReplaceAll(n, " ", "_") + suffix
}

// LoadStamp reads the optical stamp for name from dir. FITS stamps are read
// directly; PNG, JPEG and TIFF cutouts are converted to luminance.
func LoadStamp(dir, name, suffix string) (*fitsimg.Image, error) {
	path, err := security.ResolveWithin(dir, StampFilename(name, suffix))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStamp, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		im, err := fitsimg.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStamp, err)
		}
		return im, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStamp, err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStamp, path, err)
	}
	return fitsimg.FromRaster(filepath.Base(path), src), nil
}

// CropStamp cuts the 2*radius square around the stamp's central pixel. The
// stamp is assumed to be centred on the galaxy.
func CropStamp(im *fitsimg.Image, radius int) ([]float64, error) {
	size := 2 * radius
	data, err := im.Window(im.Width/2-radius, im.Height/2-radius, size, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStamp, im.Name, err)
	}
	return data, nil
}
