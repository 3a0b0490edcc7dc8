package render

import (
	"errors"
	"fmt"

	"github.com/banshee-data/radioxmatch/internal/fitsimg"
	"github.com/banshee-data/radioxmatch/internal/monitoring"
	"github.com/banshee-data/radioxmatch/internal/units"
)

// Candidates is the ordered list of radio tiles searched for each target.
// Tiles overlap; a source near one tile's edge may fall inside its footprint
// but on blank margin pixels, so each tile is tried in turn.
type Candidates []*fitsimg.Image

// LoadCandidates reads every tile in priority order.
func LoadCandidates(paths []string) (Candidates, error) {
	out := make(Candidates, 0, len(paths))
	for _, p := range paths {
		im, err := fitsimg.Load(p)
		if err != nil {
			return nil, fmt.Errorf("load radio image: %w", err)
		}
		if im.WCS == nil {
			return nil, fmt.Errorf("radio image %s has no celestial WCS", p)
		}
		monitoring.Logf("loaded radio image %s (%dx%d, %.2f arcsec/px)",
			p, im.Width, im.Height, units.DegToArcsec(im.WCS.PixelScale()))
		out = append(out, im)
	}
	return out, nil
}

// Locate returns the crop from the first tile that accepts the target.
// When all tiles reject it, the error wraps ErrNoCandidate and every
// per-tile rejection.
func (cs Candidates) Locate(ra, dec float64, radius int) (*Crop, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: no radio images configured", ErrNoCandidate)
	}
	rejections := make([]error, 0, len(cs))
	for _, im := range cs {
		crop, err := LocateAndCrop(im, ra, dec, radius)
		if err == nil {
			return crop, nil
		}
		rejections = append(rejections, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrNoCandidate, errors.Join(rejections...))
}
