package render

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/radioxmatch/internal/monitoring"
	"github.com/banshee-data/radioxmatch/internal/security"
)

// DefaultRadius is the crop half-width in pixels.
const DefaultRadius = 15

// Target is one matched galaxy to draw. Index numbers the output file.
type Target struct {
	Index int
	Name  string
	RA    float64
	Dec   float64
}

// Outcome records what happened to one target. Err is nil on success.
type Outcome struct {
	Target
	Image string // radio tile that supplied the contours
	Path  string // figure written
	Err   error
}

// Renderer draws overlay figures for a batch of targets.
type Renderer struct {
	Candidates  Candidates
	StampDir    string
	StampSuffix string
	OutputDir   string
	Radius      int
	Style       Style
	Workers     int
}

func (r *Renderer) radius() int {
	if r.Radius <= 0 {
		return DefaultRadius
	}
	return r.Radius
}

func (r *Renderer) suffix() string {
	if r.StampSuffix == "" {
		return DefaultStampSuffix
	}
	return r.StampSuffix
}

// RenderOne locates t in the first accepting tile, crops the optical stamp
// and writes the figure. Failures are reported in the outcome.
func (r *Renderer) RenderOne(t Target) Outcome {
	out := Outcome{Target: t}
	crop, err := r.Candidates.Locate(t.RA, t.Dec, r.radius())
	if err != nil {
		out.Err = err
		return out
	}
	out.Image = crop.Source.Name

	stampImage, err := LoadStamp(r.StampDir, t.Name, r.suffix())
	if err != nil {
		out.Err = err
		return out
	}
	stamp, err := CropStamp(stampImage, r.radius())
	if err != nil {
		out.Err = err
		return out
	}

	path, err := security.ResolveWithin(r.OutputDir, OutputName(t.Index))
	if err != nil {
		out.Err = err
		return out
	}
	if err := SaveOverlay(path, t.Name, crop, stamp, r.Style); err != nil {
		out.Err = err
		return out
	}
	out.Path = path
	return out
}

// Run renders every target with at most Workers in flight. Outcomes are
// returned in target order whatever the concurrency. A per-target failure
// is logged and does not stop the batch; only cancellation of ctx does.
func (r *Renderer) Run(ctx context.Context, targets []Target) ([]Outcome, error) {
	if err := security.EnsureDir(r.OutputDir); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = Outcome{Target: t, Err: err}
				return err
			}
			outcomes[i] = r.RenderOne(t)
			return nil
		})
	}
	err := g.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			monitoring.Logf("skipping %s (#%d): %v", o.Name, o.Index, o.Err)
			continue
		}
		monitoring.Logf("wrote %s from %s", o.Path, o.Image)
	}
	return outcomes, err
}

// Summarize counts rendered and skipped outcomes.
func Summarize(outcomes []Outcome) (rendered, skipped int) {
	for _, o := range outcomes {
		if o.Err != nil {
			skipped++
		} else {
			rendered++
		}
	}
	return rendered, skipped
}
