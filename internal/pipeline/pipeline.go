// Package pipeline runs one cross-match end to end: load the optical
// catalogue and radio detections, match them, write the annotation file and
// match table, draw contour overlays, and record the run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/banshee-data/radioxmatch/internal/annotate"
	"github.com/banshee-data/radioxmatch/internal/catalogue"
	"github.com/banshee-data/radioxmatch/internal/config"
	"github.com/banshee-data/radioxmatch/internal/crossmatch"
	"github.com/banshee-data/radioxmatch/internal/monitoring"
	"github.com/banshee-data/radioxmatch/internal/render"
	"github.com/banshee-data/radioxmatch/internal/report"
	"github.com/banshee-data/radioxmatch/internal/security"
	"github.com/banshee-data/radioxmatch/internal/sources"
	"github.com/banshee-data/radioxmatch/internal/store"
	"github.com/banshee-data/radioxmatch/internal/units"
)

// TableName names the match table.
const TableName = "matched_galaxies"

// Result is what a run produced.
type Result struct {
	RunID      string
	Catalogue  catalogue.Stats
	Detections int
	Rejected   int
	Table      *annotate.Table
	Outcomes   []render.Outcome // nil when rendering is skipped
}

// Run executes every stage configured in cfg. Per-target render failures
// are recorded in Result.Outcomes; any other failure aborts the run. When
// ctx is cancelled mid-render the outcomes gathered so far, including the
// context error of each unstarted target, are still persisted and returned
// alongside the error.
func Run(ctx context.Context, cfg *config.RunConfig) (*Result, error) {
	res, err := Match(cfg)
	if err != nil {
		return nil, err
	}
	if err := WriteOutputs(cfg, res.Table); err != nil {
		return nil, err
	}

	var interrupted error
	if !cfg.GetSkipRender() {
		res.Outcomes, err = Render(ctx, cfg, res.Table)
		if err != nil {
			if res.Outcomes == nil || ctx.Err() == nil {
				return nil, err
			}
			interrupted = err
		}
	}

	if path := cfg.GetDatabasePath(); path != "" {
		if err := Persist(context.WithoutCancel(ctx), path, cfg, res); err != nil {
			return nil, err
		}
	}
	if interrupted != nil {
		return res, interrupted
	}
	if path := cfg.GetReportPath(); path != "" {
		if err := report.Save(path, Summary(cfg, res)); err != nil {
			return nil, err
		}
		monitoring.Logf("wrote report %s", path)
	}
	return res, nil
}

// Match loads both inputs and cross-matches them.
func Match(cfg *config.RunConfig) (*Result, error) {
	entries, stats, err := catalogue.Load(cfg.GetCataloguePath(), cfg.GetBounds())
	if err != nil {
		return nil, err
	}
	monitoring.Logf("catalogue %s: %d rows, %d in bounds, %d out of bounds, %d malformed",
		cfg.GetCataloguePath(), stats.Rows, stats.Kept, stats.OutOfBounds, stats.Malformed)

	dets, err := sources.LoadAll(cfg.GetAnnotationPaths())
	if err != nil {
		return nil, err
	}

	radius := cfg.GetMatchRadiusArcsec()
	matched := crossmatch.MatchAll(entries, dets, radius)
	table := annotate.NewTable(TableName, matched.Matches)

	monitoring.Logf("matched %d of %d galaxies against %d radio detections within %.2f arcsec",
		table.Len(), len(entries), len(dets), radius)
	if table.Len() > 0 {
		first := table.Rows[0]
		monitoring.Logf("first match: %s at %s %s (%.3f arcsec)",
			first.FullName, units.FormatRA(first.RA), units.FormatDec(first.Dec), first.SeparationArcsec)
	}
	if miss := matched.ClosestMiss; miss != nil {
		monitoring.Logf("closest unmatched galaxy: %s at %.2f arcsec", miss.Entry.Name, miss.SeparationArcsec)
	}

	return &Result{
		RunID:      uuid.NewString(),
		Catalogue:  stats,
		Detections: len(dets),
		Rejected:   matched.Rejected,
		Table:      table,
	}, nil
}

// WriteOutputs writes the annotation file and, when configured, the CSV
// match table.
func WriteOutputs(cfg *config.RunConfig, table *annotate.Table) error {
	style := annotate.Style{
		Shape: cfg.GetAnnotationShape(),
		Mode:  cfg.GetAnnotationMode(),
		Size:  cfg.GetAnnotationSize(),
	}
	path := cfg.GetOutputAnnotation()
	if err := security.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := annotate.Save(path, table, style); err != nil {
		return err
	}
	monitoring.Logf("wrote %d annotations to %s", table.Len(), path)

	if csvPath := cfg.GetOutputTable(); csvPath != "" {
		if err := security.EnsureDir(filepath.Dir(csvPath)); err != nil {
			return err
		}
		if err := table.SaveCSV(csvPath); err != nil {
			return err
		}
		monitoring.Logf("wrote match table to %s", csvPath)
	}
	return nil
}

// Targets selects the table rows in the configured render range.
func Targets(cfg *config.RunConfig, table *annotate.Table) []render.Target {
	start, end := cfg.GetRenderRange(table.Len())
	out := make([]render.Target, 0, end-start)
	for i := start; i < end; i++ {
		r := table.Rows[i]
		out = append(out, render.Target{Index: i, Name: r.FullName, RA: r.RA, Dec: r.Dec})
	}
	return out
}

// Render draws the overlay figures for the configured range. A radio image
// that cannot be loaded fails the run; per-target failures do not. On
// cancellation the partial outcomes are returned with the context error.
func Render(ctx context.Context, cfg *config.RunConfig, table *annotate.Table) ([]render.Outcome, error) {
	targets := Targets(cfg, table)
	if len(targets) == 0 {
		return []render.Outcome{}, nil
	}

	colors, err := cfg.GetContourColors()
	if err != nil {
		return nil, err
	}
	style := render.DefaultStyle()
	style.Levels = cfg.GetContourLevels()
	style.Colors = colors

	candidates, err := render.LoadCandidates(cfg.GetImagePaths())
	if err != nil {
		return nil, err
	}

	r := &render.Renderer{
		Candidates:  candidates,
		StampDir:    cfg.GetStampDir(),
		StampSuffix: cfg.GetStampSuffix(),
		OutputDir:   cfg.GetOutputDir(),
		Radius:      cfg.GetCropRadiusPx(),
		Style:       style,
		Workers:     cfg.GetWorkers(),
	}
	outcomes, err := r.Run(ctx, targets)
	rendered, skipped := render.Summarize(outcomes)
	if err != nil {
		if outcomes != nil {
			monitoring.Logf("render interrupted: rendered %d figures, skipped %d", rendered, skipped)
		}
		return outcomes, err
	}
	monitoring.Logf("rendered %d figures, skipped %d", rendered, skipped)
	return outcomes, nil
}

// Persist records the run, its matches and render outcomes in the ledger.
func Persist(ctx context.Context, path string, cfg *config.RunConfig, res *Result) error {
	if err := security.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}
	defer s.Close()

	runID, err := s.BeginRun(ctx, store.Run{
		ID:                res.RunID,
		CataloguePath:     cfg.GetCataloguePath(),
		MatchRadiusArcsec: cfg.GetMatchRadiusArcsec(),
		CatalogueRows:     res.Catalogue.Rows,
		Detections:        res.Detections,
		Matched:           res.Table.Len(),
	})
	if err != nil {
		return err
	}

	matches := make([]store.MatchRecord, len(res.Table.Rows))
	for i, r := range res.Table.Rows {
		matches[i] = store.MatchRecord{
			Position:         i,
			FullName:         r.FullName,
			RA:               r.RA,
			Dec:              r.Dec,
			SeparationArcsec: r.SeparationArcsec,
		}
	}
	if err := s.RecordMatches(ctx, runID, matches); err != nil {
		return err
	}

	renders := make([]store.RenderRecord, len(res.Outcomes))
	for i, o := range res.Outcomes {
		renders[i] = store.RenderRecord{
			Position:   o.Index,
			FullName:   o.Name,
			RadioImage: o.Image,
			FigurePath: o.Path,
		}
		if o.Err != nil {
			renders[i].Error = o.Err.Error()
		}
	}
	if err := s.RecordRenders(ctx, runID, renders); err != nil {
		return err
	}
	monitoring.Logf("recorded run %s in %s", runID, path)
	return nil
}

// Summary builds the report input for a run.
func Summary(cfg *config.RunConfig, res *Result) report.Summary {
	points := make([]report.Point, len(res.Table.Rows))
	for i, r := range res.Table.Rows {
		points[i] = report.Point{Name: r.FullName, RA: r.RA, Dec: r.Dec, SeparationArcsec: r.SeparationArcsec}
	}
	rendered, skipped := render.Summarize(res.Outcomes)
	return report.Summary{
		RunID:             res.RunID,
		CatalogueRows:     res.Catalogue.Rows,
		Detections:        res.Detections,
		MatchRadiusArcsec: cfg.GetMatchRadiusArcsec(),
		Matches:           points,
		Rendered:          rendered,
		Skipped:           skipped,
	}
}
