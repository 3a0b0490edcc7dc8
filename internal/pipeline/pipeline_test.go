package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radioxmatch/internal/annotate"
	"github.com/banshee-data/radioxmatch/internal/config"
	"github.com/banshee-data/radioxmatch/internal/fitsimg"
	"github.com/banshee-data/radioxmatch/internal/monitoring"
	"github.com/banshee-data/radioxmatch/internal/render"
	"github.com/banshee-data/radioxmatch/internal/store"
	"github.com/banshee-data/radioxmatch/internal/testutil"
)

const catalogueCSV = `name,ra,dec
NGC 2101,90.0,-32.0
No Stamp,90.01,-32.0
Lonely,91.0,-33.0
Far North,10.0,10.0
broken,abc,-32
`

const radioAnn = `COORD W
COLOR GREEN
ELLIPSE W 90.0001 -32.0 0.002 0.002 0
ELLIPSE W 90.0100 -32.0001 0.002 0.002 0
`

// setupRun writes a complete run directory and returns the config path.
// extra is spliced into the JSON config.
func setupRun(t *testing.T, extra string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()

	testutil.WriteFile(t, dir, "catalogue.csv", catalogueCSV)
	testutil.WriteFile(t, dir, "radio.ann", radioAnn)

	// Tile a has no data at (90, -32); tile b does.
	for name, blank := range map[string]int{"a.fits": 50, "b.fits": 0} {
		data := testutil.Gaussian(80, 80, 40, 40, 3, 10, 0.01)
		testutil.Blank(data, 80, blank)
		testutil.WriteFITS(t, filepath.Join(dir, name), 80, 80, data, testutil.TileHeader(90, -32, 80, 80, 6))
	}

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stamps"), 0o755))
	stamp := testutil.Gaussian(40, 40, 20, 20, 4, 1000, 100)
	testutil.WriteFITS(t, filepath.Join(dir, "stamps", "NGC_2101_DSS.fits"), 40, 40, stamp, fitsimg.MapHeader{})

	cfgPath = testutil.WriteFile(t, dir, "run.json", `{
  "catalogue_path": "catalogue.csv",
  "annotation_paths": ["radio.ann"],
  "image_paths": ["a.fits", "b.fits"],
  "stamp_dir": "stamps",
  "output_annotation": "out/matches.ann",
  "output_dir": "out/figs",
  "output_table": "out/matches.csv"`+extra+`
}`)
	return dir, cfgPath
}

func quiet(t *testing.T) *[]string {
	var lines []string
	t.Cleanup(monitoring.Capture(&lines))
	return &lines
}

func TestRunEndToEnd(t *testing.T) {
	lines := quiet(t)
	dir, cfgPath := setupRun(t, `,
  "database_path": "out/runs.db",
  "report_path": "out/report.html",
  "workers": 2`)

	cfg, err := config.LoadRunConfig(cfgPath)
	require.NoError(t, err)

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Catalogue.Rows)
	assert.Equal(t, 3, res.Catalogue.Kept)
	assert.Equal(t, 1, res.Catalogue.OutOfBounds)
	assert.Equal(t, 1, res.Catalogue.Malformed)
	assert.Equal(t, 2, res.Detections)
	assert.Equal(t, 1, res.Rejected)
	require.Equal(t, 2, res.Table.Len())
	assert.Equal(t, "NGC 2101", res.Table.Rows[0].FullName)
	assert.Equal(t, "No Stamp", res.Table.Rows[1].FullName)
	assert.InDelta(t, 0.305, res.Table.Rows[0].SeparationArcsec, 0.001)

	ann, err := os.ReadFile(filepath.Join(dir, "out", "matches.ann"))
	require.NoError(t, err)
	assert.Equal(t, "CIRCLE W 90 -32 0.01 0.01\nCIRCLE W 90.01 -32 0.01 0.01\n", string(ann))

	directives, err := annotate.Parse(bytes.NewReader(ann))
	require.NoError(t, err)
	assert.Len(t, directives, 2)

	csv, err := os.ReadFile(filepath.Join(dir, "out", "matches.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csv), "full_name,ra,dec,separation_arcsec\n")
	assert.Contains(t, string(csv), "NGC 2101,90,-32,")

	require.Len(t, res.Outcomes, 2)
	assert.NoError(t, res.Outcomes[0].Err)
	assert.Equal(t, filepath.Join(dir, "b.fits"), res.Outcomes[0].Image)
	assert.FileExists(t, filepath.Join(dir, "out", "figs", "galfig000.png"))
	assert.ErrorIs(t, res.Outcomes[1].Err, render.ErrStamp)
	assert.NoFileExists(t, filepath.Join(dir, "out", "figs", "galfig001.png"))

	s, err := store.Open(filepath.Join(dir, "out", "runs.db"))
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Matched)
	renders, err := s.Renders(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Len(t, renders, 2)
	assert.Empty(t, renders[0].Error)
	assert.NotEmpty(t, renders[1].Error)

	assert.FileExists(t, filepath.Join(dir, "out", "report.html"))
	assert.Contains(t, *lines, "rendered 1 figures, skipped 1")

	var miss string
	for _, l := range *lines {
		if strings.HasPrefix(l, "closest unmatched galaxy: ") {
			miss = l
		}
	}
	assert.True(t, strings.HasPrefix(miss, "closest unmatched galaxy: Lonely at "), "got %q", miss)
}

func TestRunRenderRange(t *testing.T) {
	quiet(t)
	dir, cfgPath := setupRun(t, `,
  "render_start": 1,
  "render_end": 2`)
	cfg, err := config.LoadRunConfig(cfgPath)
	require.NoError(t, err)

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, 1, res.Outcomes[0].Index)
	assert.NoFileExists(t, filepath.Join(dir, "out", "figs", "galfig000.png"))
}

func TestRunSkipRender(t *testing.T) {
	quiet(t)
	dir, cfgPath := setupRun(t, `,
  "skip_render": true,
  "image_paths": ["missing.fits"]`)
	cfg, err := config.LoadRunConfig(cfgPath)
	require.NoError(t, err)

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, res.Outcomes)
	assert.NoDirExists(t, filepath.Join(dir, "out", "figs"))
	assert.FileExists(t, filepath.Join(dir, "out", "matches.ann"))
}

func TestRunCancelledPersistsOutcomes(t *testing.T) {
	lines := quiet(t)
	dir, cfgPath := setupRun(t, `,
  "database_path": "out/runs.db",
  "report_path": "out/report.html"`)
	cfg, err := config.LoadRunConfig(cfgPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, cfg)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	require.Len(t, res.Outcomes, 2)
	for _, o := range res.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.FileExists(t, filepath.Join(dir, "out", "matches.ann"))
	assert.NoFileExists(t, filepath.Join(dir, "out", "report.html"))
	assert.Contains(t, *lines, "render interrupted: rendered 0 figures, skipped 2")

	s, err := store.Open(filepath.Join(dir, "out", "runs.db"))
	require.NoError(t, err)
	defer s.Close()
	renders, err := s.Renders(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Len(t, renders, 2)
	for _, r := range renders {
		assert.Equal(t, context.Canceled.Error(), r.Error)
		assert.Empty(t, r.FigurePath)
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name  string
		extra string
	}{
		{"missing catalogue", `, "catalogue_path": "nope.csv"`},
		{"missing annotation file", `, "annotation_paths": ["nope.ann"]`},
		{"unreadable radio image", `, "image_paths": ["nope.fits"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiet(t)
			_, cfgPath := setupRun(t, tt.extra)
			cfg, err := config.LoadRunConfig(cfgPath)
			require.NoError(t, err)
			_, err = Run(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestTargets(t *testing.T) {
	table := &annotate.Table{Rows: []annotate.Row{
		{FullName: "a", RA: 1, Dec: 2},
		{FullName: "b", RA: 3, Dec: 4},
		{FullName: "c", RA: 5, Dec: 6},
	}}

	cfg := config.EmptyRunConfig()
	all := Targets(cfg, table)
	require.Len(t, all, 3)
	assert.Equal(t, render.Target{Index: 2, Name: "c", RA: 5, Dec: 6}, all[2])

	start, end := 1, 2
	cfg.RenderStart, cfg.RenderEnd = &start, &end
	some := Targets(cfg, table)
	require.Len(t, some, 1)
	assert.Equal(t, 1, some[0].Index)
	assert.Equal(t, "b", some[0].Name)
}
