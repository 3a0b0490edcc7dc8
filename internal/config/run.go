package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/colornames"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/xmatch.defaults.json"

// Bounds is the sky footprint (degrees) inside which catalogue entries are
// kept. Both ranges are open intervals.
type Bounds struct {
	MinRA  float64 `json:"min_ra"`
	MaxRA  float64 `json:"max_ra"`
	MinDec float64 `json:"min_dec"`
	MaxDec float64 `json:"max_dec"`
}

// Contains reports whether (ra, dec) lies strictly inside the footprint.
func (b Bounds) Contains(ra, dec float64) bool {
	return ra > b.MinRA && ra < b.MaxRA && dec > b.MinDec && dec < b.MaxDec
}

// DefaultBounds is the footprint of the four RACS tiles covering the
// S190510g field.
var DefaultBounds = Bounds{
	MinRA:  84.6250,
	MaxRA:  93.4917,
	MinDec: -36.3556,
	MaxDec: -29.8583,
}

// RunConfig is the root configuration for one cross-match run. Fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// accessors supply defaults for the rest.
type RunConfig struct {
	// Inputs
	CataloguePath   *string  `json:"catalogue_path,omitempty"`
	AnnotationPaths []string `json:"annotation_paths,omitempty"`
	ImagePaths      []string `json:"image_paths,omitempty"` // priority order
	StampDir        *string  `json:"stamp_dir,omitempty"`
	StampSuffix     *string  `json:"stamp_suffix,omitempty"`

	// Outputs
	OutputAnnotation *string `json:"output_annotation,omitempty"`
	OutputDir        *string `json:"output_dir,omitempty"`
	OutputTable      *string `json:"output_table,omitempty"`
	DatabasePath     *string `json:"database_path,omitempty"`
	ReportPath       *string `json:"report_path,omitempty"`

	// Matching
	MatchRadiusArcsec *float64 `json:"match_radius_arcsec,omitempty"`
	Bounds            *Bounds  `json:"bounds,omitempty"`

	// Rendering
	CropRadiusPx  *int      `json:"crop_radius_px,omitempty"`
	ContourLevels []float64 `json:"contour_levels,omitempty"`
	ContourColors []string  `json:"contour_colors,omitempty"`
	RenderStart   *int      `json:"render_start,omitempty"`
	RenderEnd     *int      `json:"render_end,omitempty"` // exclusive, -1 = all
	Workers       *int      `json:"workers,omitempty"`
	SkipRender    *bool     `json:"skip_render,omitempty"`

	// Annotation directive
	AnnotationShape *string  `json:"annotation_shape,omitempty"`
	AnnotationMode  *string  `json:"annotation_mode,omitempty"`
	AnnotationSize  *float64 `json:"annotation_size,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRunConfig returns a RunConfig with every field unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig loads a RunConfig from a JSON file. The file must have a
// .json extension and be at most 1MB. Omitted fields keep their defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Relative input/output paths are resolved against the config file's
	// directory so a run directory can be moved as a unit.
	base, err := filepath.Abs(filepath.Dir(cleanPath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	cfg.resolvePaths(base)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func (c *RunConfig) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for _, field := range []*string{
		c.CataloguePath, c.StampDir, c.OutputAnnotation, c.OutputDir,
		c.OutputTable, c.DatabasePath, c.ReportPath,
	} {
		if field != nil {
			*field = abs(*field)
		}
	}
	for i := range c.AnnotationPaths {
		c.AnnotationPaths[i] = abs(c.AnnotationPaths[i])
	}
	for i := range c.ImagePaths {
		c.ImagePaths[i] = abs(c.ImagePaths[i])
	}
}

// Validate checks that the configuration values are valid.
func (c *RunConfig) Validate() error {
	if c.MatchRadiusArcsec != nil && *c.MatchRadiusArcsec <= 0 {
		return fmt.Errorf("match_radius_arcsec must be positive, got %f", *c.MatchRadiusArcsec)
	}

	if c.Bounds != nil {
		b := *c.Bounds
		if b.MinRA >= b.MaxRA {
			return fmt.Errorf("bounds: min_ra %f must be below max_ra %f", b.MinRA, b.MaxRA)
		}
		if b.MinDec >= b.MaxDec {
			return fmt.Errorf("bounds: min_dec %f must be below max_dec %f", b.MinDec, b.MaxDec)
		}
		if b.MinDec < -90 || b.MaxDec > 90 {
			return fmt.Errorf("bounds: declination must lie within [-90, 90]")
		}
	}

	if c.CropRadiusPx != nil && *c.CropRadiusPx < 1 {
		return fmt.Errorf("crop_radius_px must be at least 1, got %d", *c.CropRadiusPx)
	}

	for _, lvl := range c.ContourLevels {
		if lvl <= 0 || lvl > 1 {
			return fmt.Errorf("contour level %f must be in (0, 1]", lvl)
		}
	}
	if _, err := c.GetContourColors(); err != nil {
		return err
	}

	if c.RenderStart != nil && *c.RenderStart < 0 {
		return fmt.Errorf("render_start must be non-negative, got %d", *c.RenderStart)
	}
	if c.RenderEnd != nil && *c.RenderEnd < -1 {
		return fmt.Errorf("render_end must be -1 or an index, got %d", *c.RenderEnd)
	}
	if c.RenderStart != nil && c.RenderEnd != nil && *c.RenderEnd >= 0 && *c.RenderEnd < *c.RenderStart {
		return fmt.Errorf("render_end %d is before render_start %d", *c.RenderEnd, *c.RenderStart)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.AnnotationSize != nil && *c.AnnotationSize <= 0 {
		return fmt.Errorf("annotation_size must be positive, got %f", *c.AnnotationSize)
	}
	if c.AnnotationShape != nil && strings.ContainsAny(*c.AnnotationShape, " \t\n") {
		return fmt.Errorf("annotation_shape must be a single token, got %q", *c.AnnotationShape)
	}
	if c.AnnotationMode != nil && strings.ContainsAny(*c.AnnotationMode, " \t\n") {
		return fmt.Errorf("annotation_mode must be a single token, got %q", *c.AnnotationMode)
	}

	return nil
}

func getString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// GetCataloguePath returns the optical catalogue path.
func (c *RunConfig) GetCataloguePath() string {
	return getString(c.CataloguePath, "S190510g_Update_galaxies.csv")
}

// GetAnnotationPaths returns the radio source-finder annotation files in
// processing order.
func (c *RunConfig) GetAnnotationPaths() []string {
	if len(c.AnnotationPaths) == 0 {
		return []string{
			"RACS_test4_1.05_0537-37A_annotate.ann",
			"RACS_test4_1.05_0538-31A_annotate.ann",
			"RACS_test4_1.05_0607-31A_annotate.ann",
			"RACS_test4_1.05_0607-37A_annotate.ann",
		}
	}
	return c.AnnotationPaths
}

// GetImagePaths returns the candidate radio images in priority order.
func (c *RunConfig) GetImagePaths() []string {
	if len(c.ImagePaths) == 0 {
		return []string{
			"RACS_test4_1.05_0537-37A.I.fits",
			"RACS_test4_1.05_0538-31A.I.fits",
			"RACS_test4_1.05_0607-31A.I.fits",
			"RACS_test4_1.05_0607-37A.I.fits",
		}
	}
	return c.ImagePaths
}

// GetStampDir returns the directory holding optical postage stamps.
func (c *RunConfig) GetStampDir() string {
	return getString(c.StampDir, "gal_images")
}

// GetStampSuffix returns the suffix appended to a sanitised source name to
// form its postage-stamp filename.
func (c *RunConfig) GetStampSuffix() string {
	return getString(c.StampSuffix, "_DSS.fits")
}

// GetOutputAnnotation returns the path of the matched-source annotation file.
func (c *RunConfig) GetOutputAnnotation() string {
	return getString(c.OutputAnnotation, "matches_NEDOpticalGalaxiesS190510g.ann")
}

// GetOutputDir returns the directory receiving contour PNGs.
func (c *RunConfig) GetOutputDir() string {
	return getString(c.OutputDir, "contour_figs")
}

// GetOutputTable returns the CSV path for the match table, or "" to skip.
func (c *RunConfig) GetOutputTable() string {
	return getString(c.OutputTable, "")
}

// GetDatabasePath returns the sqlite run ledger path, or "" to skip.
func (c *RunConfig) GetDatabasePath() string {
	return getString(c.DatabasePath, "")
}

// GetReportPath returns the HTML summary path, or "" to skip.
func (c *RunConfig) GetReportPath() string {
	return getString(c.ReportPath, "")
}

// GetMatchRadiusArcsec returns the maximum accepted separation in arcseconds.
func (c *RunConfig) GetMatchRadiusArcsec() float64 {
	if c.MatchRadiusArcsec == nil {
		return 5.0
	}
	return *c.MatchRadiusArcsec
}

// GetBounds returns the catalogue footprint.
func (c *RunConfig) GetBounds() Bounds {
	if c.Bounds == nil {
		return DefaultBounds
	}
	return *c.Bounds
}

// GetCropRadiusPx returns the crop half-width in pixels.
func (c *RunConfig) GetCropRadiusPx() int {
	if c.CropRadiusPx == nil {
		return 15
	}
	return *c.CropRadiusPx
}

// GetContourLevels returns the contour fractions of the local maximum.
func (c *RunConfig) GetContourLevels() []float64 {
	if len(c.ContourLevels) == 0 {
		return []float64{0.9, 0.7, 0.5}
	}
	return c.ContourLevels
}

// GetContourColorNames returns the CSS colour names used for contours,
// ordered from the lowest level to the highest.
func (c *RunConfig) GetContourColorNames() []string {
	if len(c.ContourColors) == 0 {
		return []string{"deepskyblue", "aquamarine", "lawngreen"}
	}
	return c.ContourColors
}

// GetContourColors resolves GetContourColorNames. There must be at least one
// colour per contour level.
func (c *RunConfig) GetContourColors() ([]color.Color, error) {
	names := c.GetContourColorNames()
	if len(names) < len(c.GetContourLevels()) {
		return nil, fmt.Errorf("need %d contour colors, got %d", len(c.GetContourLevels()), len(names))
	}
	out := make([]color.Color, 0, len(names))
	for _, name := range names {
		rgba, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown contour color %q", name)
		}
		out = append(out, rgba)
	}
	return out, nil
}

// GetRenderRange returns the half-open [start, end) range of match indices
// to render, clamped to n matches.
func (c *RunConfig) GetRenderRange(n int) (start, end int) {
	start = 0
	if c.RenderStart != nil {
		start = *c.RenderStart
	}
	end = n
	if c.RenderEnd != nil && *c.RenderEnd >= 0 && *c.RenderEnd < n {
		end = *c.RenderEnd
	}
	if start > end {
		start = end
	}
	return start, end
}

// GetWorkers returns the number of concurrent render workers.
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetSkipRender reports whether image rendering is disabled.
func (c *RunConfig) GetSkipRender() bool {
	if c.SkipRender == nil {
		return false
	}
	return *c.SkipRender
}

// GetAnnotationShape returns the shape keyword of annotation directives.
func (c *RunConfig) GetAnnotationShape() string {
	return getString(c.AnnotationShape, "CIRCLE")
}

// GetAnnotationMode returns the coordinate-mode token of annotation directives.
func (c *RunConfig) GetAnnotationMode() string {
	return getString(c.AnnotationMode, "W")
}

// GetAnnotationSize returns the width and length of annotation directives.
func (c *RunConfig) GetAnnotationSize() float64 {
	if c.AnnotationSize == nil {
		return 0.01
	}
	return *c.AnnotationSize
}
