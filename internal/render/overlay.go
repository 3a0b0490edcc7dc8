package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"sort"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Style controls the overlay figure.
type Style struct {
	// Levels are contour heights as fractions of the crop maximum.
	Levels []float64
	// Colors pair with Levels sorted ascending: Colors[0] draws the lowest.
	Colors []color.Color
	Width  vg.Length
	Height vg.Length
}

// DefaultStyle draws contours at 50, 70 and 90 percent of the maximum.
func DefaultStyle() Style {
	return Style{
		Levels: []float64{0.9, 0.7, 0.5},
		Colors: []color.Color{colornames.Deepskyblue, colornames.Aquamarine, colornames.Lawngreen},
		Width:  7 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

// OutputName is the figure file name for the match at index.
func OutputName(index int) string {
	return fmt.Sprintf("galfig%03d.png", index)
}

// Title is the figure title for a galaxy.
func Title(name string) string {
	return fmt.Sprintf("Galaxy %s: DSS image with Radio Contours", name)
}

// level is one contour: its fraction, absolute height and colour.
type level struct {
	frac   float64
	height float64
	color  color.Color
}

func (s Style) levels(peak float64) ([]level, error) {
	if len(s.Levels) == 0 {
		return nil, errors.New("no contour levels")
	}
	if len(s.Colors) < len(s.Levels) {
		return nil, fmt.Errorf("need %d contour colors, got %d", len(s.Levels), len(s.Colors))
	}
	fracs := append([]float64(nil), s.Levels...)
	sort.Float64s(fracs)
	out := make([]level, len(fracs))
	for i, f := range fracs {
		out[i] = level{frac: f, height: f * peak, color: s.Colors[i]}
	}
	return out, nil
}

// grid adapts a square row-major window to plotter.GridXYZ.
type grid struct {
	data []float64
	size int
}

func (g grid) Dims() (c, r int)   { return g.size, g.size }
func (g grid) Z(c, r int) float64 { return g.data[r*g.size+c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// closest returns the pixel whose value is nearest v.
func (g grid) closest(v float64) (x, y int) {
	best := math.Inf(1)
	for i, z := range g.data {
		if d := math.Abs(z - v); d < best {
			best = d
			x, y = i%g.size, i/g.size
		}
	}
	return x, y
}

// fill returns a copy of data with NaN replaced by v.
func fill(data []float64, v float64) []float64 {
	out := make([]float64, len(data))
	for i, z := range data {
		if math.IsNaN(z) {
			z = v
		}
		out[i] = z
	}
	return out
}

type solid struct{ c color.Color }

func (s solid) Colors() []color.Color { return []color.Color{s.c} }

// DrawOverlay writes a PNG of the stamp window in grayscale with contours of
// the radio crop drawn over it. stamp must be a crop.Size square.
func DrawOverlay(w io.Writer, name string, crop *Crop, stamp []float64, style Style) error {
	if len(stamp) != crop.Size*crop.Size {
		return fmt.Errorf("%w: stamp window has %d pixels, want %d", ErrStamp, len(stamp), crop.Size*crop.Size)
	}
	lo, hi, ok := finiteRange(stamp)
	if !ok {
		return fmt.Errorf("%w: stamp window for %s is blank", ErrStamp, name)
	}
	if hi == lo {
		hi = lo + 1
	}
	levels, err := style.levels(crop.Max)
	if err != nil {
		return err
	}

	gray, err := moreland.NewLuminance([]color.Color{color.Black, color.White})
	if err != nil {
		return fmt.Errorf("grayscale map: %w", err)
	}
	gray.SetMin(lo)
	gray.SetMax(hi)

	p := plot.New()
	p.Title.Text = Title(name)
	p.X.Label.Text = "Right Ascension (Degrees)"
	p.Y.Label.Text = "Declination (Degrees)"
	p.X.Tick.Marker = skyTicks(crop, true)
	p.Y.Tick.Marker = skyTicks(crop, false)
	p.X.Padding = 0
	p.Y.Padding = 0
	p.Legend.Top = true
	p.Legend.Left = true

	heat := plotter.NewHeatMap(grid{data: fill(stamp, lo), size: crop.Size}, gray.Palette(256))
	heat.Min, heat.Max = lo, hi
	p.Add(heat)

	radio := grid{data: fill(crop.Data, 0), size: crop.Size}
	var (
		xys    plotter.XYs
		labels []string
	)
	for _, lv := range levels {
		ls := draw.LineStyle{Color: lv.color, Width: vg.Points(1.5)}
		c := plotter.NewContour(radio, []float64{lv.height}, solid{lv.color})
		c.LineStyles = []draw.LineStyle{ls}
		p.Add(c)

		pct := int(math.Round(lv.frac * 100))
		p.Legend.Add(fmt.Sprintf("%d%% of maximum", pct), &plotter.Line{LineStyle: ls})

		x, y := radio.closest(lv.height)
		xys = append(xys, plotter.XY{X: float64(x), Y: float64(y)})
		labels = append(labels, fmt.Sprintf("%d%%", pct))
	}
	inline, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("contour labels: %w", err)
	}
	for i := range inline.TextStyle {
		inline.TextStyle[i].Color = levels[i].color
		inline.TextStyle[i].Font.Size = vg.Points(9)
	}
	p.Add(inline)

	bar := plot.New()
	bar.HideX()
	bar.Y.Padding = 0
	bar.Add(&plotter.ColorBar{ColorMap: gray, Vertical: true})

	img := vgimg.New(style.Width, style.Height)
	dc := draw.New(img)
	barWidth := style.Width / 8
	top := p.Title.TextStyle.FontExtents().Height + p.Title.Padding
	p.Draw(draw.Crop(dc, 0, -barWidth, 0, 0))
	bar.Draw(draw.Crop(dc, style.Width-barWidth, 0, 0, -top))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SaveOverlay renders to path.
func SaveOverlay(path, name string, crop *Crop, stamp []float64, style Style) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure: %w", err)
	}
	if err := DrawOverlay(f, name, crop, stamp, style); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// skyTicks labels crop pixel ticks with the world coordinate of the source
// tile: RA along the crop's middle row, or Dec along its middle column.
func skyTicks(crop *Crop, ra bool) plot.TickerFunc {
	return func(min, max float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(min, max)
		mid := float64(crop.Size) / 2
		for i, t := range ticks {
			if t.Label == "" {
				continue
			}
			x, y := t.Value, mid
			if !ra {
				x, y = mid, t.Value
			}
			a, d, err := crop.Source.WCS.PixelToWorld(x+float64(crop.X0), y+float64(crop.Y0))
			if err != nil {
				ticks[i].Label = ""
				continue
			}
			if ra {
				ticks[i].Label = fmt.Sprintf("%.3f", a)
			} else {
				ticks[i].Label = fmt.Sprintf("%.3f", d)
			}
		}
		return ticks
	}
}
