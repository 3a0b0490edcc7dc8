package fitsimg

import (
	"image"
	"image/color"
)

// FromRaster converts a decoded raster (PNG, JPEG, TIFF cutout) to a
// luminance Image. Raster rows run top-down, so they are flipped to keep
// row 0 at the bottom like FITS. The result carries no WCS.
func FromRaster(name string, src image.Image) *Image {
	b := src.Bounds()
	out := NewImage(name, b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := b.Dy() - 1 - (y - b.Min.Y)
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(src.At(x, y)).(color.Gray16)
			out.Set(x-b.Min.X, row, float64(g.Y))
		}
	}
	return out
}
