// Package units provides angle unit constants and conversions used for sky
// coordinates. Coordinates are carried in degrees throughout; separations
// are reported in arcseconds.
package units

import (
	"fmt"
	"math"
)

// ArcsecPerDegree is the number of arcseconds in one degree.
const ArcsecPerDegree = 3600.0

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// ArcsecToDeg converts arcseconds to degrees.
func ArcsecToDeg(arcsec float64) float64 { return arcsec / ArcsecPerDegree }

// DegToArcsec converts degrees to arcseconds.
func DegToArcsec(deg float64) float64 { return deg * ArcsecPerDegree }

// NormalizeRA wraps a right ascension into [0, 360).
func NormalizeRA(deg float64) float64 {
	ra := math.Mod(deg, 360)
	if ra < 0 {
		ra += 360
	}
	return ra
}

// FormatRA renders a right ascension in degrees as hours, minutes and
// seconds, e.g. "05h37m30.00s".
func FormatRA(deg float64) string {
	total := NormalizeRA(deg) / 15 * 3600
	total = math.Round(total*100) / 100
	h := math.Floor(total / 3600)
	m := math.Floor((total - h*3600) / 60)
	s := total - h*3600 - m*60
	if h >= 24 {
		h -= 24
	}
	return fmt.Sprintf("%02.0fh%02.0fm%05.2fs", h, m, s)
}

// FormatDec renders a declination in degrees as signed degrees, arcminutes
// and arcseconds, e.g. "-32d00m00.0s".
func FormatDec(deg float64) string {
	sign := "+"
	if deg < 0 {
		sign = "-"
	}
	total := math.Round(math.Abs(deg)*ArcsecPerDegree*10) / 10
	d := math.Floor(total / 3600)
	m := math.Floor((total - d*3600) / 60)
	s := total - d*3600 - m*60
	return fmt.Sprintf("%s%02.0fd%02.0fm%04.1fs", sign, d, m, s)
}
