package crossmatch

import (
	"math"

	"github.com/banshee-data/radioxmatch/internal/units"
)

// Separation returns the great-circle angle in degrees between two sky
// positions given in degrees. It uses the Vincenty form, which stays
// accurate for both tiny and near-antipodal separations.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	lon1, lat1 := units.DegToRad(ra1), units.DegToRad(dec1)
	lon2, lat2 := units.DegToRad(ra2), units.DegToRad(dec2)

	sdlon, cdlon := math.Sincos(lon2 - lon1)
	slat1, clat1 := math.Sincos(lat1)
	slat2, clat2 := math.Sincos(lat2)

	num1 := clat2 * sdlon
	num2 := clat1*slat2 - slat1*clat2*cdlon
	denom := slat1*slat2 + clat1*clat2*cdlon

	return units.RadToDeg(math.Atan2(math.Hypot(num1, num2), denom))
}

// SeparationArcsec is Separation in arcseconds.
func SeparationArcsec(ra1, dec1, ra2, dec2 float64) float64 {
	return units.DegToArcsec(Separation(ra1, dec1, ra2, dec2))
}

// unitVector maps a sky position to a point on the unit sphere. Euclidean
// (chord) distance between unit vectors is monotonic in angular separation,
// so a kd-tree over them answers angular nearest-neighbour queries.
func unitVector(ra, dec float64) [3]float64 {
	sra, cra := math.Sincos(units.DegToRad(ra))
	sdec, cdec := math.Sincos(units.DegToRad(dec))
	return [3]float64{cdec * cra, cdec * sra, sdec}
}

// chordSquared is the squared chord length subtending an angle of deg degrees.
func chordSquared(deg float64) float64 {
	c := 2 * math.Sin(units.DegToRad(deg)/2)
	return c * c
}
