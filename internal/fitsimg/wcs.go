package fitsimg

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/radioxmatch/internal/units"
)

// Projection is a zenithal projection code from CTYPEn.
type Projection string

const (
	ProjSIN Projection = "SIN" // orthographic, used by aperture-synthesis images
	ProjTAN Projection = "TAN" // gnomonic, used by optical surveys
)

var (
	// ErrNoWCS means the header has no celestial axes.
	ErrNoWCS = errors.New("no celestial WCS in header")
	// ErrUnprojectable means the position lies on the hemisphere the
	// projection cannot represent.
	ErrUnprojectable = errors.New("position cannot be projected")
)

// WCS maps zero-based pixel coordinates to RA/Dec (degrees) and back for a
// zenithal projection with the native pole at the reference point.
type WCS struct {
	Proj  Projection
	CRPix [2]float64 // FITS one-based reference pixel
	CRVal [2]float64 // reference RA, Dec in degrees
	cd    *mat.Dense // degrees per pixel
	cdInv *mat.Dense
	sinD0 float64
	cosD0 float64
}

// NewWCS builds a WCS from a reference point and CD matrix (row-major,
// degrees per pixel).
func NewWCS(proj Projection, crpix, crval [2]float64, cd [4]float64) (*WCS, error) {
	switch proj {
	case ProjSIN, ProjTAN:
	default:
		return nil, fmt.Errorf("unsupported projection %q", proj)
	}
	m := mat.NewDense(2, 2, cd[:])
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("singular CD matrix: %w", err)
	}
	s, c := math.Sincos(units.DegToRad(crval[1]))
	return &WCS{
		Proj:  proj,
		CRPix: crpix,
		CRVal: crval,
		cd:    m,
		cdInv: &inv,
		sinD0: s,
		cosD0: c,
	}, nil
}

// WCSFromHeader reads CTYPE, CRPIX, CRVAL and one of CDi_j, PCi_j+CDELTi or
// CDELTi+CROTA2 from the first two axes.
func WCSFromHeader(h Lookup) (*WCS, error) {
	ctype1, ok1 := h.String("CTYPE1")
	ctype2, ok2 := h.String("CTYPE2")
	if !ok1 || !ok2 || !strings.HasPrefix(ctype1, "RA") || !strings.HasPrefix(ctype2, "DEC") {
		return nil, ErrNoWCS
	}
	proj := Projection(strings.TrimSpace(ctype1[strings.LastIndex(ctype1, "-")+1:]))
	if p2 := Projection(strings.TrimSpace(ctype2[strings.LastIndex(ctype2, "-")+1:])); p2 != proj {
		return nil, fmt.Errorf("mismatched projections %q and %q", proj, p2)
	}

	get := func(key string, def float64) float64 {
		if v, ok := h.Float(key); ok {
			return v
		}
		return def
	}

	var crpix, crval [2]float64
	for i, ax := range []string{"1", "2"} {
		var ok bool
		if crpix[i], ok = h.Float("CRPIX" + ax); !ok {
			return nil, fmt.Errorf("missing CRPIX%s", ax)
		}
		if crval[i], ok = h.Float("CRVAL" + ax); !ok {
			return nil, fmt.Errorf("missing CRVAL%s", ax)
		}
	}

	var cd [4]float64
	if _, ok := h.Float("CD1_1"); ok {
		cd = [4]float64{get("CD1_1", 0), get("CD1_2", 0), get("CD2_1", 0), get("CD2_2", 0)}
	} else {
		cdelt1, ok1 := h.Float("CDELT1")
		cdelt2, ok2 := h.Float("CDELT2")
		if !ok1 || !ok2 {
			return nil, errors.New("missing CDELT1/CDELT2 and CDi_j")
		}
		_, hasPC := h.Float("PC1_1")
		if crota, ok := h.Float("CROTA2"); ok && !hasPC && crota != 0 {
			s, c := math.Sincos(units.DegToRad(crota))
			cd = [4]float64{cdelt1 * c, -cdelt2 * s, cdelt1 * s, cdelt2 * c}
		} else {
			cd = [4]float64{
				cdelt1 * get("PC1_1", 1), cdelt1 * get("PC1_2", 0),
				cdelt2 * get("PC2_1", 0), cdelt2 * get("PC2_2", 1),
			}
		}
	}
	return NewWCS(proj, crpix, crval, cd)
}

// WorldToPixel converts RA/Dec in degrees to zero-based pixel coordinates.
func (w *WCS) WorldToPixel(ra, dec float64) (x, y float64, err error) {
	da := units.DegToRad(ra - w.CRVal[0])
	sd, cd := math.Sincos(units.DegToRad(dec))
	sda, cda := math.Sincos(da)

	cosc := w.sinD0*sd + w.cosD0*cd*cda
	if cosc <= 0 {
		return 0, 0, ErrUnprojectable
	}
	xi := cd * sda
	eta := w.cosD0*sd - w.sinD0*cd*cda
	if w.Proj == ProjTAN {
		xi /= cosc
		eta /= cosc
	}

	var p mat.VecDense
	p.MulVec(w.cdInv, mat.NewVecDense(2, []float64{units.RadToDeg(xi), units.RadToDeg(eta)}))
	return p.AtVec(0) + w.CRPix[0] - 1, p.AtVec(1) + w.CRPix[1] - 1, nil
}

// PixelToWorld converts zero-based pixel coordinates to RA/Dec in degrees.
func (w *WCS) PixelToWorld(x, y float64) (ra, dec float64, err error) {
	var q mat.VecDense
	q.MulVec(w.cd, mat.NewVecDense(2, []float64{x + 1 - w.CRPix[0], y + 1 - w.CRPix[1]}))
	xi, eta := units.DegToRad(q.AtVec(0)), units.DegToRad(q.AtVec(1))

	rho := math.Hypot(xi, eta)
	if rho == 0 {
		return w.CRVal[0], w.CRVal[1], nil
	}
	var c float64
	switch w.Proj {
	case ProjTAN:
		c = math.Atan(rho)
	case ProjSIN:
		if rho > 1 {
			return 0, 0, ErrUnprojectable
		}
		c = math.Asin(rho)
	}
	sc, cc := math.Sincos(c)
	dec = units.RadToDeg(math.Asin(cc*w.sinD0 + eta*sc*w.cosD0/rho))
	ra = w.CRVal[0] + units.RadToDeg(math.Atan2(xi*sc, rho*w.cosD0*cc-eta*w.sinD0*sc))
	return units.NormalizeRA(ra), dec, nil
}

// PixelScale returns the mean absolute pixel size in degrees.
func (w *WCS) PixelScale() float64 {
	return math.Sqrt(math.Abs(mat.Det(w.cd)))
}
