// Package crossmatch assigns each optical catalogue entry its nearest radio
// detection on the sky and keeps the pairs closer than a separation limit.
package crossmatch

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/banshee-data/radioxmatch/internal/catalogue"
	"github.com/banshee-data/radioxmatch/internal/sources"
	"github.com/banshee-data/radioxmatch/internal/units"
)

// Match pairs a catalogue entry with its nearest radio detection.
type Match struct {
	Entry            catalogue.Entry
	Detection        sources.Detection
	DetectionIndex   int     // index into the detection slice
	SeparationArcsec float64 // great-circle separation
}

// Miss is a rejected entry and the separation to its nearest detection.
type Miss struct {
	Entry            catalogue.Entry
	SeparationArcsec float64
}

// Result is the outcome of matching a catalogue against detections.
type Result struct {
	Matches  []Match // in catalogue order
	Rejected int     // entries with no detection inside the limit
	// ClosestMiss is the rejected entry nearest to any detection, nil when
	// nothing was rejected or there are no detections.
	ClosestMiss *Miss
}

// Matcher answers nearest-detection queries over a fixed detection set.
type Matcher struct {
	detections []sources.Detection
	tree       *kdtree.Tree
}

// NewMatcher indexes detections. The slice is not modified.
func NewMatcher(detections []sources.Detection) *Matcher {
	m := &Matcher{detections: detections}
	if len(detections) == 0 {
		return m
	}
	pts := make(skyPoints, len(detections))
	for i, d := range detections {
		pts[i] = skyPoint{v: unitVector(d.RA, d.Dec), idx: i}
	}
	m.tree = kdtree.New(pts, false)
	return m
}

// Nearest returns the index of the detection closest to (ra, dec) within
// maxArcsec and its separation. ok is false when none lies strictly inside
// the limit. Equidistant detections resolve to the lowest index.
func (m *Matcher) Nearest(ra, dec, maxArcsec float64) (idx int, sepArcsec float64, ok bool) {
	if m.tree == nil {
		return -1, 0, false
	}
	q := skyPoint{v: unitVector(ra, dec), idx: -1}

	// The chord gate is padded so rounding in the unit-vector distance
	// cannot drop a detection that the exact separation would accept.
	gate := chordSquared(units.ArcsecToDeg(maxArcsec))*(1+1e-6) + 1e-18
	keep := kdtree.NewDistKeeper(gate)
	m.tree.NearestSet(keep, q)

	idx = -1
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		p := cd.Comparable.(skyPoint)
		d := m.detections[p.idx]
		sep := SeparationArcsec(ra, dec, d.RA, d.Dec)
		if sep >= maxArcsec {
			continue
		}
		if idx < 0 || sep < sepArcsec || (sep == sepArcsec && p.idx < idx) {
			idx, sepArcsec = p.idx, sep
		}
	}
	return idx, sepArcsec, idx >= 0
}

// NearestAny returns the separation in arcseconds to the closest detection
// regardless of any limit, or ok=false when there are no detections.
func (m *Matcher) NearestAny(ra, dec float64) (sepArcsec float64, ok bool) {
	if m.tree == nil {
		return 0, false
	}
	c, _ := m.tree.Nearest(skyPoint{v: unitVector(ra, dec), idx: -1})
	if c == nil {
		return 0, false
	}
	d := m.detections[c.(skyPoint).idx]
	return SeparationArcsec(ra, dec, d.RA, d.Dec), true
}

// Match finds, for every entry, the nearest detection strictly closer than
// maxArcsec. Entries without one are dropped. Output order follows entries.
func (m *Matcher) Match(entries []catalogue.Entry, maxArcsec float64) Result {
	var res Result
	for _, e := range entries {
		idx, sep, ok := m.Nearest(e.RA, e.Dec, maxArcsec)
		if !ok {
			res.Rejected++
			if near, found := m.NearestAny(e.RA, e.Dec); found &&
				(res.ClosestMiss == nil || near < res.ClosestMiss.SeparationArcsec) {
				res.ClosestMiss = &Miss{Entry: e, SeparationArcsec: near}
			}
			continue
		}
		res.Matches = append(res.Matches, Match{
			Entry:            e,
			Detection:        m.detections[idx],
			DetectionIndex:   idx,
			SeparationArcsec: sep,
		})
	}
	return res
}

// MatchAll is a convenience wrapper building a Matcher for one call.
func MatchAll(entries []catalogue.Entry, detections []sources.Detection, maxArcsec float64) Result {
	return NewMatcher(detections).Match(entries, maxArcsec)
}
