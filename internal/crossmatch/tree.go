package crossmatch

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// skyPoint is a detection on the unit sphere. idx is its position in the
// detection slice handed to NewMatcher; queries use idx -1.
type skyPoint struct {
	v   [3]float64
	idx int
}

var _ kdtree.Comparable = skyPoint{}

func (p skyPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(skyPoint)
	return p.v[d] - q.v[d]
}

func (p skyPoint) Dims() int { return 3 }

func (p skyPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(skyPoint)
	var sum float64
	for i := range p.v {
		d := p.v[i] - q.v[i]
		sum += d * d
	}
	return sum
}

// skyPoints implements kdtree.Interface.
type skyPoints []skyPoint

var _ kdtree.Interface = skyPoints(nil)

func (p skyPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p skyPoints) Len() int                              { return len(p) }
func (p skyPoints) Pivot(d kdtree.Dim) int                { return skyPlane{skyPoints: p, Dim: d}.Pivot() }
func (p skyPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// skyPlane sorts skyPoints along one dimension for median partitioning.
type skyPlane struct {
	kdtree.Dim
	skyPoints
}

func (p skyPlane) Less(i, j int) bool {
	return p.skyPoints[i].v[p.Dim] < p.skyPoints[j].v[p.Dim]
}

func (p skyPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p skyPlane) Slice(start, end int) kdtree.SortSlicer {
	p.skyPoints = p.skyPoints[start:end]
	return p
}

func (p skyPlane) Swap(i, j int) {
	p.skyPoints[i], p.skyPoints[j] = p.skyPoints[j], p.skyPoints[i]
}
