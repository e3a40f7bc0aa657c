package vectorize

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// Simplify reduces the vertex count of every line with Douglas-Peucker at
// the given tolerance.
//
// With preserveTopology false the plain algorithm runs line by line and may
// make lines cross or collapse; collapsed zero-length lines are dropped.
// With preserveTopology true a section is only flattened when the replacing
// segment touches no other segment except at its own end points, and closed
// lines keep at least four vertices.
//
// Endpoints of open lines are always kept, so junction coordinates shared by
// several lines survive simplification. The input is not modified.
func Simplify(mls orb.MultiLineString, tolerance float64, preserveTopology bool) orb.MultiLineString {
	if tolerance < 0 {
		tolerance = 0
	}
	if preserveTopology {
		return newTopologySimplifier(mls, tolerance).run()
	}

	out := make(orb.MultiLineString, 0, len(mls))
	dp := simplify.DouglasPeucker(tolerance)
	for _, ls := range mls {
		s, ok := dp.Simplify(ls.Clone()).(orb.LineString)
		if !ok || len(s) < 2 || planar.Length(s) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// segment is one straight piece of a line stored in the rtree. idx is the
// index of its first vertex in the source line, or -1 for segments emitted
// by the simplifier.
type segment struct {
	a, b orb.Point
	line int
	idx  int
	rect rtreego.Rect
}

func (s *segment) Bounds() rtreego.Rect { return s.rect }

// segmentEps pads index rectangles so that axis-aligned segments have a
// non-degenerate box.
const segmentEps = 1e-9

func newSegment(a, b orb.Point, line, idx int) *segment {
	return &segment{a: a, b: b, line: line, idx: idx, rect: boundsRect(a, b)}
}

func boundsRect(a, b orb.Point) rtreego.Rect {
	lo := rtreego.Point{math.Min(a[0], b[0]) - segmentEps, math.Min(a[1], b[1]) - segmentEps}
	hi := rtreego.Point{math.Max(a[0], b[0]) + segmentEps, math.Max(a[1], b[1]) + segmentEps}
	// lo and hi always have the same dimension.
	r, _ := rtreego.NewRectFromPoints(lo, hi)
	return r
}

type topologySimplifier struct {
	lines     orb.MultiLineString
	tolerance float64
	tree      *rtreego.Rtree
	original  [][]*segment
}

func newTopologySimplifier(mls orb.MultiLineString, tolerance float64) *topologySimplifier {
	ts := &topologySimplifier{
		lines:     mls,
		tolerance: tolerance,
		tree:      rtreego.NewTree(2, 25, 50),
		original:  make([][]*segment, len(mls)),
	}
	for li, ls := range mls {
		for i := 0; i+1 < len(ls); i++ {
			s := newSegment(ls[i], ls[i+1], li, i)
			ts.original[li] = append(ts.original[li], s)
			ts.tree.Insert(s)
		}
	}
	return ts
}

func (ts *topologySimplifier) run() orb.MultiLineString {
	out := make(orb.MultiLineString, 0, len(ts.lines))
	for li, ls := range ts.lines {
		if len(ls) < 2 {
			continue
		}
		simplified := ts.simplifyLine(li, ls)

		for _, s := range ts.original[li] {
			ts.tree.Delete(s)
		}
		for i := 0; i+1 < len(simplified); i++ {
			ts.tree.Insert(newSegment(simplified[i], simplified[i+1], li, -1))
		}
		out = append(out, simplified)
	}
	return out
}

func (ts *topologySimplifier) simplifyLine(li int, ls orb.LineString) orb.LineString {
	if len(ls) <= 2 {
		return ls.Clone()
	}
	closed := ls[0] == ls[len(ls)-1]
	keep := make([]bool, len(ls))
	keep[0], keep[len(ls)-1] = true, true
	var accepted []*segment

	var section func(i, j int)
	section = func(i, j int) {
		if j <= i+1 {
			accepted = append(accepted, newSegment(ls[i], ls[j], li, -1))
			return
		}
		k, dmax := i+1, -1.0
		for m := i + 1; m < j; m++ {
			if d := planar.DistanceFromSegment(ls[i], ls[j], ls[m]); d > dmax {
				k, dmax = m, d
			}
		}
		whole := closed && i == 0 && j == len(ls)-1
		if dmax <= ts.tolerance && !whole && !ts.conflicts(li, i, j, accepted, ls[i], ls[j]) {
			accepted = append(accepted, newSegment(ls[i], ls[j], li, -1))
			return
		}
		keep[k] = true
		section(i, k)
		section(k, j)
	}
	section(0, len(ls)-1)

	out := make(orb.LineString, 0, len(ls))
	for i, p := range ls {
		if keep[i] {
			out = append(out, p)
		}
	}
	if closed && len(out) < 4 {
		return ls.Clone()
	}
	return out
}

// conflicts reports whether replacing vertices i..j of line li by the
// segment p-q would touch any other segment anywhere but at p or q.
func (ts *topologySimplifier) conflicts(li, i, j int, accepted []*segment, p, q orb.Point) bool {
	for _, found := range ts.tree.SearchIntersect(boundsRect(p, q)) {
		s := found.(*segment)
		if s.line == li && s.idx >= i && s.idx < j {
			continue
		}
		if touchesInterior(p, q, s.a, s.b) {
			return true
		}
	}
	for _, s := range accepted {
		if touchesInterior(p, q, s.a, s.b) {
			return true
		}
	}
	return false
}

// orient returns the sign of the cross product (q-p) x (r-p).
func orient(p, q, r orb.Point) int {
	v := (q[0]-p[0])*(r[1]-p[1]) - (q[1]-p[1])*(r[0]-p[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether r, known to be collinear with p-q, lies within
// the segment's bounding box.
func onSegment(p, q, r orb.Point) bool {
	return r[0] >= math.Min(p[0], q[0]) && r[0] <= math.Max(p[0], q[0]) &&
		r[1] >= math.Min(p[1], q[1]) && r[1] <= math.Max(p[1], q[1])
}

// touchesInterior reports whether segments p-q and r-s share a point other
// than p or q.
func touchesInterior(p, q, r, s orb.Point) bool {
	o1, o2 := orient(p, q, r), orient(p, q, s)
	o3, o4 := orient(r, s, p), orient(r, s, q)

	if o1 == 0 && o2 == 0 {
		return collinearOverlap(p, q, r, s)
	}
	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	if o1 == 0 && onSegment(p, q, r) && r != p && r != q {
		return true
	}
	if o2 == 0 && onSegment(p, q, s) && s != p && s != q {
		return true
	}
	return false
}

// collinearOverlap reports whether collinear segments p-q and r-s overlap in
// more than one point, or meet at a single point other than p or q.
func collinearOverlap(p, q, r, s orb.Point) bool {
	dx, dy := q[0]-p[0], q[1]-p[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return false
	}
	tr := ((r[0]-p[0])*dx + (r[1]-p[1])*dy) / l2
	ts := ((s[0]-p[0])*dx + (s[1]-p[1])*dy) / l2
	lo, hi := math.Max(0, math.Min(tr, ts)), math.Min(1, math.Max(tr, ts))
	if hi < lo {
		return false
	}
	if hi > lo {
		return true
	}
	return lo > 0 && lo < 1
}
