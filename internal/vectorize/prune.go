package vectorize

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Arity counts, for every line endpoint, how many line ends touch it. A line
// contributes once for its first and once for its last vertex, so a closed
// line counts twice at its closing point.
func Arity(mls orb.MultiLineString) map[orb.Point]int {
	arity := make(map[orb.Point]int, 2*len(mls))
	for _, ls := range mls {
		if len(ls) == 0 {
			continue
		}
		arity[ls[0]]++
		arity[ls[len(ls)-1]]++
	}
	return arity
}

// PruneHairs removes short dead-end branches left behind by thinning.
//
// A line is dropped when at least one of its endpoints has arity 1 and its
// length is below minLength. All other lines are kept in their original
// order. The pass runs once: lines that become dead ends because a hair was
// removed are not re-examined. A minLength of 0 or less disables pruning.
func PruneHairs(mls orb.MultiLineString, minLength float64) orb.MultiLineString {
	if minLength <= 0 {
		return mls
	}
	arity := Arity(mls)
	kept := make(orb.MultiLineString, 0, len(mls))
	for _, ls := range mls {
		if len(ls) == 0 {
			continue
		}
		junctions := arity[ls[0]] != 1 && arity[ls[len(ls)-1]] != 1
		if junctions || planar.Length(ls) >= minLength {
			kept = append(kept, ls)
		}
	}
	return kept
}
