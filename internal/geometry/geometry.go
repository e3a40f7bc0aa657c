// Package geometry provides the vector geometry values exchanged between the
// vectorizer, the georeferencing step and the exporters.
//
// A Geometry is a tagged variant: exactly one of Point, LineString or
// MultiLineString is meaningful, selected by Kind. Callers switch on Kind
// instead of type-asserting an interface, which keeps the set of shapes the
// pipeline can produce closed and explicit.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Kind identifies which member of a Geometry carries data.
type Kind int

const (
	// KindPoint marks a single coordinate.
	KindPoint Kind = iota + 1
	// KindLineString marks one ordered vertex sequence.
	KindLineString
	// KindMultiLineString marks an ordered collection of vertex sequences.
	KindMultiLineString
)

// String returns the GeoJSON type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindMultiLineString:
		return "MultiLineString"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a GeoJSON type name back to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "Point":
		return KindPoint, nil
	case "LineString":
		return KindLineString, nil
	case "MultiLineString":
		return KindMultiLineString, nil
	default:
		return 0, fmt.Errorf("unknown geometry type %q", name)
	}
}

// Geometry is a Point, LineString or MultiLineString tagged by Kind.
type Geometry struct {
	Kind            Kind
	Point           orb.Point
	LineString      orb.LineString
	MultiLineString orb.MultiLineString
}

// NewPoint wraps a single coordinate.
func NewPoint(p orb.Point) Geometry {
	return Geometry{Kind: KindPoint, Point: p}
}

// NewLineString wraps one polyline.
func NewLineString(ls orb.LineString) Geometry {
	return Geometry{Kind: KindLineString, LineString: ls}
}

// NewMultiLineString wraps a collection of polylines. A nil collection is
// stored as an empty one so that it serializes as [] rather than null.
func NewMultiLineString(mls orb.MultiLineString) Geometry {
	if mls == nil {
		mls = orb.MultiLineString{}
	}
	return Geometry{Kind: KindMultiLineString, MultiLineString: mls}
}

// Orb returns the orb representation of the active member.
func (g Geometry) Orb() (orb.Geometry, error) {
	switch g.Kind {
	case KindPoint:
		return g.Point, nil
	case KindLineString:
		return g.LineString, nil
	case KindMultiLineString:
		return g.MultiLineString, nil
	default:
		return nil, fmt.Errorf("geometry has no kind set")
	}
}

// IsEmpty reports whether the geometry holds no vertices. Points are never
// empty.
func (g Geometry) IsEmpty() bool {
	switch g.Kind {
	case KindPoint:
		return false
	case KindLineString:
		return len(g.LineString) == 0
	case KindMultiLineString:
		for _, ls := range g.MultiLineString {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// NumVertices counts the coordinates held by the geometry.
func (g Geometry) NumVertices() int {
	switch g.Kind {
	case KindPoint:
		return 1
	case KindLineString:
		return len(g.LineString)
	case KindMultiLineString:
		n := 0
		for _, ls := range g.MultiLineString {
			n += len(ls)
		}
		return n
	default:
		return 0
	}
}

// Transform returns a copy of g with every coordinate mapped through a.
// The receiver is not modified.
func (g Geometry) Transform(a Affine) Geometry {
	return g.Map(a.Apply)
}

// Map returns a copy of g with f applied to every coordinate. Projections
// such as orb/project.Mercator.ToWGS84 fit f directly.
func (g Geometry) Map(f func(orb.Point) orb.Point) Geometry {
	switch g.Kind {
	case KindPoint:
		return NewPoint(f(g.Point))
	case KindLineString:
		return NewLineString(mapLineString(g.LineString, f))
	case KindMultiLineString:
		out := make(orb.MultiLineString, len(g.MultiLineString))
		for i, ls := range g.MultiLineString {
			out[i] = mapLineString(ls, f)
		}
		return NewMultiLineString(out)
	default:
		return g
	}
}

func mapLineString(ls orb.LineString, f func(orb.Point) orb.Point) orb.LineString {
	if ls == nil {
		return nil
	}
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[i] = f(p)
	}
	return out
}
