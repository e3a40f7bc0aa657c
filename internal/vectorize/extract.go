package vectorize

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/ironsheep/road-vectorize-mcp/internal/raster"
)

// NeighborRadius is the neighbour search radius in units of stride.
const NeighborRadius = 1.5

// coordPrecision is the number of decimal digits scaled coordinates are
// rounded to. Exact coordinate equality downstream depends on it.
const coordPrecision = 2

// Edge is an unordered pair of indices into Graph.Pixels and Graph.Coords.
// Edges produced by ExtractEdges always have U < V.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Graph is the candidate pixel graph of a skeleton raster.
//
// Pixels and Coords are index aligned: Coords[i] is Pixels[i] scaled by
// Scale and rounded to two decimals, and an Edge refers to the same pair of
// pixels in both.
type Graph struct {
	Pixels []raster.Pixel
	Coords []orb.Point
	Edges  []Edge
	Scale  float64
}

// ScaleFactor returns the factor applied to pixel indices for a raster with
// the given number of rows: stride * rows/(rows-1). The slight over-scaling
// puts the last row and column exactly on the raster's outer edge.
func ScaleFactor(rows int, stride float64) (float64, error) {
	if rows < 2 {
		return 0, invalidInput("raster has %d rows, need at least 2", rows)
	}
	if !(stride > 0) || math.IsInf(stride, 0) {
		return 0, invalidInput("stride must be a positive number, got %v", stride)
	}
	n := float64(rows)
	return stride * (n / (n - 1)), nil
}

// roundCoord rounds half to even at coordPrecision digits, the same rule
// numpy applies, so coordinates match tiles vectorized elsewhere.
func roundCoord(v float64) float64 {
	p := math.Pow(10, coordPrecision)
	return math.RoundToEven(v*p) / p
}

// ExtractEdges builds the candidate graph of r: every pair of foreground
// pixels whose scaled, rounded coordinates lie within NeighborRadius*stride
// of each other.
//
// A raster without foreground, or whose foreground pixels are too far apart
// to pair, yields a Graph with no edges and a nil error. Rasters with fewer
// than two rows and non-positive strides fail with *InvalidInputError.
func ExtractEdges(r *raster.Raster, stride float64) (*Graph, error) {
	if r == nil {
		return nil, invalidInput("nil raster")
	}
	if r.Width < 1 || len(r.Pix) != r.Width*r.Height {
		return nil, invalidInput("raster is not a %dx%d plane", r.Width, r.Height)
	}
	scale, err := ScaleFactor(r.Height, stride)
	if err != nil {
		return nil, err
	}

	pixels := r.Foreground()
	coords := make([]orb.Point, len(pixels))
	for i, p := range pixels {
		coords[i] = orb.Point{
			roundCoord(float64(p.Col) * scale),
			roundCoord(float64(p.Row) * scale),
		}
	}

	g := &Graph{Pixels: pixels, Coords: coords, Scale: scale}
	if len(coords) < 2 {
		return g, nil
	}
	g.Edges = queryPairs(coords, NeighborRadius*stride)
	return g, nil
}

// indexedPoint lets coordinates carry their index through the quadtree.
type indexedPoint struct {
	p   orb.Point
	idx int
}

func (ip indexedPoint) Point() orb.Point { return ip.p }

// queryPairs returns every index pair (u < v) whose points are at most
// radius apart, sorted by (u, v).
func queryPairs(coords []orb.Point, radius float64) []Edge {
	bound := coords[0].Bound()
	for _, c := range coords[1:] {
		bound = bound.Extend(c)
	}
	qt := quadtree.New(bound.Pad(radius))
	for i, c := range coords {
		// Every coordinate lies inside the padded bound, so Add cannot fail.
		_ = qt.Add(indexedPoint{p: c, idx: i})
	}

	var (
		edges []Edge
		buf   []orb.Pointer
		near  []int
	)
	r2 := radius * radius
	for i, c := range coords {
		query := orb.Bound{
			Min: orb.Point{c[0] - radius, c[1] - radius},
			Max: orb.Point{c[0] + radius, c[1] + radius},
		}
		buf = qt.InBound(buf[:0], query)

		near = near[:0]
		for _, found := range buf {
			ip := found.(indexedPoint)
			if ip.idx <= i {
				continue
			}
			dx, dy := ip.p[0]-c[0], ip.p[1]-c[1]
			if dx*dx+dy*dy <= r2 {
				near = append(near, ip.idx)
			}
		}
		sort.Ints(near)
		for _, j := range near {
			edges = append(edges, Edge{U: i, V: j})
		}
	}
	return edges
}
