package vectorize

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/ironsheep/road-vectorize-mcp/internal/raster"
)

// Options configures Vectorize.
type Options struct {
	// Stride is the output distance between neighbouring pixel centres
	// before the border correction. Must be positive.
	Stride float64 `json:"stride"`

	// Tolerance is the Douglas-Peucker tolerance in output units.
	Tolerance float64 `json:"tolerance"`

	// PreserveTopology keeps simplified lines from crossing each other or
	// collapsing.
	PreserveTopology bool `json:"preserve_topology"`

	// MinLength enables hair pruning when positive: dead-end lines shorter
	// than MinLength are removed.
	MinLength float64 `json:"min_length"`
}

// DefaultOptions returns stride 1, tolerance 1, topology preserving
// simplification and no hair pruning.
func DefaultOptions() Options {
	return Options{Stride: 1, Tolerance: 1, PreserveTopology: true}
}

// Validate checks that every option is a usable number.
func (o Options) Validate() error {
	if !(o.Stride > 0) || math.IsInf(o.Stride, 0) {
		return invalidInput("stride must be a positive number, got %v", o.Stride)
	}
	if !(o.Tolerance >= 0) || math.IsInf(o.Tolerance, 0) {
		return invalidInput("tolerance must be a non-negative number, got %v", o.Tolerance)
	}
	if !(o.MinLength >= 0) || math.IsInf(o.MinLength, 0) {
		return invalidInput("min length must be a non-negative number, got %v", o.MinLength)
	}
	return nil
}

// Stats summarizes one vectorization run.
type Stats struct {
	Pixels           int     `json:"pixels"`
	CandidateEdges   int     `json:"candidate_edges"`
	DroppedDiagonals int     `json:"dropped_diagonals"`
	Edges            int     `json:"edges"`
	Components       int     `json:"components"`
	MergedLines      int     `json:"merged_lines"`
	PrunedLines      int     `json:"pruned_lines"`
	Lines            int     `json:"lines"`
	Vertices         int     `json:"vertices"`
	Length           float64 `json:"length"`
	Scale            float64 `json:"scale"`
}

// Result is the vector line network extracted from a raster, in scaled
// pixel space.
type Result struct {
	Lines orb.MultiLineString `json:"lines"`
	Stats Stats               `json:"stats"`
}

// MergeAndSimplify merges the edges into polylines and simplifies them.
// Zero edges yield an empty MultiLineString.
func MergeAndSimplify(coords []orb.Point, edges []Edge, tolerance float64, preserveTopology bool) orb.MultiLineString {
	return Simplify(MergeLines(coords, edges), tolerance, preserveTopology)
}

// Vectorize converts a thinned binary raster into a simplified line network:
// candidate edges are extracted, spurious T-junction diagonals removed, the
// edges merged into polylines, simplified, and finally pruned of short hairs
// when opts.MinLength is positive.
//
// Empty or too sparse rasters produce an empty result, not an error.
// Vectorize keeps no state between calls and may run concurrently on
// different rasters.
func Vectorize(r *raster.Raster, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g, err := ExtractEdges(r, opts.Stride)
	if err != nil {
		return nil, err
	}

	edges := RemoveSpuriousDiagonals(g.Pixels, g.Edges)
	stats := Stats{
		Pixels:           len(g.Pixels),
		CandidateEdges:   len(g.Edges),
		DroppedDiagonals: len(g.Edges) - len(edges),
		Edges:            len(edges),
		Scale:            g.Scale,
	}

	lines := orb.MultiLineString{}
	if len(edges) > 0 {
		lg := newLineGraph(g.Coords, edges)
		stats.Components = lg.components()
		merged := lg.merge()
		stats.MergedLines = len(merged)
		lines = Simplify(merged, opts.Tolerance, opts.PreserveTopology)
	}

	if opts.MinLength > 0 {
		before := len(lines)
		lines = PruneHairs(lines, opts.MinLength)
		stats.PrunedLines = before - len(lines)
	}

	stats.Lines = len(lines)
	for _, ls := range lines {
		stats.Vertices += len(ls)
		stats.Length += planar.Length(ls)
	}
	stats.Length = math.Round(stats.Length*100) / 100

	Logger().Debug("vectorized raster",
		"width", r.Width, "height", r.Height,
		"pixels", stats.Pixels,
		"candidate_edges", stats.CandidateEdges,
		"dropped_diagonals", stats.DroppedDiagonals,
		"merged_lines", stats.MergedLines,
		"pruned_lines", stats.PrunedLines,
		"lines", stats.Lines)

	return &Result{Lines: lines, Stats: stats}, nil
}
