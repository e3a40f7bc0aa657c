package vectorize

import "github.com/ironsheep/road-vectorize-mcp/internal/raster"

// isDiagonal reports whether a and b are one unit step apart on both axes.
func isDiagonal(a, b raster.Pixel) bool {
	dc, dr := b.Col-a.Col, b.Row-a.Row
	return dc*dc+dr*dr == 2
}

// RemoveSpuriousDiagonals drops diagonal edges that short-cut an L-shaped
// corner of the skeleton.
//
// At a T-junction the radius query links the two side pixels diagonally as
// well as through the junction pixel, forming a triangle. For a diagonal edge
// (a, b) the corner pixels (a.Col, b.Row) and (b.Col, a.Row) are checked: if
// either is foreground the edge is dropped, otherwise it is the only link
// between a and b and is kept. Non-diagonal edges are returned unchanged and
// the relative order of surviving edges is preserved.
//
// pixels must be the unscaled pixel list the edges index into.
func RemoveSpuriousDiagonals(pixels []raster.Pixel, edges []Edge) []Edge {
	if len(edges) == 0 {
		return edges
	}
	foreground := make(map[raster.Pixel]struct{}, len(pixels))
	for _, p := range pixels {
		foreground[p] = struct{}{}
	}

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		a, b := pixels[e.U], pixels[e.V]
		if isDiagonal(a, b) {
			_, c := foreground[raster.Pixel{Col: a.Col, Row: b.Row}]
			_, d := foreground[raster.Pixel{Col: b.Col, Row: a.Row}]
			if c || d {
				continue
			}
		}
		kept = append(kept, e)
	}
	return kept
}
