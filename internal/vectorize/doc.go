// Package vectorize turns a thinned (one-pixel-wide) binary raster into a
// simplified vector line network.
//
// # Pipeline
//
// Vectorize runs four stages, each also exported on its own:
//
//  1. ExtractEdges: foreground pixel indices are scaled by
//     stride*rows/(rows-1), rounded to two decimals, and every pair within
//     1.5*stride of each other becomes a candidate edge.
//  2. RemoveSpuriousDiagonals: diagonal edges that short-cut an L-shaped
//     corner (the triangle formed at T-junctions) are dropped.
//  3. MergeLines and Simplify: edges are merged into maximal chains that
//     stop at junctions and dead ends, then simplified with Douglas-Peucker,
//     optionally without changing topology.
//  4. PruneHairs: when a minimum length is given, short lines ending in a
//     dead end are removed in a single pass.
//
// # Coordinate Space
//
// Output coordinates are in scaled pixel space with x to the right and y
// downwards, matching the raster's (column, row) axes. Georeferencing is
// left to an affine transform applied afterwards.
//
// Rasters shorter than 18 rows over-scale enough that diagonal neighbours
// fall outside the 1.5*stride search radius; only axis-aligned steps are
// then linked.
//
// # Errors
//
// Invalid rasters and options fail with *InvalidInputError, which matches
// ErrInvalidInput under errors.Is. Rasters without foreground, or whose
// pixels are too sparse to pair, are not errors: every stage returns an
// empty result.
package vectorize
