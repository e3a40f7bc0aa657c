// Package raster provides the binary mask type consumed by the vectorizer,
// together with loading, thresholding and cropping of mask images.
//
// A Raster is a single 2-D plane of booleans. Multi-band inputs are reduced
// to one plane by luminance thresholding when they are loaded; nothing in
// this package keeps colour or band information.
//
// # Coordinate System
//
// Pixel coordinates are 0-based (column, row) pairs:
//   - Col: horizontal position (0 = leftmost pixel)
//   - Row: vertical position (0 = topmost pixel)
//
// Rows are stored contiguously (row-major), so Pix[row*Width+col] is the
// cell at (col, row).
//
// # Thread Safety
//
// MaskCache is safe for concurrent use. Rasters are plain values; share
// them freely as long as nobody calls Set after publishing.
package raster
