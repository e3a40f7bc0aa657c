package geometry

import "github.com/paulmach/orb"

// Affine is a 2-D affine transform using the six-coefficient convention of
// GDAL/rasterio transforms:
//
//	x' = A*x + B*y + XOff
//	y' = D*x + E*y + YOff
type Affine struct {
	A    float64 `json:"a"`
	B    float64 `json:"b"`
	D    float64 `json:"d"`
	E    float64 `json:"e"`
	XOff float64 `json:"xoff"`
	YOff float64 `json:"yoff"`
}

// Identity returns the transform that leaves coordinates unchanged.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// FromOrigin builds a north-up transform whose pixel (0,0) corner sits at
// (west, north) and whose pixels measure xSize by ySize map units. ySize is
// given as a positive number; rows grow southwards.
func FromOrigin(west, north, xSize, ySize float64) Affine {
	return Affine{A: xSize, E: -ySize, XOff: west, YOff: north}
}

// Coefficients returns the transform in shapely's affine_transform order
// [a, b, d, e, xoff, yoff].
func (t Affine) Coefficients() [6]float64 {
	return [6]float64{t.A, t.B, t.D, t.E, t.XOff, t.YOff}
}

// Apply maps a single point.
func (t Affine) Apply(p orb.Point) orb.Point {
	return orb.Point{
		t.A*p[0] + t.B*p[1] + t.XOff,
		t.D*p[0] + t.E*p[1] + t.YOff,
	}
}

// ApplyLineString maps every vertex of ls into a new line.
func (t Affine) ApplyLineString(ls orb.LineString) orb.LineString {
	return mapLineString(ls, t.Apply)
}

// PreScale returns the transform that first multiplies input coordinates by
// (sx, sy) and then applies t.
func (t Affine) PreScale(sx, sy float64) Affine {
	return Affine{
		A: t.A * sx, B: t.B * sy,
		D: t.D * sx, E: t.E * sy,
		XOff: t.XOff, YOff: t.YOff,
	}
}
