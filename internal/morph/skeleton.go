package morph

import "github.com/ironsheep/road-vectorize-mcp/internal/raster"

// Skeletonize thins r to a one-pixel-wide skeleton using the Zhang-Suen
// algorithm. Pixels outside the raster read as background. The input is not
// modified.
//
// Two-pixel-thick diagonal blocks can vanish entirely under Zhang-Suen; the
// closing step in Prepare makes such inputs rare for road masks.
func Skeletonize(r *raster.Raster) *raster.Raster {
	out := r.Clone()
	var marked []int
	for {
		changed := false
		for pass := 0; pass < 2; pass++ {
			marked = marked[:0]
			for row := 0; row < out.Height; row++ {
				for col := 0; col < out.Width; col++ {
					if out.Pix[row*out.Width+col] && deletable(out, col, row, pass) {
						marked = append(marked, row*out.Width+col)
					}
				}
			}
			for _, i := range marked {
				out.Pix[i] = false
			}
			if len(marked) > 0 {
				changed = true
			}
		}
		if !changed {
			return out
		}
	}
}

// deletable evaluates the Zhang-Suen removal test for one sub-iteration.
// Neighbours are numbered p2..p9 clockwise starting north.
func deletable(r *raster.Raster, col, row, pass int) bool {
	p := [8]bool{
		r.At(col, row-1),   // p2 N
		r.At(col+1, row-1), // p3 NE
		r.At(col+1, row),   // p4 E
		r.At(col+1, row+1), // p5 SE
		r.At(col, row+1),   // p6 S
		r.At(col-1, row+1), // p7 SW
		r.At(col-1, row),   // p8 W
		r.At(col-1, row-1), // p9 NW
	}

	b := 0
	for _, v := range p {
		if v {
			b++
		}
	}
	if b < 2 || b > 6 {
		return false
	}

	a := 0
	for i := 0; i < 8; i++ {
		if !p[i] && p[(i+1)%8] {
			a++
		}
	}
	if a != 1 {
		return false
	}

	p2, p4, p6, p8 := p[0], p[2], p[4], p[6]
	if pass == 0 {
		return !(p2 && p4 && p6) && !(p4 && p6 && p8)
	}
	return !(p2 && p4 && p8) && !(p2 && p6 && p8)
}
