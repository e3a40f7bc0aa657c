package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrBorderTooLarge indicates an overlap border that leaves no pixels.
var ErrBorderTooLarge = errors.New("raster: overlap border consumes the whole image")

// CropOverlap removes a border of the given width from every side of a tile
// image. Prediction tiles are usually produced with an overlap margin around
// the nominal tile; cropping it restores the nominal footprint before
// vectorization. A border of 0 returns the image unchanged.
func CropOverlap(img image.Image, border int) (image.Image, error) {
	if border < 0 {
		return nil, fmt.Errorf("negative overlap border %d", border)
	}
	if border == 0 {
		return img, nil
	}
	bounds := img.Bounds()
	if 2*border >= bounds.Dx() || 2*border >= bounds.Dy() {
		return nil, fmt.Errorf("border %d on %dx%d image: %w", border, bounds.Dx(), bounds.Dy(), ErrBorderTooLarge)
	}
	rect := image.Rect(
		bounds.Min.X+border, bounds.Min.Y+border,
		bounds.Max.X-border, bounds.Max.Y-border,
	)
	return imaging.Crop(img, rect), nil
}

// Crop returns the sub-raster covering rect, clipped to the raster bounds.
func (r *Raster) Crop(rect image.Rectangle) (*Raster, error) {
	rect = rect.Intersect(image.Rect(0, 0, r.Width, r.Height))
	if rect.Empty() {
		return nil, ErrEmpty
	}
	out := &Raster{Width: rect.Dx(), Height: rect.Dy(), Pix: make([]bool, rect.Dx()*rect.Dy())}
	for row := 0; row < out.Height; row++ {
		copy(out.Pix[row*out.Width:(row+1)*out.Width],
			r.Pix[(row+rect.Min.Y)*r.Width+rect.Min.X:(row+rect.Min.Y)*r.Width+rect.Max.X])
	}
	return out, nil
}
