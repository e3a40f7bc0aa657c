package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/segment"
)

// DefaultThreshold is the luminance level at or above which an image pixel
// counts as foreground when a mask is built with FromImage.
const DefaultThreshold uint8 = 128

var (
	// ErrEmpty indicates a raster with no rows or no columns.
	ErrEmpty = errors.New("raster: must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("raster: all rows must have the same length")
)

// Pixel is an integer (column, row) position in a raster.
type Pixel struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Raster is a single-band binary grid stored row-major with its origin at
// the top-left corner. A true cell is foreground.
//
// Rasters are treated as immutable once built; every function in this
// repository that changes a mask returns a new Raster.
type Raster struct {
	Width  int
	Height int
	Pix    []bool
}

// NewEmpty returns an all-background raster of the given size.
func NewEmpty(width, height int) (*Raster, error) {
	if width < 1 || height < 1 {
		return nil, ErrEmpty
	}
	return &Raster{Width: width, Height: height, Pix: make([]bool, width*height)}, nil
}

// New builds a raster from rows of cells. Rows must be non-empty and of equal
// length.
func New(rows [][]bool) (*Raster, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}
	width := len(rows[0])
	r := &Raster{Width: width, Height: len(rows), Pix: make([]bool, 0, width*len(rows))}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), width, ErrNonRectangular)
		}
		r.Pix = append(r.Pix, row...)
	}
	return r, nil
}

// FromPixels builds a width x height raster whose foreground is exactly the
// listed pixels. Pixels outside the grid are ignored.
func FromPixels(width, height int, pixels []Pixel) (*Raster, error) {
	r, err := NewEmpty(width, height)
	if err != nil {
		return nil, err
	}
	for _, p := range pixels {
		r.Set(p.Col, p.Row, true)
	}
	return r, nil
}

// FromImage thresholds img into a binary raster. A pixel is foreground when
// its luminance is at or above level. Fully transparent pixels are treated
// as background.
func FromImage(img image.Image, level uint8) *Raster {
	bounds := img.Bounds()
	gray := segment.Threshold(img, level)
	gb := gray.Bounds()

	r := &Raster{Width: bounds.Dx(), Height: bounds.Dy(), Pix: make([]bool, bounds.Dx()*bounds.Dy())}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			_, _, _, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			if a == 0 {
				continue
			}
			r.Pix[y*r.Width+x] = gray.GrayAt(x+gb.Min.X, y+gb.Min.Y).Y == 0xFF
		}
	}
	return r
}

// FromNonZero marks every non-zero sample of a grayscale image as foreground.
// This is the natural reading of 0/1 label masks written by segmentation
// models.
func FromNonZero(img *image.Gray) *Raster {
	bounds := img.Bounds()
	r := &Raster{Width: bounds.Dx(), Height: bounds.Dy(), Pix: make([]bool, bounds.Dx()*bounds.Dy())}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			r.Pix[y*r.Width+x] = img.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y != 0
		}
	}
	return r
}

// InBounds reports whether (col, row) lies inside the raster.
func (r *Raster) InBounds(col, row int) bool {
	return col >= 0 && col < r.Width && row >= 0 && row < r.Height
}

// At returns the cell at (col, row). Out-of-bounds cells read as background.
func (r *Raster) At(col, row int) bool {
	if !r.InBounds(col, row) {
		return false
	}
	return r.Pix[row*r.Width+col]
}

// Set writes the cell at (col, row). Out-of-bounds writes are ignored.
func (r *Raster) Set(col, row int, v bool) {
	if !r.InBounds(col, row) {
		return
	}
	r.Pix[row*r.Width+col] = v
}

// Clone returns a deep copy of r.
func (r *Raster) Clone() *Raster {
	pix := make([]bool, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// Foreground lists the foreground pixels in row-major order.
func (r *Raster) Foreground() []Pixel {
	var out []Pixel
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			if r.Pix[row*r.Width+col] {
				out = append(out, Pixel{Col: col, Row: row})
			}
		}
	}
	return out
}

// Count returns the number of foreground pixels.
func (r *Raster) Count() int {
	n := 0
	for _, v := range r.Pix {
		if v {
			n++
		}
	}
	return n
}

// ToImage renders the raster as an 8-bit grayscale image with foreground at
// 255 and background at 0.
func (r *Raster) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for i, v := range r.Pix {
		if v {
			img.Pix[i] = 0xFF
		}
	}
	return img
}
