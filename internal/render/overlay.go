// Package render draws vectorized lines over their source mask so results
// can be inspected by eye.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// MaxZoom bounds the output upsampling factor.
const MaxZoom = 16

// ErrNoImage is returned when Overlay gets no base image.
var ErrNoImage = errors.New("render: no base image")

// OverlayOptions controls Overlay. A zero CoordScale, Zoom, LineWidth or
// VertexColor takes the value from DefaultOverlayOptions.
type OverlayOptions struct {
	// CoordScale converts line coordinates to pixel indices: pixel =
	// coordinate / CoordScale. Use the scale reported by the vectorizer.
	CoordScale float64

	// Zoom upsamples the output so thin strokes stay visible.
	Zoom int

	// LineWidth is the stroke width in output pixels.
	LineWidth float64

	// Dim darkens the mask by this many percent before drawing.
	Dim float64

	// ShowVertices marks every vertex with a square in VertexColor.
	ShowVertices bool
	VertexColor  string

	// Labels writes each line's index next to its first vertex.
	Labels bool

	// GridSpacing draws a pixel grid every GridSpacing source pixels in
	// GridColor; 0 draws none.
	GridSpacing int
	GridColor   string
}

// DefaultOverlayOptions returns unit scale, 4x zoom, 2 pixel strokes and a
// mask dimmed by 60%.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		CoordScale:  1,
		Zoom:        4,
		LineWidth:   2,
		Dim:         60,
		VertexColor: "#FFFFFF",
		GridColor:   "#FF000080",
	}
}

func (o OverlayOptions) withDefaults() OverlayOptions {
	d := DefaultOverlayOptions()
	if o.CoordScale == 0 {
		o.CoordScale = d.CoordScale
	}
	if o.Zoom == 0 {
		o.Zoom = d.Zoom
	}
	if o.LineWidth == 0 {
		o.LineWidth = d.LineWidth
	}
	if o.VertexColor == "" {
		o.VertexColor = d.VertexColor
	}
	if o.GridColor == "" {
		o.GridColor = d.GridColor
	}
	return o
}

// OverlayResult contains the rendered overlay
type OverlayResult struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ImageBase64 string   `json:"image_base64"`
	MimeType    string   `json:"mime_type"`
	Zoom        int      `json:"zoom"`
	Lines       int      `json:"lines"`
	Colors      []string `json:"colors"`
}

// Overlay draws every line of mls over base, each in its own colour from
// Palette. The mask is dimmed and upsampled by opts.Zoom first; line
// coordinates map to pixel centres.
func Overlay(base image.Image, mls orb.MultiLineString, opts OverlayOptions) (*OverlayResult, error) {
	img, err := Draw(base, mls, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	palette := Palette(len(mls))
	colors := make([]string, len(palette))
	for i, c := range palette {
		colors[i] = Hex(c)
	}

	b := img.Bounds()
	return &OverlayResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Zoom:        opts.withDefaults().Zoom,
		Lines:       len(mls),
		Colors:      colors,
	}, nil
}

// Draw renders the overlay without encoding it.
func Draw(base image.Image, mls orb.MultiLineString, opts OverlayOptions) (*image.NRGBA, error) {
	if base == nil {
		return nil, ErrNoImage
	}
	opts = opts.withDefaults()
	if !(opts.CoordScale > 0) || math.IsInf(opts.CoordScale, 0) {
		return nil, fmt.Errorf("render: coordinate scale must be positive, got %v", opts.CoordScale)
	}
	if opts.Zoom < 1 || opts.Zoom > MaxZoom {
		return nil, fmt.Errorf("render: zoom must be between 1 and %d, got %d", MaxZoom, opts.Zoom)
	}
	if !(opts.LineWidth > 0) {
		return nil, fmt.Errorf("render: line width must be positive, got %v", opts.LineWidth)
	}
	vertexColor, err := parseHexColor(opts.VertexColor)
	if err != nil {
		return nil, fmt.Errorf("render: vertex color: %w", err)
	}
	if opts.GridSpacing < 0 {
		return nil, fmt.Errorf("render: grid spacing must not be negative, got %d", opts.GridSpacing)
	}
	gridColor, err := parseHexColor(opts.GridColor)
	if err != nil {
		return nil, fmt.Errorf("render: grid color: %w", err)
	}

	src := base.Bounds()
	if src.Empty() {
		return nil, ErrNoImage
	}
	w, h := src.Dx()*opts.Zoom, src.Dy()*opts.Zoom

	dimmed := imaging.AdjustBrightness(base, -opts.Dim)
	out := imaging.Resize(dimmed, w, h, imaging.NearestNeighbor)

	if opts.GridSpacing > 0 {
		drawGrid(out, opts.GridSpacing*opts.Zoom, gridColor)
	}

	zoom := float64(opts.Zoom)
	toPixel := func(p orb.Point) (float32, float32) {
		return float32((p[0]/opts.CoordScale + 0.5) * zoom),
			float32((p[1]/opts.CoordScale + 0.5) * zoom)
	}

	ras := vector.NewRasterizer(w, h)
	half := float32(opts.LineWidth / 2)
	for i, c := range Palette(len(mls)) {
		ls := mls[i]
		if len(ls) == 0 {
			continue
		}
		ras.Reset(w, h)
		if len(ls) == 1 {
			x, y := toPixel(ls[0])
			square(ras, x, y, half)
		}
		for j := 0; j+1 < len(ls); j++ {
			ax, ay := toPixel(ls[j])
			bx, by := toPixel(ls[j+1])
			stroke(ras, ax, ay, bx, by, half)
		}
		ras.Draw(out, out.Bounds(), image.NewUniform(c), image.Point{})
	}

	if opts.ShowVertices {
		ras.Reset(w, h)
		for _, ls := range mls {
			for _, p := range ls {
				x, y := toPixel(p)
				square(ras, x, y, half*1.5)
			}
		}
		ras.Draw(out, out.Bounds(), image.NewUniform(vertexColor), image.Point{})
	}

	if opts.Labels {
		fg := color.NRGBA{255, 255, 255, 255}
		bg := color.NRGBA{0, 0, 0, 180}
		for i, ls := range mls {
			if len(ls) == 0 {
				continue
			}
			x, y := toPixel(ls[0])
			drawLabel(out, int(x)+2, int(y)+2, strconv.Itoa(i), fg, bg)
		}
	}
	return out, nil
}

// drawGrid blends vertical and horizontal lines every spacing pixels,
// starting at spacing.
func drawGrid(img *image.NRGBA, spacing int, c color.NRGBA) {
	b := img.Bounds()
	src := image.NewUniform(c)
	for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
		draw.Draw(img, image.Rect(x, b.Min.Y, x+1, b.Max.Y), src, image.Point{}, draw.Over)
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), src, image.Point{}, draw.Over)
	}
}

// stroke adds the rectangle covering segment a-b at the given half width.
// Rectangles and squares share one winding so overlapping joints do not
// cancel.
func stroke(ras *vector.Rasterizer, ax, ay, bx, by, half float32) {
	dx, dy := bx-ax, by-ay
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		square(ras, ax, ay, half)
		return
	}
	nx, ny := -dy/l*half, dx/l*half
	ras.MoveTo(ax+nx, ay+ny)
	ras.LineTo(bx+nx, by+ny)
	ras.LineTo(bx-nx, by-ny)
	ras.LineTo(ax-nx, ay-ny)
	ras.ClosePath()
}

func square(ras *vector.Rasterizer, x, y, half float32) {
	ras.MoveTo(x-half, y+half)
	ras.LineTo(x+half, y+half)
	ras.LineTo(x+half, y-half)
	ras.LineTo(x-half, y-half)
	ras.ClosePath()
}
