package render

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func blackImage(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

func nearly(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -2 && d <= 2
}

func TestOverlay(t *testing.T) {
	lines := orb.MultiLineString{{{2, 10}, {20, 10}}, {{11, 10}, {11, 20}}}

	result, err := Overlay(blackImage(32, 32), lines, DefaultOverlayOptions())
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}

	if result.Width != 128 || result.Height != 128 {
		t.Errorf("dimensions: got %dx%d, want 128x128", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if result.Lines != 2 || len(result.Colors) != 2 {
		t.Errorf("got %d lines and %d colors, want 2 and 2", result.Lines, len(result.Colors))
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(strings.NewReader(string(decoded))); err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
}

func TestDraw_LineColors(t *testing.T) {
	lines := orb.MultiLineString{{{2, 10}, {20, 10}}}

	img, err := Draw(blackImage(32, 32), lines, DefaultOverlayOptions())
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	want := Palette(1)[0]
	// Pixel (11,10) at zoom 4 spans 44..48; the stroke runs along y=42.
	got := img.NRGBAAt(46, 41)
	if !nearly(got.R, want.R) || !nearly(got.G, want.G) || !nearly(got.B, want.B) {
		t.Errorf("line pixel: got %v, want %v", got, want)
	}

	bg := img.NRGBAAt(46, 10)
	if bg.R != 0 || bg.G != 0 || bg.B != 0 {
		t.Errorf("background pixel: got %v, want black", bg)
	}
}

func TestDraw_CoordScale(t *testing.T) {
	// Coordinates at scale 2 land on the same pixels as unscaled ones.
	a, err := Draw(blackImage(32, 32), orb.MultiLineString{{{4, 20}, {40, 20}}}, OverlayOptions{CoordScale: 2})
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	b, err := Draw(blackImage(32, 32), orb.MultiLineString{{{2, 10}, {20, 10}}}, OverlayOptions{CoordScale: 1})
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if a.NRGBAAt(46, 41) != b.NRGBAAt(46, 41) {
		t.Errorf("scaled line differs: %v vs %v", a.NRGBAAt(46, 41), b.NRGBAAt(46, 41))
	}
}

func TestDraw_Vertices(t *testing.T) {
	opts := DefaultOverlayOptions()
	opts.ShowVertices = true
	opts.VertexColor = "#FF0000"

	img, err := Draw(blackImage(32, 32), orb.MultiLineString{{{2, 10}, {20, 10}}}, opts)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	got := img.NRGBAAt(10, 42)
	if !nearly(got.R, 255) || !nearly(got.G, 0) || !nearly(got.B, 0) {
		t.Errorf("vertex pixel: got %v, want red", got)
	}
}

func TestDraw_Labels(t *testing.T) {
	opts := DefaultOverlayOptions()
	opts.Labels = true

	img, err := Draw(blackImage(32, 32), orb.MultiLineString{{{2, 2}, {20, 2}}}, opts)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	hasWhite := false
	for y := 12; y < 20; y++ {
		for x := 12; x < 16; x++ {
			if img.NRGBAAt(x, y).R == 255 && img.NRGBAAt(x, y).B == 255 {
				hasWhite = true
			}
		}
	}
	if !hasWhite {
		t.Error("label should have white pixels")
	}
}

func TestDraw_EmptyLines(t *testing.T) {
	base := image.NewGray(image.Rect(0, 0, 8, 8))
	base.SetGray(3, 3, color.Gray{Y: 255})

	opts := DefaultOverlayOptions()
	opts.Dim = 0
	img, err := Draw(base, nil, opts)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	if img.Bounds().Dx() != 32 {
		t.Errorf("width: got %d, want 32", img.Bounds().Dx())
	}
	if got := img.NRGBAAt(13, 13); got.R != 255 {
		t.Errorf("upsampled mask pixel: got %v, want white", got)
	}
}

func TestDraw_SinglePointAndZeroLength(t *testing.T) {
	lines := orb.MultiLineString{{{5, 5}}, {{9, 9}, {9, 9}}, {}}

	img, err := Draw(blackImage(16, 16), lines, DefaultOverlayOptions())
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if got := img.NRGBAAt(22, 22); got.R == 0 && got.G == 0 && got.B == 0 {
		t.Error("single point should leave a mark")
	}
}

func TestDraw_Grid(t *testing.T) {
	opts := DefaultOverlayOptions()
	opts.GridSpacing = 2
	opts.GridColor = "#FF0000"

	img, err := Draw(blackImage(8, 8), nil, opts)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	// Spacing 2 at zoom 4 puts lines on x and y = 8, 16, 24.
	for _, p := range []image.Point{{8, 1}, {16, 30}, {1, 24}} {
		got := img.NRGBAAt(p.X, p.Y)
		if !nearly(got.R, 255) || got.G != 0 || got.B != 0 {
			t.Errorf("grid pixel %v: got %v, want red", p, got)
		}
	}
	if got := img.NRGBAAt(9, 1); got.R != 0 {
		t.Errorf("pixel between grid lines: got %v, want black", got)
	}
}

func TestDraw_Errors(t *testing.T) {
	tests := []struct {
		name string
		base image.Image
		opts OverlayOptions
	}{
		{"nil image", nil, DefaultOverlayOptions()},
		{"empty image", image.NewGray(image.Rect(0, 0, 0, 0)), DefaultOverlayOptions()},
		{"negative scale", blackImage(4, 4), OverlayOptions{CoordScale: -1}},
		{"zoom too large", blackImage(4, 4), OverlayOptions{Zoom: MaxZoom + 1}},
		{"negative width", blackImage(4, 4), OverlayOptions{LineWidth: -2}},
		{"bad vertex color", blackImage(4, 4), OverlayOptions{VertexColor: "#FFF"}},
		{"negative grid", blackImage(4, 4), OverlayOptions{GridSpacing: -1}},
		{"bad grid color", blackImage(4, 4), OverlayOptions{GridSpacing: 2, GridColor: "red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Draw(tt.base, nil, tt.opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPalette(t *testing.T) {
	p := Palette(12)
	if len(p) != 12 {
		t.Fatalf("got %d colors, want 12", len(p))
	}

	seen := make(map[color.NRGBA]bool)
	for i, c := range p {
		if c.A != 255 {
			t.Errorf("color %d not opaque: %v", i, c)
		}
		if seen[c] {
			t.Errorf("color %d repeats: %v", i, c)
		}
		seen[c] = true
	}

	again := Palette(20)
	for i := range p {
		if p[i] != again[i] {
			t.Errorf("color %d depends on palette size: %v vs %v", i, p[i], again[i])
		}
	}

	if len(Palette(0)) != 0 {
		t.Error("Palette(0) should be empty")
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.NRGBA{R: 255, G: 0, B: 128, A: 255}); got != "#ff0080" {
		t.Errorf("Hex: got %s, want #ff0080", got)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"#00FF00", color.NRGBA{0, 255, 0, 255}, false},
		{"0000FF", color.NRGBA{0, 0, 255, 255}, false},
		{"#FF000080", color.NRGBA{255, 0, 0, 128}, false},
		{"", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
		{"#GGGGGGGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := parseHexColor(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c != tt.want {
				t.Errorf("got %v, want %v", c, tt.want)
			}
		})
	}
}

func TestDrawLabel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}

	drawLabel(img, 5, 5, "10", fg, bg)

	// Top row of the "1" glyph is "010".
	if got := img.NRGBAAt(6, 5); got != fg {
		t.Errorf("glyph pixel: got %v, want %v", got, fg)
	}
	if got := img.NRGBAAt(5, 5); got != bg {
		t.Errorf("background pixel: got %v, want %v", got, bg)
	}

	// Labels past the edge are clipped.
	drawLabel(img, 38, 18, "123", fg, bg)
	drawLabel(img, -5, -5, "7", fg, bg)
}
