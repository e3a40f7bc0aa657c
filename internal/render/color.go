package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spaces consecutive hues so neighbours in the sequence never
// look alike, however many lines there are.
const goldenAngle = 137.50776405003785

// Palette returns n line colours. The sequence only depends on n's prefix:
// line i always gets the same colour.
func Palette(n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		h := math.Mod(float64(i)*goldenAngle, 360)
		c := colorful.Hcl(h, 0.75, 0.7).Clamped()
		r, g, b := c.RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Hex formats c as "#RRGGBB".
func Hex(c color.NRGBA) string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 6:
		c, err := colorful.Hex("#" + hex)
		if err != nil {
			return color.NRGBA{}, err
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}
}
