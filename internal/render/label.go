package render

import (
	"image"
	"image/color"
)

// digitGlyphs is a 3x5 pixel font for line numbers.
var digitGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

const (
	glyphAdvance = 4
	labelHeight  = 7
)

// drawLabel writes text with its top-left corner at (x, y) on a filled
// background box. Pixels outside img are skipped; characters without a
// glyph leave a gap.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	b := img.Bounds()
	set := func(px, py int, c color.NRGBA) {
		if image.Pt(px, py).In(b) {
			img.SetNRGBA(px, py, c)
		}
	}

	width := len(text) * glyphAdvance
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < width; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range digitGlyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					set(cx+col, y+row, fg)
				}
			}
		}
		cx += glyphAdvance
	}
}
