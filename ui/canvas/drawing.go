package canvas

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// letterPatterns contains 3x5 pixel patterns for letters A-Z and the
// separators that show up in room codes.
var letterPatterns = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'J': {0b001, 0b001, 0b001, 0b101, 0b010},
	'K': {0b101, 0b101, 0b110, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b101, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'Q': {0b010, 0b101, 0b101, 0b111, 0b011},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'V': {0b101, 0b101, 0b101, 0b101, 0b010},
	'W': {0b101, 0b101, 0b101, 0b111, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'Y': {0b101, 0b101, 0b010, 0b010, 0b010},
	'Z': {0b111, 0b001, 0b010, 0b100, 0b111},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	'_': {0b000, 0b000, 0b000, 0b000, 0b111},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

// getCharPattern returns the 3x5 pixel pattern for a character.
// Returns a zero pattern for unsupported characters.
func getCharPattern(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	if pattern, ok := letterPatterns[ch]; ok {
		return pattern
	}
	return [5]uint8{}
}

// drawOverlay paints an overlay onto output.
func drawOverlay(output *image.RGBA, ov Overlay, labelScale int) {
	for _, r := range ov.Rects {
		if r.Fill.A > 0 {
			fillRect(output, r.Rect, r.Fill)
		}
		if r.Dashed {
			strokeDashed(output, r.Rect, r.Stroke, r.Width)
		} else {
			strokeRect(output, r.Rect, r.Stroke, r.Width)
		}
		if r.Label != "" {
			drawLabel(output, r.Label, r.Rect, labelColor, labelScale)
		}
	}
	for _, h := range ov.Handles {
		fillRect(output, h, handleFill)
		strokeRect(output, h, selectedStroke, 1)
	}
}

// fillRect blends col over r.
func fillRect(output *image.RGBA, r image.Rectangle, col color.RGBA) {
	r = r.Intersect(output.Bounds())
	if r.Empty() {
		return
	}
	xdraw.Draw(output, r, image.NewUniform(premultiply(col)), image.Point{}, xdraw.Over)
}

// premultiply converts a straight-alpha RGBA into the premultiplied form
// color.RGBA is defined to hold.
func premultiply(c color.RGBA) color.RGBA {
	a := uint16(c.A)
	return color.RGBA{
		R: uint8(uint16(c.R) * a / 255),
		G: uint8(uint16(c.G) * a / 255),
		B: uint8(uint16(c.B) * a / 255),
		A: c.A,
	}
}

// strokeRect draws the inside border of r, width pixels thick.
func strokeRect(output *image.RGBA, r image.Rectangle, col color.RGBA, width int) {
	if width < 1 {
		width = 1
	}
	if r.Dx() <= 2*width || r.Dy() <= 2*width {
		fillRect(output, r, col)
		return
	}
	fillRect(output, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), col)
	fillRect(output, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), col)
	fillRect(output, image.Rect(r.Min.X, r.Min.Y+width, r.Min.X+width, r.Max.Y-width), col)
	fillRect(output, image.Rect(r.Max.X-width, r.Min.Y+width, r.Max.X, r.Max.Y-width), col)
}

const dashLen = 4

// strokeDashed draws a dashed border around r.
func strokeDashed(output *image.RGBA, r image.Rectangle, col color.RGBA, width int) {
	drawDashedLine(output, r.Min.X, r.Min.Y, r.Max.X-1, r.Min.Y, col, width)
	drawDashedLine(output, r.Min.X, r.Max.Y-1, r.Max.X-1, r.Max.Y-1, col, width)
	drawDashedLine(output, r.Min.X, r.Min.Y, r.Min.X, r.Max.Y-1, col, width)
	drawDashedLine(output, r.Max.X-1, r.Min.Y, r.Max.X-1, r.Max.Y-1, col, width)
}

// drawDashedLine draws a line between two points using Bresenham's
// algorithm, skipping every other run of dashLen pixels.
func drawDashedLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for step := 0; ; step++ {
		if (step/dashLen)%2 == 0 {
			for t := -thickness / 2; t <= thickness/2; t++ {
				for s := -thickness / 2; s <= thickness/2; s++ {
					px, py := x1+s, y1+t
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						output.SetRGBA(px, py, col)
					}
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// labelWidth returns the rendered width of label at scale.
func labelWidth(label string, scale int) int {
	n := len([]rune(label))
	if n == 0 {
		return 0
	}
	return n*3*scale + (n-1)*scale
}

// drawLabel draws label centered in r using the bitmap font. The label is
// shrunk until it fits and skipped if it cannot fit at scale 1.
func drawLabel(output *image.RGBA, label string, r image.Rectangle, col color.RGBA, scale int) {
	if scale < 1 {
		scale = 1
	}
	for scale > 1 && (labelWidth(label, scale) > r.Dx() || 5*scale > r.Dy()) {
		scale--
	}
	if labelWidth(label, scale) > r.Dx() || 5*scale > r.Dy() {
		return
	}

	charWidth := 3 * scale
	spacing := scale
	center := image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	startX := center.X - labelWidth(label, scale)/2
	startY := center.Y - 5*scale/2

	bounds := output.Bounds()
	for i, ch := range []rune(label) {
		pattern := getCharPattern(ch)
		charX := startX + i*(charWidth+spacing)
		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if pattern[row]&(1<<(2-c)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := charX + c*scale + dx
						py := startY + row*scale + dy
						if px >= bounds.Min.X && px < bounds.Max.X &&
							py >= bounds.Min.Y && py < bounds.Max.Y {
							output.SetRGBA(px, py, col)
						}
					}
				}
			}
		}
	}
}
