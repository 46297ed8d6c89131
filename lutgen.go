package invader

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultLUTSize is the resolution of LUTs built when none is supplied.
const DefaultLUTSize = 16

// CitrinkPalette is the eight color palette the default LUT maps to.
var CitrinkPalette = mustHexPalette(
	"#ffffff", "#fcf660", "#b2d942", "#52c33f",
	"#166e7a", "#254d70", "#252446", "#201533",
)

// ColorPalette converts colors to a color.Palette.
func ColorPalette(colors []color.RGBA) color.Palette {
	p := make(color.Palette, len(colors))
	for i, c := range colors {
		p[i] = c
	}
	return p
}

// DefaultLUT builds a LUT of DefaultLUTSize for CitrinkPalette.
func DefaultLUT() *LUT {
	lut, err := BuildLUT(ColorPalette(CitrinkPalette), DefaultLUTSize)
	if err != nil {
		panic(err)
	}
	return lut
}

func toColorful(c color.Color) colorful.Color {
	r, g, b, _ := c.RGBA()
	return colorful.Color{
		R: float64(r) / 0xffff,
		G: float64(g) / 0xffff,
		B: float64(b) / 0xffff,
	}
}

// BuildLUT maps every cell of a size³ color cube to the closest palette
// color by CIE Lab distance. The spread of a cell is the RGB distance between
// its closest and second closest palette colors, so colors sitting between
// two palette entries get dithered across both.
func BuildLUT(palette color.Palette, size int) (*LUT, error) {
	if len(palette) == 0 {
		return nil, errors.New("invader: BuildLUT: empty palette")
	}
	if size < 1 || size > MaxLUTSize {
		return nil, fmt.Errorf("%w: size %d out of range", ErrMalformedLUT, size)
	}

	targets := make([]colorful.Color, len(palette))
	rgba := make([]color.RGBA, len(palette))
	for i, c := range palette {
		targets[i] = toColorful(c)
		rgba[i] = color.RGBAModel.Convert(c).(color.RGBA)
		rgba[i].A = 0xff
	}

	// Cell centers, shared by all three channels.
	centers := make([]float64, size)
	for i := range centers {
		centers[i] = (float64(i) + 0.5) * 256 / float64(size) / 255
		if centers[i] > 1 {
			centers[i] = 1
		}
	}

	entries := make([]LUTEntry, size*size*size)
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				cell := colorful.Color{R: centers[r], G: centers[g], B: centers[b]}
				first, second := nearestTwo(cell, targets)

				entry := LUTEntry{Color: rgba[first]}
				if second >= 0 {
					entry.Spread = int(clampUint8(math.Round(rgbDistance(rgba[first], rgba[second]))))
				}
				entries[r+g*size+b*size*size] = entry
			}
		}
	}

	return NewLUT(size, entries)
}

// nearestTwo returns the indices of the closest and second closest targets
// to c. second is -1 when there is a single target.
func nearestTwo(c colorful.Color, targets []colorful.Color) (first, second int) {
	first, second = -1, -1
	best, next := math.Inf(1), math.Inf(1)

	for i, t := range targets {
		d := c.DistanceLab(t)
		switch {
		case d < best:
			second, next = first, best
			first, best = i, d
		case d < next:
			second, next = i, d
		}
	}

	return first, second
}

func rgbDistance(a, b color.RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
