package invader

import (
	"fmt"
	"image/color"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// Default colors of the rendered pictures.
var (
	DefaultBackground = color.RGBA{32, 22, 22, 0xff}
	DefaultDetail     = color.RGBA{50, 50, 50, 0xff}
)

// Channel bounds of randomly drawn foreground colors, upper exclusive.
const (
	randomChannelMin = 50
	randomChannelMax = 215
)

// Swatch is a palette entry. Background swatches are never drawn, whatever
// their color, so the backdrop shows through.
type Swatch struct {
	Color      color.RGBA
	Background bool
}

// Palette is an ordered set of swatches: foreground first, then background.
type Palette []Swatch

// Foreground returns the number of non-background swatches.
func (p Palette) Foreground() int {
	n := 0
	for _, s := range p {
		if !s.Background {
			n++
		}
	}
	return n
}

// PaletteSource produces palettes of count swatches, the first foreground of
// which are not background.
type PaletteSource interface {
	Palette(r *rand.Rand, count, foreground int) Palette
}

func padBackground(p Palette, count int, bg color.RGBA) Palette {
	for len(p) < count {
		p = append(p, Swatch{Color: bg, Background: true})
	}
	return p
}

// RandomPalette draws each foreground channel uniformly from [50, 215).
type RandomPalette struct {
	Background color.RGBA
}

func (s RandomPalette) Palette(r *rand.Rand, count, foreground int) Palette {
	if foreground > count {
		foreground = count
	}

	p := make(Palette, 0, count)
	for i := 0; i < foreground; i++ {
		p = append(p, Swatch{Color: color.RGBA{
			R: uint8(randomChannelMin + r.Intn(randomChannelMax-randomChannelMin)),
			G: uint8(randomChannelMin + r.Intn(randomChannelMax-randomChannelMin)),
			B: uint8(randomChannelMin + r.Intn(randomChannelMax-randomChannelMin)),
			A: 0xff,
		}})
	}

	return padBackground(p, count, s.Background)
}

var referenceColors = mustHexPalette(
	"#ff0000", "#00ff00", "#0000ff",
	"#ffff00", "#ff00ff", "#00ffff",
	"#800080", "#ffa500", "#008000",
)

// ReferenceColors returns a copy of the colors FixedPalette picks from.
func ReferenceColors() []color.RGBA {
	return append([]color.RGBA(nil), referenceColors...)
}

// FixedPalette takes its foreground from a fixed reference list of nine
// colors. It ignores the random source.
type FixedPalette struct {
	Background color.RGBA
}

func (s FixedPalette) Palette(_ *rand.Rand, count, foreground int) Palette {
	if foreground > len(referenceColors) {
		foreground = len(referenceColors)
	}
	if foreground > count {
		foreground = count
	}

	p := make(Palette, 0, count)
	for _, c := range referenceColors[:foreground] {
		p = append(p, Swatch{Color: c})
	}

	return padBackground(p, count, s.Background)
}

// ParseHex parses a "#rrggbb" color.
func ParseHex(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invader: invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 0xff}, nil
}

func mustHexPalette(hex ...string) []color.RGBA {
	p := make([]color.RGBA, len(hex))
	for i, h := range hex {
		c, err := ParseHex(h)
		if err != nil {
			panic(err)
		}
		p[i] = c
	}
	return p
}
