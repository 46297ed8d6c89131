package invader

import (
	"errors"
	"fmt"
	"image/color"
	"io/ioutil"
	"log"
	"math/rand"
)

var (
	// ErrDensityUnsatisfiable is returned when no attempt produced a sprite
	// with less than half of its cells in the background.
	ErrDensityUnsatisfiable = errors.New("invader: density constraint unsatisfiable")

	// ErrInvalidWidth is returned for sprites narrower than one cell.
	ErrInvalidWidth = errors.New("invader: sprite width must be at least 1")
)

// DefaultMaxAttempts bounds the number of palettes drawn for one sprite.
const DefaultMaxAttempts = 1000

// Every attempt draws this many swatches, half of them background.
const (
	spritePaletteSize       = 6
	spritePaletteForeground = 3
)

// Square is an axis aligned square region of a picture.
type Square struct {
	X, Y float64
	Size float64
}

// GridPos addresses a cell of a sprite.
type GridPos struct {
	Col, Row int
}

// Sprite is a width by width grid of swatches tiling Square, mirrored around
// its vertical axis.
type Sprite struct {
	Square   Square
	Width    int
	CellSize float64
	Cells    map[GridPos]Swatch

	// Attempts is the number of palettes drawn before this one was accepted.
	Attempts int
}

// At returns the swatch of the cell at (col, row).
func (s *Sprite) At(col, row int) Swatch {
	return s.Cells[GridPos{Col: col, Row: row}]
}

// Bounds returns the region covered by the cell at pos.
func (s *Sprite) Bounds(pos GridPos) Square {
	return Square{
		X:    float64(pos.Col)*s.CellSize + s.Square.X,
		Y:    float64(pos.Row)*s.CellSize + s.Square.Y,
		Size: s.CellSize,
	}
}

// BackgroundCount returns the number of background cells.
func (s *Sprite) BackgroundCount() int {
	n := 0
	for _, c := range s.Cells {
		if c.Background {
			n++
		}
	}
	return n
}

// Generator builds symmetric sprites by rejection sampling.
type Generator struct {
	// Palette provides the swatches of every attempt. It defaults to
	// RandomPalette over DefaultBackground.
	Palette PaletteSource
	// Rand is the only source of randomness.
	Rand *rand.Rand
	// MaxAttempts defaults to DefaultMaxAttempts when zero.
	MaxAttempts int
	Logger      *log.Logger
}

// NewGenerator returns a generator drawing random palettes over bg from a
// source seeded with seed.
func NewGenerator(seed int64, bg color.RGBA) *Generator {
	return &Generator{
		Palette: RandomPalette{Background: bg},
		Rand:    rand.New(rand.NewSource(seed)),
	}
}

func (g *Generator) logger() *log.Logger {
	if g.Logger == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return g.Logger
}

// Generate returns a width by width sprite tiling square. Each row reads the
// same from both ends, except for the middle column of odd widths, and less
// than half of the cells are background.
func (g *Generator) Generate(square Square, width int) (*Sprite, error) {
	if width < 1 {
		return nil, ErrInvalidWidth
	}
	if g.Rand == nil {
		return nil, errors.New("invader: generate: random source must be specified")
	}

	max := g.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= max; attempt++ {
		sprite, err := g.attempt(square, width)
		if err != nil {
			return nil, err
		}

		if float64(sprite.BackgroundCount()) < float64(width*width)/2 {
			sprite.Attempts = attempt
			return sprite, nil
		}
	}

	g.logger().Printf("invader: gave up on %dx%d sprite after %d attempts", width, width, max)
	return nil, fmt.Errorf("%w: %d attempts for width %d", ErrDensityUnsatisfiable, max, width)
}

func (g *Generator) attempt(square Square, width int) (*Sprite, error) {
	source := g.Palette
	if source == nil {
		source = RandomPalette{Background: DefaultBackground}
	}

	palette := source.Palette(g.Rand, spritePaletteSize, spritePaletteForeground)
	if len(palette) == 0 {
		return nil, errors.New("invader: palette source returned no swatches")
	}

	sprite := &Sprite{
		Square:   square,
		Width:    width,
		CellSize: square.Size / float64(width),
		Cells:    make(map[GridPos]Swatch, width*width),
	}

	middle := width / 2
	even := width%2 == 0

	for y := 0; y < width; y++ {
		var stack []Swatch

		for x := 0; x < width; x++ {
			var swatch Swatch
			if x > middle || (x == middle && even) {
				swatch = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			} else {
				swatch = palette[g.Rand.Intn(len(palette))]
				if x != middle {
					stack = append(stack, swatch)
				}
			}
			sprite.Cells[GridPos{Col: x, Row: y}] = swatch
		}

		if len(stack) != 0 {
			return nil, fmt.Errorf("invader: row %d left %d unmirrored cells", y, len(stack))
		}
	}

	return sprite, nil
}
