package invader

import (
	"errors"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backgroundOnly struct{}

func (backgroundOnly) Palette(_ *rand.Rand, count, _ int) Palette {
	return padBackground(nil, count, DefaultBackground)
}

func TestGenerateSymmetric(t *testing.T) {
	for width := 1; width <= 12; width++ {
		g := NewGenerator(int64(width), DefaultBackground)
		s, err := g.Generate(Square{Size: 100}, width)
		require.NoError(t, err)

		require.Len(t, s.Cells, width*width)
		for row := 0; row < width; row++ {
			for col := 0; col < width; col++ {
				assert.Equal(t, s.At(col, row), s.At(width-1-col, row),
					"width %d row %d col %d", width, row, col)
			}
		}
	}
}

func TestGenerateDensity(t *testing.T) {
	g := NewGenerator(99, DefaultBackground)
	for i := 0; i < 50; i++ {
		s, err := g.Generate(Square{Size: 70}, 7)
		require.NoError(t, err)
		assert.True(t, s.BackgroundCount() < 25, "%d background cells", s.BackgroundCount())
		assert.True(t, s.Attempts >= 1)
	}
}

func TestGenerateThreeWide(t *testing.T) {
	g := NewGenerator(1, DefaultBackground)
	s, err := g.Generate(Square{X: 10, Y: 20, Size: 30}, 3)
	require.NoError(t, err)

	assert.Equal(t, 10.0, s.CellSize)
	assert.True(t, s.BackgroundCount() <= 4)
	for row := 0; row < 3; row++ {
		assert.Equal(t, s.At(0, row), s.At(2, row))
	}
	assert.Equal(t, Square{X: 30, Y: 30, Size: 10}, s.Bounds(GridPos{Col: 2, Row: 1}))
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := NewGenerator(1234, DefaultBackground).Generate(Square{Size: 64}, 8)
	require.NoError(t, err)
	b, err := NewGenerator(1234, DefaultBackground).Generate(Square{Size: 64}, 8)
	require.NoError(t, err)

	assert.Equal(t, a.Cells, b.Cells)
}

func TestGenerateUnsatisfiable(t *testing.T) {
	g := &Generator{
		Palette:     backgroundOnly{},
		Rand:        rand.New(rand.NewSource(1)),
		MaxAttempts: 5,
	}

	_, err := g.Generate(Square{Size: 10}, 4)
	assert.True(t, errors.Is(err, ErrDensityUnsatisfiable), "got %v", err)
}

func TestGenerateInvalidWidth(t *testing.T) {
	g := NewGenerator(1, DefaultBackground)
	_, err := g.Generate(Square{Size: 10}, 0)
	assert.Equal(t, ErrInvalidWidth, err)
}

func TestGenerateBackgroundColoredForeground(t *testing.T) {
	// A foreground swatch that happens to share the background color still
	// counts as foreground.
	g := NewGenerator(5, DefaultBackground)
	g.Palette = FixedPalette{Background: color.RGBA{0xff, 0, 0, 0xff}}

	s, err := g.Generate(Square{Size: 50}, 5)
	require.NoError(t, err)
	assert.True(t, s.BackgroundCount() < 13)
}

func TestGenerateZeroGenerator(t *testing.T) {
	var g Generator
	_, err := g.Generate(Square{Size: 10}, 5)
	assert.Error(t, err)

	g.Rand = rand.New(rand.NewSource(8))
	s, err := g.Generate(Square{Size: 10}, 5)
	require.NoError(t, err)
	for _, swatch := range s.Cells {
		if swatch.Background {
			assert.Equal(t, DefaultBackground, swatch.Color)
		}
	}
}
