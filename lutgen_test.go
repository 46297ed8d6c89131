package invader

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLUTSingleColor(t *testing.T) {
	c := color.RGBA{0x25, 0x24, 0x46, 0xff}
	lut, err := BuildLUT(color.Palette{c}, 4)
	require.NoError(t, err)

	for _, e := range lut.entries {
		assert.Equal(t, LUTEntry{Color: c}, e)
	}
}

func TestBuildLUTBlackWhite(t *testing.T) {
	black := color.RGBA{0, 0, 0, 0xff}
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}

	lut, err := BuildLUT(color.Palette{black, white}, 4)
	require.NoError(t, err)

	assert.Equal(t, black, lut.Entry(0, 0, 0).Color)
	assert.Equal(t, white, lut.Entry(3, 3, 3).Color)
	// Black and white are further apart than a spread can hold.
	assert.Equal(t, 255, lut.Entry(0, 0, 0).Spread)
}

func TestBuildLUTErrors(t *testing.T) {
	_, err := BuildLUT(nil, 4)
	assert.Error(t, err)

	_, err = BuildLUT(ColorPalette(CitrinkPalette), 0)
	assert.Error(t, err)
}

func TestDefaultLUT(t *testing.T) {
	lut := DefaultLUT()
	assert.Equal(t, DefaultLUTSize, lut.Size())

	allowed := make(map[color.RGBA]bool)
	for _, c := range CitrinkPalette {
		allowed[c] = true
	}
	for _, e := range lut.entries {
		assert.True(t, allowed[e.Color], "%v not in palette", e.Color)
	}
}

func TestExtractPalette(t *testing.T) {
	ref := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := color.RGBA{0xfc, 0xf6, 0x60, 0xff}
			if x < 8 {
				c = color.RGBA{0x16, 0x6e, 0x7a, 0xff}
			}
			ref.SetRGBA(x, y, c)
		}
	}

	p, err := ExtractPalette(ref, 4, QuantizerMedianCut)
	require.NoError(t, err)
	assert.True(t, len(p) >= 1 && len(p) <= 4, "%d colors", len(p))

	_, err = BuildLUT(p, 8)
	assert.NoError(t, err)

	_, err = ExtractPalette(ref, 0, QuantizerMedianCut)
	assert.Error(t, err)

	_, err = ExtractPalette(ref, 4, Quantizer("octree"))
	assert.Error(t, err)
}
