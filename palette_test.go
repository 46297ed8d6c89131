package invader

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPalette(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	bg := color.RGBA{1, 2, 3, 0xff}

	for i := 0; i < 100; i++ {
		p := RandomPalette{Background: bg}.Palette(r, 6, 3)
		require.Len(t, p, 6)
		assert.Equal(t, 3, p.Foreground())

		for _, s := range p[:3] {
			assert.False(t, s.Background)
			for _, v := range []uint8{s.Color.R, s.Color.G, s.Color.B} {
				assert.True(t, v >= 50 && v < 215, "channel %d out of range", v)
			}
			assert.Equal(t, uint8(0xff), s.Color.A)
		}
		for _, s := range p[3:] {
			assert.Equal(t, Swatch{Color: bg, Background: true}, s)
		}
	}
}

func TestFixedPalette(t *testing.T) {
	bg := DefaultBackground
	p := FixedPalette{Background: bg}.Palette(nil, 6, 3)

	require.Len(t, p, 6)
	ref := ReferenceColors()
	for i := 0; i < 3; i++ {
		assert.Equal(t, Swatch{Color: ref[i]}, p[i])
	}
	for _, s := range p[3:] {
		assert.True(t, s.Background)
	}

	// More foreground than reference colors is capped.
	p = FixedPalette{Background: bg}.Palette(nil, 12, 12)
	require.Len(t, p, 12)
	assert.Equal(t, len(ref), p.Foreground())
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#b2d942")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0xb2, 0xd9, 0x42, 0xff}, c)

	_, err = ParseHex("not a color")
	assert.Error(t, err)
}
