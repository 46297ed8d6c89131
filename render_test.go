package invader

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.PictureWidth = 64
	opts.Scale = 2
	opts.InvaderWidth = 5
	opts.InvaderCount = 3
	opts.Seed = 77
	opts.LUT = DefaultLUT()
	return opts
}

func TestRenderSingle(t *testing.T) {
	result, err := RenderSingle(testOptions())
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 128, 128), result.Image.Bounds())
	require.Len(t, result.Sprites, 1)
	assert.Equal(t, Square{X: 16, Y: 16, Size: 32}, result.Sprites[0].Square)
	assert.Equal(t, int64(77), result.Seed)

	// Every output pixel is a palette color.
	allowed := make(map[[3]uint8]bool)
	for _, c := range CitrinkPalette {
		allowed[[3]uint8{c.R, c.G, c.B}] = true
	}
	for i := 0; i < len(result.Image.Pix); i += 4 {
		p := result.Image.Pix[i : i+4]
		assert.True(t, allowed[[3]uint8{p[0], p[1], p[2]}], "pixel %v not in palette", p)
	}
}

func TestRenderDeterministic(t *testing.T) {
	opts := testOptions()
	opts.Workers = 1
	a, err := RenderGrid(opts)
	require.NoError(t, err)

	opts.Workers = 4
	b, err := RenderGrid(opts)
	require.NoError(t, err)

	assert.Equal(t, a.Image.Pix, b.Image.Pix)
	require.Len(t, b.Sprites, 9)
	for i := range a.Sprites {
		assert.Equal(t, a.Sprites[i].Cells, b.Sprites[i].Cells)
	}

	opts.Seed++
	c, err := RenderGrid(opts)
	require.NoError(t, err)
	assert.NotEqual(t, a.Image.Pix, c.Image.Pix)
}

func TestRenderAdjacentSeeds(t *testing.T) {
	opts := testOptions()
	opts.InvaderCount = 4
	a, err := RenderGrid(opts)
	require.NoError(t, err)

	opts.Seed++
	b, err := RenderGrid(opts)
	require.NoError(t, err)

	// Neighbouring seeds must not give the same sprites shifted by a square.
	for i := 0; i+1 < len(a.Sprites); i++ {
		assert.NotEqual(t, a.Sprites[i+1].Cells, b.Sprites[i].Cells, "sprite %d", i)
	}

	seeds := spriteSeeds(opts.Seed, 16)
	assert.Equal(t, seeds, spriteSeeds(opts.Seed, 16))
	assert.NotEqual(t, seeds[1:], spriteSeeds(opts.Seed+1, 15))
}

func TestGridSquares(t *testing.T) {
	squares := GridSquares(256, 4, 8)
	require.Len(t, squares, 16)

	// 64 pixel slots with an 8 pixel gutter, column by column.
	assert.Equal(t, Square{X: 4, Y: 4, Size: 56}, squares[0])
	assert.Equal(t, Square{X: 4, Y: 68, Size: 56}, squares[1])
	assert.Equal(t, Square{X: 68, Y: 4, Size: 56}, squares[4])
	assert.Equal(t, Square{X: 196, Y: 196, Size: 56}, squares[15])
}

func TestRenderValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"no lut", func(o *Options) { o.LUT = nil }},
		{"no context", func(o *Options) { o.Context = nil }},
		{"zero width", func(o *Options) { o.InvaderWidth = 0 }},
		{"zero picture", func(o *Options) { o.PictureWidth = 0 }},
		{"zero scale", func(o *Options) { o.Scale = 0 }},
		{"too large", func(o *Options) { o.PictureWidth = 1 << 13; o.Scale = 8 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.modify(&opts)
			_, err := RenderSingle(opts)
			assert.Error(t, err)
		})
	}

	opts := testOptions()
	opts.InvaderCount = 0
	_, err := RenderGrid(opts)
	assert.Error(t, err)
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := testOptions()
	opts.Context = ctx
	_, err := RenderGrid(opts)
	assert.Equal(t, context.Canceled, err)
}
