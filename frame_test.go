package invader

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpriteFrame(t *testing.T) {
	s, err := NewGenerator(3, DefaultBackground).Generate(Square{Size: 7}, 7)
	require.NoError(t, err)

	frame, err := NewSpriteFrame(s)
	require.NoError(t, err)
	assert.True(t, len(frame.Palette) <= 3)
	require.Len(t, frame.Indices, 49)

	for i, idx := range frame.Indices {
		swatch := s.At(i%7, i/7)
		if swatch.Background {
			assert.Equal(t, byte(TransparentIndex), idx)
		} else {
			assert.Equal(t, swatch.Color, frame.Palette[idx])
		}
	}

	buf := new(bytes.Buffer)
	n, err := frame.WriteTo(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(3+3*len(frame.Palette)+49), n)
	assert.Equal(t, int(n), buf.Len())

	read, err := ReadSpriteFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, frame, read)
}

func TestReadSpriteFrameInvalid(t *testing.T) {
	// Width 1, one color, index 1 is out of range.
	_, err := ReadSpriteFrame(bytes.NewReader([]byte{0, 1, 1, 10, 20, 30, 1}))
	assert.Error(t, err)

	_, err = ReadSpriteFrame(bytes.NewReader([]byte{0, 2, 0, 0xff}))
	assert.Error(t, err)

	frame, err := ReadSpriteFrame(bytes.NewReader([]byte{0, 1, 1, 10, 20, 30, 0}))
	require.NoError(t, err)
	assert.Equal(t, []color.RGBA{{10, 20, 30, 0xff}}, frame.Palette)
}
