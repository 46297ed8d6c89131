package invader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"image/color"
	"io"
)

// TransparentIndex marks a background cell in a SpriteFrame.
const TransparentIndex = 0xff

// SpriteFrame is the compact wire form of a sprite: a palette of distinct
// foreground colors and one palette index per cell, row by row.
type SpriteFrame struct {
	Width   int
	Palette []color.RGBA
	Indices []byte
}

// NewSpriteFrame indexes the cells of s. Colors are numbered in the order
// they are first met.
func NewSpriteFrame(s *Sprite) (*SpriteFrame, error) {
	if s.Width > 0xffff {
		return nil, errors.New("invader: NewSpriteFrame: sprite is too wide")
	}

	frame := &SpriteFrame{
		Width:   s.Width,
		Indices: make([]byte, 0, s.Width*s.Width),
	}

	colorToIndex := make(map[color.RGBA]byte)
	for y := 0; y < s.Width; y++ {
		for x := 0; x < s.Width; x++ {
			swatch := s.At(x, y)
			if swatch.Background {
				frame.Indices = append(frame.Indices, TransparentIndex)
				continue
			}

			i, ok := colorToIndex[swatch.Color]
			if !ok {
				if len(frame.Palette) >= TransparentIndex {
					return nil, errors.New("invader: NewSpriteFrame: too many colors")
				}
				i = byte(len(frame.Palette))
				colorToIndex[swatch.Color] = i
				frame.Palette = append(frame.Palette, swatch.Color)
			}
			frame.Indices = append(frame.Indices, i)
		}
	}

	return frame, nil
}

// WriteTo writes the frame to a writer.
func (f *SpriteFrame) WriteTo(w io.Writer) (int64, error) {
	wr := bufio.NewWriter(w)
	cw := &countingWriter{w: wr}

	binary.Write(cw, binary.BigEndian, uint16(f.Width))
	cw.Write([]byte{byte(len(f.Palette))})

	for _, c := range f.Palette {
		cw.Write([]byte{c.R, c.G, c.B})
	}

	cw.Write(f.Indices)

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, wr.Flush()
}

// ReadSpriteFrame reads a frame written by WriteTo.
func ReadSpriteFrame(r io.Reader) (*SpriteFrame, error) {
	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	frame := &SpriteFrame{
		Width:   int(binary.BigEndian.Uint16(header[:2])),
		Palette: make([]color.RGBA, header[2]),
	}

	rgb := make([]byte, 3*len(frame.Palette))
	if _, err := io.ReadFull(r, rgb); err != nil {
		return nil, err
	}
	for i := range frame.Palette {
		frame.Palette[i] = color.RGBA{rgb[3*i], rgb[3*i+1], rgb[3*i+2], 0xff}
	}

	frame.Indices = make([]byte, frame.Width*frame.Width)
	if _, err := io.ReadFull(r, frame.Indices); err != nil {
		return nil, err
	}

	for _, i := range frame.Indices {
		if i != TransparentIndex && int(i) >= len(frame.Palette) {
			return nil, errors.New("invader: ReadSpriteFrame: invalid palette index")
		}
	}

	return frame, nil
}

// countingWriter remembers the first error so the frame can be written
// without checking every call.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
