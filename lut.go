package invader

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

var (
	// ErrMalformedLUT is returned when a lookup table's geometry does not
	// describe a color cube.
	ErrMalformedLUT = errors.New("invader: malformed LUT")

	// ErrNoLUT is returned when an operation that requires a lookup table is
	// given none.
	ErrNoLUT = errors.New("invader: no LUT")
)

// MaxLUTSize is the largest per-channel resolution a LUT may have.
const MaxLUTSize = 256

// LUTEntry is a single cell of the color cube.
type LUTEntry struct {
	Color color.RGBA
	// Spread is the perturbation magnitude applied before re-quantizing.
	Spread int
}

// LUT is a quantized RGB color cube. It is read only once constructed and
// safe for concurrent use.
type LUT struct {
	size    int
	entries []LUTEntry
}

// NewLUT returns a LUT of the given per-channel resolution. entries is
// indexed by r + g*size + b*size*size and must hold exactly size³ values.
func NewLUT(size int, entries []LUTEntry) (*LUT, error) {
	if size < 1 || size > MaxLUTSize {
		return nil, fmt.Errorf("%w: size %d out of range", ErrMalformedLUT, size)
	}
	if len(entries) != size*size*size {
		return nil, fmt.Errorf("%w: expected %d entries, got %d",
			ErrMalformedLUT, size*size*size, len(entries))
	}

	lut := &LUT{
		size:    size,
		entries: make([]LUTEntry, len(entries)),
	}
	copy(lut.entries, entries)
	for i := range lut.entries {
		lut.entries[i].Color.A = 0xff
	}
	return lut, nil
}

// Size returns the per-channel resolution of the cube.
func (l *LUT) Size() int {
	return l.size
}

func (l *LUT) index(r, g, b int) int {
	return r + g*l.size + b*l.size*l.size
}

func (l *LUT) bucket(v uint8) int {
	return int(v) * l.size / 256
}

// Entry returns the cube cell at the given bucket coordinates.
func (l *LUT) Entry(r, g, b int) LUTEntry {
	return l.entries[l.index(r, g, b)]
}

// Lookup maps a color to its cube cell.
func (l *LUT) Lookup(c color.RGBA) LUTEntry {
	return l.entries[l.index(l.bucket(c.R), l.bucket(c.G), l.bucket(c.B))]
}

// DecodeLUT reads a LUT from its 2D encoding: an image size² pixels wide and
// size pixels high where the pixel at (r + b*size, g) holds the cube cell
// (r, g, b) with the spread stored in the alpha channel.
func DecodeLUT(img image.Image) (*LUT, error) {
	b := img.Bounds()
	size := b.Dy()
	if size < 1 || size > MaxLUTSize || b.Dx() != size*size {
		return nil, fmt.Errorf("%w: %dx%d image is not a cube encoding",
			ErrMalformedLUT, b.Dx(), b.Dy())
	}

	entries := make([]LUTEntry, size*size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size*size; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			r, g, bl := x%size, y, x/size
			entries[r+g*size+bl*size*size] = LUTEntry{
				Color:  color.RGBA{c.R, c.G, c.B, 0xff},
				Spread: int(c.A),
			}
		}
	}

	return NewLUT(size, entries)
}

// LoadLUT opens and decodes the LUT image at path.
func LoadLUT(path string) (*LUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("invader: LoadLUT: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("invader: LoadLUT: %s: %w", path, err)
	}

	return DecodeLUT(img)
}

// Image returns the 2D encoding of the cube, the inverse of DecodeLUT.
func (l *LUT) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, l.size*l.size, l.size))
	for b := 0; b < l.size; b++ {
		for g := 0; g < l.size; g++ {
			for r := 0; r < l.size; r++ {
				e := l.Entry(r, g, b)
				img.SetNRGBA(r+b*l.size, g, color.NRGBA{
					R: e.Color.R,
					G: e.Color.G,
					B: e.Color.B,
					A: clampUint8(float64(e.Spread)),
				})
			}
		}
	}
	return img
}

// EncodeLUT writes the 2D encoding of lut to w as a PNG.
func EncodeLUT(w io.Writer, lut *LUT) error {
	return png.Encode(w, lut.Image())
}

func clampUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
