package invader

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
)

// Backdrop ring geometry: the outer radius as a fraction of the picture
// width, then per ring i the radius shrinks by i*ringStep and the outline
// grows to i*ringWidth.
const (
	ringRadius = 0.47
	ringCount  = 5
	ringStep   = 10
	ringWidth  = 5
)

// NewCanvas returns a square opaque canvas of the given width.
func NewCanvas(width int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, width))
}

// NewLayer returns a fully transparent layer of the given size.
func NewLayer(bounds image.Rectangle) *image.NRGBA {
	return image.NewNRGBA(bounds)
}

// DrawBackdrop fills dst with bg and draws the concentric detail rings.
func DrawBackdrop(dst draw.Image, bg, detail color.Color) {
	b := dst.Bounds()
	draw.Draw(dst, b, &image.Uniform{bg}, image.Point{}, draw.Src)

	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2
	r := float64(b.Dx()) * ringRadius

	for i := 0; i < ringCount; i++ {
		r -= float64(i * ringStep)
		drawRing(dst, cx, cy, r, float64(i*ringWidth), detail)
	}
}

// drawRing draws an outline of the given width just inside the circle of
// radius r.
func drawRing(dst draw.Image, cx, cy, r, width float64, c color.Color) {
	if width <= 0 || r <= 0 {
		return
	}

	inner := math.Max(r-width, 0)
	b := dst.Bounds().Intersect(image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r)), int(math.Ceil(cy+r)),
	))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if d <= r && d >= inner {
				dst.Set(x, y, c)
			}
		}
	}
}

// CellRect returns the pixels covered by sq: the floor of each edge.
func CellRect(sq Square) image.Rectangle {
	return image.Rect(
		int(math.Floor(sq.X)), int(math.Floor(sq.Y)),
		int(math.Floor(sq.X+sq.Size)), int(math.Floor(sq.Y+sq.Size)),
	)
}

// edge returns the pixel offset of grid line i along an axis starting at
// origin. The last line is the square's own edge.
func (s *Sprite) edge(origin float64, i int) int {
	if i >= s.Width {
		return int(math.Floor(origin + s.Square.Size))
	}
	return int(math.Floor(origin + float64(i)*s.Square.Size/float64(s.Width)))
}

// CellRect returns the pixels covered by the cell at pos. Edges are computed
// from grid line indices, so the cells of a sprite tile CellRect(s.Square)
// without gaps or overlaps.
func (s *Sprite) CellRect(pos GridPos) image.Rectangle {
	return image.Rect(
		s.edge(s.Square.X, pos.Col), s.edge(s.Square.Y, pos.Row),
		s.edge(s.Square.X, pos.Col+1), s.edge(s.Square.Y, pos.Row+1),
	)
}

// DrawSprite paints the foreground cells of s onto layer. Background cells
// are left untouched.
func DrawSprite(layer draw.Image, s *Sprite) {
	for pos, swatch := range s.Cells {
		if swatch.Background {
			continue
		}
		draw.Draw(layer, s.CellRect(pos), &image.Uniform{swatch.Color},
			image.Point{}, draw.Src)
	}
}

// Composite draws layer over base using the layer's alpha.
func Composite(base draw.Image, layer image.Image) {
	draw.Draw(base, base.Bounds(), layer, layer.Bounds().Min, draw.Over)
}

// ScaleFilter returns the nearest neighbour filter scaling a width by height
// image by factor.
func ScaleFilter(width, height, factor int) gift.Filter {
	return gift.Resize(width*factor, height*factor, gift.NearestNeighborResampling)
}

// ScaleUp enlarges img by an integer factor without smoothing.
func ScaleUp(img image.Image, factor int) *image.RGBA {
	b := img.Bounds()
	g := gift.New(ScaleFilter(b.Dx(), b.Dy(), factor))
	dst := image.NewRGBA(g.Bounds(b))
	g.Draw(dst, img)
	return dst
}
