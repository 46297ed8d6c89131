package invader

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"runtime"

	"github.com/disintegration/gift"
	"golang.org/x/sync/errgroup"
)

// ditherColor applies one step of ordered dithering to the color c found at
// (x, y). It depends on nothing but its arguments.
func ditherColor(lut *LUT, c color.RGBA, x, y int) color.RGBA {
	delta := float64(lut.Lookup(c).Spread) * Threshold(x, y)

	perturbed := color.RGBA{
		R: clampUint8(math.Floor(float64(c.R) + delta)),
		G: clampUint8(math.Floor(float64(c.G) + delta)),
		B: clampUint8(math.Floor(float64(c.B) + delta)),
		A: 0xff,
	}

	return lut.Lookup(perturbed).Color
}

// Dither returns the ordered dithering of img through lut. The result has
// the same size as img with its top-left corner at (0, 0). Rows are shared
// between workers goroutines, or GOMAXPROCS if workers is less than 1; the
// output does not depend on the number of workers.
func Dither(ctx context.Context, img image.Image, lut *LUT, workers int) (*image.RGBA, error) {
	if lut == nil {
		return nil, ErrNoLUT
	}

	b := img.Bounds()
	output := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if err := ditherInto(ctx, output, img, lut, workers); err != nil {
		return nil, err
	}

	return output, nil
}

func ditherInto(ctx context.Context, dst draw.Image, src image.Image, lut *LUT, workers int) error {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	sb := src.Bounds()
	db := dst.Bounds()
	height := sb.Dy()
	if workers > height {
		workers = height
	}
	if workers == 0 {
		return nil
	}

	rgba, _ := dst.(*image.RGBA)
	band := (height + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < height; start += band {
		start, end := start, start+band
		if end > height {
			end = height
		}

		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				for x := 0; x < sb.Dx(); x++ {
					c := color.RGBAModel.Convert(src.At(sb.Min.X+x, sb.Min.Y+y)).(color.RGBA)
					out := ditherColor(lut, c, x, y)
					if rgba != nil {
						rgba.SetRGBA(db.Min.X+x, db.Min.Y+y, out)
					} else {
						dst.Set(db.Min.X+x, db.Min.Y+y, out)
					}
				}
			}
			return nil
		})
	}

	return g.Wait()
}

type ditherFilter struct {
	lut *LUT
}

// Filter returns a gift filter that dithers through the LUT, so dithering
// can be chained with the other gift filters.
func (l *LUT) Filter() gift.Filter {
	return ditherFilter{lut: l}
}

func (f ditherFilter) Bounds(srcBounds image.Rectangle) image.Rectangle {
	return image.Rect(0, 0, srcBounds.Dx(), srcBounds.Dy())
}

func (f ditherFilter) Draw(dst draw.Image, src image.Image, options *gift.Options) {
	workers := 1
	if options == nil || options.Parallelization {
		workers = runtime.GOMAXPROCS(0)
	}

	// Only a cancelled context can fail.
	ditherInto(context.Background(), dst, src, f.lut, workers)
}
