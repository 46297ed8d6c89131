package invader

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io/ioutil"
	"log"
	"math/rand"
	"runtime"

	"github.com/disintegration/gift"
	"golang.org/x/sync/errgroup"
)

// Options configures the rendering of a picture.
type Options struct {
	Context context.Context

	// InvaderWidth is the number of cells along a sprite's side.
	InvaderWidth int
	// InvaderCount is the number of sprites along a grid's side. Single
	// renders ignore it.
	InvaderCount int
	// PictureWidth is the side of the picture before scaling, in pixels.
	PictureWidth int
	// Scale is the nearest neighbour enlargement applied after dithering.
	Scale int

	// Seed drives every random choice; equal seeds give equal pictures.
	Seed        int64
	Workers     int
	MaxAttempts int

	Background color.RGBA
	Detail     color.RGBA
	// Palette defaults to RandomPalette over Background.
	Palette PaletteSource
	LUT     *LUT

	Logger *log.Logger
}

// DefaultOptions returns the options of the classic 7 by 7 invader on a 256
// pixel picture, scaled seven times.
func DefaultOptions() Options {
	return Options{
		Context:      context.Background(),
		InvaderWidth: 7,
		InvaderCount: 4,
		PictureWidth: 256,
		Scale:        7,
		MaxAttempts:  DefaultMaxAttempts,
		Background:   DefaultBackground,
		Detail:       DefaultDetail,
	}
}

func (o *Options) validate() error {
	if o.Context == nil {
		return errors.New("invader: render: context must be specified")
	}
	if o.LUT == nil {
		return ErrNoLUT
	}
	if o.InvaderWidth < 1 {
		return ErrInvalidWidth
	}
	if o.PictureWidth < 1 {
		return errors.New("invader: render: picture width must be positive")
	}
	if o.Scale < 1 {
		return errors.New("invader: render: scale must be at least 1")
	}
	if o.PictureWidth > 1<<14 || o.PictureWidth*o.Scale > 1<<15 {
		return errors.New("invader: render: picture is too large")
	}

	return nil
}

func (o *Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return o.Logger
}

func (o *Options) palette() PaletteSource {
	if o.Palette == nil {
		return RandomPalette{Background: o.Background}
	}
	return o.Palette
}

// Result is a rendered picture along with the sprites drawn on it.
type Result struct {
	Image   *image.RGBA
	Sprites []*Sprite
	Seed    int64
}

// SingleSquare returns the region of the lone sprite of a single render: half
// the picture, centered.
func SingleSquare(pictureWidth int) Square {
	size := float64(pictureWidth) / 2
	padding := (float64(pictureWidth) - size) / 2
	return Square{X: padding, Y: padding, Size: size}
}

// GridSquares returns the sprite regions of a count by count grid, column by
// column. Each sprite is inset by half a cell on every side.
func GridSquares(pictureWidth, count, invaderWidth int) []Square {
	size := float64(pictureWidth) / float64(count)
	padding := size / float64(invaderWidth)

	squares := make([]Square, 0, count*count)
	for x := 0; x < count; x++ {
		for y := 0; y < count; y++ {
			squares = append(squares, Square{
				X:    float64(x)*size + padding/2,
				Y:    float64(y)*size + padding/2,
				Size: size - padding,
			})
		}
	}
	return squares
}

// RenderSingle renders one large sprite in the middle of the picture.
func RenderSingle(opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return render(opts, []Square{SingleSquare(opts.PictureWidth)})
}

// RenderGrid renders a grid of InvaderCount by InvaderCount sprites.
func RenderGrid(opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.InvaderCount < 1 {
		return nil, errors.New("invader: render: invader count must be positive")
	}

	return render(opts, GridSquares(opts.PictureWidth, opts.InvaderCount, opts.InvaderWidth))
}

func render(opts Options, squares []Square) (*Result, error) {
	logger := opts.logger()

	sprites, err := generateSprites(opts, squares)
	if err != nil {
		return nil, err
	}

	canvas := NewCanvas(opts.PictureWidth)
	DrawBackdrop(canvas, opts.Background, opts.Detail)

	layer := NewLayer(canvas.Bounds())
	for _, s := range sprites {
		DrawSprite(layer, s)
	}
	Composite(canvas, layer)

	if err := opts.Context.Err(); err != nil {
		return nil, err
	}

	logger.Printf("invader: dithering %dx%d picture through size %d LUT",
		opts.PictureWidth, opts.PictureWidth, opts.LUT.Size())

	g := gift.New(
		opts.LUT.Filter(),
		ScaleFilter(opts.PictureWidth, opts.PictureWidth, opts.Scale),
	)
	output := image.NewRGBA(g.Bounds(canvas.Bounds()))
	g.Draw(output, canvas)

	return &Result{
		Image:   output,
		Sprites: sprites,
		Seed:    opts.Seed,
	}, nil
}

// spriteSeeds derives one seed per sprite, in square order, from a source
// seeded with seed.
func spriteSeeds(seed int64, n int) []int64 {
	r := rand.New(rand.NewSource(seed))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = r.Int63()
	}
	return seeds
}

// generateSprites builds one sprite per square. Sprite i draws from its own
// source seeded with the i-th derived seed, so the result does not depend
// on scheduling.
func generateSprites(opts Options, squares []Square) ([]*Sprite, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	seeds := spriteSeeds(opts.Seed, len(squares))
	sprites := make([]*Sprite, len(squares))
	inbox := make(chan int)

	g, ctx := errgroup.WithContext(opts.Context)
	g.Go(func() error {
		defer close(inbox)
		for i := range squares {
			select {
			case inbox <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range inbox {
				gen := &Generator{
					Palette:     opts.palette(),
					Rand:        rand.New(rand.NewSource(seeds[i])),
					MaxAttempts: opts.MaxAttempts,
					Logger:      opts.Logger,
				}

				s, err := gen.Generate(squares[i], opts.InvaderWidth)
				if err != nil {
					return err
				}
				sprites[i] = s
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return sprites, nil
}
