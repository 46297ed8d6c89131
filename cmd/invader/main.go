package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/1lann/imagequant"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tmpim/invader"
	"github.com/tmpim/invader/catalog"
	"github.com/tmpim/invader/stream"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
)

const (
	defaultDB     = "invader.db"
	defaultOutput = "Outputs"
	defaultLUT    = "default"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// loadLUT returns the LUT named by --lut along with the name to record. The
// default LUT is built in memory; an explicit path must load.
func loadLUT(c *cli.Context) (*invader.LUT, string, error) {
	path := c.String("lut")
	if path == "" || path == defaultLUT {
		return invader.DefaultLUT(), defaultLUT, nil
	}

	lut, err := invader.LoadLUT(path)
	if err != nil {
		return nil, "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	return lut, abs, nil
}

func renderOptions(c *cli.Context) (invader.Options, string, error) {
	opts := invader.DefaultOptions()
	opts.Logger = newLogger(c)
	opts.Workers = c.Int("workers")
	opts.MaxAttempts = c.Int("max-attempts")
	opts.InvaderWidth = c.Int("width")
	opts.PictureWidth = c.Int("picture")
	opts.Scale = c.Int("scale")
	if c.IsSet("count") {
		opts.InvaderCount = c.Int("count")
	}

	opts.Seed = time.Now().UnixNano()
	if c.IsSet("seed") {
		opts.Seed = c.Int64("seed")
	}

	var err error
	if opts.Background, err = invader.ParseHex(c.String("background")); err != nil {
		return opts, "", err
	}
	if opts.Detail, err = invader.ParseHex(c.String("detail")); err != nil {
		return opts, "", err
	}

	if opts.Palette, err = paletteSource(c.String("palette"), opts.Background); err != nil {
		return opts, "", err
	}

	lut, name, err := loadLUT(c)
	if err != nil {
		return opts, "", err
	}
	opts.LUT = lut

	return opts, name, nil
}

func paletteSource(name string, bg color.RGBA) (invader.PaletteSource, error) {
	switch name {
	case "random":
		return invader.RandomPalette{Background: bg}, nil
	case "fixed":
		return invader.FixedPalette{Background: bg}, nil
	default:
		return nil, fmt.Errorf("unknown palette %q, expected random or fixed", name)
	}
}

func openCatalog(c *cli.Context) (*catalog.Catalog, error) {
	return catalog.Open(c.String("db"))
}

func saveAndRecord(c *cli.Context, result *invader.Result, entry catalog.Entry, prefix string) error {
	path, err := invader.Save(result.Image, c.String("output"), prefix, c.String("format"), time.Now())
	if err != nil {
		return err
	}
	log.Printf("Saved %s (seed %d).", path, result.Seed)

	if c.Bool("no-record") {
		return nil
	}

	db, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer db.Close()

	entry.Path = path
	id, err := db.Record(entry)
	if err != nil {
		return err
	}
	log.Printf("Recorded as #%d, run `invader replay %d` to render it again.", id, id)
	return nil
}

func renderCommand(kind string) cli.ActionFunc {
	return func(c *cli.Context) error {
		opts, lutName, err := renderOptions(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		start := time.Now()

		var result *invader.Result
		var prefix string
		switch kind {
		case catalog.KindSingle:
			result, err = invader.RenderSingle(opts)
			prefix = "Single"
		default:
			result, err = invader.RenderGrid(opts)
			prefix = fmt.Sprintf("Example-%dx%d-%d-%d", opts.InvaderWidth,
				opts.InvaderWidth, opts.InvaderCount, opts.PictureWidth)
		}
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		log.Println("Rendered in " + time.Since(start).String() + ".")

		entry := catalog.Entry{
			Kind:         kind,
			Seed:         result.Seed,
			InvaderWidth: opts.InvaderWidth,
			InvaderCount: opts.InvaderCount,
			PictureWidth: opts.PictureWidth,
			Scale:        opts.Scale,
			MaxAttempts:  opts.MaxAttempts,
			Palette:      c.String("palette"),
			Background:   c.String("background"),
			Detail:       c.String("detail"),
			LUT:          lutName,
		}
		if kind == catalog.KindSingle {
			entry.InvaderCount = 1
		}

		if err := saveAndRecord(c, result, entry, prefix); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func main() {
	log.SetFlags(0)

	app := cli.NewApp()

	app.Name = "invader"
	app.Usage = "Procedural pixel invaders, ordered dithered through a color LUT"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	renderFlags := []cli.Flag{
		&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Value: 7, Usage: "cells along a sprite's side"},
		&cli.IntFlag{Name: "picture", Value: 256, Usage: "picture width in pixels before scaling"},
		&cli.IntFlag{Name: "scale", Value: 7, Usage: "nearest neighbour enlargement factor"},
		&cli.Int64Flag{Name: "seed", EnvVars: []string{"INVADER_SEED"}, Usage: "random seed (default: current time)"},
		&cli.StringFlag{Name: "palette", Value: "random", Usage: "sprite palette, random or fixed"},
		&cli.StringFlag{Name: "background", Value: "#201616", Usage: "background color"},
		&cli.StringFlag{Name: "detail", Value: "#323232", Usage: "backdrop ring color"},
		&cli.IntFlag{Name: "max-attempts", Value: invader.DefaultMaxAttempts, Usage: "palettes drawn per sprite before giving up"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, EnvVars: []string{"INVADER_OUTPUT"}, Value: defaultOutput, Usage: "output directory"},
		&cli.StringFlag{Name: "format", Value: "png", Usage: "output format: png, jpeg or bmp"},
		&cli.BoolFlag{Name: "no-record", Usage: "do not record the render in the database"},
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "lut",
			EnvVars: []string{"INVADER_LUT"},
			Value:   defaultLUT,
			Usage:   "path to the LUT image, or \"default\" for the built-in palette",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"INVADER_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "worker goroutines (default: GOMAXPROCS)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:   "single",
			Usage:  "Render one large invader",
			Flags:  renderFlags,
			Action: renderCommand(catalog.KindSingle),
		},
		{
			Name:  "grid",
			Usage: "Render a grid of invaders",
			Flags: append([]cli.Flag{
				&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 4, Usage: "invaders along the grid's side"},
			}, renderFlags...),
			Action: renderCommand(catalog.KindGrid),
		},
		{
			Name:      "dither",
			Usage:     "Dither an existing image through the LUT",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "dithered.png", Usage: "output file"},
				&cli.StringFlag{Name: "format", Value: "png", Usage: "output format: png, jpeg or bmp"},
				&cli.IntFlag{Name: "scale", Value: 1, Usage: "nearest neighbour enlargement factor"},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				if c.Int("scale") < 1 {
					return cli.NewExitError("scale must be at least 1", 1)
				}

				lut, _, err := loadLUT(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				img, err := decodeFile(c.Args().First())
				if err != nil {
					return cli.NewExitError(fmt.Errorf("failed to decode image: %w", err), 1)
				}

				log.Println("Image loaded, dithering...")

				dithered, err := invader.Dither(context.Background(), img, lut, c.Int("workers"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				out := image.Image(dithered)
				if c.Int("scale") > 1 {
					out = invader.ScaleUp(dithered, c.Int("scale"))
				}

				f, err := os.Create(c.String("out"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := invader.Encode(f, out, c.String("format")); err != nil {
					return cli.NewExitError(err, 1)
				}

				log.Printf("Dithered image written to %q.", c.String("out"))
				return nil
			},
		},
		{
			Name:      "lut",
			Usage:     "Build a LUT image from the built-in palette or a reference image",
			ArgsUsage: "[REFERENCE_IMAGE]",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "size", Value: invader.DefaultLUTSize, Usage: "cube resolution per channel"},
				&cli.IntFlag{Name: "colors", Value: 8, Usage: "colors extracted from the reference image"},
				&cli.StringFlag{Name: "quantizer", Value: string(invader.QuantizerMedianCut), Usage: "mediancut or imagequant"},
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "lut.png", Usage: "output file"},
			},
			Action: func(c *cli.Context) error {
				palette, err := lutPalette(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				lut, err := invader.BuildLUT(palette, c.Int("size"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				f, err := os.Create(c.String("out"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := invader.EncodeLUT(f, lut); err != nil {
					return cli.NewExitError(err, 1)
				}

				log.Printf("LUT of size %d for %d colors written to %q.", lut.Size(), len(palette), c.String("out"))
				return nil
			},
		},
		{
			Name:      "palette",
			Usage:     "Print the palette extracted from an image",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "colors", Value: 8, Usage: "number of colors"},
				&cli.StringFlag{Name: "quantizer", Value: string(invader.QuantizerMedianCut), Usage: "mediancut or imagequant"},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				palette, err := lutPalette(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, col := range palette {
					r, g, b, _ := col.RGBA()
					fmt.Println(colorful.Color{
						R: float64(r) / 0xffff,
						G: float64(g) / 0xffff,
						B: float64(b) / 0xffff,
					}.Hex())
				}
				return nil
			},
		},
		{
			Name:  "license",
			Usage: "Show licensing disclaimers of the imagequant quantizer",
			Action: func(c *cli.Context) error {
				log.Println("The imagequant quantizer links libimagequant, which is under a different")
				log.Println("license, the information of which can be found below.")
				log.Println(imagequant.License())
				return nil
			},
		},
		{
			Name:  "history",
			Usage: "List recorded renders",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum number of entries"},
			},
			Action: func(c *cli.Context) error {
				db, err := openCatalog(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				entries, err := db.List(c.Int("limit"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, e := range entries {
					fmt.Printf("#%d\t%s\t%s\t%dx%d\tcount=%d\tseed=%d\t%s\n",
						e.ID, e.Created.Format(time.RFC3339), e.Kind, e.InvaderWidth,
						e.InvaderWidth, e.InvaderCount, e.Seed, e.Path)
				}
				return nil
			},
		},
		{
			Name:      "replay",
			Usage:     "Render a recorded picture again",
			ArgsUsage: "ID",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "output", Aliases: []string{"o"}, EnvVars: []string{"INVADER_OUTPUT"}, Value: defaultOutput, Usage: "output directory"},
				&cli.StringFlag{Name: "format", Value: "png", Usage: "output format: png, jpeg or bmp"},
			},
			Action: replay,
		},
		{
			Name:  "serve",
			Usage: "Serve invaders over HTTP and stream them over websockets",
			Flags: append([]cli.Flag{
				&cli.StringFlag{Name: "listen", Value: ":9999", Usage: "listen address"},
				&cli.DurationFlag{Name: "interval", Value: stream.DefaultInterval, Usage: "time between streamed invaders"},
				&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 4, Usage: "default invaders along a grid's side"},
			}, renderFlags...),
			Action: func(c *cli.Context) error {
				opts, _, err := renderOptions(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				mgr := stream.NewManager(opts, c.Duration("interval"), newLogger(c))
				defer mgr.Close()

				if _, err := mgr.Play(); err != nil {
					return cli.NewExitError(err, 1)
				}

				log.Println("invader stream: listening on", c.String("listen"))
				return stream.NewServer(mgr).Start(c.String("listen"))
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// lutPalette extracts the palette of the image argument, if any, or returns
// the built-in one.
func lutPalette(c *cli.Context) (color.Palette, error) {
	if c.NArg() < 1 {
		return invader.ColorPalette(invader.CitrinkPalette), nil
	}

	img, err := decodeFile(c.Args().First())
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return invader.ExtractPalette(img, c.Int("colors"), invader.Quantizer(c.String("quantizer")))
}

func replay(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid id %q", c.Args().First()), 1)
	}

	db, err := openCatalog(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()

	entry, err := db.Get(id)
	if errors.Is(err, catalog.ErrNotFound) {
		return cli.NewExitError(fmt.Sprintf("no render #%d", id), 1)
	} else if err != nil {
		return cli.NewExitError(err, 1)
	}

	opts := invader.DefaultOptions()
	opts.Logger = newLogger(c)
	opts.Workers = c.Int("workers")
	opts.Seed = entry.Seed
	opts.InvaderWidth = entry.InvaderWidth
	opts.InvaderCount = entry.InvaderCount
	opts.PictureWidth = entry.PictureWidth
	opts.Scale = entry.Scale
	opts.MaxAttempts = entry.MaxAttempts

	if opts.Background, err = invader.ParseHex(entry.Background); err != nil {
		return cli.NewExitError(err, 1)
	}
	if opts.Detail, err = invader.ParseHex(entry.Detail); err != nil {
		return cli.NewExitError(err, 1)
	}
	if opts.Palette, err = paletteSource(entry.Palette, opts.Background); err != nil {
		return cli.NewExitError(err, 1)
	}

	if entry.LUT == defaultLUT {
		opts.LUT = invader.DefaultLUT()
	} else if opts.LUT, err = invader.LoadLUT(entry.LUT); err != nil {
		return cli.NewExitError(err, 1)
	}

	var result *invader.Result
	if entry.Kind == catalog.KindSingle {
		result, err = invader.RenderSingle(opts)
	} else {
		result, err = invader.RenderGrid(opts)
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	path, err := invader.Save(result.Image, c.String("output"), "Replay-"+strconv.FormatInt(id, 10), c.String("format"), time.Now())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	log.Printf("Render #%d written to %s.", id, path)
	return nil
}
