package invader

import (
	"fmt"
	"image"
	"image/color"

	"github.com/1lann/imagequant"
	"github.com/ericpauley/go-quantize/quantize"
)

// Quantizer names a palette extraction method.
type Quantizer string

// Available quantizers.
const (
	QuantizerMedianCut  Quantizer = "mediancut"
	QuantizerImagequant Quantizer = "imagequant"
)

// ExtractPalette reduces the colors of ref to at most n with the given
// method. The result can be passed to BuildLUT.
func ExtractPalette(ref image.Image, n int, method Quantizer) (color.Palette, error) {
	if n < 1 || n > 256 {
		return nil, fmt.Errorf("invader: ExtractPalette: %d colors out of range", n)
	}

	switch method {
	case QuantizerMedianCut, "":
		q := quantize.MedianCutQuantizer{}
		return q.Quantize(make(color.Palette, 0, n), ref), nil
	case QuantizerImagequant:
		return imagequantPalette(ref, n)
	default:
		return nil, fmt.Errorf("invader: ExtractPalette: unknown quantizer %q", method)
	}
}

func imagequantPalette(ref image.Image, n int) (color.Palette, error) {
	attr, err := imagequant.NewAttributes()
	if err != nil {
		return nil, fmt.Errorf("NewAttributes: %s", err.Error())
	}
	defer attr.Release()

	err = attr.SetSpeed(3)
	if err != nil {
		return nil, fmt.Errorf("SetSpeed: %s", err.Error())
	}

	err = attr.SetMaxColors(n)
	if err != nil {
		return nil, fmt.Errorf("SetMaxColors: %s", err.Error())
	}

	quant, err := imagequant.NewImage(attr, imagequant.GoImageToRgba32(ref),
		ref.Bounds().Dx(), ref.Bounds().Dy(), 0)
	if err != nil {
		return nil, fmt.Errorf("NewImage: %s", err.Error())
	}
	defer quant.Release()

	res, err := quant.Quantize(attr)
	if err != nil {
		return nil, fmt.Errorf("Quantize: %s", err.Error())
	}

	return res.GetPalette(), nil
}
