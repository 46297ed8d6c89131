package invader

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
)

// ErrUnknownFormat is returned for output formats other than png, jpeg and
// bmp.
var ErrUnknownFormat = errors.New("invader: unknown image format")

const timestampLayout = "20060102-150405.000"

// Encode writes img to w in the named format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "", "png":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func extension(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return ".png", nil
	case "jpg", "jpeg":
		return ".jpg", nil
	case "bmp":
		return ".bmp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Save writes img into dir as <prefix>-<timestamp>.<ext>, creating dir if
// needed, and returns the path written.
func Save(img image.Image, dir, prefix, format string, now time.Time) (string, error) {
	ext, err := extension(format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("invader: Save: %w", err)
	}

	path := filepath.Join(dir, prefix+"-"+now.Format(timestampLayout)+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("invader: Save: %w", err)
	}

	if err := Encode(f, img, format); err != nil {
		f.Close()
		return "", fmt.Errorf("invader: Save: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("invader: Save: %w", err)
	}

	return path, nil
}
