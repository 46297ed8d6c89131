package invader

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	img := noiseImage(12, 10, 5)
	now := time.Date(2020, 3, 14, 15, 9, 26, 535000000, time.UTC)

	for _, format := range []string{"png", "jpeg", "bmp"} {
		t.Run(format, func(t *testing.T) {
			path, err := Save(img, dir, "Single", format, now)
			require.NoError(t, err)

			ext, _ := extension(format)
			assert.Equal(t, filepath.Join(dir, "Single-20200314-150926.535"+ext), path)

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			decoded, _, err := image.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), decoded.Bounds())
		})
	}
}

func TestSaveUnknownFormat(t *testing.T) {
	_, err := Save(noiseImage(2, 2, 1), t.TempDir(), "x", "gif", time.Now())
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	err = Encode(new(bytes.Buffer), noiseImage(2, 2, 1), "tiff")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
