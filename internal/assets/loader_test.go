package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func rgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestDecodeFormats(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	src := solid(2, 2, red)

	var bmpBuf, tiffBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, src))
	require.NoError(t, tiff.Encode(&tiffBuf, src, nil))

	tests := []struct {
		name   string
		file   string
		data   []byte
		format string
	}{
		{"png", "a.png", encodePNG(t, src), FormatPNG},
		{"png with wrong extension", "a.jpg", encodePNG(t, src), FormatPNG},
		{"bmp", "a.bmp", bmpBuf.Bytes(), FormatBMP},
		{"tiff", "a.tiff", tiffBuf.Bytes(), FormatTIFF},
		{"tga", "a.tga", tgaUncompressed(2, 2, 24, true, [3]byte{0, 0, 255}), FormatTGA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data, tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.format, img.Format)
			assert.Equal(t, tt.file, img.Name)

			w, h := img.Size()
			assert.Equal(t, 2, w)
			assert.Equal(t, 2, h)

			c := rgbaAt(img.Pixels, 1, 1)
			assert.Equal(t, uint8(255), c.R)
			assert.Equal(t, uint8(0), c.G)
			assert.Equal(t, uint8(0), c.B)
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"), "notes.txt")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = Decode(nil, "empty.png")
	assert.True(t, errors.Is(err, ErrEmptyImage))
}

func TestDecodeCorruptPNG(t *testing.T) {
	data := encodePNG(t, solid(4, 4, color.NRGBA{A: 255}))
	_, err := Decode(data[:len(data)/2], "broken.png")
	assert.Error(t, err)
}

func TestLoaderCaches(t *testing.T) {
	path := writeFile(t, "top.png", encodePNG(t, solid(2, 2, color.NRGBA{G: 255, A: 255})))

	l := NewLoader(0)
	first, err := l.Load(path)
	require.NoError(t, err)
	second, err := l.Load(path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	hits, misses := l.Cache().Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	l.Cache().Clear()
	hits, misses = l.Cache().Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoader(0)
	_, err := l.Load(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Failures are not cached
	_, misses := l.Cache().Stats()
	assert.Equal(t, 1, misses)
}

func TestLoaderMaxSize(t *testing.T) {
	path := writeFile(t, "big.png", encodePNG(t, solid(64, 32, color.NRGBA{B: 255, A: 255})))

	l := NewLoader(16)
	img, err := l.Load(path)
	require.NoError(t, err)

	w, h := img.Size()
	assert.Equal(t, 16, w)
	assert.Equal(t, 8, h)
	assert.Equal(t, uint8(255), rgbaAt(img.Pixels, 3, 3).B)
}

func TestFitKeepsSmallImages(t *testing.T) {
	src := solid(8, 8, color.NRGBA{A: 255})
	assert.Same(t, image.Image(src), fit(src, 8))

	tall := fit(solid(10, 400, color.NRGBA{A: 255}), 20)
	assert.Equal(t, 1, tall.Bounds().Dx())
	assert.Equal(t, 20, tall.Bounds().Dy())
}
