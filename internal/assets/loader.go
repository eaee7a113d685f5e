// Package assets handles texture image loading and caching.
package assets

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Faultbox/autotex/internal/logger"
)

// Image formats the loader understands.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatWebP = "webp"
	FormatTIFF = "tiff"
	FormatTGA  = "tga"
)

var (
	// ErrUnknownFormat is returned when neither the content nor the extension identify the image.
	ErrUnknownFormat = errors.New("unknown image format")
	// ErrEmptyImage is returned for files with no bytes or decoded images with no pixels.
	ErrEmptyImage = errors.New("empty image")
)

// Image is a decoded texture.
type Image struct {
	Name   string // file name without directory
	Path   string
	Format string
	Pixels image.Image
}

// Size returns the pixel dimensions.
func (img *Image) Size() (int, int) {
	b := img.Pixels.Bounds()
	return b.Dx(), b.Dy()
}

// Loader reads and decodes texture images from disk.
type Loader struct {
	// MaxSize downscales images whose longest edge exceeds it. 0 disables resizing.
	MaxSize int

	cache *Cache
}

// NewLoader creates a loader with an empty cache.
func NewLoader(maxSize int) *Loader {
	return &Loader{
		MaxSize: maxSize,
		cache:   NewCache(),
	}
}

// Load reads the image at path, decoding it once and serving repeats from cache.
func (l *Loader) Load(path string) (*Image, error) {
	if img, ok := l.cache.Get(path); ok {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading image %s", path)
	}

	img, err := Decode(data, path)
	if err != nil {
		return nil, errors.WithMessagef(err, "decoding image %s", path)
	}

	if l.MaxSize > 0 {
		img.Pixels = fit(img.Pixels, l.MaxSize)
	}

	w, h := img.Size()
	logger.Debug("loaded image",
		zap.String("path", path),
		zap.String("format", img.Format),
		zap.Int("width", w),
		zap.Int("height", h))

	l.cache.Set(path, img)
	return img, nil
}

// Cache returns the loader's image cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Decode identifies the format of data and decodes it. name is used for the
// extension fallback and for Image.Name.
func Decode(data []byte, name string) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	format := sniff(data, name)
	var (
		pix image.Image
		err error
	)
	r := bytes.NewReader(data)
	switch format {
	case FormatPNG:
		pix, err = png.Decode(r)
	case FormatJPEG:
		pix, err = jpeg.Decode(r)
	case FormatGIF:
		pix, err = gif.Decode(r)
	case FormatBMP:
		pix, err = bmp.Decode(r)
	case FormatWebP:
		pix, err = webp.Decode(r)
	case FormatTIFF:
		pix, err = tiff.Decode(r)
	case FormatTGA:
		pix, err = DecodeTGA(data)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, errors.Wrap(err, format)
	}
	if pix.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	return &Image{
		Name:   filepath.Base(name),
		Path:   name,
		Format: format,
		Pixels: pix,
	}, nil
}

// sniff matches magic numbers first. TGA has no signature so it is
// recognised by extension only.
func sniff(data []byte, name string) string {
	kind, err := filetype.Match(data)
	if err == nil && kind != filetype.Unknown {
		switch kind.Extension {
		case "png":
			return FormatPNG
		case "jpg":
			return FormatJPEG
		case "gif":
			return FormatGIF
		case "bmp":
			return FormatBMP
		case "webp":
			return FormatWebP
		case "tif":
			return FormatTIFF
		}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".tga":
		return FormatTGA
	}
	return ""
}

// fit scales img down so its longest edge is at most limit, keeping aspect.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	nw, nh := limit, limit
	if w > h {
		nh = h * limit / w
	} else {
		nw = w * limit / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return transform.Resize(img, nw, nh, transform.Linear)
}

// Cache is a simple in-memory cache for decoded images.
type Cache struct {
	data map[string]*Image
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*Image),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, img *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = img
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Image)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
