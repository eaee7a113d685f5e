package assets

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// TGA image type constants.
const (
	tgaTypeUncompressed = 2  // Uncompressed true-color
	tgaTypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

// ErrTGAUnsupported is returned for TGA variants the decoder does not handle.
var ErrTGAUnsupported = errors.New("unsupported TGA variant")

// DecodeTGA decodes a true-color TGA image, uncompressed (type 2) or RLE (type 10).
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, errors.New("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, errors.Wrap(ErrTGAUnsupported, "color-mapped")
	}
	if imageType != tgaTypeUncompressed && imageType != tgaTypeRLE {
		return nil, errors.Wrapf(ErrTGAUnsupported, "image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, errors.Wrapf(ErrTGAUnsupported, "bit depth %d", bpp)
	}
	if width == 0 || height == 0 {
		return nil, errors.New("TGA has zero size")
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errors.New("TGA data truncated")
	}

	d := tgaDecoder{
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		width:       width,
		height:      height,
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == tgaTypeUncompressed {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.NRGBA
	src         []byte
	pos         int
	width       int
	height      int
	bpp         int
	topToBottom bool
}

// pixel reads one BGR(A) pixel at the cursor.
func (d *tgaDecoder) pixel() (color.NRGBA, bool) {
	if d.pos+d.bpp > len(d.src) {
		return color.NRGBA{}, false
	}
	p := d.src[d.pos : d.pos+d.bpp]
	d.pos += d.bpp
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	return c, true
}

// put stores the n-th pixel in file order, honoring the origin bit.
func (d *tgaDecoder) put(n int, c color.NRGBA) {
	x := n % d.width
	y := n / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
}

func (d *tgaDecoder) raw() error {
	total := d.width * d.height
	if len(d.src) < total*d.bpp {
		return errors.New("TGA pixel data truncated")
	}
	for n := 0; n < total; n++ {
		c, _ := d.pixel()
		d.put(n, c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	total := d.width * d.height
	n := 0
	for n < total {
		if d.pos >= len(d.src) {
			return errors.New("TGA RLE data truncated")
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, ok := d.pixel()
			if !ok {
				return errors.New("TGA RLE data truncated")
			}
			for i := 0; i < count && n < total; i++ {
				d.put(n, c)
				n++
			}
			continue
		}

		for i := 0; i < count && n < total; i++ {
			c, ok := d.pixel()
			if !ok {
				return errors.New("TGA RLE data truncated")
			}
			d.put(n, c)
			n++
		}
	}
	return nil
}
