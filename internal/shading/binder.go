package shading

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/autotex/internal/assets"
	"github.com/Faultbox/autotex/internal/logger"
)

// ImageSource loads decoded images by path.
type ImageSource interface {
	Load(path string) (*assets.Image, error)
}

// Binder wires texture images into material graphs.
type Binder struct {
	images ImageSource
}

// NewBinder creates a binder reading images from src.
func NewBinder(src ImageSource) *Binder {
	return &Binder{images: src}
}

// Bind rebuilds mat as ImageTexture → PrincipledBSDF → MaterialOutput.
// When the image cannot be loaded the material is left with the BSDF and
// output nodes only and the load error is returned.
func (b *Binder) Bind(mat *Material, textureRef string) error {
	if mat == nil {
		return errors.New("bind: nil material")
	}

	mat.Clear()
	bsdf := mat.AddNode(NodePrincipledBSDF)
	out := mat.AddNode(NodeMaterialOutput)
	mat.Connect(bsdf, SocketBSDF, out, SocketSurface)

	img, err := b.images.Load(textureRef)
	if err != nil {
		return errors.WithMessagef(err, "binding texture to material %s", mat.Name)
	}

	tex := mat.AddNode(NodeImageTexture)
	tex.Image = img
	mat.Connect(tex, SocketColor, bsdf, SocketBaseColor)

	w, h := img.Size()
	logger.Info("bound texture",
		zap.String("material", mat.Name),
		zap.String("image", img.Name),
		zap.Int("width", w),
		zap.Int("height", h))
	return nil
}
