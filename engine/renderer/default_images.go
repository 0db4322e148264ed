package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/light"
)

// defaultImageSize is the edge length of every placeholder image, the smallest size every backend
// accepts for sampled images.
const defaultImageSize = 4

// Packed 0xAABBGGRR placeholder colors.
const (
	colorBlack  uint32 = 0xff000000
	colorGray   uint32 = 0xff808080
	colorNormal uint32 = 0xffff8080
	colorWhite  uint32 = 0xffffffff
)

// DefaultImages are the placeholders bound in place of missing textures.
type DefaultImages struct {
	Black2D  gpu.Image
	Gray2D   gpu.Image
	Normal2D gpu.Image
	White2D  gpu.Image

	BlackCube gpu.Image
	GrayCube  gpu.Image
	WhiteCube gpu.Image

	// WhiteCSM is a depth array cleared to 1.0, bound as the shadow map when nothing casts shadows
	// so every fragment reads as lit.
	WhiteCSM gpu.Image
}

// newDefaultImages creates every placeholder. On failure the images created so far are released.
func newDefaultImages(device gpu.Device) (DefaultImages, error) {
	var d DefaultImages
	specs := []struct {
		target *gpu.Image
		label  string
		color  uint32
		kind   gpu.ImageKind
	}{
		{&d.Black2D, "Black2D", colorBlack, gpu.ImageKind2D},
		{&d.BlackCube, "BlackCube", colorBlack, gpu.ImageKindCube},
		{&d.Gray2D, "Gray2D", colorGray, gpu.ImageKind2D},
		{&d.GrayCube, "GrayCube", colorGray, gpu.ImageKindCube},
		{&d.Normal2D, "Normal2D", colorNormal, gpu.ImageKind2D},
		{&d.White2D, "White2D", colorWhite, gpu.ImageKind2D},
		{&d.WhiteCube, "WhiteCube", colorWhite, gpu.ImageKindCube},
	}

	pixels := func(c uint32) []byte { return common.SolidPixels(defaultImageSize, defaultImageSize, c) }
	for _, spec := range specs {
		layers := uint32(1)
		if spec.kind == gpu.ImageKindCube {
			layers = 6
		}
		img, err := device.CreateImage(gpu.ImageDesc{
			Label:     spec.label,
			Width:     defaultImageSize,
			Height:    defaultImageSize,
			Layers:    layers,
			MipLevels: 1,
			Format:    gpu.FormatR8G8B8A8Unorm,
			Usage:     gpu.ImageUsageSampled | gpu.ImageUsageTransferDst,
			Kind:      spec.kind,
		}, pixels(spec.color))
		if err != nil {
			d.release()
			return DefaultImages{}, fmt.Errorf("failed to create default image %s: %w", spec.label, err)
		}
		*spec.target = img
	}

	depth := make([]byte, 4)
	common.PutFloat32(depth, 1)
	csm, err := device.CreateImage(gpu.ImageDesc{
		Label:     "WhiteCSM",
		Width:     defaultImageSize,
		Height:    defaultImageSize,
		Layers:    light.MaxCascades,
		MipLevels: 1,
		Format:    gpu.FormatD32Sfloat,
		Usage:     gpu.ImageUsageSampled | gpu.ImageUsageDepthAttachment,
		Kind:      gpu.ImageKind2DArray,
	}, depth)
	if err != nil {
		d.release()
		return DefaultImages{}, fmt.Errorf("failed to create default image WhiteCSM: %w", err)
	}
	d.WhiteCSM = csm
	return d, nil
}

func (d *DefaultImages) release() {
	for _, img := range []*gpu.Image{
		&d.Black2D, &d.Gray2D, &d.Normal2D, &d.White2D,
		&d.BlackCube, &d.GrayCube, &d.WhiteCube, &d.WhiteCSM,
	} {
		if *img != nil {
			(*img).Release()
			*img = nil
		}
	}
}
