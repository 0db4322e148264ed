package material

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
)

// TextureSet owns the images and samplers behind the textures of a group of materials. Every
// material sampling them holds a reference, and they are released with the last one.
type TextureSet struct {
	Images   []gpu.Image
	Samplers []gpu.Sampler

	refs atomic.Int32
}

// NewTextureSet takes ownership of images and samplers. Nil entries are allowed. The returned set
// holds one reference.
//
// Parameters:
//   - images: the images the set releases
//   - samplers: the samplers the set releases
//
// Returns:
//   - *TextureSet: the new set
func NewTextureSet(images []gpu.Image, samplers []gpu.Sampler) *TextureSet {
	t := &TextureSet{Images: images, Samplers: samplers}
	t.refs.Store(1)
	return t
}

// Retain adds a reference and returns the set for chaining.
func (t *TextureSet) Retain() *TextureSet {
	t.refs.Add(1)
	return t
}

// Release drops a reference. Images and samplers are released with the last one.
func (t *TextureSet) Release() {
	if t.refs.Add(-1) > 0 {
		return
	}
	for _, img := range t.Images {
		if img != nil {
			img.Release()
		}
	}
	for _, s := range t.Samplers {
		if s != nil {
			s.Release()
		}
	}
	t.Images, t.Samplers = nil, nil
}

// References returns the current reference count.
func (t *TextureSet) References() int {
	return int(t.refs.Load())
}
