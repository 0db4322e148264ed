// package common contains plain helper types and math shared across the engine. They are not interface-wrapped structs,
// just plain structs and functions that express commonly used data.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when an image has no bytes to decode.
var ErrEmptyImage = errors.New("image has no data")

// ErrNotAnImage is returned when sniffed content is not a recognised image type.
var ErrNotAnImage = errors.New("content is not an image")

// ImportedImage holds encoded image bytes extracted from a model file and, after Decode, the RGBA8 mip chain.
type ImportedImage struct {
	// Name is an identifier used in log output (glTF image name or URI).
	Name string

	// Data contains the encoded image bytes (PNG, JPEG, BMP, TIFF or WebP).
	Data []byte

	// MimeType is the declared media type. When empty it is sniffed from Data.
	MimeType string

	// Width and Height of mip level 0, populated by Decode.
	Width, Height uint32

	// Mips holds tightly packed RGBA8 pixels, one entry per mip level, populated by Decode.
	Mips [][]byte
}

// Decode decodes Data into RGBA8 pixels and, when mipmaps is true, builds the full mip chain down to 1x1.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - mipmaps: whether to generate levels below level 0
//
// Returns:
//   - error: ErrEmptyImage, ErrNotAnImage or a wrapped decoder error
func (t *ImportedImage) Decode(mipmaps bool) error {
	if t == nil || len(t.Data) == 0 {
		return ErrEmptyImage
	}

	if t.MimeType == "" {
		kind, err := filetype.Match(t.Data)
		if err != nil || kind == filetype.Unknown || kind.MIME.Type != "image" {
			return fmt.Errorf("%s: %w", t.Name, ErrNotAnImage)
		}
		t.MimeType = kind.MIME.Value
	}

	img, _, err := image.Decode(bytes.NewReader(t.Data))
	if err != nil {
		return fmt.Errorf("failed to decode image %s (%s): %w", t.Name, t.MimeType, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = uint32(bounds.Dx())
	t.Height = uint32(bounds.Dy())
	t.Mips = [][]byte{rgba.Pix}

	if !mipmaps {
		return nil
	}

	w, h := bounds.Dx(), bounds.Dy()
	for level := 1; level < MipLevelCount(t.Width, t.Height); level++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		t.Mips = append(t.Mips, transform.Resize(rgba, w, h, transform.Linear).Pix)
	}
	return nil
}

// MipLevelCount returns the number of mip levels in a full chain for the given size.
func MipLevelCount(width, height uint32) int {
	levels := 1
	for size := max(width, height); size > 1; size >>= 1 {
		levels++
	}
	return levels
}

// SolidPixels returns width*height RGBA8 pixels filled with a packed 0xAABBGGRR color,
// the byte order a little-endian uint32 write of the value produces.
func SolidPixels(width, height uint32, abgr uint32) []byte {
	pixels := make([]byte, int(width*height)*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i+0] = byte(abgr)
		pixels[i+1] = byte(abgr >> 8)
		pixels[i+2] = byte(abgr >> 16)
		pixels[i+3] = byte(abgr >> 24)
	}
	return pixels
}
