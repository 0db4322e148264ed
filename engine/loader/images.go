package loader

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// ErrNoImageSource is returned when a glTF image has neither a URI nor a buffer view.
var ErrNoImageSource = errors.New("image has no data source")

// imageSource reads the encoded bytes of a glTF image: an external file relative to folder,
// a base64 data URI, or a buffer view.
//
// Parameters:
//   - doc: the glTF document with loaded buffers
//   - img: the image
//   - folder: the directory containing the asset
//
// Returns:
//   - []byte: the encoded image
//   - error: ErrNoImageSource, ErrAccessorOutOfRange or a read error
func imageSource(doc *gltf.Document, img *gltf.Image, folder string) ([]byte, error) {
	switch {
	case img.URI != "" && img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		uri, err := url.PathUnescape(img.URI)
		if err != nil {
			uri = img.URI
		}
		return os.ReadFile(filepath.Join(folder, filepath.FromSlash(uri)))
	case img.BufferView != nil:
		i := *img.BufferView
		if i < 0 || i >= len(doc.BufferViews) || doc.BufferViews[i] == nil {
			return nil, fmt.Errorf("buffer view %d: %w", i, ErrAccessorOutOfRange)
		}
		bv := doc.BufferViews[i]
		if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) || doc.Buffers[bv.Buffer] == nil {
			return nil, fmt.Errorf("buffer %d: %w", bv.Buffer, ErrAccessorOutOfRange)
		}
		data := doc.Buffers[bv.Buffer].Data
		if bv.ByteOffset < 0 || bv.ByteOffset+bv.ByteLength > len(data) {
			return nil, fmt.Errorf("buffer view %d: %w", i, ErrAccessorOutOfRange)
		}
		return data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
	}
	return nil, ErrNoImageSource
}

// imageName returns a log-friendly identifier for image i.
func imageName(img *gltf.Image, i int) string {
	switch {
	case img.Name != "":
		return img.Name
	case img.URI != "" && !img.IsEmbeddedResource():
		return img.URI
	}
	return "Image " + strconv.Itoa(i)
}

// loadImages decodes and uploads every image some material samples, in the format colorSpaceTable
// chose for it. Reading and decoding runs on the worker pool; images are created on the calling
// goroutine in index order. Unused images and images that fail to load are nil, and failures are
// logged.
//
// Parameters:
//   - device: the device creating the images
//   - pool: the worker pool decoding images
//   - doc: the glTF document with loaded buffers
//   - folder: the directory containing the asset
//   - formats: the per-image formats from colorSpaceTable
//   - log: the asset logger
//
// Returns:
//   - []gpu.Image: one entry per document image, nil when absent
func loadImages(device gpu.Device, pool worker.DynamicWorkerPool, doc *gltf.Document, folder string, formats []gpu.Format, log *zap.Logger) []gpu.Image {
	decoded := make([]*common.ImportedImage, len(doc.Images))
	failures := make([]error, len(doc.Images))

	var wg sync.WaitGroup
	for i, img := range doc.Images {
		if img == nil || formats[i] == gpu.FormatUndefined {
			continue
		}

		wg.Add(1)
		task := func() (any, error) {
			defer wg.Done()
			data, err := imageSource(doc, img, folder)
			if err != nil {
				failures[i] = err
				return nil, err
			}
			imported := &common.ImportedImage{Name: imageName(img, i), Data: data, MimeType: img.MimeType}
			if err := imported.Decode(true); err != nil {
				failures[i] = err
				return nil, err
			}
			decoded[i] = imported
			return nil, nil
		}

		if pool == nil {
			task()
			continue
		}
		pool.SubmitTask(worker.Task{ID: i, Do: task})
	}
	wg.Wait()

	images := make([]gpu.Image, len(doc.Images))
	for i, d := range decoded {
		if failures[i] != nil {
			log.Error("failed to load image", zap.String("image", imageName(doc.Images[i], i)), zap.Error(failures[i]))
			continue
		}
		if d == nil {
			continue
		}

		img, err := device.CreateImage(gpu.ImageDesc{
			Label:     d.Name,
			Width:     d.Width,
			Height:    d.Height,
			Layers:    1,
			MipLevels: uint32(len(d.Mips)),
			Format:    formats[i],
			Usage:     gpu.ImageUsageSampled | gpu.ImageUsageTransferDst,
			Kind:      gpu.ImageKind2D,
		}, d.Mips...)
		if err != nil {
			log.Error("failed to create image", zap.String("image", d.Name), zap.Error(err))
			continue
		}
		images[i] = img
	}
	return images
}
