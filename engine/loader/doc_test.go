package loader

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

// docBuilder assembles a glTF document backed by a single in-memory buffer.
type docBuilder struct {
	doc *gltf.Document
	buf []byte
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0"},
		Buffers: []*gltf.Buffer{{}},
	}}
}

func (b *docBuilder) view(data []byte, stride int) int {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(b.buf),
		ByteLength: len(data),
		ByteStride: stride,
	})
	b.buf = append(b.buf, data...)
	return len(b.doc.BufferViews) - 1
}

func (b *docBuilder) accessor(acc *gltf.Accessor) int {
	b.doc.Accessors = append(b.doc.Accessors, acc)
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) positions(vs ...[3]float32) int {
	data := make([]byte, 0, len(vs)*12)
	lo := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range vs {
		for c := 0; c < 3; c++ {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v[c]))
			lo[c] = min(lo[c], float64(v[c]))
			hi[c] = max(hi[c], float64(v[c]))
		}
	}
	return b.accessor(&gltf.Accessor{
		BufferView:    ptr(b.view(data, 0)),
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         len(vs),
		Min:           lo,
		Max:           hi,
	})
}

func (b *docBuilder) vec3s(vs ...[3]float32) int {
	data := make([]byte, 0, len(vs)*12)
	for _, v := range vs {
		for c := 0; c < 3; c++ {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v[c]))
		}
	}
	return b.accessor(&gltf.Accessor{BufferView: ptr(b.view(data, 0)), ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3, Count: len(vs)})
}

func (b *docBuilder) vec2s(vs ...[2]float32) int {
	data := make([]byte, 0, len(vs)*8)
	for _, v := range vs {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v[0]))
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v[1]))
	}
	return b.accessor(&gltf.Accessor{BufferView: ptr(b.view(data, 0)), ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec2, Count: len(vs)})
}

func (b *docBuilder) indices(ct gltf.ComponentType, idx ...uint32) int {
	var data []byte
	for _, i := range idx {
		switch ct {
		case gltf.ComponentUbyte:
			data = append(data, byte(i))
		case gltf.ComponentUshort:
			data = binary.LittleEndian.AppendUint16(data, uint16(i))
		default:
			data = binary.LittleEndian.AppendUint32(data, i)
		}
	}
	return b.accessor(&gltf.Accessor{BufferView: ptr(b.view(data, 0)), ComponentType: ct, Type: gltf.AccessorScalar, Count: len(idx)})
}

// triangle adds a single-triangle primitive description using fresh accessors.
func (b *docBuilder) triangle(material *int, indexType gltf.ComponentType) *gltf.Primitive {
	prim := &gltf.Primitive{
		Attributes: map[string]int{
			"POSITION":   b.positions([3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}),
			"NORMAL":     b.vec3s([3]float32{0, 0, 1}, [3]float32{0, 0, 1}, [3]float32{0, 0, 1}),
			"TEXCOORD_0": b.vec2s([2]float32{0, 0}, [2]float32{1, 0}, [2]float32{0, 1}),
		},
		Indices:  ptr(b.indices(indexType, 0, 1, 2)),
		Material: material,
	}
	return prim
}

func (b *docBuilder) pngImage(name string, c color.RGBA, size int) int {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	b.doc.Images = append(b.doc.Images, &gltf.Image{
		Name:       name,
		MimeType:   "image/png",
		BufferView: ptr(b.view(buf.Bytes(), 0)),
	})
	return len(b.doc.Images) - 1
}

func (b *docBuilder) finish() *gltf.Document {
	b.doc.Buffers[0].Data = b.buf
	b.doc.Buffers[0].ByteLength = len(b.buf)
	return b.doc
}

func requireFloatsNear(t *testing.T, want, got []float32) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-5, "element %d", i)
	}
}
