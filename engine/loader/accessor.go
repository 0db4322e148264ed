package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
)

var (
	// ErrAccessorOutOfRange is returned when an accessor, or the data it addresses, lies outside the document.
	ErrAccessorOutOfRange = errors.New("accessor out of range")

	// ErrUnsupportedAccessor is returned when an accessor's layout cannot be read for its role.
	ErrUnsupportedAccessor = errors.New("unsupported accessor")
)

// accessorElements gathers the elements of an accessor into a tightly packed byte slice,
// honouring the buffer view stride. An accessor without a buffer view reads as zeros.
//
// Parameters:
//   - doc: the glTF document with loaded buffers
//   - index: the accessor index
//
// Returns:
//   - []byte: count * elementSize bytes
//   - *gltf.Accessor: the accessor
//   - error: ErrAccessorOutOfRange or ErrUnsupportedAccessor
func accessorElements(doc *gltf.Document, index int) ([]byte, *gltf.Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) || doc.Accessors[index] == nil {
		return nil, nil, fmt.Errorf("accessor %d: %w", index, ErrAccessorOutOfRange)
	}
	acc := doc.Accessors[index]
	if acc.Sparse != nil {
		return nil, acc, fmt.Errorf("accessor %d is sparse: %w", index, ErrUnsupportedAccessor)
	}

	arity := vectorArity(acc.Type)
	if arity == 0 {
		return nil, acc, fmt.Errorf("accessor %d has matrix type: %w", index, ErrUnsupportedAccessor)
	}
	elementSize := componentSize(acc.ComponentType) * arity
	out := make([]byte, acc.Count*elementSize)
	if acc.BufferView == nil {
		return out, acc, nil
	}

	bvIndex := *acc.BufferView
	if bvIndex < 0 || bvIndex >= len(doc.BufferViews) || doc.BufferViews[bvIndex] == nil {
		return nil, acc, fmt.Errorf("accessor %d buffer view %d: %w", index, bvIndex, ErrAccessorOutOfRange)
	}
	bv := doc.BufferViews[bvIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) || doc.Buffers[bv.Buffer] == nil {
		return nil, acc, fmt.Errorf("accessor %d buffer %d: %w", index, bv.Buffer, ErrAccessorOutOfRange)
	}
	data := doc.Buffers[bv.Buffer].Data

	stride := elementSize
	if bv.ByteStride > 0 {
		stride = bv.ByteStride
	}
	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		last := base + (acc.Count-1)*stride + elementSize
		if base < 0 || last > len(data) || last > bv.ByteOffset+bv.ByteLength {
			return nil, acc, fmt.Errorf("accessor %d reads to byte %d of %d: %w", index, last, len(data), ErrAccessorOutOfRange)
		}
	}

	for i := 0; i < acc.Count; i++ {
		src := base + i*stride
		copy(out[i*elementSize:(i+1)*elementSize], data[src:src+elementSize])
	}
	return out, acc, nil
}

// readFloats reads a scalar or vector accessor as float32 values, want components per element.
// Integer components are dequantized: normalized values are mapped to [0, 1] or [-1, 1] as glTF
// defines, unnormalized ones are converted numerically. Missing components read as zero and
// surplus ones are dropped.
//
// Parameters:
//   - doc: the glTF document with loaded buffers
//   - index: the accessor index
//   - want: the number of components per output element
//
// Returns:
//   - []float32: count * want values
//   - *gltf.Accessor: the accessor
//   - error: an accessor read error
func readFloats(doc *gltf.Document, index, want int) ([]float32, *gltf.Accessor, error) {
	raw, acc, err := accessorElements(doc, index)
	if err != nil {
		return nil, acc, err
	}

	arity := vectorArity(acc.Type)
	size := componentSize(acc.ComponentType)
	out := make([]float32, acc.Count*want)
	for i := 0; i < acc.Count; i++ {
		for c := 0; c < min(arity, want); c++ {
			off := (i*arity + c) * size
			out[i*want+c] = dequantize(raw[off:off+size], acc.ComponentType, acc.Normalized)
		}
	}
	return out, acc, nil
}

// dequantize converts one little-endian component to float32.
func dequantize(b []byte, c gltf.ComponentType, normalized bool) float32 {
	switch c {
	case gltf.ComponentByte:
		v := float32(int8(b[0]))
		if normalized {
			return max(v/127, -1)
		}
		return v
	case gltf.ComponentUbyte:
		v := float32(b[0])
		if normalized {
			return v / 255
		}
		return v
	case gltf.ComponentShort:
		v := float32(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return max(v/32767, -1)
		}
		return v
	case gltf.ComponentUshort:
		v := float32(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	case gltf.ComponentUint:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// readIndices reads a scalar index accessor and widens it to uint32.
//
// Parameters:
//   - doc: the glTF document with loaded buffers
//   - index: the accessor index
//
// Returns:
//   - []uint32: the widened indices
//   - error: an accessor read error or ErrUnsupportedAccessor for non-index layouts
func readIndices(doc *gltf.Document, index int) ([]uint32, error) {
	raw, acc, err := accessorElements(doc, index)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorScalar || acc.ComponentType == gltf.ComponentFloat {
		return nil, fmt.Errorf("index accessor %d: %w", index, ErrUnsupportedAccessor)
	}
	return widenIndices(raw, componentSize(acc.ComponentType)), nil
}

// widenIndices converts tightly packed 1, 2 or 4 byte little-endian indices to uint32.
//
// Parameters:
//   - data: the packed source indices
//   - width: the byte width of one source index
//
// Returns:
//   - []uint32: len(data)/width widened indices
func widenIndices(data []byte, width int) []uint32 {
	out := make([]uint32, len(data)/width)
	for i := range out {
		switch width {
		case 1:
			out[i] = uint32(data[i])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		default:
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return out
}
