package loader

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	gltf "github.com/qmuntal/gltf"
)

// accessorResolver turns accessor descriptors into tightly packed typed
// arrays. It reads exclusively from the scene's own buffer store, never
// from the decoder's state, so external and embedded buffers behave
// identically.
type accessorResolver struct {
	doc     *gltf.Document
	buffers [][]byte
}

// componentSize returns the byte size of one component, 0 for unknown
// component types.
func componentSize(t gltf.ComponentType) int {
	switch t {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	default:
		return 0
	}
}

// componentCount returns the number of components per element, 0 for
// unknown element shapes.
func componentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	case gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	default:
		return 0
	}
}

// resolve produces the accessor's bytes as a tightly packed copy.
//
// When the backing view declares a byte stride different from the packed
// element size the data is interleaved: each element is copied out
// individually. Otherwise a single bulk copy is taken. A zero count is
// valid and yields an empty slice.
//
// Parameters:
//   - index: the accessor index within the document
//
// Returns:
//   - []byte: the packed element bytes
//   - int: the element count
//   - int: the packed element size in bytes
//   - *Error: nil on success
func (r *accessorResolver) resolve(index int) ([]byte, int, int, *Error) {
	if index < 0 || index >= len(r.doc.Accessors) {
		return nil, 0, 0, newError(KindValidationFailure, "accessor %d out of range [0,%d)", index, len(r.doc.Accessors))
	}
	acc := r.doc.Accessors[index]

	if acc.Sparse != nil {
		return nil, 0, 0, newError(KindMissingRequiredData, "accessor %d: sparse accessors are not supported", index)
	}

	elemSize := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if elemSize == 0 {
		return nil, 0, 0, newError(KindValidationFailure, "accessor %d: unknown component or element type", index)
	}

	count := int(acc.Count)
	if count == 0 {
		return []byte{}, 0, elemSize, nil
	}

	// An accessor without a buffer view reads as zeroes.
	if acc.BufferView == nil {
		return make([]byte, count*elemSize), count, elemSize, nil
	}

	viewIdx := int(*acc.BufferView)
	if viewIdx < 0 || viewIdx >= len(r.doc.BufferViews) {
		return nil, 0, 0, newError(KindValidationFailure, "accessor %d: buffer view %d out of range", index, viewIdx)
	}
	view := r.doc.BufferViews[viewIdx]

	bufIdx := int(view.Buffer)
	if bufIdx < 0 || bufIdx >= len(r.buffers) {
		return nil, 0, 0, newError(KindValidationFailure, "accessor %d: buffer %d out of range", index, bufIdx)
	}
	buf := r.buffers[bufIdx]
	if len(buf) == 0 {
		return nil, 0, 0, newError(KindCorruptedBuffer, "accessor %d: buffer %d is empty", index, bufIdx)
	}

	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	start := int(view.ByteOffset) + int(acc.ByteOffset)
	end := start + (count-1)*stride + elemSize
	if start < 0 || end > len(buf) {
		return nil, 0, 0, newError(KindCorruptedBuffer,
			"accessor %d: range [%d,%d) exceeds buffer %d size %d", index, start, end, bufIdx, len(buf))
	}

	if stride == elemSize {
		out := make([]byte, count*elemSize)
		copy(out, buf[start:end])
		return out, count, elemSize, nil
	}

	// Interleaved: de-interleave one element at a time.
	out := make([]byte, count*elemSize)
	for i := 0; i < count; i++ {
		src := start + i*stride
		copy(out[i*elemSize:(i+1)*elemSize], buf[src:src+elemSize])
	}
	return out, count, elemSize, nil
}

// resolveTyped resolves and additionally checks the accessor's declared
// shape against the expectation. Shape mismatches are silent failures.
func (r *accessorResolver) resolveTyped(index int, want gltf.AccessorType, comp gltf.ComponentType) ([]byte, int, bool) {
	if index < 0 || index >= len(r.doc.Accessors) {
		return nil, 0, false
	}
	acc := r.doc.Accessors[index]
	if acc.Type != want || acc.ComponentType != comp {
		return nil, 0, false
	}
	data, count, _, err := r.resolve(index)
	if err != nil {
		return nil, 0, false
	}
	return data, count, true
}

// readScalars reads a float scalar accessor.
func (r *accessorResolver) readScalars(index int) ([]float32, bool) {
	data, count, ok := r.resolveTyped(index, gltf.AccessorScalar, gltf.ComponentFloat)
	if !ok {
		return nil, false
	}
	return bytesToFloats(data, count), true
}

// readVec2 reads a float vec2 accessor.
func (r *accessorResolver) readVec2(index int) ([][2]float32, bool) {
	data, count, ok := r.resolveTyped(index, gltf.AccessorVec2, gltf.ComponentFloat)
	if !ok {
		return nil, false
	}
	out := make([][2]float32, count)
	for i := 0; i < count; i++ {
		out[i][0] = floatAt(data, i*8)
		out[i][1] = floatAt(data, i*8+4)
	}
	return out, true
}

// readVec3 reads a float vec3 accessor.
func (r *accessorResolver) readVec3(index int) ([][3]float32, bool) {
	data, count, ok := r.resolveTyped(index, gltf.AccessorVec3, gltf.ComponentFloat)
	if !ok {
		return nil, false
	}
	out := make([][3]float32, count)
	for i := 0; i < count; i++ {
		out[i][0] = floatAt(data, i*12)
		out[i][1] = floatAt(data, i*12+4)
		out[i][2] = floatAt(data, i*12+8)
	}
	return out, true
}

// readVec4 reads a float vec4 accessor.
func (r *accessorResolver) readVec4(index int) ([][4]float32, bool) {
	data, count, ok := r.resolveTyped(index, gltf.AccessorVec4, gltf.ComponentFloat)
	if !ok {
		return nil, false
	}
	out := make([][4]float32, count)
	for i := 0; i < count; i++ {
		out[i][0] = floatAt(data, i*16)
		out[i][1] = floatAt(data, i*16+4)
		out[i][2] = floatAt(data, i*16+8)
		out[i][3] = floatAt(data, i*16+12)
	}
	return out, true
}

// readMat4 reads a float 4x4 matrix accessor. Source matrices are column
// major, matching mgl32's layout, so elements map across directly.
func (r *accessorResolver) readMat4(index int) ([]mgl32.Mat4, bool) {
	data, count, ok := r.resolveTyped(index, gltf.AccessorMat4, gltf.ComponentFloat)
	if !ok {
		return nil, false
	}
	out := make([]mgl32.Mat4, count)
	for i := 0; i < count; i++ {
		for j := 0; j < 16; j++ {
			out[i][j] = floatAt(data, i*64+j*4)
		}
	}
	return out, true
}

// readIndices reads a scalar index accessor, widening 8- and 16-bit
// sources into uint32.
func (r *accessorResolver) readIndices(index int) ([]uint32, bool) {
	if index < 0 || index >= len(r.doc.Accessors) {
		return nil, false
	}
	acc := r.doc.Accessors[index]
	if acc.Type != gltf.AccessorScalar {
		return nil, false
	}
	data, count, _, err := r.resolve(index)
	if err != nil {
		return nil, false
	}

	out := make([]uint32, count)
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		for i := 0; i < count; i++ {
			out[i] = uint32(data[i])
		}
	case gltf.ComponentUshort:
		for i := 0; i < count; i++ {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case gltf.ComponentUint:
		for i := 0; i < count; i++ {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, false
	}
	return out, true
}

// readJoints reads a vec4 joint-index accessor (u8 or u16 sources) into
// uint16 quads.
func (r *accessorResolver) readJoints(index int) ([][4]uint16, bool) {
	if index < 0 || index >= len(r.doc.Accessors) {
		return nil, false
	}
	acc := r.doc.Accessors[index]
	if acc.Type != gltf.AccessorVec4 {
		return nil, false
	}
	data, count, _, err := r.resolve(index)
	if err != nil {
		return nil, false
	}

	out := make([][4]uint16, count)
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		for i := 0; i < count; i++ {
			for j := 0; j < 4; j++ {
				out[i][j] = uint16(data[i*4+j])
			}
		}
	case gltf.ComponentUshort:
		for i := 0; i < count; i++ {
			for j := 0; j < 4; j++ {
				out[i][j] = binary.LittleEndian.Uint16(data[i*8+j*2:])
			}
		}
	default:
		return nil, false
	}
	return out, true
}

// readWeights reads a vec4 weight accessor: float, or normalized u8/u16.
func (r *accessorResolver) readWeights(index int) ([][4]float32, bool) {
	if index < 0 || index >= len(r.doc.Accessors) {
		return nil, false
	}
	acc := r.doc.Accessors[index]
	if acc.Type != gltf.AccessorVec4 {
		return nil, false
	}
	data, count, _, err := r.resolve(index)
	if err != nil {
		return nil, false
	}

	out := make([][4]float32, count)
	switch acc.ComponentType {
	case gltf.ComponentFloat:
		for i := 0; i < count; i++ {
			for j := 0; j < 4; j++ {
				out[i][j] = floatAt(data, i*16+j*4)
			}
		}
	case gltf.ComponentUbyte:
		for i := 0; i < count; i++ {
			for j := 0; j < 4; j++ {
				out[i][j] = float32(data[i*4+j]) / 255
			}
		}
	case gltf.ComponentUshort:
		for i := 0; i < count; i++ {
			for j := 0; j < 4; j++ {
				out[i][j] = float32(binary.LittleEndian.Uint16(data[i*8+j*2:])) / 65535
			}
		}
	default:
		return nil, false
	}
	return out, true
}

// readColors reads a color accessor: vec3 or vec4, float or normalized
// integers, always widened to RGBA with alpha defaulting to 1.
func (r *accessorResolver) readColors(index int) ([][4]float32, bool) {
	if index < 0 || index >= len(r.doc.Accessors) {
		return nil, false
	}
	acc := r.doc.Accessors[index]

	comps := 0
	switch acc.Type {
	case gltf.AccessorVec3:
		comps = 3
	case gltf.AccessorVec4:
		comps = 4
	default:
		return nil, false
	}

	data, count, _, err := r.resolve(index)
	if err != nil {
		return nil, false
	}

	out := make([][4]float32, count)
	for i := range out {
		out[i] = [4]float32{1, 1, 1, 1}
	}

	switch acc.ComponentType {
	case gltf.ComponentFloat:
		for i := 0; i < count; i++ {
			for j := 0; j < comps; j++ {
				out[i][j] = floatAt(data, (i*comps+j)*4)
			}
		}
	case gltf.ComponentUbyte:
		for i := 0; i < count; i++ {
			for j := 0; j < comps; j++ {
				out[i][j] = float32(data[i*comps+j]) / 255
			}
		}
	case gltf.ComponentUshort:
		for i := 0; i < count; i++ {
			for j := 0; j < comps; j++ {
				out[i][j] = float32(binary.LittleEndian.Uint16(data[(i*comps+j)*2:])) / 65535
			}
		}
	default:
		return nil, false
	}
	return out, true
}

// floatAt decodes a little-endian float32 at the given byte offset.
func floatAt(data []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
}

// bytesToFloats decodes count little-endian float32 values.
func bytesToFloats(data []byte, count int) []float32 {
	out := make([]float32, count)
	for i := 0; i < count; i++ {
		out[i] = floatAt(data, i*4)
	}
	return out
}
