package loader

import (
	gltf "github.com/qmuntal/gltf"

	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// validateProcessed is the expensive post-process checkpoint. It
// cross-checks the built scene against the source document: buffer sizes,
// accessor bounds, node-graph acyclicity, skin alignment and material
// texture references. The first violation is returned; the caller discards
// the whole scene on any failure.
func validateProcessed(doc *gltf.Document, s *scene.Scene) *Error {
	if err := validateBuffers(doc, s.Buffers); err != nil {
		return err
	}
	if err := validateAccessors(doc, s.Buffers); err != nil {
		return err
	}
	if err := detectNodeCycles(s.Nodes); err != nil {
		return err
	}
	if err := validateSkins(s); err != nil {
		return err
	}
	if err := validateMaterials(s); err != nil {
		return err
	}
	return nil
}

// validateBuffers checks that every declared buffer either loaded at least
// its declared length or is empty (empty slots were already reported as
// local errors; they only fail here if an accessor needs them).
func validateBuffers(doc *gltf.Document, buffers [][]byte) *Error {
	if len(buffers) != len(doc.Buffers) {
		return newError(KindValidationFailure, "buffer table size %d, declared %d", len(buffers), len(doc.Buffers))
	}
	for i, buf := range doc.Buffers {
		if len(buffers[i]) == 0 {
			continue
		}
		if len(buffers[i]) < int(buf.ByteLength) {
			return newError(KindCorruptedBuffer,
				"buffer %d holds %d bytes, declares %d", i, len(buffers[i]), buf.ByteLength)
		}
	}
	return nil
}

// validateAccessors bounds-checks every accessor against its view and the
// loaded buffer bytes.
func validateAccessors(doc *gltf.Document, buffers [][]byte) *Error {
	for i, acc := range doc.Accessors {
		if acc.BufferView == nil || acc.Count == 0 {
			continue
		}
		viewIdx := int(*acc.BufferView)
		if viewIdx < 0 || viewIdx >= len(doc.BufferViews) {
			return newError(KindValidationFailure, "accessor %d: view %d out of range", i, viewIdx)
		}
		view := doc.BufferViews[viewIdx]

		bufIdx := int(view.Buffer)
		if bufIdx < 0 || bufIdx >= len(buffers) {
			return newError(KindValidationFailure, "accessor %d: buffer %d out of range", i, bufIdx)
		}
		if len(buffers[bufIdx]) == 0 {
			return newError(KindCorruptedBuffer, "accessor %d: buffer %d never loaded", i, bufIdx)
		}

		elemSize := componentSize(acc.ComponentType) * componentCount(acc.Type)
		if elemSize == 0 {
			return newError(KindValidationFailure, "accessor %d: unknown element shape", i)
		}
		stride := int(view.ByteStride)
		if stride == 0 {
			stride = elemSize
		}
		end := int(view.ByteOffset) + int(acc.ByteOffset) + (int(acc.Count)-1)*stride + elemSize
		if end > len(buffers[bufIdx]) {
			return newError(KindCorruptedBuffer,
				"accessor %d: extends to byte %d of buffer %d (size %d)", i, end, bufIdx, len(buffers[bufIdx]))
		}
	}
	return nil
}

// validateSkins re-checks joint resolution and the skeleton's alignment
// invariant: bone matrices, joints and base pose entries are index-aligned.
func validateSkins(s *scene.Scene) *Error {
	for i := range s.Skins {
		sk := &s.Skins[i]
		if len(sk.InverseBindMatrices) != len(sk.Joints) {
			return newError(KindValidationFailure,
				"skin %d: %d inverse bind matrices for %d joints", i, len(sk.InverseBindMatrices), len(sk.Joints))
		}
		for j, node := range sk.Joints {
			if node < 0 || node >= len(s.Nodes) {
				return newError(KindValidationFailure, "skin %d: joint %d names node %d out of range", i, j, node)
			}
		}
	}
	if skel := s.Skeleton; skel != nil {
		if len(s.BoneMatrices) != len(skel.Joints) || len(skel.BasePose) != len(skel.Joints) {
			return newError(KindValidationFailure,
				"skeleton misaligned: %d joints, %d bone matrices, %d base pose entries",
				len(skel.Joints), len(s.BoneMatrices), len(skel.BasePose))
		}
	}
	return nil
}

// validateMaterials checks every texture slot against the resolved texture
// table.
func validateMaterials(s *scene.Scene) *Error {
	for i := range s.Materials {
		m := &s.Materials[i]
		slots := [5]scene.TextureSlot{m.BaseColor, m.MetallicRoughness, m.Normal, m.Occlusion, m.Emissive}
		for _, slot := range slots {
			if slot.Texture >= len(s.Textures) {
				return newError(KindValidationFailure,
					"material %d (%s): texture %d out of range [0,%d)", i, m.Name, slot.Texture, len(s.Textures))
			}
		}
	}
	return nil
}
