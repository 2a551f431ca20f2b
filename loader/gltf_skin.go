package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	gltf "github.com/qmuntal/gltf"

	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// buildSkins converts every declared skin, reading inverse-bind matrices
// through the accessor resolver. A skin whose inverse-bind accessor is
// present but does not align with its joint list rejects the scene.
func buildSkins(doc *gltf.Document, r *accessorResolver, nodeCount int) ([]scene.Skin, *Error) {
	skins := make([]scene.Skin, 0, len(doc.Skins))

	for i, src := range doc.Skins {
		sk := scene.Skin{
			Name:         src.Name,
			SkeletonRoot: -1,
		}
		if sk.Name == "" {
			sk.Name = fmt.Sprintf("skin_%d", i)
		}
		if src.Skeleton != nil {
			sk.SkeletonRoot = int(*src.Skeleton)
		}

		sk.Joints = make([]int, len(src.Joints))
		for j, joint := range src.Joints {
			idx := int(joint)
			if idx < 0 || idx >= nodeCount {
				return nil, newError(KindValidationFailure, "skin %d: joint %d names node %d out of range", i, j, idx)
			}
			sk.Joints[j] = idx
		}

		if src.InverseBindMatrices != nil {
			matrices, ok := r.readMat4(int(*src.InverseBindMatrices))
			if !ok {
				return nil, newError(KindCorruptedBuffer, "skin %d: inverse bind matrices unreadable", i)
			}
			if len(matrices) != len(sk.Joints) {
				return nil, newError(KindValidationFailure,
					"skin %d: %d inverse bind matrices for %d joints", i, len(matrices), len(sk.Joints))
			}
			sk.InverseBindMatrices = matrices
		} else {
			sk.InverseBindMatrices = make([]mgl32.Mat4, len(sk.Joints))
			for j := range sk.InverseBindMatrices {
				sk.InverseBindMatrices[j] = mgl32.Ident4()
			}
		}

		skins = append(skins, sk)
	}
	return skins, nil
}

// buildSkeleton promotes the scene's first skin to the active skeleton:
// joints are flagged on the node arena in declared order, the rest-pose
// local transforms become the base pose, and the initial skinning matrices
// are world * inverseBind per joint. Scenes without skins get no skeleton.
//
// Only the first skin is promoted; this is a documented contract of the
// published Scene, not an accident. Further skins stay queryable raw.
func buildSkeleton(s *scene.Scene) {
	if len(s.Skins) == 0 {
		return
	}
	skin := &s.Skins[0]

	skel := &scene.Skeleton{
		SkinIndex:   0,
		Joints:      make([]int, len(skin.Joints)),
		InverseBind: make([]mgl32.Mat4, len(skin.Joints)),
		BasePose:    make([]scene.Transform, len(skin.Joints)),
		NameToBone:  make(map[string]int, len(skin.Joints)),
		Root:        skin.SkeletonRoot,
	}
	copy(skel.Joints, skin.Joints)
	copy(skel.InverseBind, skin.InverseBindMatrices)

	s.BoneMatrices = make([]mgl32.Mat4, len(skin.Joints))
	for i, node := range skin.Joints {
		s.Nodes[node].IsJoint = true
		s.Nodes[node].BoneIndex = i

		skel.BasePose[i] = s.Nodes[node].Local
		if name := s.Nodes[node].Name; name != "" {
			if _, exists := skel.NameToBone[name]; !exists {
				skel.NameToBone[name] = i
			}
		}
		s.BoneMatrices[i] = s.Nodes[node].WorldMatrix.Mul4(skel.InverseBind[i])
	}

	s.Skeleton = skel
}
