package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

const quatEpsilon = 1e-6

// IdentityTransform returns a Transform with no translation, identity
// rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix composes the transform into a 4x4 local matrix as
// Translate * Rotate * Scale. Any axis whose scale is exactly zero is
// replaced by 1 so the result stays invertible; a degenerate rotation
// quaternion is replaced by identity. Neither substitution is an error.
func (t Transform) Matrix() mgl32.Mat4 {
	s := t.Scale
	for i := 0; i < 3; i++ {
		if s[i] == 0 {
			s[i] = 1
		}
	}

	r := t.Rotation
	if r.Len() < quatEpsilon {
		r = mgl32.QuatIdent()
	} else {
		r = r.Normalize()
	}

	trans := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	return trans.Mul4(r.Mat4()).Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// ComputeWorldTransforms recomputes LocalMatrix and WorldMatrix for every
// node in the arena by a depth-first walk from each root. The walk is
// idempotent: repeated calls on an unmodified arena produce bit-identical
// matrices.
func ComputeWorldTransforms(nodes []Node) {
	for i := range nodes {
		nodes[i].LocalMatrix = nodes[i].Local.Matrix()
	}
	for i := range nodes {
		if nodes[i].ParentIndex < 0 {
			propagateWorld(nodes, i, mgl32.Ident4())
		}
	}
}

func propagateWorld(nodes []Node, index int, parentWorld mgl32.Mat4) {
	nodes[index].WorldMatrix = parentWorld.Mul4(nodes[index].LocalMatrix)
	for _, child := range nodes[index].Children {
		if child >= 0 && child < len(nodes) {
			propagateWorld(nodes, child, nodes[index].WorldMatrix)
		}
	}
}
