package loader

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	gltf "github.com/qmuntal/gltf"

	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// identityMatrix matches a node matrix that carries no transform; a
// zero-value matrix is treated the same way, meaning "use the TRS fields".
var identityMatrix = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// buildNodes converts the document's flat node list into the scene's node
// arena in two passes: decode every local transform, then wire the
// parent/child relationships and find the roots. Structural violations
// (child index out of range, a node claimed by two parents, a cycle)
// reject the whole scene.
func buildNodes(doc *gltf.Document) ([]scene.Node, *Error) {
	nodes := make([]scene.Node, len(doc.Nodes))

	for i, src := range doc.Nodes {
		n := scene.Node{
			Name:        src.Name,
			ParentIndex: -1,
			MeshIndex:   -1,
			SkinIndex:   -1,
			BoneIndex:   -1,
		}
		if src.Mesh != nil {
			n.MeshIndex = int(*src.Mesh)
		}
		if src.Skin != nil {
			n.SkinIndex = int(*src.Skin)
		}
		n.Local = decodeNodeTransform(src)
		nodes[i] = n
	}

	for i, src := range doc.Nodes {
		for _, c := range src.Children {
			child := int(c)
			if child < 0 || child >= len(nodes) {
				return nil, newError(KindValidationFailure, "node %d: child %d out of range [0,%d)", i, child, len(nodes))
			}
			if nodes[child].ParentIndex >= 0 {
				return nil, newError(KindValidationFailure,
					"node %d claimed by parents %d and %d", child, nodes[child].ParentIndex, i)
			}
			nodes[child].ParentIndex = i
			nodes[i].Children = append(nodes[i].Children, child)
		}
	}

	if err := detectNodeCycles(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// decodeNodeTransform extracts a local transform from either the node's
// TRS fields or its 4x4 matrix. Matrix decomposition recovers translation
// exactly; rotation and scale recovery from an arbitrary matrix is
// approximate.
func decodeNodeTransform(src *gltf.Node) scene.Transform {
	if src.Matrix != identityMatrix && src.Matrix != [16]float32{} {
		return decomposeMatrix(mgl32.Mat4(src.Matrix))
	}

	t := scene.Transform{
		Translation: mgl32.Vec3(src.Translation),
		Rotation: mgl32.Quat{
			W: src.Rotation[3],
			V: mgl32.Vec3{src.Rotation[0], src.Rotation[1], src.Rotation[2]},
		},
		Scale: mgl32.Vec3(src.Scale),
	}
	if t.Rotation.Len() < 1e-6 {
		t.Rotation = mgl32.QuatIdent()
	}
	return t
}

// decomposeMatrix splits a column-major 4x4 transform into TRS.
// Translation comes straight from the fourth column; scale is the length
// of each basis column (guarded against zero); rotation is recovered from
// the scale-normalized upper 3x3 by the trace method.
func decomposeMatrix(m mgl32.Mat4) scene.Transform {
	t := scene.Transform{
		Translation: mgl32.Vec3{m[12], m[13], m[14]},
	}

	sx := math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	sy := math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])
	sz := math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])
	t.Scale = mgl32.Vec3{sx, sy, sz}

	const eps = 1e-4
	if sx < eps || sy < eps || sz < eps {
		t.Rotation = mgl32.QuatIdent()
		return t
	}

	// Scale-normalized rotation columns.
	r00, r10, r20 := m[0]/sx, m[1]/sx, m[2]/sx
	r01, r11, r21 := m[4]/sy, m[5]/sy, m[6]/sy
	r02, r12, r22 := m[8]/sz, m[9]/sz, m[10]/sz

	t.Rotation = matrixToQuaternion(r00, r01, r02, r10, r11, r12, r20, r21, r22)
	return t
}

// matrixToQuaternion converts a pure rotation matrix (row notation rIJ =
// row I, column J) into a normalized quaternion using the trace method.
func matrixToQuaternion(r00, r01, r02, r10, r11, r12, r20, r21, r22 float32) mgl32.Quat {
	trace := r00 + r11 + r22
	var q mgl32.Quat

	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q.W = s / 4
		q.V = mgl32.Vec3{(r21 - r12) / s, (r02 - r20) / s, (r10 - r01) / s}
	case r00 > r11 && r00 > r22:
		s := math32.Sqrt(1+r00-r11-r22) * 2
		q.W = (r21 - r12) / s
		q.V = mgl32.Vec3{s / 4, (r01 + r10) / s, (r02 + r20) / s}
	case r11 > r22:
		s := math32.Sqrt(1+r11-r00-r22) * 2
		q.W = (r02 - r20) / s
		q.V = mgl32.Vec3{(r01 + r10) / s, s / 4, (r12 + r21) / s}
	default:
		s := math32.Sqrt(1+r22-r00-r11) * 2
		q.W = (r10 - r01) / s
		q.V = mgl32.Vec3{(r02 + r20) / s, (r12 + r21) / s, s / 4}
	}

	if q.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}

// Visit states for cycle detection.
const (
	nodeUnvisited = iota
	nodeInProgress
	nodeDone
)

// detectNodeCycles walks the node forest depth first with three-state
// marking and rejects the arena if any node is reached while still in
// progress.
func detectNodeCycles(nodes []scene.Node) *Error {
	state := make([]uint8, len(nodes))

	var visit func(i int) *Error
	visit = func(i int) *Error {
		switch state[i] {
		case nodeInProgress:
			return newError(KindValidationFailure, "node graph contains a cycle through node %d", i)
		case nodeDone:
			return nil
		}
		state[i] = nodeInProgress
		for _, c := range nodes[i].Children {
			if c < 0 || c >= len(nodes) {
				return newError(KindValidationFailure, "node %d: child %d out of range", i, c)
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		state[i] = nodeDone
		return nil
	}

	for i := range nodes {
		if state[i] == nodeUnvisited {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}
