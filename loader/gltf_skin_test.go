package loader

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	gltf "github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// skinDoc builds a document whose accessor 0 holds two identity
// inverse-bind matrices.
func skinDoc() (*gltf.Document, *accessorResolver) {
	identity := floatsToBytes(
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	)
	buf := append(append([]byte{}, identity...), identity...)
	return testDoc(buf,
		[]*gltf.BufferView{{Buffer: 0, ByteLength: uint32(len(buf))}},
		[]*gltf.Accessor{{BufferView: gltf.Index(0), Count: 2, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorMat4}},
	)
}

func TestBuildSkinsReadsInverseBind(t *testing.T) {
	doc, r := skinDoc()
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0, 1}, InverseBindMatrices: gltf.Index(0)}}

	skins, err := buildSkins(doc, r, 2)
	require.Nil(t, err)
	require.Len(t, skins, 1)
	assert.Equal(t, "skin_0", skins[0].Name)
	assert.Equal(t, []int{0, 1}, skins[0].Joints)
	require.Len(t, skins[0].InverseBindMatrices, 2)
	assert.Equal(t, mgl32.Ident4(), skins[0].InverseBindMatrices[0])
	assert.Equal(t, -1, skins[0].SkeletonRoot)
}

func TestBuildSkinsDefaultsIdentityWithoutAccessor(t *testing.T) {
	doc, r := skinDoc()
	doc.Skins = []*gltf.Skin{{Name: "rig", Joints: []uint32{0}}}

	skins, err := buildSkins(doc, r, 1)
	require.Nil(t, err)
	require.Len(t, skins[0].InverseBindMatrices, 1)
	assert.Equal(t, mgl32.Ident4(), skins[0].InverseBindMatrices[0])
}

func TestBuildSkinsRejectsJointOutOfRange(t *testing.T) {
	doc, r := skinDoc()
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0, 9}}}

	_, err := buildSkins(doc, r, 2)
	require.NotNil(t, err)
	assert.Equal(t, KindValidationFailure, err.Kind)
}

func TestBuildSkinsRejectsInverseBindCountMismatch(t *testing.T) {
	doc, r := skinDoc()
	// One joint against two declared matrices.
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0}, InverseBindMatrices: gltf.Index(0)}}

	_, err := buildSkins(doc, r, 1)
	require.NotNil(t, err)
	assert.Equal(t, KindValidationFailure, err.Kind)
}

func TestBuildSkeletonPromotesFirstSkin(t *testing.T) {
	tip := scene.IdentityTransform()
	tip.Translation = mgl32.Vec3{0, 1, 0}
	nodes := []scene.Node{
		{Name: "root", ParentIndex: -1, Children: []int{1}, Local: scene.IdentityTransform(), MeshIndex: -1, SkinIndex: -1, BoneIndex: -1},
		{Name: "tip", ParentIndex: 0, Local: tip, MeshIndex: -1, SkinIndex: -1, BoneIndex: -1},
	}
	scene.ComputeWorldTransforms(nodes)

	s := &scene.Scene{
		Nodes: nodes,
		Skins: []scene.Skin{
			{
				Joints:              []int{0, 1},
				InverseBindMatrices: []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()},
				SkeletonRoot:        0,
			},
			{Joints: []int{1}, InverseBindMatrices: []mgl32.Mat4{mgl32.Ident4()}},
		},
	}
	buildSkeleton(s)

	require.NotNil(t, s.Skeleton)
	assert.Equal(t, 0, s.Skeleton.SkinIndex)
	assert.Equal(t, []int{0, 1}, s.Skeleton.Joints)
	assert.Equal(t, 0, s.Skeleton.Root)
	assert.True(t, s.Nodes[0].IsJoint)
	assert.Equal(t, 1, s.Nodes[1].BoneIndex)
	assert.Equal(t, 1, s.Skeleton.NameToBone["tip"])

	// With identity inverse-bind matrices the skinning matrices equal the
	// joints' world matrices.
	require.Len(t, s.BoneMatrices, 2)
	assert.Equal(t, s.Nodes[1].WorldMatrix, s.BoneMatrices[1])

	// The rest pose is captured from the local transforms.
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, s.Skeleton.BasePose[1].Translation)
}

func TestBuildSkeletonNoSkins(t *testing.T) {
	s := &scene.Scene{Nodes: []scene.Node{{ParentIndex: -1}}}
	buildSkeleton(s)
	assert.Nil(t, s.Skeleton)
	assert.Nil(t, s.BoneMatrices)
}
