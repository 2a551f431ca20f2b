// Package scene defines the engine-neutral in-memory representation of a
// loaded 3D asset: the node arena, meshes, materials, skins, animations and
// the active skeleton, plus a read-only query surface over all of them.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// --- Transform & Node Types ---

// Transform is a decomposed local transform (translation, rotation, scale).
type Transform struct {
	// Translation is the position offset relative to the parent.
	Translation mgl32.Vec3

	// Rotation is the orientation as a unit quaternion.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// Node is one entry in the scene's node arena. Parent/child relationships
// are integer indices into Scene.Nodes, never pointers.
type Node struct {
	// Name is the node's identifier (may be empty).
	Name string

	// ParentIndex is the index of the parent node, -1 for roots.
	ParentIndex int

	// Children are indices of child nodes in declaration order.
	Children []int

	// Local is the node's transform relative to its parent.
	Local Transform

	// LocalMatrix is derived from Local by the transform propagator.
	LocalMatrix mgl32.Mat4

	// WorldMatrix is ParentWorld * LocalMatrix, identity-parented for roots.
	WorldMatrix mgl32.Mat4

	// MeshIndex references Scene.Meshes, -1 when the node carries no mesh.
	MeshIndex int

	// SkinIndex references Scene.Skins, -1 when the node is not skinned.
	SkinIndex int

	// IsJoint is set when the node is a joint of the active skeleton.
	IsJoint bool

	// BoneIndex is the node's position in the active skeleton's joint list,
	// -1 when the node is not a joint.
	BoneIndex int
}

// --- Mesh Types ---

// Vertex is the uniform per-vertex record every mesh primitive resolves to.
type Vertex struct {
	// Position is the vertex position in mesh space.
	Position [3]float32

	// Normal is the vertex normal (zero when absent and not generated).
	Normal [3]float32

	// Tangent is the vertex tangent; w carries the bitangent handedness.
	Tangent [4]float32

	// Color is the vertex color, defaulting to opaque white.
	Color [4]float32

	// TexCoord0 is the primary UV channel.
	TexCoord0 [2]float32

	// TexCoord1 is the secondary UV channel.
	TexCoord1 [2]float32

	// Joints are up to four joint indices into the active skeleton.
	Joints [4]uint16

	// Weights are the blend weights paired with Joints.
	Weights [4]float32
}

// Mesh is a single renderable primitive: a vertex array, a triangle index
// list (always present, synthesized when the source had none) and a
// material reference.
type Mesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the resolved, de-interleaved vertex records.
	Vertices []Vertex

	// Indices is the triangle list, widened to 32 bits.
	Indices []uint32

	// MaterialIndex references Scene.Materials, -1 when unset.
	MaterialIndex int

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32

	// HasSkin reports whether the vertices carry joint/weight data.
	HasSkin bool
}

// --- Material Types ---

// AlphaMode selects how a material's alpha channel is interpreted.
type AlphaMode uint8

const (
	// AlphaOpaque ignores the alpha channel entirely.
	AlphaOpaque AlphaMode = iota

	// AlphaMask discards fragments below the material's alpha cutoff.
	AlphaMask

	// AlphaBlend alpha-blends the material.
	AlphaBlend
)

// TextureSlot binds one material channel to an entry of Scene.Textures.
type TextureSlot struct {
	// Texture references Scene.Textures, -1 when the slot is unused.
	Texture int

	// UVSet selects which vertex UV channel samples the texture (0 or 1).
	UVSet int
}

// Material is a physically-based metallic-roughness parameter set with up
// to five optional texture slots.
type Material struct {
	// Name is the material identifier.
	Name string

	// BaseColorFactor is the linear RGBA base color multiplier.
	BaseColorFactor [4]float32

	// MetallicFactor scales the metalness of the surface.
	MetallicFactor float32

	// RoughnessFactor scales the roughness of the surface.
	RoughnessFactor float32

	// NormalScale scales the sampled normal map.
	NormalScale float32

	// OcclusionStrength scales the sampled occlusion term.
	OcclusionStrength float32

	// EmissiveFactor is the linear RGB emissive color.
	EmissiveFactor [3]float32

	// AlphaMode selects opaque, masked or blended alpha.
	AlphaMode AlphaMode

	// AlphaCutoff is the mask threshold used when AlphaMode is AlphaMask.
	AlphaCutoff float32

	// DoubleSided disables backface culling for the material.
	DoubleSided bool

	// BaseColor is the albedo texture slot.
	BaseColor TextureSlot

	// MetallicRoughness packs metalness (B) and roughness (G).
	MetallicRoughness TextureSlot

	// Normal is the tangent-space normal map slot.
	Normal TextureSlot

	// Occlusion is the ambient-occlusion slot.
	Occlusion TextureSlot

	// Emissive is the emissive color slot.
	Emissive TextureSlot
}

// DefaultMaterial returns a Material carrying the format's default factors.
func DefaultMaterial() Material {
	return Material{
		BaseColorFactor:   [4]float32{1, 1, 1, 1},
		MetallicFactor:    1,
		RoughnessFactor:   1,
		NormalScale:       1,
		OcclusionStrength: 1,
		AlphaCutoff:       0.5,
		BaseColor:         TextureSlot{Texture: -1},
		MetallicRoughness: TextureSlot{Texture: -1},
		Normal:            TextureSlot{Texture: -1},
		Occlusion:         TextureSlot{Texture: -1},
		Emissive:          TextureSlot{Texture: -1},
	}
}

// Texture is one entry of the scene's texture table. The loader stores the
// raw encoded payload (when it was embedded or preloaded) and an opaque
// handle produced by the texture collaborator; the core never inspects the
// handle.
type Texture struct {
	// Name is the texture identifier.
	Name string

	// URI is the external reference, empty for embedded payloads.
	URI string

	// MimeType is the declared payload type, when known.
	MimeType string

	// Data is the raw encoded payload, nil when not loaded.
	Data []byte

	// Handle is the collaborator-produced opaque handle, nil on failure or
	// when texture preloading was disabled.
	Handle any
}

// --- Skin & Skeleton Types ---

// Skin pairs an ordered joint list with index-aligned inverse-bind
// matrices.
type Skin struct {
	// Name is the skin identifier.
	Name string

	// Joints are node indices in declared order.
	Joints []int

	// InverseBindMatrices map model space to joint space at bind pose,
	// index-aligned with Joints. Identity when the source declared none.
	InverseBindMatrices []mgl32.Mat4

	// SkeletonRoot is the declared skeleton root node, -1 when absent.
	SkeletonRoot int
}

// Skeleton is the active bone hierarchy, built from the scene's first skin.
// Further skins remain queryable through Scene.Skins but are not animated.
type Skeleton struct {
	// SkinIndex is the skin this skeleton was promoted from (always 0).
	SkinIndex int

	// Joints are node indices in the skin's declared order; bone i is
	// Joints[i].
	Joints []int

	// InverseBind are the inverse-bind matrices, index-aligned with Joints.
	InverseBind []mgl32.Mat4

	// BasePose holds each joint's rest-pose local transform, captured
	// before any animation is applied.
	BasePose []Transform

	// NameToBone maps joint node names to bone indices.
	NameToBone map[string]int

	// Root is the declared skeleton root node, -1 when absent.
	Root int
}

// --- Animation Types ---

// Interpolation is a keyframe interpolation mode.
type Interpolation uint8

const (
	// InterpolationLinear blends linearly between keyframes.
	InterpolationLinear Interpolation = iota

	// InterpolationStep holds each keyframe until the next.
	InterpolationStep

	// InterpolationCubicSpline uses cubic Hermite splines with in/out
	// tangents stored alongside each value.
	InterpolationCubicSpline
)

// TargetPath names the node property an animation channel drives.
type TargetPath uint8

const (
	// PathTranslation animates the node's translation.
	PathTranslation TargetPath = iota

	// PathRotation animates the node's rotation quaternion.
	PathRotation

	// PathScale animates the node's scale.
	PathScale

	// PathWeights animates morph target weights (retained, not evaluated).
	PathWeights
)

// AnimationSampler is a keyframe curve: a time array, a flat value array
// and an interpolation mode. Values are packed Components floats per key.
type AnimationSampler struct {
	// Input are the keyframe timestamps in seconds, ascending.
	Input []float32

	// Output is the flat value array, Components floats per keyframe.
	Output []float32

	// Components is the number of floats per keyframe value (3 or 4).
	Components int

	// Interpolation is the declared interpolation mode.
	Interpolation Interpolation
}

// AnimationChannel routes one sampler to one node property.
type AnimationChannel struct {
	// Sampler indexes the owning animation's Samplers.
	Sampler int

	// TargetNode indexes Scene.Nodes.
	TargetNode int

	// Path is the animated property.
	Path TargetPath
}

// Animation is a named set of keyframe curves bound to scene nodes.
type Animation struct {
	// Name is the animation identifier.
	Name string

	// Samplers are the animation's keyframe curves.
	Samplers []AnimationSampler

	// Channels bind samplers to node properties.
	Channels []AnimationChannel

	// Duration is the largest timestamp across all sampler inputs.
	Duration float32
}
