package scene

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Stats is a snapshot of a scene's resource footprint.
type Stats struct {
	// BytesUsed approximates the heap bytes held by the scene's vertex,
	// index, buffer, animation and skeleton data.
	BytesUsed uint64

	// LoadDuration is the wall time the load took.
	LoadDuration time.Duration

	// FramesSinceLoad counts MarkFrame calls since the scene was published.
	FramesSinceLoad uint64
}

// Scene is the aggregate root owning everything produced by one load. A
// Scene is only ever published fully validated; a failed load never
// produces one. All slices are owned by the Scene and must be treated as
// immutable by callers, except the per-frame counter behind MarkFrame.
type Scene struct {
	// Name is the asset identifier, usually derived from its path.
	Name string

	// Nodes is the node arena, addressed by integer index.
	Nodes []Node

	// Meshes are the resolved primitives.
	Meshes []Mesh

	// Materials is the material table referenced by Meshes.
	Materials []Material

	// Textures is the texture table referenced by Materials.
	Textures []Texture

	// Skins are all declared skins, in source order.
	Skins []Skin

	// Animations are the declared animations that survived extraction.
	Animations []Animation

	// Buffers are the raw binary blobs, index-aligned with the source.
	// A buffer whose load failed is present but empty.
	Buffers [][]byte

	// Skeleton is the active bone hierarchy built from Skins[0], nil when
	// the asset has no skins.
	Skeleton *Skeleton

	// BoneMatrices are the rest-pose skinning matrices, one per joint:
	// WorldMatrix[Joints[i]] * InverseBind[i].
	BoneMatrices []mgl32.Mat4

	// AnimationTolerance is the minimum keyframe spacing treated as
	// distinct when sampling this scene's animations, carried over from the
	// load options. Zero means use the sampler's own default.
	AnimationTolerance float32

	stats Stats
}

// SetStats records the load-time statistics. Intended for the loader.
func (s *Scene) SetStats(st Stats) {
	frames := s.stats.FramesSinceLoad
	s.stats = st
	s.stats.FramesSinceLoad = frames
}

// Stats returns the current resource snapshot.
func (s *Scene) Stats() Stats {
	return s.stats
}

// MarkFrame records that one frame consumed this scene. Single-writer, like
// all per-instance mutable state.
func (s *Scene) MarkFrame() {
	s.stats.FramesSinceLoad++
}

// --- Animation queries ---

// AnimationCount returns the number of animations in the scene.
func (s *Scene) AnimationCount() int {
	return len(s.Animations)
}

// AnimationName returns the name of the animation at the given index.
//
// Parameters:
//   - index: the animation index
//
// Returns:
//   - string: the animation name, empty when index is out of range
func (s *Scene) AnimationName(index int) string {
	if index < 0 || index >= len(s.Animations) {
		return ""
	}
	return s.Animations[index].Name
}

// AnimationDuration returns the duration in seconds of the animation at the
// given index, or 0 when index is out of range.
func (s *Scene) AnimationDuration(index int) float32 {
	if index < 0 || index >= len(s.Animations) {
		return 0
	}
	return s.Animations[index].Duration
}

// FindAnimation returns the index of the first animation with the given
// name, or -1 when no animation matches.
func (s *Scene) FindAnimation(name string) int {
	for i := range s.Animations {
		if s.Animations[i].Name == name {
			return i
		}
	}
	return -1
}

// --- Bone queries ---

// BoneCount returns the number of joints in the active skeleton, 0 when the
// scene has none.
func (s *Scene) BoneCount() int {
	if s.Skeleton == nil {
		return 0
	}
	return len(s.Skeleton.Joints)
}

// BoneName returns the node name of the bone at the given index, empty when
// the index is out of range or the scene has no skeleton.
func (s *Scene) BoneName(index int) string {
	if s.Skeleton == nil || index < 0 || index >= len(s.Skeleton.Joints) {
		return ""
	}
	node := s.Skeleton.Joints[index]
	if node < 0 || node >= len(s.Nodes) {
		return ""
	}
	return s.Nodes[node].Name
}

// FindBone returns the bone index for the joint with the given node name,
// or -1 when no joint matches.
func (s *Scene) FindBone(name string) int {
	if s.Skeleton == nil {
		return -1
	}
	if idx, ok := s.Skeleton.NameToBone[name]; ok {
		return idx
	}
	return -1
}

// BoneLocalTransform returns the rest-pose local transform of the bone at
// the given index.
//
// Parameters:
//   - index: the bone index within the active skeleton
//
// Returns:
//   - Transform: the rest-pose transform
//   - bool: false when the index is out of range or there is no skeleton
func (s *Scene) BoneLocalTransform(index int) (Transform, bool) {
	if s.Skeleton == nil || index < 0 || index >= len(s.Skeleton.BasePose) {
		return Transform{}, false
	}
	return s.Skeleton.BasePose[index], true
}

// BoneWorldMatrix returns the rest-pose world matrix of the bone's node.
//
// Parameters:
//   - index: the bone index within the active skeleton
//
// Returns:
//   - mgl32.Mat4: the node's world matrix
//   - bool: false when the index is out of range or there is no skeleton
func (s *Scene) BoneWorldMatrix(index int) (mgl32.Mat4, bool) {
	if s.Skeleton == nil || index < 0 || index >= len(s.Skeleton.Joints) {
		return mgl32.Mat4{}, false
	}
	node := s.Skeleton.Joints[index]
	if node < 0 || node >= len(s.Nodes) {
		return mgl32.Mat4{}, false
	}
	return s.Nodes[node].WorldMatrix, true
}

// --- Footprint ---

// MeasureBytes recomputes the BytesUsed statistic from the scene's current
// contents and returns it.
func (s *Scene) MeasureBytes() uint64 {
	var total uint64
	for i := range s.Meshes {
		total += uint64(len(s.Meshes[i].Vertices)) * uint64(vertexByteSize)
		total += uint64(len(s.Meshes[i].Indices)) * 4
	}
	for _, b := range s.Buffers {
		total += uint64(len(b))
	}
	for i := range s.Animations {
		for j := range s.Animations[i].Samplers {
			sp := &s.Animations[i].Samplers[j]
			total += uint64(len(sp.Input)+len(sp.Output)) * 4
		}
	}
	if s.Skeleton != nil {
		total += uint64(len(s.Skeleton.Joints)) * (64 + 64 + 40)
	}
	for i := range s.Textures {
		total += uint64(len(s.Textures[i].Data))
	}
	s.stats.BytesUsed = total
	return total
}

// 3+3+4+4+2+2 floats plus 4 uint16 joints and 4 float weights.
const vertexByteSize = 18*4 + 4*2 + 4*4

// Summary returns a human-readable description of the scene's contents,
// useful for diagnostics and CLI output.
func (s *Scene) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scene %q\n", s.Name)
	fmt.Fprintf(&b, "  nodes: %d, meshes: %d, materials: %d, textures: %d\n",
		len(s.Nodes), len(s.Meshes), len(s.Materials), len(s.Textures))

	var verts, tris int
	for i := range s.Meshes {
		verts += len(s.Meshes[i].Vertices)
		tris += len(s.Meshes[i].Indices) / 3
	}
	fmt.Fprintf(&b, "  vertices: %d, triangles: %d\n", verts, tris)

	fmt.Fprintf(&b, "  skins: %d, bones: %d\n", len(s.Skins), s.BoneCount())
	fmt.Fprintf(&b, "  animations: %d\n", len(s.Animations))
	for i := range s.Animations {
		fmt.Fprintf(&b, "    [%d] %q (%.2fs, %d channels)\n",
			i, s.Animations[i].Name, s.Animations[i].Duration, len(s.Animations[i].Channels))
	}
	fmt.Fprintf(&b, "  memory: %.2f MB, load time: %s\n",
		float64(s.stats.BytesUsed)/1024/1024, s.stats.LoadDuration)
	return b.String()
}
