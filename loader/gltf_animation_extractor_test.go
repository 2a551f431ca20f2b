package loader

import (
	"testing"

	gltf "github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// animationDoc builds a document with keyframe data for one
// two-keyframe rotation curve: times accessor 0, quaternion values
// accessor 1.
func animationDoc() (*gltf.Document, *accessorResolver) {
	times := floatsToBytes(0, 1)
	rotations := floatsToBytes(
		0, 0, 0, 1,
		0, 0, 0.7071068, 0.7071068,
	)
	buf := append(append([]byte{}, times...), rotations...)

	doc, r := testDoc(buf,
		[]*gltf.BufferView{
			{Buffer: 0, ByteLength: 8},
			{Buffer: 0, ByteOffset: 8, ByteLength: 32},
		},
		[]*gltf.Accessor{
			{BufferView: gltf.Index(0), Count: 2, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorScalar},
			{BufferView: gltf.Index(1), Count: 2, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec4},
		},
	)
	doc.Nodes = []*gltf.Node{{Name: "joint"}}
	return doc, r
}

func rotationAnimation(name string, samplerIndex uint32) *gltf.Animation {
	return &gltf.Animation{
		Name: name,
		Samplers: []*gltf.AnimationSampler{
			{Input: 0, Output: 1, Interpolation: gltf.InterpolationLinear},
		},
		Channels: []*gltf.Channel{
			{
				Sampler: gltf.Index(samplerIndex),
				Target:  gltf.ChannelTarget{Node: gltf.Index(0), Path: gltf.TRSRotation},
			},
		},
	}
}

func TestExtractAnimationsConvertsCurves(t *testing.T) {
	doc, r := animationDoc()
	doc.Animations = []*gltf.Animation{rotationAnimation("spin", 0)}

	anims := extractAnimations(doc, r, len(doc.Nodes), diag.New(nil))
	require.Len(t, anims, 1)
	assert.Equal(t, "spin", anims[0].Name)
	assert.InDelta(t, 1.0, float64(anims[0].Duration), 1e-6)
	require.Len(t, anims[0].Samplers, 1)
	assert.Equal(t, 4, anims[0].Samplers[0].Components)
	assert.Equal(t, []float32{0, 1}, anims[0].Samplers[0].Input)
	require.Len(t, anims[0].Channels, 1)
	assert.Equal(t, scene.PathRotation, anims[0].Channels[0].Path)
}

func TestExtractAnimationsDropsOutOfRangeSampler(t *testing.T) {
	doc, r := animationDoc()
	doc.Animations = []*gltf.Animation{
		rotationAnimation("broken", 5), // sampler index out of range
		rotationAnimation("intact", 0),
	}
	dc := diag.New(nil)

	anims := extractAnimations(doc, r, len(doc.Nodes), dc)
	require.Len(t, anims, 1)
	assert.Equal(t, "intact", anims[0].Name)
	assert.Equal(t, 1, dc.LocalErrors())
}

func TestExtractAnimationsDropsZeroKeyframes(t *testing.T) {
	doc, r := animationDoc()
	doc.Accessors[0].Count = 0
	doc.Animations = []*gltf.Animation{rotationAnimation("empty", 0)}
	dc := diag.New(nil)

	anims := extractAnimations(doc, r, len(doc.Nodes), dc)
	assert.Empty(t, anims)
	assert.Equal(t, 1, dc.LocalErrors())
}

func TestExtractAnimationsDropsOutOfRangeTarget(t *testing.T) {
	doc, r := animationDoc()
	anim := rotationAnimation("bad-target", 0)
	anim.Channels[0].Target.Node = gltf.Index(9)
	doc.Animations = []*gltf.Animation{anim}
	dc := diag.New(nil)

	anims := extractAnimations(doc, r, len(doc.Nodes), dc)
	assert.Empty(t, anims)
	assert.Equal(t, 1, dc.LocalErrors())
}

func TestExtractAnimationsFallbackName(t *testing.T) {
	doc, r := animationDoc()
	doc.Animations = []*gltf.Animation{rotationAnimation("", 0)}

	anims := extractAnimations(doc, r, len(doc.Nodes), diag.New(nil))
	require.Len(t, anims, 1)
	assert.Equal(t, "animation_0", anims[0].Name)
}

func TestExtractAnimationsDurationCoversUnreferencedSamplers(t *testing.T) {
	times := floatsToBytes(0, 1)
	rotations := floatsToBytes(
		0, 0, 0, 1,
		0, 0, 0.7071068, 0.7071068,
	)
	longTimes := floatsToBytes(0, 2)
	buf := append(append(append([]byte{}, times...), rotations...), longTimes...)

	doc, r := testDoc(buf,
		[]*gltf.BufferView{
			{Buffer: 0, ByteLength: 8},
			{Buffer: 0, ByteOffset: 8, ByteLength: 32},
			{Buffer: 0, ByteOffset: 40, ByteLength: 8},
		},
		[]*gltf.Accessor{
			{BufferView: gltf.Index(0), Count: 2, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorScalar},
			{BufferView: gltf.Index(1), Count: 2, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec4},
			{BufferView: gltf.Index(2), Count: 2, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorScalar},
		},
	)
	doc.Nodes = []*gltf.Node{{Name: "joint"}}

	anim := rotationAnimation("spin", 0)
	// A second sampler no channel references, with a later last keyframe.
	anim.Samplers = append(anim.Samplers,
		&gltf.AnimationSampler{Input: 2, Output: 2, Interpolation: gltf.InterpolationLinear})
	doc.Animations = []*gltf.Animation{anim}

	anims := extractAnimations(doc, r, len(doc.Nodes), diag.New(nil))
	require.Len(t, anims, 1)
	// Duration spans every sampler's input, referenced or not.
	assert.InDelta(t, 2.0, float64(anims[0].Duration), 1e-6)
	// The unreferenced sampler itself stays empty.
	require.Len(t, anims[0].Samplers, 2)
	assert.Empty(t, anims[0].Samplers[1].Input)
}

func TestExtractAnimationsRejectsSharedSamplerPathConflict(t *testing.T) {
	doc, r := animationDoc()
	anim := rotationAnimation("conflict", 0)
	anim.Channels = append(anim.Channels, &gltf.Channel{
		Sampler: gltf.Index(0),
		Target:  gltf.ChannelTarget{Node: gltf.Index(0), Path: gltf.TRSTranslation},
	})
	doc.Animations = []*gltf.Animation{anim}
	dc := diag.New(nil)

	anims := extractAnimations(doc, r, len(doc.Nodes), dc)
	assert.Empty(t, anims)
	assert.Equal(t, 1, dc.LocalErrors())
}
