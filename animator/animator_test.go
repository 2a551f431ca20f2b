package animator

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// rigScene hand-builds a two-bone chain (root at origin, tip one unit up)
// with identity inverse-bind matrices and a one-second rotation clip on
// the tip: identity at 0s, 90 degrees about Z at 1s.
func rigScene() *scene.Scene {
	tip := scene.IdentityTransform()
	tip.Translation = mgl32.Vec3{0, 1, 0}

	nodes := []scene.Node{
		{
			Name: "root", ParentIndex: -1, Children: []int{1},
			Local: scene.IdentityTransform(), MeshIndex: -1, SkinIndex: -1,
			IsJoint: true, BoneIndex: 0,
		},
		{
			Name: "tip", ParentIndex: 0,
			Local: tip, MeshIndex: -1, SkinIndex: -1,
			IsJoint: true, BoneIndex: 1,
		},
	}
	scene.ComputeWorldTransforms(nodes)

	s := &scene.Scene{
		Name:  "rig",
		Nodes: nodes,
		Skeleton: &scene.Skeleton{
			Joints:      []int{0, 1},
			InverseBind: []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()},
			BasePose:    []scene.Transform{nodes[0].Local, nodes[1].Local},
			NameToBone:  map[string]int{"root": 0, "tip": 1},
			Root:        0,
		},
		BoneMatrices: []mgl32.Mat4{nodes[0].WorldMatrix, nodes[1].WorldMatrix},
	}

	const h = 0.7071068 // sin(45 deg), the half-angle of the 90 degree key
	s.Animations = []scene.Animation{{
		Name: "spin",
		Samplers: []scene.AnimationSampler{{
			Input:         []float32{0, 1},
			Output:        []float32{0, 0, 0, 1, 0, 0, h, h},
			Components:    4,
			Interpolation: scene.InterpolationLinear,
		}},
		Channels: []scene.AnimationChannel{{Sampler: 0, TargetNode: 1, Path: scene.PathRotation}},
		Duration: 1,
	}}
	return s
}

func assertMat4Near(t *testing.T, want, got mgl32.Mat4, eps float64) {
	t.Helper()
	for i := 0; i < 16; i++ {
		assert.InDelta(t, float64(want[i]), float64(got[i]), eps)
	}
}

func TestNewAdoptsSceneTolerance(t *testing.T) {
	s := rigScene()
	s.AnimationTolerance = 0.05

	a, err := New(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, float64(a.(*animatorImpl).tolerance), 1e-6)

	// An explicit option still wins over the scene's setting.
	a, err = New(s, WithTolerance(0.2))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, float64(a.(*animatorImpl).tolerance), 1e-6)
}

func TestNewRequiresSkeleton(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoSkeleton)

	_, err = New(&scene.Scene{})
	assert.ErrorIs(t, err, ErrNoSkeleton)
}

func TestIdleAdvanceProducesRestPose(t *testing.T) {
	s := rigScene()
	a, err := New(s)
	require.NoError(t, err)

	a.Advance(0.5)
	assert.False(t, a.Playing())
	require.Len(t, a.BoneMatrices(), 2)
	assertMat4Near(t, s.BoneMatrices[0], a.BoneMatrices()[0], 1e-6)
	assertMat4Near(t, s.BoneMatrices[1], a.BoneMatrices()[1], 1e-6)
}

func TestPlayValidation(t *testing.T) {
	a, err := New(rigScene())
	require.NoError(t, err)

	assert.Error(t, a.Play(5))
	assert.Error(t, a.PlayName("missing"))
	assert.False(t, a.Playing())

	require.NoError(t, a.PlayName("spin"))
	assert.True(t, a.Playing())
	assert.Equal(t, 0, a.Clip())
}

func TestAdvanceFirstKeyframeMatchesRest(t *testing.T) {
	s := rigScene()
	a, err := New(s)
	require.NoError(t, err)
	require.NoError(t, a.Play(0))

	// The first keyframe is the identity rotation, so the sampled pose is
	// the rest pose.
	a.Advance(0)
	assertMat4Near(t, s.BoneMatrices[1], a.BoneMatrices()[1], 1e-5)
}

func TestAdvanceHalfwayBlendsRotation(t *testing.T) {
	a, err := New(rigScene())
	require.NoError(t, err)
	require.NoError(t, a.Play(0))

	a.Advance(0.5)
	m := a.BoneMatrices()[1]

	// Halfway between identity and 90 degrees about Z is 45 degrees.
	c := float64(mgl32.Vec2{1, 1}.Normalize().X())
	assert.InDelta(t, c, float64(m[0]), 1e-4)
	assert.InDelta(t, c, float64(m[1]), 1e-4)
	assert.InDelta(t, -c, float64(m[4]), 1e-4)
	assert.InDelta(t, c, float64(m[5]), 1e-4)
	// The joint's own translation is unaffected by its rotation.
	assert.InDelta(t, 0.0, float64(m[12]), 1e-5)
	assert.InDelta(t, 1.0, float64(m[13]), 1e-5)
}

func TestAdvanceWrapsToFirstKeyframe(t *testing.T) {
	s := rigScene()

	base, err := New(s)
	require.NoError(t, err)
	require.NoError(t, base.Play(0))
	base.Advance(0)

	wrapped, err := New(s)
	require.NoError(t, err)
	require.NoError(t, wrapped.Play(0))
	wrapped.Advance(1.0)

	// t = duration wraps to t = 0, not to the last keyframe.
	assert.InDelta(t, 0.0, float64(wrapped.Time()), 1e-6)
	assertMat4Near(t, base.BoneMatrices()[1], wrapped.BoneMatrices()[1], 1e-5)
}

func TestAdvanceStepHoldsKeyframe(t *testing.T) {
	s := rigScene()
	s.Animations[0].Samplers[0].Interpolation = scene.InterpolationStep

	a, err := New(s)
	require.NoError(t, err)
	require.NoError(t, a.Play(0))

	a.Advance(0.9)
	// Step interpolation holds the earlier keyframe across the interval.
	assertMat4Near(t, s.BoneMatrices[1], a.BoneMatrices()[1], 1e-5)
}

func TestSpeedScalesClock(t *testing.T) {
	a, err := New(rigScene())
	require.NoError(t, err)
	require.NoError(t, a.Play(0))

	a.SetSpeed(2)
	a.Advance(0.25)
	assert.InDelta(t, 0.5, float64(a.Time()), 1e-6)
}

func TestNegativeSpeedWrapsBackwards(t *testing.T) {
	a, err := New(rigScene())
	require.NoError(t, err)
	require.NoError(t, a.Play(0))

	a.SetSpeed(-1)
	a.Advance(0.25)
	assert.InDelta(t, 0.75, float64(a.Time()), 1e-6)
}

func TestStopRestoresRestPose(t *testing.T) {
	s := rigScene()
	a, err := New(s)
	require.NoError(t, err)
	require.NoError(t, a.Play(0))
	a.Advance(0.5)

	a.Stop()
	a.Advance(0.016)
	assert.False(t, a.Playing())
	assertMat4Near(t, s.BoneMatrices[1], a.BoneMatrices()[1], 1e-6)
}

func TestBlendQuatTakesShortestPath(t *testing.T) {
	// The pair straddles the long arc: the second key is the negated form
	// of a quaternion near the first.
	sp := &scene.AnimationSampler{
		Components: 4,
		Output: []float32{
			0, 0, 0, 1,
			0, 0, 0, -1,
		},
	}
	q, ok := blendQuat(sp, 0, 1, 0.5)
	require.True(t, ok)
	// Negating flips representation, not rotation; the blend stays at
	// identity instead of collapsing to zero length.
	assert.InDelta(t, 1.0, float64(math32Abs(q.W)), 1e-5)
}

func math32Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestKeyframeIntervalClamps(t *testing.T) {
	a := &animatorImpl{tolerance: 0.001}
	sp := &scene.AnimationSampler{Input: []float32{0.2, 0.5, 0.8}}

	i0, i1, f := a.keyframeInterval(sp, 0.0)
	assert.Equal(t, 0, i0)
	assert.Equal(t, 0, i1)
	assert.Zero(t, f)

	i0, i1, f = a.keyframeInterval(sp, 0.9)
	assert.Equal(t, 2, i0)
	assert.Equal(t, 2, i1)
	assert.Zero(t, f)

	i0, i1, f = a.keyframeInterval(sp, 0.65)
	assert.Equal(t, 1, i0)
	assert.Equal(t, 2, i1)
	assert.InDelta(t, 0.5, float64(f), 1e-5)
}
