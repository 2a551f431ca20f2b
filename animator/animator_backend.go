package animator

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// ErrNoSkeleton is returned when the scene carries no skeleton to animate.
var ErrNoSkeleton = errors.New("scene has no skeleton")

type animatorImpl struct {
	scn *scene.Scene

	clip  int
	clock float32
	speed float32

	tolerance float32

	// Instance copies of the node arena's transforms; the scene itself is
	// never mutated.
	locals []scene.Transform
	worlds []mgl32.Mat4

	pose     []scene.Transform
	matrices []mgl32.Mat4
}

var _ Animator = &animatorImpl{}

func newAnimator(s *scene.Scene) (*animatorImpl, error) {
	if s == nil || s.Skeleton == nil {
		return nil, ErrNoSkeleton
	}

	tolerance := s.AnimationTolerance
	if tolerance <= 0 {
		tolerance = 0.001
	}

	a := &animatorImpl{
		scn:       s,
		clip:      -1,
		speed:     1,
		tolerance: tolerance,
		locals:    make([]scene.Transform, len(s.Nodes)),
		worlds:    make([]mgl32.Mat4, len(s.Nodes)),
		pose:      make([]scene.Transform, len(s.Skeleton.Joints)),
		matrices:  make([]mgl32.Mat4, len(s.Skeleton.Joints)),
	}
	copy(a.matrices, s.BoneMatrices)
	return a, nil
}

// Play implements Animator.
func (a *animatorImpl) Play(index int) error {
	if index < 0 || index >= a.scn.AnimationCount() {
		return fmt.Errorf("animation %d out of range [0,%d)", index, a.scn.AnimationCount())
	}
	a.clip = index
	a.clock = 0
	return nil
}

// PlayName implements Animator.
func (a *animatorImpl) PlayName(name string) error {
	idx := a.scn.FindAnimation(name)
	if idx < 0 {
		return fmt.Errorf("no animation named %q", name)
	}
	return a.Play(idx)
}

// Stop implements Animator.
func (a *animatorImpl) Stop() {
	a.clip = -1
	a.clock = 0
}

// Playing implements Animator.
func (a *animatorImpl) Playing() bool {
	return a.clip >= 0
}

// Clip implements Animator.
func (a *animatorImpl) Clip() int {
	return a.clip
}

// Time implements Animator.
func (a *animatorImpl) Time() float32 {
	return a.clock
}

// SetTime implements Animator.
func (a *animatorImpl) SetTime(t float32) {
	a.clock = t
}

// Speed implements Animator.
func (a *animatorImpl) Speed() float32 {
	return a.speed
}

// SetSpeed implements Animator.
func (a *animatorImpl) SetSpeed(s float32) {
	a.speed = s
}

// BoneMatrices implements Animator.
func (a *animatorImpl) BoneMatrices() []mgl32.Mat4 {
	return a.matrices
}

// Advance implements Animator. The clock wraps modulo the clip duration,
// so evaluating at exactly t = duration reproduces the first keyframe.
// Evaluation depends only on the wrapped clock value, never on previous
// poses, so repeated or wrapping advancement cannot accumulate drift.
func (a *animatorImpl) Advance(dt float32) {
	if a.clip < 0 {
		copy(a.matrices, a.scn.BoneMatrices)
		return
	}
	anim := &a.scn.Animations[a.clip]

	a.clock += dt * a.speed
	if anim.Duration > 0 {
		a.clock = math32.Mod(a.clock, anim.Duration)
		if a.clock < 0 {
			a.clock += anim.Duration
		}
	} else {
		a.clock = 0
	}

	a.sample(anim, a.clock)
}

// sample evaluates one animation at the given wrapped time and rebuilds
// the skinning matrices.
func (a *animatorImpl) sample(anim *scene.Animation, t float32) {
	skel := a.scn.Skeleton

	// Start every evaluation from the rest pose.
	copy(a.pose, skel.BasePose)

	for _, ch := range anim.Channels {
		if ch.TargetNode < 0 || ch.TargetNode >= len(a.scn.Nodes) {
			continue
		}
		node := &a.scn.Nodes[ch.TargetNode]
		// Channels driving nodes outside the active skeleton are valid
		// but not rendered through the bone path.
		if !node.IsJoint || node.BoneIndex < 0 || node.BoneIndex >= len(a.pose) {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			continue
		}
		sp := &anim.Samplers[ch.Sampler]
		if len(sp.Input) == 0 {
			continue
		}

		i0, i1, f := a.keyframeInterval(sp, t)
		a.applyChannel(&a.pose[node.BoneIndex], sp, ch.Path, i0, i1, f)
	}

	// Write the sampled pose into the instance-local arena and propagate.
	for i := range a.scn.Nodes {
		a.locals[i] = a.scn.Nodes[i].Local
	}
	for b, node := range skel.Joints {
		if node >= 0 && node < len(a.locals) {
			a.locals[node] = a.pose[b]
		}
	}
	a.propagate()

	for b, node := range skel.Joints {
		if node >= 0 && node < len(a.worlds) {
			a.matrices[b] = a.worlds[node].Mul4(skel.InverseBind[b])
		}
	}
}

// keyframeInterval finds the greatest index i0 with times[i0] <= t <
// times[i0+1] and the clamped interpolation factor between the pair.
// Times before the first keyframe clamp to it; times at or past the last
// keyframe clamp to the last.
func (a *animatorImpl) keyframeInterval(sp *scene.AnimationSampler, t float32) (int, int, float32) {
	times := sp.Input
	last := len(times) - 1

	if t <= times[0] {
		return 0, 0, 0
	}
	if t >= times[last] {
		return last, last, 0
	}

	i0 := 0
	for i := 0; i < last; i++ {
		if times[i] <= t && t < times[i+1] {
			i0 = i
			break
		}
	}
	i1 := i0 + 1

	span := times[i1] - times[i0]
	if span < a.tolerance {
		return i0, i1, 0
	}
	f := (t - times[i0]) / span
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	if sp.Interpolation == scene.InterpolationStep {
		f = 0
	}
	return i0, i1, f
}

// applyChannel blends the keyframe pair into the target transform.
// Translation and scale blend component-wise; rotation uses a normalized
// linear blend between the two quaternions (shortest path). Cubic spline
// data was reduced to its value elements at load time, so every mode
// evaluates through the same linear fallback.
func (a *animatorImpl) applyChannel(target *scene.Transform, sp *scene.AnimationSampler, path scene.TargetPath, i0, i1 int, f float32) {
	switch path {
	case scene.PathTranslation:
		if v, ok := lerpVec3(sp, i0, i1, f); ok {
			target.Translation = v
		}
	case scene.PathScale:
		if v, ok := lerpVec3(sp, i0, i1, f); ok {
			target.Scale = v
		}
	case scene.PathRotation:
		if q, ok := blendQuat(sp, i0, i1, f); ok {
			target.Rotation = q
		}
	case scene.PathWeights:
		// Morph target weights are retained but not evaluated.
	}
}

// propagate recomputes the instance-local world matrices from the
// instance-local transforms, reusing the scene's topology.
func (a *animatorImpl) propagate() {
	nodes := a.scn.Nodes
	var walk func(i int, parent mgl32.Mat4)
	walk = func(i int, parent mgl32.Mat4) {
		a.worlds[i] = parent.Mul4(a.locals[i].Matrix())
		for _, c := range nodes[i].Children {
			if c >= 0 && c < len(nodes) {
				walk(c, a.worlds[i])
			}
		}
	}
	for i := range nodes {
		if nodes[i].ParentIndex < 0 {
			walk(i, mgl32.Ident4())
		}
	}
}

func lerpVec3(sp *scene.AnimationSampler, i0, i1 int, f float32) (mgl32.Vec3, bool) {
	if sp.Components != 3 {
		return mgl32.Vec3{}, false
	}
	if (i1+1)*3 > len(sp.Output) {
		return mgl32.Vec3{}, false
	}
	v0 := mgl32.Vec3{sp.Output[i0*3], sp.Output[i0*3+1], sp.Output[i0*3+2]}
	v1 := mgl32.Vec3{sp.Output[i1*3], sp.Output[i1*3+1], sp.Output[i1*3+2]}
	return v0.Add(v1.Sub(v0).Mul(f)), true
}

// blendQuat performs a normalized linear blend between two unit
// quaternions, negating the second when the pair straddles the long arc.
// This trades the constant angular velocity of a true spherical blend for
// stability; the deviation only shows at large per-step rotations.
func blendQuat(sp *scene.AnimationSampler, i0, i1 int, f float32) (mgl32.Quat, bool) {
	if sp.Components != 4 {
		return mgl32.Quat{}, false
	}
	if (i1+1)*4 > len(sp.Output) {
		return mgl32.Quat{}, false
	}
	q0 := quatAt(sp.Output, i0)
	q1 := quatAt(sp.Output, i1)

	if q0.Dot(q1) < 0 {
		q1 = q1.Scale(-1)
	}
	blended := mgl32.Quat{
		W: q0.W + (q1.W-q0.W)*f,
		V: q0.V.Add(q1.V.Sub(q0.V).Mul(f)),
	}
	if blended.Len() < 1e-6 {
		return mgl32.QuatIdent(), true
	}
	return blended.Normalize(), true
}

// quatAt reads quaternion keyframe k stored as (x, y, z, w).
func quatAt(out []float32, k int) mgl32.Quat {
	return mgl32.Quat{
		W: out[k*4+3],
		V: mgl32.Vec3{out[k*4], out[k*4+1], out[k*4+2]},
	}
}
