// Package animator evaluates a scene's keyframe animations into per-frame
// bone matrices. Each Animator instance owns its playback state (active
// clip, clock, working pose), so many instances can animate the same
// immutable scene independently. Instances are single-writer: one caller
// advances and reads them per frame, with no internal locking.
package animator

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// Animator drives skeletal animation playback for one scene instance.
type Animator interface {
	// Play activates the animation at the given index and rewinds the
	// clock.
	//
	// Parameters:
	//   - index: the animation index within the scene
	//
	// Returns:
	//   - error: when the index is out of range
	Play(index int) error

	// PlayName activates the first animation with the given name.
	PlayName(name string) error

	// Stop deactivates playback; the pose returns to rest on the next
	// Advance.
	Stop()

	// Playing reports whether a clip is active.
	Playing() bool

	// Clip returns the active animation index, -1 when idle.
	Clip() int

	// Time returns the current clock position in seconds.
	Time() float32

	// SetTime positions the clock; the value wraps into the clip's
	// duration on the next evaluation.
	SetTime(t float32)

	// Speed returns the playback rate multiplier.
	Speed() float32

	// SetSpeed sets the playback rate multiplier (1 is authored speed;
	// negative plays backwards).
	SetSpeed(s float32)

	// Advance moves the clock by dt seconds, wrapping modulo the active
	// clip's duration, and re-evaluates the bone matrices. Animations
	// always loop. With no active clip the rest pose is produced.
	Advance(dt float32)

	// BoneMatrices returns the current skinning matrices, one per joint
	// of the scene's skeleton. The slice is reused between calls.
	BoneMatrices() []mgl32.Mat4
}

// Option configures an Animator during construction.
type Option func(*animatorImpl)

// WithTolerance overrides the minimum keyframe spacing treated as
// distinct during interpolation. Defaults to the scene's configured
// tolerance, or 0.001 seconds when the scene carries none.
func WithTolerance(tol float32) Option {
	return func(a *animatorImpl) {
		if tol > 0 {
			a.tolerance = tol
		}
	}
}

// New creates an Animator for the given scene.
//
// Parameters:
//   - s: a published scene carrying a skeleton
//   - options: optional configuration functions
//
// Returns:
//   - Animator: the animator instance
//   - error: when the scene is nil or has no skeleton
func New(s *scene.Scene, options ...Option) (Animator, error) {
	a, err := newAnimator(s)
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}
