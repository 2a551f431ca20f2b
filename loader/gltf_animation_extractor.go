package loader

import (
	"fmt"

	gltf "github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// extractAnimations converts every declared animation into keyframe curve
// form. Validation here is per animation: one with an out-of-range sampler
// or target index, or a sampler with zero keyframes, is dropped with a
// reported local error while the remaining animations stay intact.
func extractAnimations(doc *gltf.Document, r *accessorResolver, nodeCount int, dc *diag.Context) []scene.Animation {
	var animations []scene.Animation

	for ai, src := range doc.Animations {
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", ai)
		}

		anim, err := convertAnimation(src, r, nodeCount)
		if err != nil {
			dc.CountLocalError("animation dropped",
				zap.Int("animation", ai), zap.String("name", name), zap.Error(err))
			continue
		}
		anim.Name = name
		animations = append(animations, anim)
	}
	return animations
}

// convertAnimation reads one animation's samplers and channels through the
// accessor resolver and derives its duration.
func convertAnimation(src *gltf.Animation, r *accessorResolver, nodeCount int) (scene.Animation, *Error) {
	anim := scene.Animation{
		Samplers: make([]scene.AnimationSampler, len(src.Samplers)),
		Channels: make([]scene.AnimationChannel, 0, len(src.Channels)),
	}

	// Paths per sampler are discovered from the channels that reference
	// them; a sampler's value width depends on the driven property. Two
	// channels may share a sampler only when they drive the same property.
	samplerPath := make([]gltf.TRSProperty, len(src.Samplers))
	samplerUsed := make([]bool, len(src.Samplers))
	for _, ch := range src.Channels {
		if ch.Sampler == nil {
			return scene.Animation{}, newError(KindValidationFailure, "channel has no sampler")
		}
		si := int(*ch.Sampler)
		if si < 0 || si >= len(src.Samplers) {
			return scene.Animation{}, newError(KindValidationFailure,
				"channel sampler %d out of range [0,%d)", si, len(src.Samplers))
		}
		if samplerUsed[si] && samplerPath[si] != ch.Target.Path {
			return scene.Animation{}, newError(KindValidationFailure,
				"sampler %d shared by channels with paths %v and %v", si, samplerPath[si], ch.Target.Path)
		}
		samplerPath[si] = ch.Target.Path
		samplerUsed[si] = true
	}

	for si, sp := range src.Samplers {
		// A sampler no channel references stays empty, but its keyframe
		// times still count toward the animation's duration.
		if !samplerUsed[si] {
			if times, ok := r.readScalars(int(sp.Input)); ok && len(times) > 0 {
				if last := times[len(times)-1]; last > anim.Duration {
					anim.Duration = last
				}
			}
			continue
		}
		input, ok := r.readScalars(int(sp.Input))
		if !ok {
			return scene.Animation{}, newError(KindCorruptedBuffer, "sampler %d: input times unreadable", si)
		}
		if len(input) == 0 {
			return scene.Animation{}, newError(KindAnimationError, "sampler %d has zero keyframes", si)
		}

		out := scene.AnimationSampler{Input: input}
		switch sp.Interpolation {
		case gltf.InterpolationStep:
			out.Interpolation = scene.InterpolationStep
		case gltf.InterpolationCubicSpline:
			out.Interpolation = scene.InterpolationCubicSpline
		default:
			out.Interpolation = scene.InterpolationLinear
		}

		switch samplerPath[si] {
		case gltf.TRSRotation:
			values, ok := r.readVec4(int(sp.Output))
			if !ok {
				return scene.Animation{}, newError(KindCorruptedBuffer, "sampler %d: rotation values unreadable", si)
			}
			out.Components = 4
			out.Output = flattenVec4(values)
		case gltf.TRSWeights:
			values, ok := r.readScalars(int(sp.Output))
			if !ok {
				return scene.Animation{}, newError(KindCorruptedBuffer, "sampler %d: weight values unreadable", si)
			}
			out.Components = 1
			out.Output = values
		default:
			values, ok := r.readVec3(int(sp.Output))
			if !ok {
				return scene.Animation{}, newError(KindCorruptedBuffer, "sampler %d: vector values unreadable", si)
			}
			out.Components = 3
			out.Output = flattenVec3(values)
		}

		// Cubic spline stores in-tangent, value, out-tangent triples; the
		// linear fallback keeps only the value element of each triple.
		keyCount := len(out.Output) / out.Components
		switch {
		case keyCount == len(input):
			// aligned
		case keyCount == 3*len(input) && out.Interpolation == scene.InterpolationCubicSpline:
			packed := make([]float32, 0, len(input)*out.Components)
			for k := 0; k < len(input); k++ {
				base := (k*3 + 1) * out.Components
				packed = append(packed, out.Output[base:base+out.Components]...)
			}
			out.Output = packed
		default:
			return scene.Animation{}, newError(KindAnimationError,
				"sampler %d: %d values for %d keyframes", si, keyCount, len(input))
		}

		if last := input[len(input)-1]; last > anim.Duration {
			anim.Duration = last
		}
		anim.Samplers[si] = out
	}

	for ci, ch := range src.Channels {
		if ch.Target.Node == nil {
			// A channel without a target is legal and carries no effect.
			continue
		}
		target := int(*ch.Target.Node)
		if target < 0 || target >= nodeCount {
			return scene.Animation{}, newError(KindValidationFailure,
				"channel %d targets node %d out of range [0,%d)", ci, target, nodeCount)
		}

		var path scene.TargetPath
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			path = scene.PathTranslation
		case gltf.TRSRotation:
			path = scene.PathRotation
		case gltf.TRSScale:
			path = scene.PathScale
		case gltf.TRSWeights:
			path = scene.PathWeights
		default:
			return scene.Animation{}, newError(KindValidationFailure, "channel %d has unknown target path", ci)
		}

		anim.Channels = append(anim.Channels, scene.AnimationChannel{
			Sampler:    int(*ch.Sampler),
			TargetNode: target,
			Path:       path,
		})
	}

	return anim, nil
}

func flattenVec3(values [][3]float32) []float32 {
	out := make([]float32, 0, len(values)*3)
	for _, v := range values {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

func flattenVec4(values [][4]float32) []float32 {
	out := make([]float32, 0, len(values)*4)
	for _, v := range values {
		out = append(out, v[0], v[1], v[2], v[3])
	}
	return out
}
