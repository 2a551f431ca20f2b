package loader

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the asset pipeline can report.
type ErrorKind int

const (
	// KindNone is the zero value and never appears on a returned error.
	KindNone ErrorKind = iota

	// KindInvalidFormat marks a container that is neither valid JSON-form
	// nor valid binary-form, or fails structural pre-validation.
	KindInvalidFormat

	// KindUnsupportedVersion marks an asset whose declared version is not 2.
	KindUnsupportedVersion

	// KindMissingRequiredData marks absent mandatory data, such as a
	// primitive without a position attribute.
	KindMissingRequiredData

	// KindCorruptedBuffer marks a buffer or accessor whose bytes cannot be
	// resolved (failed external load, out-of-bounds view).
	KindCorruptedBuffer

	// KindResourceLimit marks a configured resource cap being exceeded.
	KindResourceLimit

	// KindLibraryError wraps an unexpected failure from the parsing
	// library or a recovered panic inside the pipeline.
	KindLibraryError

	// KindTextureLoadFailure marks a texture the collaborator could not
	// produce a handle for. Always local, never fatal.
	KindTextureLoadFailure

	// KindAnimationError marks an animation that could not be converted,
	// such as a sampler with zero keyframes.
	KindAnimationError

	// KindValidationFailure marks a post-process invariant violation.
	KindValidationFailure
)

// String returns the kind's stable name.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidFormat:
		return "invalid format"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindMissingRequiredData:
		return "missing required data"
	case KindCorruptedBuffer:
		return "corrupted buffer"
	case KindResourceLimit:
		return "resource limit exceeded"
	case KindLibraryError:
		return "library error"
	case KindTextureLoadFailure:
		return "texture load failure"
	case KindAnimationError:
		return "animation error"
	case KindValidationFailure:
		return "validation failure"
	default:
		return "unknown"
	}
}

// Error is the pipeline's error type: a kind, a message and, where it is
// meaningful, the byte offset of the offending input.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Msg describes the failure.
	Msg string

	// Offset is the byte offset of the offending input, -1 when not
	// applicable.
	Offset int64

	// Err is the wrapped underlying error, if any.
	Err error
}

var _ error = &Error{}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s (offset %d)", e.Kind, e.Msg, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an *Error with no byte offset.
func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Offset: -1}
}

// newErrorAt builds an *Error carrying the offending byte offset.
func newErrorAt(kind ErrorKind, offset int64, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Offset: offset}
}

// wrapError builds an *Error around an underlying cause.
func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Offset: -1, Err: err}
}

// KindOf extracts the ErrorKind from err, or KindNone when err is not a
// pipeline error.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindNone
}
