package loader

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStringIncludesOffset(t *testing.T) {
	err := newErrorAt(KindInvalidFormat, 42, "stray byte")
	assert.Contains(t, err.Error(), "offset 42")
	assert.Contains(t, err.Error(), "invalid format")

	err = newError(KindCorruptedBuffer, "short read")
	assert.NotContains(t, err.Error(), "offset")
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("disk on fire")
	err := wrapError(KindCorruptedBuffer, cause, "loading buffer %d", 3)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loading buffer 3")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindResourceLimit, KindOf(newError(KindResourceLimit, "too big")))
	assert.Equal(t, KindNone, KindOf(errors.New("plain")))
	assert.Equal(t, KindNone, KindOf(nil))

	// Kind survives fmt wrapping.
	wrapped := fmt.Errorf("outer: %w", newError(KindAnimationError, "bad curve"))
	assert.Equal(t, KindAnimationError, KindOf(wrapped))
}

func TestErrorKindStringsAreStable(t *testing.T) {
	kinds := []ErrorKind{
		KindNone, KindInvalidFormat, KindUnsupportedVersion,
		KindMissingRequiredData, KindCorruptedBuffer, KindResourceLimit,
		KindLibraryError, KindTextureLoadFailure, KindAnimationError,
		KindValidationFailure,
	}
	seen := map[string]bool{}
	for _, k := range kinds {
		s := k.String()
		require.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate kind name %q", s)
		seen[s] = true
	}
	assert.Equal(t, "unknown", ErrorKind(99).String())
}
