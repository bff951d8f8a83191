package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(CodeNotFound, "entity does not exist")
		assert.Equal(t, "not_found: entity does not exist", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "loading record")
		assert.Equal(t, "internal: loading record: connection refused", err.Error())
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("newf formats message", func(t *testing.T) {
		err := Newf(CodeRoleMismatch, "field %q does not belong to role %q", "email", "company")
		assert.Contains(t, err.Error(), `field "email" does not belong to role "company"`)
	})
}

func TestHasCode(t *testing.T) {
	t.Run("direct match", func(t *testing.T) {
		err := New(CodeLockedRecord, "locked")
		assert.True(t, HasCode(err, CodeLockedRecord))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		inner := New(CodeConflict, "version mismatch")
		outer := Wrap(inner, CodeInternal, "saving record")
		assert.True(t, HasCode(outer, CodeConflict))
		assert.True(t, HasCode(outer, CodeInternal))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		inner := New(CodeMalformedGuess, "no value")
		wrapped := fmt.Errorf("processing batch: %w", inner)
		assert.True(t, HasCode(wrapped, CodeMalformedGuess))
	})

	t.Run("nil and uncoded errors", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})

	t.Run("is alias", func(t *testing.T) {
		assert.True(t, Is(New(CodeTimeout, "deadline"), CodeTimeout))
	})
}

func TestCodeOf(t *testing.T) {
	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		outer := Wrap(inner, CodeInvariantViolation, "link target gone")
		assert.Equal(t, CodeInvariantViolation, CodeOf(outer))
	})

	t.Run("uncoded error maps to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("coded error inside plain wrap", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeValidation, "bad shape"))
		require.Equal(t, CodeValidation, CodeOf(err))
	})
}
