package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFoundError("provider", "p1"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "lookup: provider with ID p1 not found", err.Error())
}

func TestTransportKeepsClassifiedErrors(t *testing.T) {
	nf := NewNotFoundError("provider", "p1")
	assert.Same(t, nf, Transport("find", nf))
	assert.Nil(t, Transport("find", nil))

	raw := errors.New("connection reset")
	wrapped := Transport("find providers", raw)
	assert.True(t, errors.Is(wrapped, ErrTransport))
	assert.True(t, errors.Is(wrapped, raw))
	assert.Equal(t, "find providers: connection reset", wrapped.Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("reason", "is required")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "reason")
}
