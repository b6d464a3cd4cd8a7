package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStack(t *testing.T) {
	cause := errors.New("boom")

	wrapped := NewStack(cause)
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, cause)

	// Wrapping again keeps the original trace.
	assert.Same(t, wrapped, NewStack(wrapped))

	// A traced error further wrapped with %w is still not re-traced.
	rewrapped := NewStack(fmt.Errorf("context: %w", wrapped))
	assert.ErrorIs(t, rewrapped, cause)
	assert.Equal(t, Trace(wrapped), Trace(rewrapped))
}

func TestNewStack_Nil(t *testing.T) {
	assert.NoError(t, NewStack(nil))
}

func TestTrace(t *testing.T) {
	wrapped := NewStack(errors.New("boom"))

	trace := Trace(wrapped)
	assert.Contains(t, trace, "TestTrace")
	assert.Contains(t, trace, "errs_test.go")
}

func TestTrace_UntracedError(t *testing.T) {
	assert.Empty(t, Trace(errors.New("boom")))
}
