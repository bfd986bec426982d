package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := NewError(ErrEmptySelection, "no agents selected")
	assert.Equal(t, "[EMPTY_SELECTION] no agents selected", err.Error())
	assert.False(t, err.Retryable)
}

func TestError_WithNode(t *testing.T) {
	err := NewError(ErrUnknownKind, "unrecognized stage kind").WithNode("node-7")
	assert.Equal(t, "node-7", err.NodeID)
	assert.Contains(t, err.Error(), "node-7")
}

func TestError_WithCauseUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewError(ErrInvokeFailed, "gateway unreachable").WithCause(cause)
	require.NotNil(t, err.Cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_WithRetryable(t *testing.T) {
	err := NewError(ErrInvokeRejected, "rate limited").WithRetryable(true)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(NewError(ErrCycleDetected, "cycle")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestGetErrorCode(t *testing.T) {
	err := NewError(ErrTimeout, "deadline exceeded")
	assert.Equal(t, ErrTimeout, GetErrorCode(err))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}
