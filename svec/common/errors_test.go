package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageErrorUnwrapsToSentinel(t *testing.T) {
	err := NewStageError(StageEncode, 3, Errorf(ErrLengthExceeded, "%d tokens > %d", 300, 256))
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrLengthExceeded))
	assert.Equal(t, "encode: example 3: input length exceeded: 300 tokens > 256", err.Error())

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.Index)
	assert.Equal(t, StageEncode, se.Stage)
}

func TestStageErrorWithoutIndex(t *testing.T) {
	err := NewStageError(StageRank, -1, ErrInvalidArgument)
	assert.Equal(t, "rank: invalid argument", err.Error())
}

func TestNilErrorsStayNil(t *testing.T) {
	assert.NoError(t, NewStageError(StagePool, 0, nil))
	assert.NoError(t, WrapError(nil, "ignored %d", 1))
}

func TestWrapErrorKeepsIdentity(t *testing.T) {
	err := WrapError(ErrIndexOutOfRange, "axis %d", 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, "axis 5: index out of range", err.Error())
}
