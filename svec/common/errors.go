package common

import (
	"errors"
	"fmt"
)

// Common error types used across the embedding packages
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrLengthExceeded       = errors.New("input length exceeded")
	ErrLengthMismatch       = errors.New("length mismatch")
	ErrIndexOutOfRange      = errors.New("index out of range")
)

// Pipeline stage names reported by StageError
const (
	StageEncode    = "encode"
	StageInfer     = "infer"
	StagePool      = "pool"
	StageNormalize = "normalize"
	StageRank      = "rank"
)

// StageError records where in the pipeline a failure happened.
// Index is the example (row) index, or -1 when the failure is not tied to one.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: example %d: %v", e.Stage, e.Index, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with stage context. A nil err yields nil.
func NewStageError(stage string, index int, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Index: index, Err: err}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", context, err)
}

// Errorf builds an error that wraps the sentinel kind with a formatted detail.
func Errorf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
