package embedding

import (
	"context"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"
)

// Inference runs the transformer encoder. All three inputs share the shape
// [batch, seq]; the result is the last hidden state [batch, seq, hidden].
type Inference interface {
	Infer(ctx context.Context, inputIDs, attentionMask, segmentIDs *tensor.Int64View) (*tensor.View, error)
}

// Shape is the fixed tensor geometry the model accepts. It is built once from
// configuration and every batch is checked against it.
type Shape struct {
	MaxBatch       int
	SequenceLength int
	HiddenSize     int
}

// NewShape validates and returns a Shape.
func NewShape(maxBatch, sequenceLength, hiddenSize int) (Shape, error) {
	s := Shape{MaxBatch: maxBatch, SequenceLength: sequenceLength, HiddenSize: hiddenSize}
	return s, s.Validate()
}

func (s Shape) Validate() error {
	switch {
	case s.MaxBatch <= 0:
		return common.Errorf(common.ErrInvalidConfiguration, "max batch must be positive, got %d", s.MaxBatch)
	case s.SequenceLength <= 0:
		return common.Errorf(common.ErrInvalidConfiguration, "sequence length must be positive, got %d", s.SequenceLength)
	case s.HiddenSize <= 0:
		return common.Errorf(common.ErrInvalidConfiguration, "hidden size must be positive, got %d", s.HiddenSize)
	}
	return nil
}

// CheckBatch verifies an encoded batch fits the model inputs.
func (s Shape) CheckBatch(b *Batch) error {
	if b.Size() > s.MaxBatch {
		return common.Errorf(common.ErrInvalidConfiguration, "batch of %d exceeds max batch %d", b.Size(), s.MaxBatch)
	}
	if b.SeqLen() > s.SequenceLength {
		return common.Errorf(common.ErrInvalidConfiguration, "sequence length %d exceeds %d", b.SeqLen(), s.SequenceLength)
	}
	if !tensor.SameShape(b.InputIDs, b.AttentionMask) || !tensor.SameShape(b.InputIDs, b.SegmentIDs) {
		return common.Errorf(common.ErrInvalidConfiguration, "input tensors disagree: ids %v mask %v segments %v",
			b.InputIDs.Shape, b.AttentionMask.Shape, b.SegmentIDs.Shape)
	}
	return nil
}

// CheckHidden verifies the model returned [batch, seq, HiddenSize].
func (s Shape) CheckHidden(batch, seq int, hidden *tensor.View) error {
	if hidden == nil {
		return common.Errorf(common.ErrInvalidConfiguration, "inference returned no output")
	}
	want := []int{batch, seq, s.HiddenSize}
	if hidden.Rank() != 3 || hidden.Shape[0] != batch || hidden.Shape[1] != seq || hidden.Shape[2] != s.HiddenSize {
		return common.Errorf(common.ErrInvalidConfiguration, "hidden state shape %v, expected %v", hidden.Shape, want)
	}
	return nil
}
