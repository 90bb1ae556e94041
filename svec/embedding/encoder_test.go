package embedding

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeShapesAndMask(t *testing.T) {
	enc, err := NewEncoder(newTestTokenizer(t), 8, PadFixed)
	require.NoError(t, err)

	b, err := enc.Encode([]string{"the happy person", "a cafe"})
	require.NoError(t, err)

	assert.Equal(t, 2, b.Size())
	assert.Equal(t, 8, b.SeqLen())
	assert.Equal(t, []int{2, 8}, b.InputIDs.Shape)
	assert.Equal(t, b.InputIDs.Shape, b.AttentionMask.Shape)
	assert.Equal(t, b.InputIDs.Shape, b.SegmentIDs.Shape)

	assert.Equal(t, []int64{2, 4, 5, 6, 3, 0, 0, 0}, b.Examples[0].InputIDs)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0, 0, 0}, b.Examples[0].AttentionMask)
	assert.Equal(t, []int64{2, 8, 9, 3, 0, 0, 0, 0}, b.Examples[1].InputIDs)

	for i, ex := range b.Examples {
		var sum int64
		for _, m := range ex.AttentionMask {
			sum += m
		}
		assert.Equal(t, int64(len(ex.Tokens)), sum, "example %d", i)
		assert.Len(t, ex.InputIDs, b.SeqLen())
	}

	// rows share storage with the batch tensors
	assert.Equal(t, int64(9), b.InputIDs.At(1, 2))
	assert.Equal(t, int64(0), b.AttentionMask.At(1, 4))
}

func TestEncodeSingleSentenceSegments(t *testing.T) {
	enc, err := NewEncoder(newTestTokenizer(t), 6, PadFixed)
	require.NoError(t, err)

	b, err := enc.EncodeOne("the dog")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0}, b.Examples[0].SegmentIDs)
}

func TestEncodePairsSegments(t *testing.T) {
	enc, err := NewEncoder(newTestTokenizer(t), 10, PadFixed)
	require.NoError(t, err)

	b, err := enc.EncodePairs([][2]string{{"the happy", "a cafe"}})
	require.NoError(t, err)

	ex := b.Examples[0]
	assert.Equal(t, []int64{2, 4, 5, 3, 8, 9, 3, 0, 0, 0}, ex.InputIDs)
	// padding stays at segment 0
	assert.Equal(t, []int64{0, 0, 0, 0, 1, 1, 1, 0, 0, 0}, ex.SegmentIDs)
}

func TestSegmentIDs(t *testing.T) {
	toks := []tokenizer.Token{
		{Text: "[CLS]"}, {Text: "a"}, {Text: "[SEP]"}, {Text: "b"}, {Text: "[SEP]"}, {Text: "c"}, {Text: "[SEP]"},
	}
	segs := SegmentIDs(toks, tokenizer.SeparatorToken)
	assert.Equal(t, []int64{0, 0, 0, 1, 1, 2, 2}, segs)
	for i := 1; i < len(segs); i++ {
		assert.GreaterOrEqual(t, segs[i], segs[i-1])
	}
	assert.Empty(t, SegmentIDs(nil, tokenizer.SeparatorToken))
}

func TestEncodeLengthExceeded(t *testing.T) {
	enc, err := NewEncoder(newTestTokenizer(t), 4, PadFixed)
	require.NoError(t, err)

	_, err = enc.Encode([]string{"a", "the happy person is sad"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrLengthExceeded)

	var stageErr *common.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, common.StageEncode, stageErr.Stage)
	assert.Equal(t, 1, stageErr.Index)
}

func TestEncodeExactlyMaxLength(t *testing.T) {
	enc, err := NewEncoder(newTestTokenizer(t), 4, PadFixed)
	require.NoError(t, err)

	b, err := enc.Encode([]string{"a cafe"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1, 1}, b.Examples[0].AttentionMask)
}

func TestEncodeEmpty(t *testing.T) {
	enc, err := NewEncoder(newTestTokenizer(t), 8, PadFixed)
	require.NoError(t, err)

	b, err := enc.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, []int{0, 8}, b.InputIDs.Shape)
	assert.Empty(t, b.Examples)
}

func TestEncodePadLongest(t *testing.T) {
	enc, err := NewEncoder(newTestTokenizer(t), 16, PadLongest)
	require.NoError(t, err)

	b, err := enc.Encode([]string{"the happy person", "a cafe"})
	require.NoError(t, err)
	assert.Equal(t, 5, b.SeqLen())
	assert.Equal(t, []int64{2, 8, 9, 3, 0}, b.Examples[1].InputIDs)
}

func TestNewEncoderInvalid(t *testing.T) {
	_, err := NewEncoder(newTestTokenizer(t), 0, PadFixed)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)

	_, err = NewEncoder(nil, 8, PadFixed)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)

	_, err = Encode(newTestTokenizer(t), []string{"a"}, -1)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
}

func TestEncodeFunc(t *testing.T) {
	b, err := Encode(newTestTokenizer(t), []string{"the dog"}, 6)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 11, 3, 0, 0}, b.Examples[0].InputIDs)
}

func TestParsePadding(t *testing.T) {
	tests := []struct {
		in      string
		want    PaddingStrategy
		wantErr bool
	}{
		{"", PadFixed, false},
		{"fixed", PadFixed, false},
		{"max_length", PadFixed, false},
		{" Longest ", PadLongest, false},
		{"ragged", PadFixed, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePadding(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "longest", PadLongest.String())
	assert.Equal(t, "fixed", PadFixed.String())
}
