package embedding

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding/tokenizer"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"
)

// PaddingStrategy selects the common sequence length of a batch.
type PaddingStrategy int

const (
	// PadFixed pads every example to the configured maximum length.
	PadFixed PaddingStrategy = iota
	// PadLongest pads to the longest example in the batch.
	PadLongest
)

func (p PaddingStrategy) String() string {
	if p == PadLongest {
		return "longest"
	}
	return "fixed"
}

// ParsePadding maps "fixed" / "longest" to a PaddingStrategy.
func ParsePadding(s string) (PaddingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed", "max_length":
		return PadFixed, nil
	case "longest":
		return PadLongest, nil
	}
	return PadFixed, common.Errorf(common.ErrInvalidConfiguration, "unknown padding %q", s)
}

// Example is one encoded input, already padded to the batch length.
type Example struct {
	Tokens        []tokenizer.Token
	InputIDs      []int64
	AttentionMask []int64
	SegmentIDs    []int64
}

// Batch holds the per-example rows and the same data as [batch, seq] tensors.
type Batch struct {
	Examples      []Example
	InputIDs      *tensor.Int64View
	AttentionMask *tensor.Int64View
	SegmentIDs    *tensor.Int64View
}

func (b *Batch) Size() int { return b.InputIDs.Shape[0] }

func (b *Batch) SeqLen() int { return b.InputIDs.Shape[1] }

// Encoder turns text into fixed-shape model inputs. Inputs longer than
// maxLen are rejected with common.ErrLengthExceeded; nothing is truncated.
type Encoder struct {
	tok     tokenizer.Tokenizer
	maxLen  int
	padding PaddingStrategy
}

// NewEncoder validates maxLen and returns an Encoder.
func NewEncoder(tok tokenizer.Tokenizer, maxLen int, padding PaddingStrategy) (*Encoder, error) {
	if tok == nil {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "tokenizer is required")
	}
	if maxLen <= 0 {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "max sequence length must be positive, got %d", maxLen)
	}
	return &Encoder{tok: tok, maxLen: maxLen, padding: padding}, nil
}

// Encode tokenizes texts with tok and pads each to maxLen.
func Encode(tok tokenizer.Tokenizer, texts []string, maxLen int) (*Batch, error) {
	enc, err := NewEncoder(tok, maxLen, PadFixed)
	if err != nil {
		return nil, err
	}
	return enc.Encode(texts)
}

func (e *Encoder) MaxLen() int { return e.maxLen }

// Encode encodes each text as a single-sentence example.
func (e *Encoder) Encode(texts []string) (*Batch, error) {
	inputs := make([][]string, len(texts))
	for i, t := range texts {
		inputs[i] = []string{t}
	}
	return e.encode(inputs, 0)
}

// EncodeOne encodes a single text into a batch of one.
func (e *Encoder) EncodeOne(text string) (*Batch, error) {
	return e.Encode([]string{text})
}

// EncodePairs encodes sentence pairs; segment ids switch to 1 after the
// first separator.
func (e *Encoder) EncodePairs(pairs [][2]string) (*Batch, error) {
	inputs := make([][]string, len(pairs))
	for i, p := range pairs {
		inputs[i] = []string{p[0], p[1]}
	}
	return e.encode(inputs, 0)
}

// encode reports example indexes offset by base.
func (e *Encoder) encode(inputs [][]string, base int) (*Batch, error) {
	sep := e.tok.Separator()
	seqs := make([][]tokenizer.Token, len(inputs))
	longest := 0
	for i, in := range inputs {
		toks, err := e.tok.Tokenize(in)
		if err != nil {
			return nil, common.NewStageError(common.StageEncode, base+i, fmt.Errorf("tokenize: %w", err))
		}
		if len(toks) > e.maxLen {
			return nil, common.NewStageError(common.StageEncode, base+i,
				common.Errorf(common.ErrLengthExceeded, "%d tokens, max sequence length %d", len(toks), e.maxLen))
		}
		seqs[i] = toks
		longest = max(longest, len(toks))
	}

	seqLen := e.maxLen
	if e.padding == PadLongest {
		seqLen = longest
	}

	n := len(inputs)
	ids := make([]int64, n*seqLen)
	mask := make([]int64, n*seqLen)
	segs := make([]int64, n*seqLen)
	examples := make([]Example, n)
	for i, toks := range seqs {
		row := i * seqLen
		segments := SegmentIDs(toks, sep)
		for j, t := range toks {
			ids[row+j] = t.ID
			mask[row+j] = 1
			segs[row+j] = segments[j]
		}
		examples[i] = Example{
			Tokens:        toks,
			InputIDs:      ids[row : row+seqLen : row+seqLen],
			AttentionMask: mask[row : row+seqLen : row+seqLen],
			SegmentIDs:    segs[row : row+seqLen : row+seqLen],
		}
	}

	b := &Batch{Examples: examples}
	var err error
	if b.InputIDs, err = tensor.FromData(ids, n, seqLen); err != nil {
		return nil, err
	}
	if b.AttentionMask, err = tensor.FromData(mask, n, seqLen); err != nil {
		return nil, err
	}
	if b.SegmentIDs, err = tensor.FromData(segs, n, seqLen); err != nil {
		return nil, err
	}
	return b, nil
}

// SegmentIDs assigns each token the current segment, bumping the segment
// after every separator token.
func SegmentIDs(tokens []tokenizer.Token, separator string) []int64 {
	out := make([]int64, len(tokens))
	var segment int64
	for i, t := range tokens {
		out[i] = segment
		if t.Text == separator {
			segment++
		}
	}
	return out
}
