package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"
)

// hashInference is a deterministic stand-in for the encoder: each token's
// hidden vector is derived from its id and segment, so equal texts produce
// equal embeddings. Used for development and tests.
type hashInference struct{ hidden int }

func NewHashInference(hidden int) Inference {
	if hidden <= 0 {
		hidden = 384
	}
	return &hashInference{hidden: hidden}
}

func (h *hashInference) Infer(ctx context.Context, ids, mask, segments *tensor.Int64View) (*tensor.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ids.Rank() != 2 || !tensor.SameShape(ids, mask) || !tensor.SameShape(ids, segments) {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "hash inference: input shapes %v %v %v", ids.Shape, mask.Shape, segments.Shape)
	}
	batch, seq := ids.Shape[0], ids.Shape[1]
	out, err := tensor.Zeros[float32](batch, seq, h.hidden)
	if err != nil {
		return nil, err
	}
	var key [16]byte
	for b := 0; b < batch; b++ {
		for s := 0; s < seq; s++ {
			binary.LittleEndian.PutUint64(key[:8], uint64(ids.At(b, s)))
			binary.LittleEndian.PutUint64(key[8:], uint64(segments.At(b, s)))
			sum := sha256.Sum256(key[:])
			base := out.Offset(b, s, 0)
			// repeat hash bytes to fill dims
			for j := 0; j < h.hidden; j++ {
				out.Data[base+j] = (float32(int(sum[j%len(sum)])) - 128.0) / 128.0
			}
		}
	}
	return out, nil
}
