package embedding

import (
	"math"
	"strings"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"
)

// PoolingEpsilon floors the token count of fully padded rows.
const PoolingEpsilon = 1e-9

// PoolingStrategy reduces [batch, seq, hidden] to [batch, hidden].
type PoolingStrategy int

const (
	PoolMean PoolingStrategy = iota
	PoolCLS
)

func (p PoolingStrategy) String() string {
	if p == PoolCLS {
		return "cls"
	}
	return "mean"
}

// ParsePooling maps "mean" / "cls" to a PoolingStrategy.
func ParsePooling(s string) (PoolingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean":
		return PoolMean, nil
	case "cls", "first":
		return PoolCLS, nil
	}
	return PoolMean, common.Errorf(common.ErrInvalidConfiguration, "unknown pooling %q", s)
}

// Pool applies the strategy.
func (p PoolingStrategy) Pool(hidden *tensor.View, mask *tensor.Int64View) (*tensor.View, error) {
	if p == PoolCLS {
		return CLSPool(hidden)
	}
	return MeanPool(hidden, mask)
}

// MeanPool averages token vectors over the positions where mask is set:
// out[b,d] = sum_s hidden[b,s,d]*mask[b,s] / max(sum_s mask[b,s], eps).
func MeanPool(hidden *tensor.View, mask *tensor.Int64View) (*tensor.View, error) {
	if hidden.Rank() != 3 || mask.Rank() != 2 {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "mean pool needs hidden [b,s,d] and mask [b,s], got %v and %v", hidden.Shape, mask.Shape)
	}
	batch, seq, dim := hidden.Shape[0], hidden.Shape[1], hidden.Shape[2]
	if mask.Shape[0] != batch || mask.Shape[1] != seq {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "mask shape %v does not match hidden %v", mask.Shape, hidden.Shape)
	}
	out, err := tensor.Zeros[float32](batch, dim)
	if err != nil {
		return nil, err
	}
	if seq == 0 || dim == 0 {
		return out, nil
	}

	acc := make([]float64, dim)
	hs := hidden.Strides
	for b := 0; b < batch; b++ {
		clear(acc)
		var count float64
		for s := 0; s < seq; s++ {
			m := mask.At(b, s)
			if m == 0 {
				continue
			}
			w := float64(m)
			count += w
			base := hidden.Offset(b, s, 0)
			for d := 0; d < dim; d++ {
				acc[d] += float64(hidden.Data[base+d*hs[2]]) * w
			}
		}
		denom := math.Max(count, PoolingEpsilon)
		row := out.Row(b)
		for d := range row {
			row[d] = float32(acc[d] / denom)
		}
	}
	return out, nil
}

// CLSPool takes the first token's vector of every sequence.
func CLSPool(hidden *tensor.View) (*tensor.View, error) {
	if hidden.Rank() != 3 {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "cls pool needs hidden [b,s,d], got %v", hidden.Shape)
	}
	batch, seq, dim := hidden.Shape[0], hidden.Shape[1], hidden.Shape[2]
	out, err := tensor.Zeros[float32](batch, dim)
	if err != nil {
		return nil, err
	}
	if seq == 0 {
		return out, nil
	}
	for b := 0; b < batch; b++ {
		row := out.Row(b)
		for d := range row {
			row[d] = hidden.At(b, 0, d)
		}
	}
	return out, nil
}
