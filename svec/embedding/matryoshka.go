package embedding

import (
	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"
)

// TruncateDims keeps the leading target columns of a [batch, hidden] view
// (Matryoshka truncation). The result must be renormalized by the caller.
func TruncateDims(v *tensor.View, target int) (*tensor.View, error) {
	if v.Rank() != 2 {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "truncate needs [batch, hidden], got %v", v.Shape)
	}
	if target <= 0 || target == v.Shape[1] {
		return v, nil
	}
	if target > v.Shape[1] {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "cannot truncate %d dims to %d", v.Shape[1], target)
	}
	out, err := tensor.Zeros[float32](v.Shape[0], target)
	if err != nil {
		return nil, err
	}
	for b := 0; b < v.Shape[0]; b++ {
		copy(out.Row(b), v.Row(b)[:target])
	}
	return out, nil
}
