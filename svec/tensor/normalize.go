package tensor

import (
	"math"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultNormEpsilon floors the denominator so all-zero rows stay zero.
	DefaultNormEpsilon = 1e-12
	// DefaultNormP selects the Euclidean norm.
	DefaultNormP = 2.0
)

// Normalize returns a copy of v scaled to unit p-norm along axis:
// x / max(||x||_p, eps). Negative axes count from the end. p may be +Inf
// for the max norm.
func Normalize(v *View, axis int, p, eps float64) (*View, error) {
	out := v.Clone()
	if err := NormalizeInPlace(out, axis, p, eps); err != nil {
		return nil, err
	}
	return out, nil
}

// L2Normalize normalizes along the last axis with p=2 and the default
// epsilon. Every stage of the pipeline uses this convention.
func L2Normalize(v *View) (*View, error) {
	return Normalize(v, -1, DefaultNormP, DefaultNormEpsilon)
}

// NormalizeInPlace is Normalize without the copy; v is overwritten.
func NormalizeInPlace(v *View, axis int, p, eps float64) error {
	if !(p > 0) {
		return common.Errorf(common.ErrInvalidArgument, "norm order must be positive, got %v", p)
	}
	if eps <= 0 {
		return common.Errorf(common.ErrInvalidArgument, "epsilon must be positive, got %v", eps)
	}
	lanes, err := v.Lanes(axis)
	if err != nil {
		return err
	}
	for _, lane := range lanes {
		denom := math.Max(laneNorm(v.Data, lane, p), eps)
		for i := 0; i < lane.Len; i++ {
			at := lane.Index(i)
			v.Data[at] = float32(float64(v.Data[at]) / denom)
		}
	}
	return nil
}

// Norms returns the p-norm of every lane along axis, in lane order.
func Norms(v *View, axis int, p float64) ([]float64, error) {
	lanes, err := v.Lanes(axis)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(lanes))
	for i, lane := range lanes {
		out[i] = laneNorm(v.Data, lane, p)
	}
	return out, nil
}

// laneNorm widens the lane to float64 so squares of large float32 values
// do not overflow.
func laneNorm(data []float32, lane Lane, p float64) float64 {
	if lane.Len == 0 {
		return 0
	}
	buf := make([]float64, lane.Len)
	for i := range buf {
		buf[i] = float64(data[lane.Index(i)])
	}
	return floats.Norm(buf, p)
}
