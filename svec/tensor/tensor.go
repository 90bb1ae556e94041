// Package tensor provides dense row-major buffers with an explicit shape and
// stride vector. Views carry hidden states [batch, seq, hidden], pooled
// embeddings [batch, hidden] and the integer model inputs [batch, seq].
package tensor

import (
	"fmt"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
)

// Element is the set of scalar types a Dense buffer can hold.
type Element interface {
	~float32 | ~float64 | ~int64
}

// Dense is a row-major buffer addressed through Shape and Strides.
type Dense[T Element] struct {
	Data    []T
	Shape   []int
	Strides []int
}

// View is the float tensor flowing between the pooling, normalization and
// similarity stages.
type View = Dense[float32]

// Int64View holds model inputs: ids, attention masks and segment ids.
type Int64View = Dense[int64]

// RowMajorStrides returns the contiguous strides for shape.
func RowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func numElements(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func validShape(shape []int) error {
	for i, s := range shape {
		if s < 0 {
			return common.Errorf(common.ErrInvalidConfiguration, "dimension %d has negative size %d", i, s)
		}
	}
	return nil
}

// Zeros allocates a zero-filled tensor of the given shape.
func Zeros[T Element](shape ...int) (*Dense[T], error) {
	if err := validShape(shape); err != nil {
		return nil, err
	}
	sh := append([]int(nil), shape...)
	return &Dense[T]{
		Data:    make([]T, numElements(sh)),
		Shape:   sh,
		Strides: RowMajorStrides(sh),
	}, nil
}

// FromData wraps data (without copying) as a tensor of the given shape.
func FromData[T Element](data []T, shape ...int) (*Dense[T], error) {
	if err := validShape(shape); err != nil {
		return nil, err
	}
	if want := numElements(shape); len(data) != want {
		return nil, common.Errorf(common.ErrLengthMismatch, "shape %v needs %d elements, got %d", shape, want, len(data))
	}
	sh := append([]int(nil), shape...)
	return &Dense[T]{Data: data, Shape: sh, Strides: RowMajorStrides(sh)}, nil
}

// FromRows copies equal-length rows into a [len(rows), dim] tensor.
func FromRows[T Element](rows [][]T) (*Dense[T], error) {
	if len(rows) == 0 {
		return Zeros[T](0, 0)
	}
	dim := len(rows[0])
	data := make([]T, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, common.Errorf(common.ErrLengthMismatch, "row %d has length %d, expected %d", i, len(r), dim)
		}
		data = append(data, r...)
	}
	return FromData(data, len(rows), dim)
}

// Rank is the number of dimensions.
func (d *Dense[T]) Rank() int { return len(d.Shape) }

// Len is the total number of elements.
func (d *Dense[T]) Len() int { return numElements(d.Shape) }

// Dim returns the size of axis i (negative counts from the end).
func (d *Dense[T]) Dim(i int) int {
	ax, err := d.ResolveAxis(i)
	if err != nil {
		panic(err)
	}
	return d.Shape[ax]
}

// ResolveAxis maps a possibly negative axis onto [0, rank).
func (d *Dense[T]) ResolveAxis(axis int) (int, error) {
	rank := len(d.Shape)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, common.Errorf(common.ErrIndexOutOfRange, "axis %d for tensor of rank %d", axis, rank)
	}
	return axis, nil
}

// Offset returns the flat position of a full index. Out-of-range indices are
// a programming error and panic.
func (d *Dense[T]) Offset(idx ...int) int {
	if len(idx) != len(d.Shape) {
		panic(fmt.Sprintf("tensor: index rank %d for tensor of rank %d", len(idx), len(d.Shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= d.Shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d of size %d", x, i, d.Shape[i]))
		}
		off += x * d.Strides[i]
	}
	return off
}

func (d *Dense[T]) At(idx ...int) T { return d.Data[d.Offset(idx...)] }

func (d *Dense[T]) Set(v T, idx ...int) { d.Data[d.Offset(idx...)] = v }

// Row returns row i of a rank-2 tensor as a slice sharing the buffer.
func (d *Dense[T]) Row(i int) []T {
	if len(d.Shape) != 2 {
		panic(fmt.Sprintf("tensor: Row on tensor of rank %d", len(d.Shape)))
	}
	if d.Strides[1] != 1 {
		panic("tensor: Row on non-contiguous tensor")
	}
	if i < 0 || i >= d.Shape[0] {
		panic(fmt.Sprintf("tensor: row %d out of range for %d rows", i, d.Shape[0]))
	}
	if d.Shape[1] == 0 {
		return d.Data[:0:0]
	}
	start := d.Offset(i, 0)
	return d.Data[start : start+d.Shape[1] : start+d.Shape[1]]
}

// Rows copies a rank-2 tensor out as independent slices.
func (d *Dense[T]) Rows() [][]T {
	out := make([][]T, d.Shape[0])
	for i := range out {
		out[i] = append([]T(nil), d.Row(i)...)
	}
	return out
}

// Clone deep-copies the buffer; the clone is always contiguous.
func (d *Dense[T]) Clone() *Dense[T] {
	out, _ := Zeros[T](d.Shape...)
	if d.isContiguous() {
		copy(out.Data, d.Data)
		return out
	}
	idx := make([]int, len(d.Shape))
	for n := range out.Data {
		out.Data[n] = d.Data[d.Offset(idx...)]
		advance(idx, d.Shape, -1)
	}
	return out
}

// Contiguous returns d when its buffer is already row-major, else a copy.
func (d *Dense[T]) Contiguous() *Dense[T] {
	if d.isContiguous() {
		return d
	}
	return d.Clone()
}

func (d *Dense[T]) isContiguous() bool {
	want := RowMajorStrides(d.Shape)
	for i := range want {
		if d.Shape[i] > 1 && want[i] != d.Strides[i] {
			return false
		}
	}
	return true
}

// SameShape reports whether both tensors have identical dimensions.
func SameShape[A, B Element](a *Dense[A], b *Dense[B]) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// Lane is a one-dimensional strided run through a buffer.
type Lane struct {
	Offset int
	Stride int
	Len    int
}

// Index returns the flat buffer position of element i of the lane.
func (l Lane) Index(i int) int { return l.Offset + i*l.Stride }

// Lanes enumerates every 1-D run along axis, one per combination of the
// remaining indices.
func (d *Dense[T]) Lanes(axis int) ([]Lane, error) {
	ax, err := d.ResolveAxis(axis)
	if err != nil {
		return nil, err
	}
	if d.Shape[ax] == 0 {
		return nil, nil
	}
	count := d.Len() / d.Shape[ax]
	lanes := make([]Lane, 0, count)
	idx := make([]int, len(d.Shape))
	for n := 0; n < count; n++ {
		off := 0
		for i, x := range idx {
			off += x * d.Strides[i]
		}
		lanes = append(lanes, Lane{Offset: off, Stride: d.Strides[ax], Len: d.Shape[ax]})
		advance(idx, d.Shape, ax)
	}
	return lanes, nil
}

// advance increments a multi-index odometer-style, holding axis skip fixed.
func advance(idx, shape []int, skip int) {
	for j := len(idx) - 1; j >= 0; j-- {
		if j == skip {
			continue
		}
		idx[j]++
		if idx[j] < shape[j] {
			return
		}
		idx[j] = 0
	}
}
