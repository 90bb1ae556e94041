package tensor

import (
	"testing"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowMajorStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, RowMajorStrides([]int{2, 3, 4}))
	assert.Equal(t, []int{1}, RowMajorStrides([]int{7}))
	assert.Empty(t, RowMajorStrides(nil))
}

func TestFromDataLengthCheck(t *testing.T) {
	_, err := FromData([]float32{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, common.ErrLengthMismatch)

	_, err = FromData([]float32{}, -1)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
}

func TestAtAndSet(t *testing.T) {
	v, err := FromData([]float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, 2, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, float32(0), v.At(0, 0, 0))
	assert.Equal(t, float32(5), v.At(0, 2, 1))
	assert.Equal(t, float32(6), v.At(1, 0, 0))

	v.Set(42, 1, 1, 1)
	assert.Equal(t, float32(42), v.Data[9])
	assert.Equal(t, 12, v.Len())
	assert.Equal(t, 2, v.Dim(-1))
}

func TestOffsetPanicsOutOfRange(t *testing.T) {
	v, err := Zeros[float32](2, 2)
	require.NoError(t, err)
	assert.Panics(t, func() { v.At(2, 0) })
	assert.Panics(t, func() { v.At(0) })
}

func TestResolveAxis(t *testing.T) {
	v, err := Zeros[float32](2, 3)
	require.NoError(t, err)

	ax, err := v.ResolveAxis(-1)
	require.NoError(t, err)
	assert.Equal(t, 1, ax)

	ax, err = v.ResolveAxis(-2)
	require.NoError(t, err)
	assert.Equal(t, 0, ax)

	_, err = v.ResolveAxis(2)
	assert.ErrorIs(t, err, common.ErrIndexOutOfRange)
	_, err = v.ResolveAxis(-3)
	assert.ErrorIs(t, err, common.ErrIndexOutOfRange)
}

func TestLanesFollowStrides(t *testing.T) {
	v, err := FromData([]float32{0, 1, 2, 3, 4, 5}, 2, 3)
	require.NoError(t, err)

	rows, err := v.Lanes(-1)
	require.NoError(t, err)
	assert.Equal(t, []Lane{{Offset: 0, Stride: 1, Len: 3}, {Offset: 3, Stride: 1, Len: 3}}, rows)

	cols, err := v.Lanes(0)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, Lane{Offset: 2, Stride: 3, Len: 2}, cols[2])
	assert.Equal(t, 5, cols[2].Index(1))
}

func TestLanesMiddleAxis(t *testing.T) {
	v, err := Zeros[float32](2, 3, 4)
	require.NoError(t, err)

	lanes, err := v.Lanes(1)
	require.NoError(t, err)
	require.Len(t, lanes, 8)
	for _, l := range lanes {
		assert.Equal(t, 4, l.Stride)
		assert.Equal(t, 3, l.Len)
	}
	assert.Equal(t, 12, lanes[4].Offset)
}

func TestRowsAndFromRows(t *testing.T) {
	v, err := FromRows([][]float32{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, v.Shape)
	assert.Equal(t, []float32{3, 4}, v.Row(1))

	rows := v.Rows()
	rows[0][0] = 100
	assert.Equal(t, float32(1), v.At(0, 0), "Rows must copy")

	_, err = FromRows([][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, common.ErrLengthMismatch)

	empty, err := FromRows[float32](nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	v, err := FromData([]int64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	c := v.Clone()
	c.Set(9, 0, 0)
	assert.Equal(t, int64(1), v.At(0, 0))
	assert.True(t, SameShape(v, c))
}

func TestCloneNonContiguous(t *testing.T) {
	// transposed view of [[0,1,2],[3,4,5]]
	v := &View{Data: []float32{0, 1, 2, 3, 4, 5}, Shape: []int{3, 2}, Strides: []int{1, 3}}
	c := v.Clone()
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, c.Data)
	assert.Equal(t, []int{2, 1}, c.Strides)
}

func TestContiguousReturnsSelfOrCopy(t *testing.T) {
	v, err := Zeros[float32](2, 3)
	require.NoError(t, err)
	assert.Same(t, v, v.Contiguous())

	tr := &View{Data: []float32{0, 1, 2, 3, 4, 5}, Shape: []int{3, 2}, Strides: []int{1, 3}}
	c := tr.Contiguous()
	assert.NotSame(t, tr, c)
	assert.Equal(t, float32(3), c.At(0, 1))
}
