// Package similarity ranks embeddings by cosine similarity and scores raw
// dot products.
package similarity

import (
	"sort"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Result is one scored corpus row.
type Result struct {
	Score float64 `json:"score"`
	Index int     `json:"index"`
}

// Ranking is sorted by descending score, ties by ascending index.
type Ranking []Result

// Indices returns the corpus indexes in rank order.
func (r Ranking) Indices() []int {
	out := make([]int, len(r))
	for i, res := range r {
		out[i] = res.Index
	}
	return out
}

// TopKByCosine scores every query row against every corpus row and keeps the
// best min(k, n) per query. Rows are L2-normalized here, so callers may pass
// raw pooled vectors.
func TopKByCosine(corpus, query *tensor.View, k int) ([]Ranking, error) {
	if k <= 0 {
		return nil, common.NewStageError(common.StageRank, -1, common.Errorf(common.ErrInvalidArgument, "k must be positive, got %d", k))
	}
	if err := checkOperands(corpus, query); err != nil {
		return nil, err
	}
	m, n := query.Shape[0], corpus.Shape[0]
	out := make([]Ranking, m)
	if m == 0 || n == 0 {
		return out, nil
	}
	scores, err := CosineMatrix(corpus, query)
	if err != nil {
		return nil, err
	}
	k = min(k, n)
	for q := 0; q < m; q++ {
		out[q] = topK(scores.RawRowView(q), k)
	}
	return out, nil
}

// CosineMatrix returns the [m, n] matrix of cosine similarities between the
// query rows and the corpus rows. Empty operands yield an empty matrix.
func CosineMatrix(corpus, query *tensor.View) (*mat.Dense, error) {
	if err := checkOperands(corpus, query); err != nil {
		return nil, err
	}
	m, n := query.Shape[0], corpus.Shape[0]
	if m == 0 || n == 0 {
		return &mat.Dense{}, nil
	}
	if corpus.Shape[1] == 0 {
		return mat.NewDense(m, n, nil), nil
	}
	cn, err := unitRows(corpus)
	if err != nil {
		return nil, err
	}
	qn, err := unitRows(query)
	if err != nil {
		return nil, err
	}
	var scores mat.Dense
	scores.Mul(qn, cn.T())
	return &scores, nil
}

func checkOperands(corpus, query *tensor.View) error {
	if corpus.Rank() != 2 || query.Rank() != 2 {
		return common.NewStageError(common.StageRank, -1,
			common.Errorf(common.ErrInvalidArgument, "corpus and query must be [rows, dim], got %v and %v", corpus.Shape, query.Shape))
	}
	if corpus.Shape[1] != query.Shape[1] {
		return common.NewStageError(common.StageRank, -1,
			common.Errorf(common.ErrLengthMismatch, "corpus dim %d, query dim %d", corpus.Shape[1], query.Shape[1]))
	}
	return nil
}

// unitRows L2-normalizes along the last axis and widens to float64.
func unitRows(v *tensor.View) (*mat.Dense, error) {
	unit, err := tensor.L2Normalize(v)
	if err != nil {
		return nil, common.NewStageError(common.StageNormalize, -1, err)
	}
	data := make([]float64, len(unit.Data))
	for i, x := range unit.Data {
		data[i] = float64(x)
	}
	return mat.NewDense(unit.Shape[0], unit.Shape[1], data), nil
}

func topK(row []float64, k int) Ranking {
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return row[idx[a]] > row[idx[b]]
	})
	out := make(Ranking, k)
	for i := 0; i < k; i++ {
		out[i] = Result{Score: row[idx[i]], Index: idx[i]}
	}
	return out
}

// Cosine is dot(a, b) / (||a|| * ||b||), with zero vectors scoring 0.
// Accumulation happens in float64, so finite input gives a finite score.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, common.Errorf(common.ErrLengthMismatch, "vectors of length %d and %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	wa, wb := widen(a), widen(b)
	na, nb := floats.Norm(wa, 2), floats.Norm(wb, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return floats.Dot(wa, wb) / na / nb, nil
}

// DotProduct is the unweighted inner product of a and b, accumulated in
// float64.
func DotProduct(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, common.Errorf(common.ErrLengthMismatch, "vectors of length %d and %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return floats.Dot(widen(a), widen(b)), nil
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
