package embedding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding/tokenizer"

	"github.com/stretchr/testify/require"
)

var testVocab = []string{
	"[PAD]",  // 0
	"[UNK]",  // 1
	"[CLS]",  // 2
	"[SEP]",  // 3
	"the",    // 4
	"happy",  // 5
	"person", // 6
	"is",     // 7
	"a",      // 8
	"cafe",   // 9
	"sad",    // 10
	"dog",    // 11
	".",      // 12
}

func newTestTokenizer(t *testing.T) tokenizer.Tokenizer {
	t.Helper()
	wp, err := tokenizer.NewWordPiece(testVocab)
	require.NoError(t, err)
	return wp
}

func writeTestVocab(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(testVocab, "\n")+"\n"), 0o644))
	return path
}

func squaredNorm(row []float32) float64 {
	var sum float64
	for _, x := range row {
		sum += float64(x) * float64(x)
	}
	return sum
}
