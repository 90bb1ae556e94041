package tokenizer

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTokenizerParity compares both Go tokenizers against a reference
// HuggingFace tokenizer (Python). If Python or transformers isn't available
// the test is skipped.
func TestTokenizerParity(t *testing.T) {
	py, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not found; skipping parity test")
	}

	dumpVocab := `import json
from transformers import AutoTokenizer
t=AutoTokenizer.from_pretrained("bert-base-uncased")
v=t.get_vocab()
inv=sorted(v.items(), key=lambda kv:kv[1])
print(json.dumps([k for k,_ in inv]))`

	out, err := exec.Command(py, "-c", dumpVocab).Output()
	if err != nil {
		t.Skipf("python transformers not available or network issue: %v", err)
	}
	var tokens []string
	require.NoError(t, json.Unmarshal(out, &tokens))

	vocabPath := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte(strings.Join(tokens, "\n")+"\n"), 0o644))

	sents := []string{
		"hello world",
		"the quick brown fox jumps over the lazy dog",
		"That is a happy person",
	}

	pyEnc := `import json, sys
from transformers import AutoTokenizer
t=AutoTokenizer.from_pretrained("bert-base-uncased")
print(json.dumps([t(x)['input_ids'] for x in json.loads(sys.argv[1])]))`
	arg, err := json.Marshal(sents)
	require.NoError(t, err)
	out2, err := exec.Command(py, "-c", pyEnc, string(arg)).Output()
	if err != nil {
		t.Skipf("python encode failed: %v", err)
	}
	var want [][]int64
	require.NoError(t, json.Unmarshal(out2, &want))

	wp, err := LoadWordPieceFromVocab(vocabPath, WithLowercase(true))
	require.NoError(t, err)
	swp, err := NewSugarWordPiece(vocabPath, true)
	require.NoError(t, err)

	for name, tok := range map[string]Tokenizer{"wordpiece": wp, "sugarme": swp} {
		for i, s := range sents {
			got, err := tok.Tokenize([]string{s})
			require.NoError(t, err)
			require.Equal(t, want[i], IDs(got), "%s: sentence %d", name, i)
		}
	}
}
