package tokenizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVocab mimics the head of a BERT uncased vocab.
var testVocab = []string{
	"[PAD]",     // 0
	"[UNK]",     // 1
	"[CLS]",     // 2
	"[SEP]",     // 3
	"the",       // 4
	"happy",     // 5
	"person",    // 6
	"is",        // 7
	"that",      // 8
	"un",        // 9
	"##aff",     // 10
	"##able",    // 11
	"a",         // 12
	",",         // 13
	".",         // 14
	"play",      // 15
	"##ing",     // 16
	"cafe",      // 17
	"",          // 18 (blank line keeps its index)
	"happy",     // 19 duplicate
	"##",        // 20
	"playing",   // 21
}

func writeVocab(t *testing.T, vocab []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(vocab, "\n")+"\n"), 0o644))
	return path
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func TestLoadVocabKeepsLineNumbers(t *testing.T) {
	vocab, err := LoadVocab(writeVocab(t, testVocab))
	require.NoError(t, err)
	require.Len(t, vocab, len(testVocab))
	assert.Equal(t, "", vocab[18])
	assert.Equal(t, "playing", vocab[21])
}

func TestLoadVocabMissingFile(t *testing.T) {
	_, err := LoadVocab(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestWordPieceSingleSentence(t *testing.T) {
	wp, err := LoadWordPieceFromVocab(writeVocab(t, testVocab), WithLowercase(true))
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{"That is a happy person."})
	require.NoError(t, err)

	assert.Equal(t, []string{"[CLS]", "that", "is", "a", "happy", "person", ".", "[SEP]"}, texts(toks))
	assert.Equal(t, []int64{2, 8, 7, 12, 5, 6, 14, 3}, IDs(toks))
	assert.Equal(t, SeparatorToken, wp.Separator())
}

func TestWordPieceGreedyLongestMatch(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{"unaffable playing"})
	require.NoError(t, err)

	// "playing" is a whole-word entry, so it wins over play + ##ing
	assert.Equal(t, []string{"[CLS]", "un", "##aff", "##able", "playing", "[SEP]"}, texts(toks))
	assert.Equal(t, []int64{2, 9, 10, 11, 21, 3}, IDs(toks))
}

func TestWordPieceUnknownWord(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{"the zebra"})
	require.NoError(t, err)
	assert.Equal(t, []string{"[CLS]", "the", "[UNK]", "[SEP]"}, texts(toks))

	// a bare continuation prefix never counts as a match
	toks, err = wp.Tokenize([]string{"unx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"[CLS]", "[UNK]", "[SEP]"}, texts(toks))
}

func TestWordPieceMaxCharsPerWord(t *testing.T) {
	wp, err := NewWordPiece(testVocab, WithMaxCharsPerWord(3))
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{"the happy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"[CLS]", "the", "[UNK]", "[SEP]"}, texts(toks))
}

func TestWordPieceAccentsAndCase(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{"  CAFÉ,\tthe "})
	require.NoError(t, err)
	assert.Equal(t, []string{"[CLS]", "cafe", ",", "the", "[SEP]"}, texts(toks))
}

func TestWordPieceDuplicateKeepsFirstIndex(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{"happy"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), toks[1].ID)
}

func TestWordPiecePairedInput(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{"the person", "is happy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"[CLS]", "the", "person", "[SEP]", "is", "happy", "[SEP]"}, texts(toks))
}

func TestWordPieceEmptyText(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	require.NoError(t, err)

	toks, err := wp.Tokenize([]string{""})
	require.NoError(t, err)
	assert.Equal(t, []string{"[CLS]", "[SEP]"}, texts(toks))
}

func TestNewWordPieceEmptyVocab(t *testing.T) {
	_, err := NewWordPiece(nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNewSelectsImplementation(t *testing.T) {
	path := writeVocab(t, testVocab)

	tok, err := New(Config{Kind: "wordpiece", VocabPath: path, Lowercase: true})
	require.NoError(t, err)
	assert.IsType(t, &WordPiece{}, tok)

	_, err = New(Config{Kind: "bpe", VocabPath: path})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBasicTokenizeSplitsPunctuationAndHan(t *testing.T) {
	assert.Equal(t, []string{"hello", "!", "world", "中", "文"}, basicTokenize("Hello! world中文", true))
	assert.Equal(t, []string{"Hello", "!"}, basicTokenize("Hello!", false))
}
