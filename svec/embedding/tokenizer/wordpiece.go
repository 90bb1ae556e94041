package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/armon/go-radix"
	"golang.org/x/text/unicode/norm"
)

const (
	continuingPrefix       = "##"
	defaultMaxCharsPerWord = 100
)

// WordPiece is a BERT-style tokenizer over a vocab file: basic whitespace
// and punctuation splitting followed by greedy longest-match subword lookup.
type WordPiece struct {
	index           *radix.Tree
	cls, sep, unk   Token
	lowercase       bool
	maxCharsPerWord int
}

// WordPieceOption configures a WordPiece tokenizer.
type WordPieceOption func(*WordPiece)

// WithLowercase lowercases and strips accents before lookup (uncased models).
func WithLowercase(on bool) WordPieceOption {
	return func(w *WordPiece) { w.lowercase = on }
}

// WithMaxCharsPerWord maps longer words to [UNK].
func WithMaxCharsPerWord(n int) WordPieceOption {
	return func(w *WordPiece) {
		if n > 0 {
			w.maxCharsPerWord = n
		}
	}
}

// LoadWordPieceFromVocab reads path with LoadVocab and builds a WordPiece.
func LoadWordPieceFromVocab(path string, opts ...WordPieceOption) (*WordPiece, error) {
	vocab, err := LoadVocab(path)
	if err != nil {
		return nil, err
	}
	return NewWordPiece(vocab, opts...)
}

// NewWordPiece indexes vocab (position = id). The first occurrence of a
// duplicated token wins.
func NewWordPiece(vocab []string, opts ...WordPieceOption) (*WordPiece, error) {
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrUnsupported)
	}
	tree := radix.New()
	for i, tok := range vocab {
		if tok == "" {
			continue
		}
		if _, exists := tree.Get(tok); exists {
			continue
		}
		tree.Insert(tok, int64(i))
	}
	w := &WordPiece{
		index:           tree,
		cls:             Token{Text: ClassifierToken, ID: lookupSpecial(vocab, ClassifierToken, 101)},
		sep:             Token{Text: SeparatorToken, ID: lookupSpecial(vocab, SeparatorToken, 102)},
		unk:             Token{Text: UnknownToken, ID: lookupSpecial(vocab, UnknownToken, 100)},
		lowercase:       true,
		maxCharsPerWord: defaultMaxCharsPerWord,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *WordPiece) Separator() string { return w.sep.Text }

// Tokenize emits [CLS] text1 [SEP] text2 [SEP] ...
func (w *WordPiece) Tokenize(texts []string) ([]Token, error) {
	out := []Token{w.cls}
	for _, text := range texts {
		for _, word := range basicTokenize(text, w.lowercase) {
			out = append(out, w.wordPieces(word)...)
		}
		out = append(out, w.sep)
	}
	return out, nil
}

func (w *WordPiece) wordPieces(word string) []Token {
	if utf8.RuneCountInString(word) > w.maxCharsPerWord {
		return []Token{w.unk}
	}
	var pieces []Token
	for start := 0; start < len(word); {
		key := word[start:]
		minLen := 0
		if start > 0 {
			key = continuingPrefix + key
			minLen = len(continuingPrefix)
		}
		match, id, ok := w.index.LongestPrefix(key)
		if !ok || len(match) <= minLen {
			return []Token{w.unk}
		}
		pieces = append(pieces, Token{Text: match, ID: id.(int64)})
		start += len(match) - minLen
	}
	return pieces
}

// basicTokenize cleans text, splits on whitespace and isolates punctuation
// and CJK ideographs as single-rune words.
func basicTokenize(text string, lowercase bool) []string {
	if lowercase {
		text = stripAccents(strings.ToLower(text))
	}
	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == 0 || r == utf8.RuneError:
			continue
		case unicode.IsSpace(r):
			flush()
		case unicode.IsControl(r):
			continue
		case isPunctuation(r) || unicode.Is(unicode.Han, r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func stripAccents(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isPunctuation treats all non-alphanumeric ASCII as punctuation, as BERT does.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
