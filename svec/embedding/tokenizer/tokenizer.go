// Package tokenizer holds the subword tokenizers that turn raw text into
// ordered (token, vocabulary index) pairs, special tokens included.
package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// BERT special tokens
const (
	ClassifierToken = "[CLS]"
	SeparatorToken  = "[SEP]"
	UnknownToken    = "[UNK]"
	PaddingToken    = "[PAD]"
)

// Token is a subword unit and its vocabulary index.
type Token struct {
	Text string
	ID   int64
}

// Tokenizer converts raw text to an ordered token sequence. Passing several
// texts encodes them as one paired input separated by Separator().
type Tokenizer interface {
	Tokenize(texts []string) ([]Token, error)
	Separator() string
}

// Config holds basic tokenizer settings
type Config struct {
	Kind      string
	VocabPath string
	Lowercase bool
}

// ErrUnsupported indicates the tokenizer could not be initialized or cannot
// encode the requested input shape.
var ErrUnsupported = fmt.Errorf("unsupported tokenizer configuration")

// New builds the tokenizer named by cfg.Kind: "sugar" (default) or "wordpiece".
func New(cfg Config) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", "sugar", "sugarme":
		swp, err := NewSugarWordPiece(cfg.VocabPath, cfg.Lowercase)
		if err != nil {
			return nil, err
		}
		return swp, nil
	case "wordpiece":
		wp, err := LoadWordPieceFromVocab(cfg.VocabPath, WithLowercase(cfg.Lowercase))
		if err != nil {
			return nil, err
		}
		return wp, nil
	default:
		return nil, fmt.Errorf("%w: unknown tokenizer %q", ErrUnsupported, cfg.Kind)
	}
}

// LoadVocab reads a vocabulary file: one token per line, the line number is
// the token's index. Blank lines keep their index.
func LoadVocab(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make([]string, 0, 32000)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		vocab = append(vocab, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	return vocab, nil
}

// IDs extracts the vocabulary indexes of tokens.
func IDs(tokens []Token) []int64 {
	out := make([]int64, len(tokens))
	for i, t := range tokens {
		out[i] = t.ID
	}
	return out
}

func lookupSpecial(vocab []string, token string, fallback int64) int64 {
	for i, v := range vocab {
		if v == token {
			return int64(i)
		}
	}
	return fallback
}
