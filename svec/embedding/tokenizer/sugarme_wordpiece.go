package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"
)

// SugarWordPiece wraps sugarme/tokenizer WordPiece (BERT-style).
// It never truncates or pads; length policy belongs to the encoder.
type SugarWordPiece struct {
	t *tk.Tokenizer
}

// NewSugarWordPiece loads vocab.txt (a file, or a directory containing one)
// and builds a BERT WordPiece tokenizer.
func NewSugarWordPiece(vocabPath string, lowercase bool) (*SugarWordPiece, error) {
	if fi, err := os.Stat(vocabPath); err == nil && fi.IsDir() {
		vocabPath = filepath.Join(vocabPath, "vocab.txt")
	}
	wp, err := wordpiece.NewWordPieceFromFile(vocabPath, UnknownToken)
	if err != nil {
		return nil, fmt.Errorf("load wordpiece vocab %s: %w", vocabPath, err)
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, lowercase, lowercase))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	clsID, sepID, err := specialIDs(vocabPath)
	if err != nil {
		return nil, err
	}
	t.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Value: SeparatorToken, Id: sepID},
		processor.PostToken{Value: ClassifierToken, Id: clsID},
	))
	return &SugarWordPiece{t: t}, nil
}

func (s *SugarWordPiece) Separator() string { return SeparatorToken }

// Tokenize encodes one text, or two texts as a sentence pair.
func (s *SugarWordPiece) Tokenize(texts []string) ([]Token, error) {
	var input tk.EncodeInput
	switch len(texts) {
	case 1:
		input = tk.NewSingleEncodeInput(tk.NewInputSequence(texts[0]))
	case 2:
		input = tk.NewDualEncodeInput(tk.NewInputSequence(texts[0]), tk.NewInputSequence(texts[1]))
	default:
		return nil, fmt.Errorf("%w: sugarme encodes 1 or 2 texts, got %d", ErrUnsupported, len(texts))
	}
	enc, err := s.t.Encode(input, true)
	if err != nil {
		return nil, err
	}
	ids := enc.GetIds()
	toks := enc.GetTokens()
	if len(ids) != len(toks) {
		return nil, fmt.Errorf("tokenizer returned %d ids for %d tokens", len(ids), len(toks))
	}
	out := make([]Token, len(ids))
	for i := range ids {
		out[i] = Token{Text: toks[i], ID: int64(ids[i])}
	}
	return out, nil
}

// specialIDs resolves [CLS]/[SEP] ids, preferring a tokenizer.json next to
// the vocab file and falling back to the vocab's line order.
func specialIDs(vocabPath string) (cls, sep int, err error) {
	tokJSON := filepath.Join(filepath.Dir(vocabPath), "tokenizer.json")
	if b, rerr := os.ReadFile(tokJSON); rerr == nil {
		var m struct {
			Model struct {
				Vocab map[string]int `json:"vocab"`
			} `json:"model"`
		}
		if jerr := json.Unmarshal(b, &m); jerr == nil {
			c, cok := m.Model.Vocab[ClassifierToken]
			s, sok := m.Model.Vocab[SeparatorToken]
			if cok && sok {
				return c, s, nil
			}
		}
	}
	vocab, err := LoadVocab(vocabPath)
	if err != nil {
		return 0, 0, err
	}
	return int(lookupSpecial(vocab, ClassifierToken, 101)), int(lookupSpecial(vocab, SeparatorToken, 102)), nil
}
