package embedding

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
)

// Provider produces fixed-dimension embeddings from input strings
type Provider interface {
	Dimensions() int
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// NewInference selects an inference backend by name ("hash" or "onnx").
// hidden is the expected hidden size; modelPath and opts apply to "onnx".
func NewInference(kind, modelPath string, hidden int, opts ONNXOptions) (Inference, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "hash", "dev":
		return NewHashInference(hidden), nil
	case "", "onnx":
		inf, err := NewONNXInference(modelPath, opts)
		if err != nil {
			return nil, err
		}
		return inf, nil
	}
	return nil, common.Errorf(common.ErrInvalidConfiguration, "unknown inference backend %q", kind)
}
