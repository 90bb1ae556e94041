//go:build !onnx
// +build !onnx

package embedding

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"
)

// ONNXInference is a stub used when built without the "onnx" build tag.
type ONNXInference struct{}

func NewONNXInference(modelPath string, opts ONNXOptions) (*ONNXInference, error) {
	return nil, fmt.Errorf("onnx inference not available: build with -tags onnx and provide a supported model")
}

func (o *ONNXInference) Infer(ctx context.Context, ids, mask, segments *tensor.Int64View) (*tensor.View, error) {
	return nil, fmt.Errorf("onnx inference not available: build with -tags onnx")
}

func (o *ONNXInference) Close() error { return nil }

// ONNXAvailable reports whether this binary was built with ONNX support.
func ONNXAvailable() bool { return false }
