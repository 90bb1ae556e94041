package embedding

import (
	"fmt"
	"io"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/cache"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/config"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding/tokenizer"

	"github.com/rs/zerolog"
)

// NewPipelineFromConfig loads the tokenizer and inference backend named by
// cfg once and returns a Pipeline sharing them.
func NewPipelineFromConfig(cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	shape, err := NewShape(cfg.Model.BatchSize, cfg.Model.MaxSequenceLength, cfg.Model.HiddenSize)
	if err != nil {
		return nil, err
	}
	padding, err := ParsePadding(cfg.Model.Padding)
	if err != nil {
		return nil, err
	}
	pooling, err := ParsePooling(cfg.Model.Pooling)
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.New(tokenizer.Config{
		Kind:      cfg.Model.Tokenizer,
		VocabPath: cfg.Model.VocabPath,
		Lowercase: cfg.Model.Lowercase,
	})
	if err != nil {
		return nil, common.WrapError(err, "load tokenizer %s", cfg.Model.VocabPath)
	}

	inf, err := NewInference(cfg.Model.Inference, cfg.Model.Path, cfg.Model.HiddenSize, ONNXOptions{
		ExecutionProvider: cfg.ONNX.ExecutionProvider,
		DeviceID:          cfg.ONNX.DeviceID,
		EPOptions:         cfg.ONNX.Options,
		SharedLibraryPath: cfg.ONNX.SharedLibraryPath,
	})
	if err != nil {
		return nil, common.WrapError(err, "load %s inference", cfg.Model.Inference)
	}

	opts := []Option{
		WithLogger(logger),
		WithWorkers(cfg.Pipeline.Workers),
		WithPadding(padding),
		WithPooling(pooling),
		WithDimensions(cfg.Model.Dimensions),
	}
	if !cfg.Pipeline.Normalize {
		opts = append(opts, WithoutNormalization())
	}
	if cfg.Pipeline.InPlaceNormalize {
		opts = append(opts, WithInPlaceNormalize())
	}

	var store cache.Store
	if cfg.Cache.Path != "" {
		dims := cfg.Model.Dimensions
		if dims == 0 {
			dims = cfg.Model.HiddenSize
		}
		if store, err = cache.Open(cfg.Cache.Path, dims); err != nil {
			closeInference(inf)
			return nil, common.WrapError(err, "open embedding cache %s", cfg.Cache.Path)
		}
		opts = append(opts, WithCache(store, cacheNamespace(cfg)))
	}

	p, err := NewPipeline(tok, inf, shape, opts...)
	if err != nil {
		closeInference(inf)
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	logger.Debug().
		Str("tokenizer", cfg.Model.Tokenizer).
		Str("inference", cfg.Model.Inference).
		Int("batch", shape.MaxBatch).
		Int("seq", shape.SequenceLength).
		Int("hidden", shape.HiddenSize).
		Msg("pipeline ready")
	return p, nil
}

// cacheNamespace identifies every setting that changes an embedding's value.
func cacheNamespace(cfg *config.Config) string {
	m := cfg.Model
	return fmt.Sprintf("%s|%s|%s|%s|%t|%d|%d|%s|%d|%t",
		m.Inference, m.Path, m.Tokenizer, m.VocabPath, m.Lowercase, m.MaxSequenceLength, m.HiddenSize,
		m.Pooling, m.Dimensions, cfg.Pipeline.Normalize)
}

func closeInference(inf Inference) {
	if c, ok := inf.(io.Closer); ok {
		c.Close()
	}
}
