package embedding

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/cache"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding/tokenizer"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/similarity"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Pipeline wires encoder, inference, pooling and normalization together.
// The tokenizer and inference are loaded by the caller and shared; a
// Pipeline is safe for concurrent use.
type Pipeline struct {
	encoder   *Encoder
	inference Inference
	shape     Shape

	padding   PaddingStrategy
	pooling   PoolingStrategy
	normalize bool
	inPlace   bool
	dims      int
	workers   int
	logger    zerolog.Logger

	cache          cache.Store
	cacheNamespace string

	// inferMu serializes calls into the inference backend.
	inferMu sync.Mutex
}

var _ Provider = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithWorkers bounds the goroutines running CPU stages. n <= 0 uses NumCPU.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

func WithPooling(s PoolingStrategy) Option {
	return func(p *Pipeline) { p.pooling = s }
}

func WithPadding(s PaddingStrategy) Option {
	return func(p *Pipeline) { p.padding = s }
}

// WithoutNormalization returns pooled vectors as-is from Embed.
func WithoutNormalization() Option {
	return func(p *Pipeline) { p.normalize = false }
}

// WithInPlaceNormalize normalizes pooled buffers without copying them.
func WithInPlaceNormalize() Option {
	return func(p *Pipeline) { p.inPlace = true }
}

// WithDimensions truncates embeddings to the leading n dimensions before
// normalization. 0 keeps the full hidden size.
func WithDimensions(n int) Option {
	return func(p *Pipeline) { p.dims = n }
}

// WithCache serves repeated texts from store. namespace must change whenever
// the model or output settings do. The pipeline closes store on Close.
func WithCache(store cache.Store, namespace string) Option {
	return func(p *Pipeline) {
		p.cache = store
		p.cacheNamespace = namespace
	}
}

// NewPipeline builds a Pipeline around an already loaded tokenizer and
// inference backend.
func NewPipeline(tok tokenizer.Tokenizer, inf Inference, shape Shape, opts ...Option) (*Pipeline, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if inf == nil {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "inference backend is required")
	}
	p := &Pipeline{
		inference: inf,
		shape:     shape,
		normalize: true,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dims < 0 || p.dims > shape.HiddenSize {
		return nil, common.Errorf(common.ErrInvalidConfiguration, "dimensions %d outside [0, %d]", p.dims, shape.HiddenSize)
	}
	if p.workers <= 0 {
		p.workers = runtime.NumCPU()
	}
	enc, err := NewEncoder(tok, shape.SequenceLength, p.padding)
	if err != nil {
		return nil, err
	}
	p.encoder = enc
	return p, nil
}

// Dimensions is the length of every embedding returned by Embed.
func (p *Pipeline) Dimensions() int {
	if p.dims > 0 {
		return p.dims
	}
	return p.shape.HiddenSize
}

func (p *Pipeline) Shape() Shape { return p.shape }

// Embed returns one embedding per input, in input order.
func (p *Pipeline) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out, err := p.EmbedTensor(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return out.Rows(), nil
}

// EmbedTensor returns [len(texts), Dimensions()] embeddings, L2-normalized
// along the last axis unless normalization was disabled.
func (p *Pipeline) EmbedTensor(ctx context.Context, texts []string) (*tensor.View, error) {
	if p.cache == nil || len(texts) == 0 {
		return p.run(ctx, texts, p.finish)
	}
	return p.embedCached(ctx, texts)
}

// EmbedRaw returns the pooled [len(texts), HiddenSize] vectors with no
// truncation or normalization applied.
func (p *Pipeline) EmbedRaw(ctx context.Context, texts []string) (*tensor.View, error) {
	return p.run(ctx, texts, nil)
}

// Rank embeds corpus and queries and returns the top k corpus entries for
// every query by cosine similarity.
func (p *Pipeline) Rank(ctx context.Context, corpus, queries []string, k int) ([]similarity.Ranking, error) {
	c, err := p.EmbedTensor(ctx, corpus)
	if err != nil {
		return nil, err
	}
	q, err := p.EmbedTensor(ctx, queries)
	if err != nil {
		return nil, err
	}
	return similarity.TopKByCosine(c, q, k)
}

// Close releases the inference backend when it holds resources, and the
// cache.
func (p *Pipeline) Close() error {
	var errs []error
	if c, ok := p.inference.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if p.cache != nil {
		errs = append(errs, p.cache.Close())
	}
	return errors.Join(errs...)
}

// embedCached embeds only the texts missing from the cache. Cache failures
// are logged and treated as misses.
func (p *Pipeline) embedCached(ctx context.Context, texts []string) (*tensor.View, error) {
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cache.Key(p.cacheNamespace, t)
	}
	hits, err := p.cache.Get(ctx, keys)
	if err != nil {
		p.logger.Warn().Err(err).Msg("embedding cache lookup failed")
		hits = nil
	}

	dims := p.Dimensions()
	var (
		missTexts []string
		missFrom  []int // index in texts of each miss
		pending   = make(map[string]int)
	)
	for i, k := range keys {
		if v, ok := hits[k]; ok && len(v) == dims {
			continue
		}
		if _, ok := pending[k]; ok {
			continue
		}
		pending[k] = len(missTexts)
		missTexts = append(missTexts, texts[i])
		missFrom = append(missFrom, i)
	}

	var computed *tensor.View
	if len(missTexts) > 0 {
		computed, err = p.run(ctx, missTexts, p.finish)
		if err != nil {
			var stageErr *common.StageError
			if errors.As(err, &stageErr) && stageErr.Index >= 0 && stageErr.Index < len(missFrom) {
				stageErr.Index = missFrom[stageErr.Index]
			}
			return nil, err
		}
	}
	p.logger.Debug().Int("texts", len(texts)).Int("misses", len(missTexts)).Msg("embedding cache")

	out, err := tensor.Zeros[float32](len(texts), dims)
	if err != nil {
		return nil, err
	}
	fresh := make(map[string][]float32, len(missTexts))
	for i, k := range keys {
		row := out.Row(i)
		if m, ok := pending[k]; ok {
			copy(row, computed.Row(m))
			fresh[k] = computed.Row(m)
			continue
		}
		copy(row, hits[k])
	}
	if err := p.cache.Put(ctx, fresh); err != nil {
		p.logger.Warn().Err(err).Msg("embedding cache store failed")
	}
	return out, nil
}

type finishFunc func(pooled *tensor.View) (*tensor.View, error)

func (p *Pipeline) run(ctx context.Context, texts []string, finish finishFunc) (*tensor.View, error) {
	width := p.shape.HiddenSize
	if finish != nil {
		width = p.Dimensions()
	}
	if len(texts) == 0 {
		return tensor.Zeros[float32](0, width)
	}

	runID := uuid.NewString()
	logger := p.logger.With().Str("run", runID).Logger()
	start := time.Now()

	chunkSize := p.shape.MaxBatch
	chunks := (len(texts) + chunkSize - 1) / chunkSize
	results := make([]*tensor.View, chunks)
	logger.Debug().Int("texts", len(texts)).Int("chunks", chunks).Int("workers", p.workers).Msg("embedding started")

	wp := pool.New().
		WithMaxGoroutines(p.workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for c := 0; c < chunks; c++ {
		c := c
		lo := c * chunkSize
		hi := min(lo+chunkSize, len(texts))
		wp.Go(func(ctx context.Context) error {
			out, err := p.embedChunk(ctx, logger, texts[lo:hi], lo, finish)
			if err != nil {
				return err
			}
			results[c] = out
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		logger.Debug().Err(err).Msg("embedding failed")
		return nil, err
	}

	out, err := tensor.Zeros[float32](len(texts), width)
	if err != nil {
		return nil, err
	}
	row := 0
	for _, r := range results {
		copy(out.Data[row*width:], r.Data)
		row += r.Shape[0]
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("embedding finished")
	return out, nil
}

// embedChunk runs one chunk through every stage. base is the index of the
// chunk's first text in the caller's input.
func (p *Pipeline) embedChunk(ctx context.Context, logger zerolog.Logger, texts []string, base int, finish finishFunc) (*tensor.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inputs := make([][]string, len(texts))
	for i, t := range texts {
		inputs[i] = []string{t}
	}
	batch, err := p.encoder.encode(inputs, base)
	if err != nil {
		return nil, err
	}
	if err := p.shape.CheckBatch(batch); err != nil {
		return nil, common.NewStageError(common.StageEncode, -1, err)
	}
	logger.Debug().Int("chunk", base/p.shape.MaxBatch).Int("batch", batch.Size()).Int("seq", batch.SeqLen()).Msg("encoded")

	hidden, err := p.infer(ctx, batch)
	if err != nil {
		logger.Error().Err(err).Int("chunk", base/p.shape.MaxBatch).Msg("inference failed")
		return nil, err
	}
	if err := p.shape.CheckHidden(batch.Size(), batch.SeqLen(), hidden); err != nil {
		return nil, common.NewStageError(common.StageInfer, -1, err)
	}

	pooled, err := p.pooling.Pool(hidden, batch.AttentionMask)
	if err != nil {
		return nil, common.NewStageError(common.StagePool, -1, err)
	}
	if finish == nil {
		return pooled, nil
	}
	return finish(pooled)
}

func (p *Pipeline) infer(ctx context.Context, batch *Batch) (*tensor.View, error) {
	p.inferMu.Lock()
	defer p.inferMu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.inference.Infer(ctx, batch.InputIDs, batch.AttentionMask, batch.SegmentIDs)
}

// finish applies Matryoshka truncation and L2 normalization.
func (p *Pipeline) finish(pooled *tensor.View) (*tensor.View, error) {
	out, err := TruncateDims(pooled, p.dims)
	if err != nil {
		return nil, common.NewStageError(common.StageNormalize, -1, err)
	}
	if !p.normalize {
		return out, nil
	}
	if p.inPlace {
		if err := tensor.NormalizeInPlace(out, -1, tensor.DefaultNormP, tensor.DefaultNormEpsilon); err != nil {
			return nil, common.NewStageError(common.StageNormalize, -1, err)
		}
		return out, nil
	}
	out, err = tensor.L2Normalize(out)
	if err != nil {
		return nil, common.NewStageError(common.StageNormalize, -1, err)
	}
	return out, nil
}
