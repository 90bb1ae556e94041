// Package cache keeps computed embeddings so repeated texts skip inference.
// Entries are keyed by a namespace describing the model and output settings
// plus the text itself.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// MemoryPath selects the in-process store in Open.
const MemoryPath = ":memory:"

// Store is a key/value store of embeddings.
type Store interface {
	// Get returns the vectors found for keys; missing keys are absent.
	Get(ctx context.Context, keys []string) (map[string][]float32, error)
	Put(ctx context.Context, entries map[string][]float32) error
	Close() error
}

// Open returns the in-memory store for MemoryPath and a libSQL file store
// otherwise.
func Open(path string, dims int) (Store, error) {
	if path == MemoryPath {
		return NewMemoryStore(dims), nil
	}
	s, err := NewSQLStore(path, dims)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Key derives the cache key of text within namespace.
func Key(namespace, text string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeVector packs v as little-endian float32s.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector reads dims little-endian float32s from b.
func DecodeVector(b []byte, dims int) ([]float32, error) {
	if len(b) != dims*4 {
		return nil, fmt.Errorf("invalid embedding size: expected %d bytes, got %d", dims*4, len(b))
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
