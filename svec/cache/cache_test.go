package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("minilm|384", "hello")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("minilm|384", "hello"))
	assert.NotEqual(t, a, Key("minilm|256", "hello"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3e-8}
	b := EncodeVector(v)
	assert.Len(t, b, 16)

	got, err := DecodeVector(b, 4)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = DecodeVector(b, 3)
	assert.Error(t, err)
}

func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.Get(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Put(ctx, map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
	}))
	got, err = s.Get(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]float32{"a": {1, 0, 0}, "b": {0, 1, 0}}, got)

	// overwrite
	require.NoError(t, s.Put(ctx, map[string][]float32{"a": {0, 0, 1}}))
	got, err = s.Get(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, got["a"])

	// returned vectors are copies
	got["a"][0] = 42
	again, err := s.Get(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, again["a"])

	assert.Error(t, s.Put(ctx, map[string][]float32{"bad": {1, 2}}))
	require.NoError(t, s.Put(ctx, nil))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(3)
	storeContract(t, s)
	assert.Equal(t, 2, s.Len())
	assert.NoError(t, s.Close())
}

func TestSQLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "embeddings.db")
	s, err := NewSQLStore(path, 3)
	require.NoError(t, err)
	storeContract(t, s)
	require.NoError(t, s.Close())

	// entries survive reopening
	reopened, err := NewSQLStore(path, 3)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// a store with other dims does not see them
	other, err := NewSQLStore(filepath.Join(t.TempDir(), "other.db"), 4)
	require.NoError(t, err)
	defer other.Close()
	got, err = other.Get(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLStoreManyKeys(t *testing.T) {
	s, err := NewSQLStore(filepath.Join(t.TempDir(), "many.db"), 2)
	require.NoError(t, err)
	defer s.Close()

	entries := make(map[string][]float32)
	keys := make([]string, 0, 600)
	for i := 0; i < 600; i++ {
		k := fmt.Sprintf("k%03d", i)
		entries[k] = []float32{float32(i), 1}
		keys = append(keys, k)
	}
	require.NoError(t, s.Put(context.Background(), entries))

	got, err := s.Get(context.Background(), keys)
	require.NoError(t, err)
	assert.Len(t, got, 600)
	assert.Equal(t, []float32{599, 1}, got["k599"])
}

func TestNewSQLStoreInvalidDims(t *testing.T) {
	_, err := NewSQLStore(filepath.Join(t.TempDir(), "x.db"), 0)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open(MemoryPath, 3)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(filepath.Join(t.TempDir(), "c.db"), 3)
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	assert.NoError(t, s.Close())
}
