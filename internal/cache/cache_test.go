package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khrees2412/coldreach/internal/database"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	db, err := database.OpenFile(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLite(db)
}

func TestKey(t *testing.T) {
	a := Key("extract", "https://example.com/careers")
	b := Key("extract", "https://example.com/careers")
	c := Key("extractx", "https://example.com/careers")
	d := Key("extract", "https://example.com/careers", "")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a, len("cr:")+24)
}

func TestSQLiteGetSet(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v1"), time.Minute))
	require.NoError(t, store.Set(ctx, "k", []byte("v2"), time.Minute))

	val, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), val)
}

func TestSQLiteExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("y"), time.Hour))

	now = now.Add(2 * time.Minute)

	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	removed, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

type countingStore struct {
	data map[string][]byte
	gets int
	err  error
}

func (c *countingStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.gets++
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *countingStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	return c.err
}

func TestTieredServesFromL1(t *testing.T) {
	ctx := context.Background()
	l2 := &countingStore{data: map[string][]byte{"k": []byte("v")}}
	tiered := NewTiered(l2, time.Minute)

	for i := 0; i < 3; i++ {
		val, ok, err := tiered.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), val)
	}
	assert.Equal(t, 1, l2.gets)
}

func TestTieredL1Expiry(t *testing.T) {
	ctx := context.Background()
	l2 := &countingStore{}
	tiered := NewTiered(l2, time.Minute)

	now := time.Now()
	tiered.now = func() time.Time { return now }

	require.NoError(t, tiered.Set(ctx, "k", []byte("v"), time.Hour))
	_, ok, _ := tiered.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, 0, l2.gets)

	now = now.Add(2 * time.Minute)
	_, ok, _ = tiered.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, 1, l2.gets)
}

func TestTieredPropagatesL2Errors(t *testing.T) {
	tiered := NewTiered(&countingStore{err: errors.New("redis down")}, time.Minute)
	_, ok, err := tiered.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Error(t, err)
}
