package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when COLDREACH_TEST_REDIS_URL is set.
func TestRedisGetSet(t *testing.T) {
	url := os.Getenv("COLDREACH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("COLDREACH_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	r, err := NewRedis(ctx, url)
	require.NoError(t, err)
	defer r.Close()

	key := Key("test", t.Name(), time.Now().String())

	_, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, key, []byte(`[{"role":"SRE"}]`), time.Minute))
	got, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"role":"SRE"}]`, string(got))
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
