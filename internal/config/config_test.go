package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, "local", cfg.EmbeddingProvider)
	assert.Equal(t, "sqlite", cfg.CacheBackend)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2, cfg.TopK)
	assert.Equal(t, 1, cfg.CandidatePool)
	assert.Equal(t, dir, cfg.Dir)
}

func TestSetPersistsValue(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()

	_, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, Set("top_k", "4"))
	require.NoError(t, Set("active_user", "ada@example.com"))

	viper.Reset()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TopK)
	assert.Equal(t, "ada@example.com", cfg.ActiveUser)
}

func TestSetRejectsUnknownKey(t *testing.T) {
	viper.Reset()
	_, err := Load(t.TempDir())
	require.NoError(t, err)

	err = Set("linkedin_password", "hunter2")
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("COLDREACH_CACHE_BACKEND", "redis")
	t.Setenv("COLDREACH_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestIsSecret(t *testing.T) {
	assert.True(t, IsSecret("gemini_key"))
	assert.False(t, IsSecret("top_k"))
}
