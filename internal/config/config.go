package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	dirName  = ".coldreach"
	fileName = "config.yaml"

	envPrefix = "COLDREACH"
)

// Config holds the application configuration
type Config struct {
	AIProvider   string `mapstructure:"ai_provider"` // gemini, openai, ollama, lmstudio
	DefaultModel string `mapstructure:"default_model"`
	GeminiKey    string `mapstructure:"gemini_key"`
	OpenAIKey    string `mapstructure:"openai_key"`
	OllamaURL    string `mapstructure:"ollama_url"`
	LMStudioURL  string `mapstructure:"lmstudio_url"`

	EmbeddingProvider string `mapstructure:"embedding_provider"` // local, gemini
	EmbeddingModel    string `mapstructure:"embedding_model"`

	CacheBackend string        `mapstructure:"cache_backend"` // sqlite, redis
	RedisURL     string        `mapstructure:"redis_url"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`

	TopK          int `mapstructure:"top_k"`
	CandidatePool int `mapstructure:"candidate_pool"`

	RenderPages  bool          `mapstructure:"render_pages"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	ActiveUser string `mapstructure:"active_user"`

	// Dir is the directory holding the config file and the database.
	Dir string `mapstructure:"-"`
}

// ValidKeys are the keys accepted by Set
var ValidKeys = []string{
	"ai_provider", "default_model", "gemini_key", "openai_key", "ollama_url", "lmstudio_url",
	"embedding_provider", "embedding_model",
	"cache_backend", "redis_url", "cache_ttl",
	"top_k", "candidate_pool",
	"render_pages", "fetch_timeout",
	"active_user",
}

// SecretKeys are never printed by config show
var SecretKeys = []string{"gemini_key", "openai_key"}

// DefaultDir returns ~/.coldreach
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, dirName), nil
}

// Initialize loads or creates the configuration in the default directory
func Initialize() (*Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return Load(dir)
}

// Load reads dir/config.yaml, creating it with defaults when missing.
// Environment variables prefixed with COLDREACH_ override file values.
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, fileName)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := createDefaultConfig(configFile); err != nil {
			return nil, err
		}
	}

	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Dir = dir

	if cfg.TopK < 1 {
		cfg.TopK = 2
	}
	if cfg.CandidatePool < 1 {
		cfg.CandidatePool = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("ai_provider", "gemini")
	viper.SetDefault("default_model", "")
	viper.SetDefault("gemini_key", "")
	viper.SetDefault("openai_key", "")
	viper.SetDefault("ollama_url", "http://localhost:11434")
	viper.SetDefault("lmstudio_url", "http://localhost:1234")
	viper.SetDefault("embedding_provider", "local")
	viper.SetDefault("embedding_model", "")
	viper.SetDefault("cache_backend", "sqlite")
	viper.SetDefault("redis_url", "")
	viper.SetDefault("cache_ttl", "30m")
	viper.SetDefault("top_k", 2)
	viper.SetDefault("candidate_pool", 1)
	viper.SetDefault("render_pages", false)
	viper.SetDefault("fetch_timeout", "30s")
	viper.SetDefault("active_user", "")
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) error {
	defaultConfig := `# coldreach configuration
# AI provider: gemini, openai, ollama, lmstudio
ai_provider: gemini
default_model: ""
ollama_url: http://localhost:11434
lmstudio_url: http://localhost:1234

# API keys (keep this file secure!)
gemini_key: ""
openai_key: ""

# Portfolio matching. embedding_provider: local, gemini
embedding_provider: local
embedding_model: ""
top_k: 2
candidate_pool: 1

# Extraction cache. cache_backend: sqlite, redis
cache_backend: sqlite
redis_url: ""
cache_ttl: 30m

# Page fetching
render_pages: false
fetch_timeout: 30s

active_user: ""
`
	return os.WriteFile(path, []byte(defaultConfig), 0600)
}

// IsValidKey reports whether key can be written with Set
func IsValidKey(key string) bool {
	return slices.Contains(ValidKeys, key)
}

// IsSecret reports whether key holds a credential
func IsSecret(key string) bool {
	return slices.Contains(SecretKeys, key)
}

// Set updates a configuration value
func Set(key, value string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("invalid key %q, must be one of: %s", key, strings.Join(ValidKeys, ", "))
	}
	viper.Set(key, value)
	return viper.WriteConfig()
}

// Get retrieves a configuration value
func Get(key string) string {
	return viper.GetString(key)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	return viper.ConfigFileUsed()
}
