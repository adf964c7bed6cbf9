// Package config provides configuration loading and structs for the pharmassist service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Sources   SourcesConfig   `yaml:"sources"`
	Languages LanguagesConfig `yaml:"languages"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	APIKey         string        `yaml:"api_key"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds paths for the database, label cache, and catalog index.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	CacheDir         string `yaml:"cache_dir"`
	CatalogIndexPath string `yaml:"catalog_index_path"`
}

// LabelCachePath is the SQLite file holding fetched drug labels.
func (s *StorageConfig) LabelCachePath() string {
	return filepath.Join(s.CacheDir, "labels.db")
}

// OpenAIConfig holds credentials shared by the embedding and completion clients.
type OpenAIConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "openai", "onnx", or "mock".
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	ModelPath  string        `yaml:"model_path"`
	Dimensions int           `yaml:"dimensions"`
	MaxTokens  int           `yaml:"max_tokens"`
	CacheSize  int           `yaml:"cache_size"`
	BatchSize  int           `yaml:"batch_size"`
	BatchDelay time.Duration `yaml:"batch_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LLMConfig holds chat completion settings.
type LLMConfig struct {
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RAGConfig holds context assembly settings.
type RAGConfig struct {
	// RelevanceThreshold is optional so that an explicit 0 differs from unset.
	RelevanceThreshold *float64 `yaml:"relevance_threshold"`
	MaxSnippets        int      `yaml:"max_snippets"`
	MaxSnippetChars    int      `yaml:"max_snippet_chars"`
	FallbackLimit      int      `yaml:"fallback_limit"`
	// Documents longer than ChunkWords words are split into overlapping parts before embedding.
	ChunkWords   int `yaml:"chunk_words"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// Threshold returns the relevance threshold, 0.3 when unset.
func (r *RAGConfig) Threshold() float64 {
	if r.RelevanceThreshold != nil {
		return *r.RelevanceThreshold
	}
	return 0.3
}

// SourcesConfig holds settings for the external label API.
type SourcesConfig struct {
	LabelAPIURL  string        `yaml:"label_api_url"`
	Offline      bool          `yaml:"offline"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultLimit int           `yaml:"default_limit"`
	MaxLimit     int           `yaml:"max_limit"`
	SeedCatalog  *bool         `yaml:"seed_catalog"`
}

// SeedCatalogOrDefault returns whether to load sample labels into an empty catalog; defaults to true.
func (s *SourcesConfig) SeedCatalogOrDefault() bool {
	if s.SeedCatalog != nil {
		return *s.SeedCatalog
	}
	return true
}

// LanguagesConfig holds answer language settings.
type LanguagesConfig struct {
	Supported []string `yaml:"supported"`
	Default   string   `yaml:"default"`
}

// Resolve returns lang when it is supported, otherwise the default language.
func (l *LanguagesConfig) Resolve(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, s := range l.Supported {
		if s == lang {
			return lang
		}
	}
	return l.Default
}

// WatchConfig holds the label drop directory settings. Watching is off when LabelsDir is empty.
type WatchConfig struct {
	LabelsDir  string   `yaml:"labels_dir"`
	Extensions []string `yaml:"extensions"`
	Recursive  *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads the config file at path (optional: an empty path uses defaults only),
// overlays environment variables, applies defaults, and expands paths.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.CacheDir = expandPath(cfg.Storage.CacheDir, configDir)
	cfg.Storage.CatalogIndexPath = expandPath(cfg.Storage.CatalogIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.Watch.LabelsDir != "" {
		cfg.Watch.LabelsDir = expandPath(cfg.Watch.LabelsDir, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		if abs, err := filepath.Abs(filepath.Join(configDir, path)); err == nil {
			return abs
		}
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
