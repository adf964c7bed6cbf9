package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overlays environment variables onto cfg. Variables win over the config file.
// A .env file, when present, is loaded into the environment by the CLI before this runs.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.LLM.Model, "OPENAI_MODEL")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Sources.LabelAPIURL, "LABEL_API_URL")
	setString(&cfg.Storage.CacheDir, "CACHE_DIR")
	setString(&cfg.Storage.DatabasePath, "DATABASE_PATH")
	setString(&cfg.Languages.Default, "DEFAULT_LANGUAGE")
	setString(&cfg.Server.APIKey, "API_KEY")
	setString(&cfg.Server.Host, "HOST")
	setString(&cfg.Watch.LabelsDir, "LABELS_DIR")
	setList(&cfg.Languages.Supported, "SUPPORTED_LANGUAGES")
	setList(&cfg.Server.AllowedOrigins, "ALLOWED_ORIGINS")

	if err := setInt(&cfg.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setFloatPtr(&cfg.RAG.RelevanceThreshold, "SIMILARITY_THRESHOLD"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Sources.Timeout, "LABEL_API_TIMEOUT"); err != nil {
		return err
	}
	if err := setBool(&cfg.Debug, "DEBUG"); err != nil {
		return err
	}
	return setBool(&cfg.Sources.Offline, "OFFLINE")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloatPtr(dst **float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = &f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}
