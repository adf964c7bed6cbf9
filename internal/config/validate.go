package config

import (
	"errors"
	"fmt"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
	ProviderMock   = "mock"
)

// Validate checks cfg after defaults are applied. Hard errors stop startup; warnings
// describe degraded modes (for example, no OpenAI key) and are logged by the caller.
func Validate(cfg *Config) (warnings []string, err error) {
	var problems []error
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Errorf("server.port out of range: %d", cfg.Server.Port))
	}
	if t := cfg.RAG.Threshold(); t < 0 || t >= 1 {
		problems = append(problems, fmt.Errorf("rag.relevance_threshold must be in [0, 1): %v", t))
	}
	if cfg.RAG.MaxSnippets < 1 {
		problems = append(problems, errors.New("rag.max_snippets must be positive"))
	}
	if cfg.RAG.ChunkOverlap < 0 || cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkWords {
		problems = append(problems, fmt.Errorf("rag.chunk_overlap must be in [0, chunk_words): %d", cfg.RAG.ChunkOverlap))
	}
	if cfg.Embedding.BatchSize < 1 {
		problems = append(problems, errors.New("embedding.batch_size must be positive"))
	}
	if cfg.Embedding.Dimensions < 1 {
		problems = append(problems, errors.New("embedding.dimensions must be positive"))
	}
	switch cfg.Embedding.Provider {
	case ProviderOpenAI, ProviderONNX, ProviderMock:
	default:
		problems = append(problems, fmt.Errorf("unknown embedding.provider %q (supported: openai, onnx, mock)", cfg.Embedding.Provider))
	}
	if !contains(cfg.Languages.Supported, cfg.Languages.Default) {
		problems = append(problems, fmt.Errorf("languages.default %q is not in languages.supported %v", cfg.Languages.Default, cfg.Languages.Supported))
	}

	if cfg.OpenAI.APIKey == "" {
		warnings = append(warnings, "OPENAI_API_KEY not set: answers report the LLM service as not configured")
		if cfg.Embedding.Provider == ProviderOpenAI {
			warnings = append(warnings, "OPENAI_API_KEY not set: openai embeddings unavailable, using mock embeddings")
		}
	}
	if cfg.Server.APIKey == "" {
		warnings = append(warnings, "server.api_key not set: API requests are not authenticated")
	}
	if cfg.Sources.Offline {
		warnings = append(warnings, "sources.offline set: label API disabled, using local catalog only")
	}
	return warnings, errors.Join(problems...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
