package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/pharmassist.db"
	}
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = "./data/labels"
	}
	if cfg.Storage.CatalogIndexPath == "" {
		cfg.Storage.CatalogIndexPath = "./data/catalog.bleve"
	}

	if cfg.OpenAI.MaxRetries == 0 {
		cfg.OpenAI.MaxRetries = 2
	}
	if cfg.OpenAI.RetryDelay == 0 {
		cfg.OpenAI.RetryDelay = 500 * time.Millisecond
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		if cfg.Embedding.Provider == ProviderOpenAI {
			cfg.Embedding.Dimensions = 1536
		} else {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 16
	}
	if cfg.Embedding.BatchDelay == 0 {
		cfg.Embedding.BatchDelay = 100 * time.Millisecond
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	// A zero temperature cannot be told apart from unset; 0.3 is used for both.
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}

	if cfg.RAG.RelevanceThreshold == nil {
		t := 0.3
		cfg.RAG.RelevanceThreshold = &t
	}
	if cfg.RAG.MaxSnippets == 0 {
		cfg.RAG.MaxSnippets = 3
	}
	if cfg.RAG.MaxSnippetChars == 0 {
		cfg.RAG.MaxSnippetChars = 500
	}
	if cfg.RAG.FallbackLimit == 0 {
		cfg.RAG.FallbackLimit = 2
	}
	if cfg.RAG.ChunkWords == 0 {
		cfg.RAG.ChunkWords = 300
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 30
	}

	if cfg.Sources.LabelAPIURL == "" {
		cfg.Sources.LabelAPIURL = "https://api.fda.gov/drug/label.json"
	}
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 10 * time.Second
	}
	if cfg.Sources.DefaultLimit == 0 {
		cfg.Sources.DefaultLimit = 10
	}
	if cfg.Sources.MaxLimit == 0 {
		cfg.Sources.MaxLimit = 50
	}

	if len(cfg.Languages.Supported) == 0 {
		cfg.Languages.Supported = []string{"fr", "en"}
	}
	if cfg.Languages.Default == "" {
		cfg.Languages.Default = "fr"
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".txt", ".md", ".pdf", ".docx", ".odt", ".rtf", ".xlsx"}
	}
	if cfg.Watch.LabelsDir != "" && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
