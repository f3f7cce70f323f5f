package config

// DefaultExcludes are glob patterns skipped during corpus ingestion by default.
// Vector store directories live under the data dir in the default layout, so
// they must never be picked up as corpus files.
var DefaultExcludes = []string{
	"vectorstore_*/**",
	".*/**",
	"*.tmp",
}

// DefaultConfig returns a Config with sensible defaults.
// The LLM defaults mirror a Groq-hosted llama3 deployment with OpenAI
// embeddings, which is the cheapest stack that handles policy documents well.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGroq,
		Model:             "llama3-8b-8192",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           "data",
		StoreDir:          "data",
		ChunkSize:         1000,
		ChunkOverlap:      200,
		TopK:              4,
		Include:           []string{"**"},
		Exclude:           DefaultExcludes,
		Server: ServerConfig{
			Port:     8000,
			AllowAll: true,
		},
	}
}
