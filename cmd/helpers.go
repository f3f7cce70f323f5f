package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/clauselens/clauselens/internal/answer"
	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/embeddings"
	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/ingest"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/pipeline"
	"github.com/clauselens/clauselens/internal/retriever"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

// groqFreeTierRPM caps request throughput against Groq free-tier keys. One
// decision request makes up to four completions.
const groqFreeTierRPM = 28

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `clauselens init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = config.ProviderOpenAI
	}

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, ""), nil
	default:
		// Groq has no native embeddings endpoint; fall back to OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	}
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.Provider == config.ProviderGroq {
		provider = llm.NewRateLimitedProvider(provider, groqFreeTierRPM)
	}
	return provider, nil
}

// newLoaderFromConfig creates a document loader honoring config glob filters.
func newLoaderFromConfig(cfg *config.Config) *ingest.Loader {
	return ingest.NewLoader(
		ingest.WithInclude(cfg.Include),
		ingest.WithExclude(cfg.Exclude),
	)
}

// buildStartupIndex loads the corpus from the data folder, chunks it, and
// builds (or loads from cache) its vector index. Returns a nil index when
// the folder holds no readable documents.
func buildStartupIndex(ctx context.Context, cfg *config.Config, loader *ingest.Loader, splitter *chunker.Splitter, store *vectorindex.Store) (*vectorindex.Index, []ingest.Document, error) {
	docs := loader.LoadDirectory(cfg.DataDir)
	if len(docs) == 0 {
		return nil, nil, nil
	}

	chunks := splitter.Split(docs)
	key := vectorindex.IdentityKey(docs)

	idx, err := store.BuildOrLoad(ctx, chunks, key)
	if err != nil {
		return nil, nil, fmt.Errorf("building index: %w", err)
	}
	return idx, docs, nil
}

// buildPipeline wires the full decisioning pipeline plus a chat session
// around the startup index.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, *pipeline.Session, *ingest.Loader, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	loader := newLoaderFromConfig(cfg)
	splitter := chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	store := vectorindex.NewStore(cfg.StoreDir, embedder)

	idx, docs, err := buildStartupIndex(ctx, cfg, loader, splitter, store)
	if err != nil {
		return nil, nil, nil, err
	}
	if idx == nil {
		fmt.Fprintf(os.Stderr, "Warning: no readable documents in %s; only uploaded documents can be decisioned\n", cfg.DataDir)
	} else if verbose {
		fmt.Fprintf(os.Stderr, "Indexed %d documents (%d chunks)\n", len(docs), idx.Count())
	}

	r := retriever.New(provider, cfg.Model, cfg.TopK)
	syn := answer.New(provider, cfg.Model)
	ext := extract.New(provider, cfg.Model)

	pipe := pipeline.New(store, splitter, r, syn, ext, idx)
	session := pipeline.NewSession(idx, r, syn)

	return pipe, session, loader, nil
}
