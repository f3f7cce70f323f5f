package llm

import "context"

// Provider is a chat-completion backend. Implementations wrap a vendor API
// (Groq, OpenAI, Ollama); RateLimitedProvider composes over any of them to
// throttle free-tier quotas.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the provider's identifier for logging.
	Name() string
}
