// Package retriever resolves a conversational question into a standalone
// query and retrieves the best-matching chunks for it.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

// contextualizePrompt rewrites a follow-up question into standalone form.
// Embedding search is context-free, so "what about after two years?" has to
// be resolved against the history before it can retrieve anything useful.
const contextualizePrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, " +
	"formulate a standalone question which can be understood " +
	"without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

// Retriever performs history-aware retrieval against an index.
type Retriever struct {
	provider llm.Provider
	model    string
	topK     int
}

// New creates a Retriever that fetches topK chunks per question.
func New(provider llm.Provider, model string, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{provider: provider, model: model, topK: topK}
}

// Retrieve rewrites question into standalone form when history is non-empty,
// then queries the index with it. Returns the standalone question and the
// retrieved chunks, best match first.
func (r *Retriever) Retrieve(ctx context.Context, idx *vectorindex.Index, history *History, question string) (string, []chunker.Chunk, error) {
	standalone := question
	if !history.Empty() {
		rewritten, err := r.reformulate(ctx, history, question)
		if err != nil {
			return "", nil, fmt.Errorf("reformulating question: %w", err)
		}
		standalone = rewritten
	}

	results, err := idx.Query(ctx, standalone, r.topK)
	if err != nil {
		return "", nil, err
	}

	chunks := make([]chunker.Chunk, len(results))
	for i, res := range results {
		chunks[i] = res.Chunk
	}
	return standalone, chunks, nil
}

// reformulate asks the LLM for a standalone version of the question.
func (r *Retriever) reformulate(ctx context.Context, history *History, question string) (string, error) {
	messages := make([]llm.Message, 0, len(history.Turns())+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: contextualizePrompt})
	for _, turn := range history.Turns() {
		messages = append(messages, llm.Message{Role: roleFor(turn.Role), Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	rewritten := strings.TrimSpace(resp.Content)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func roleFor(role Role) llm.Role {
	if role == RoleAssistant {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}
