// Package answer turns retrieved chunks into a concise natural-language answer.
package answer

import (
	"context"
	"strings"

	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/retriever"
)

// qaPrompt constrains the model to the retrieved context. The "don't know"
// phrasing is a control signal: the pipeline matches it to skip structured
// decisioning instead of fabricating a decision from absent evidence.
const qaPrompt = "You are an assistant for question-answering tasks. " +
	"Use the following pieces of retrieved context to answer " +
	"the question. If you don't know the answer, just say " +
	"that you don't know. Use three sentences maximum and keep the " +
	"answer concise.\n\n"

// dontKnowPhrases are matched case-insensitively against answers.
var dontKnowPhrases = []string{"don't know", "unable to answer"}

// Synthesizer produces answers grounded in retrieved chunks.
type Synthesizer struct {
	provider llm.Provider
	model    string
}

// New creates a Synthesizer.
func New(provider llm.Provider, model string) *Synthesizer {
	return &Synthesizer{provider: provider, model: model}
}

// Answer generates a concise answer to question from the given chunks,
// carrying the conversation history through to the model.
func (s *Synthesizer) Answer(ctx context.Context, history *retriever.History, chunks []chunker.Chunk, question string) (string, error) {
	messages := make([]llm.Message, 0, len(history.Turns())+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: qaPrompt + JoinContext(chunks),
	})
	for _, turn := range history.Turns() {
		role := llm.RoleUser
		if turn.Role == retriever.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Content), nil
}

// JoinContext stuffs chunks into a single context block, preserving their
// retrieval order.
func JoinContext(chunks []chunker.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n\n")
}

// IsDontKnow reports whether an answer contains the "cannot answer" sentinel.
func IsDontKnow(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range dontKnowPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
