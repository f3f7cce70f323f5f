package pipeline

import (
	"context"

	"github.com/clauselens/clauselens/internal/answer"
	"github.com/clauselens/clauselens/internal/retriever"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

// Session is the single long-lived conversational owner of the startup
// index. It is created at process start and holds the only mutable chat
// history; mutation happens exclusively through Ask. Concurrent Ask calls
// on one Session are not supported.
type Session struct {
	index       *vectorindex.Index
	retriever   *retriever.Retriever
	synthesizer *answer.Synthesizer
	history     *retriever.History
}

// NewSession creates a Session over the shared startup index, which may be
// nil when the corpus was empty.
func NewSession(index *vectorindex.Index, r *retriever.Retriever, s *answer.Synthesizer) *Session {
	return &Session{
		index:       index,
		retriever:   r,
		synthesizer: s,
		history:     &retriever.History{},
	}
}

// Ask answers input in the context of the running conversation and appends
// both turns to the history. Returns ErrNoIndex when no corpus was indexed.
func (s *Session) Ask(ctx context.Context, input string) (string, error) {
	if s.index == nil {
		return "", ErrNoIndex
	}

	_, chunks, err := s.retriever.Retrieve(ctx, s.index, s.history, input)
	if err != nil {
		return "", &ProcessingError{Stage: "retrieve", Err: err}
	}

	ans, err := s.synthesizer.Answer(ctx, s.history, chunks, input)
	if err != nil {
		return "", &ProcessingError{Stage: "answer", Err: err}
	}

	s.history.Append(retriever.RoleHuman, input)
	s.history.Append(retriever.RoleAssistant, ans)

	return ans, nil
}

// History exposes the conversation so far, for display only.
func (s *Session) History() []retriever.Turn {
	return s.history.Turns()
}
