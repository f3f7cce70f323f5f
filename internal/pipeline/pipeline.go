// Package pipeline orchestrates retrieval, answer synthesis and structured
// decisioning for a single request.
package pipeline

import (
	"context"

	"github.com/clauselens/clauselens/internal/answer"
	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/ingest"
	"github.com/clauselens/clauselens/internal/retriever"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

// dontKnowAnswer is returned verbatim when the corpus cannot answer.
const dontKnowAnswer = "I don't know."

// Request is one decisioning request. Documents, when present, are uploaded
// content that gets its own request-scoped index; IdentityKey may carry a
// stable content identity to enable caching for it, and is left empty for
// plain uploads.
type Request struct {
	Query       string
	Documents   []ingest.Document
	IdentityKey string
}

// Pipeline runs the decisioning state machine. The default index, when set,
// is shared across requests and never mutated by them; request-scoped
// indexes live and die with their request.
type Pipeline struct {
	store        *vectorindex.Store
	splitter     *chunker.Splitter
	retriever    *retriever.Retriever
	synthesizer  *answer.Synthesizer
	extractor    *extract.Extractor
	defaultIndex *vectorindex.Index
}

// New assembles a Pipeline. defaultIndex may be nil when the startup corpus
// was empty; requests without an upload then fail with ErrNoIndex.
func New(store *vectorindex.Store, splitter *chunker.Splitter, r *retriever.Retriever, s *answer.Synthesizer, e *extract.Extractor, defaultIndex *vectorindex.Index) *Pipeline {
	return &Pipeline{
		store:        store,
		splitter:     splitter,
		retriever:    r,
		synthesizer:  s,
		extractor:    e,
		defaultIndex: defaultIndex,
	}
}

// DefaultIndex returns the shared startup index, or nil.
func (p *Pipeline) DefaultIndex() *vectorindex.Index {
	return p.defaultIndex
}

// Decide answers req.Query against the appropriate index and, unless the
// answer is the "don't know" sentinel, extracts a structured decision.
//
// Error contract: ErrNoIndex when no index is available; *ProcessingError
// for provider or index faults. Both leave shared state intact.
func (p *Pipeline) Decide(ctx context.Context, req Request) (*extract.DecisionResult, error) {
	idx := p.defaultIndex

	if len(req.Documents) > 0 {
		chunks := p.splitter.Split(req.Documents)
		built, err := p.store.BuildOrLoad(ctx, chunks, req.IdentityKey)
		if err != nil {
			return nil, &ProcessingError{Stage: "index", Err: err}
		}
		idx = built
	}

	if idx == nil {
		return nil, ErrNoIndex
	}

	// Per-request pipelines start from empty history; only the long-lived
	// session carries conversational state.
	history := &retriever.History{}

	_, chunks, err := p.retriever.Retrieve(ctx, idx, history, req.Query)
	if err != nil {
		return nil, &ProcessingError{Stage: "retrieve", Err: err}
	}

	ans, err := p.synthesizer.Answer(ctx, history, chunks, req.Query)
	if err != nil {
		return nil, &ProcessingError{Stage: "answer", Err: err}
	}

	if answer.IsDontKnow(ans) {
		sentinel := dontKnowAnswer
		return &extract.DecisionResult{Answer: &sentinel}, nil
	}

	structured, err := p.extractor.ParseQuery(ctx, req.Query)
	if err != nil {
		return nil, &ProcessingError{Stage: "parse_query", Err: err}
	}

	decision, err := p.extractor.Decide(ctx, structured, answer.JoinContext(chunks))
	if err != nil {
		return nil, &ProcessingError{Stage: "decide", Err: err}
	}

	return &extract.DecisionResult{
		Answer:        &ans,
		Decision:      decision.Decision,
		Amount:        decision.Amount,
		Justification: decision.Justification,
		ClauseMapping: decision.ClauseMapping,
	}, nil
}
