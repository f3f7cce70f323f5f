package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/clauselens/clauselens/internal/answer"
	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/ingest"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/retriever"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

// scriptedProvider returns its responses in order, one per Complete call.
type scriptedProvider struct {
	responses []string
	calls     int
	err       error
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.responses) {
		return nil, errors.New("scripted provider exhausted")
	}
	content := s.responses[s.calls]
	s.calls++
	return &llm.CompletionResponse{Content: content}, nil
}

type mockEmbedder struct{ dims int }

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.dims)
		for j, ch := range text {
			vec[(int(ch)+j)%m.dims] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for j := range vec {
				vec[j] = float32(float64(vec[j]) / norm)
			}
		}
		results[i] = vec
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func policyDocs() []ingest.Document {
	return []ingest.Document{{
		ID:         "policy-1",
		SourcePath: "data/policy.pdf",
		RawText: "Clause 4.2: Knee surgery is covered after a 90 day waiting period. " +
			"Clause 7.1: Claims must be filed within 30 days of treatment.",
	}}
}

// newTestPipeline wires a pipeline over a corpus index built with the mock
// embedder, leaving the LLM responses to the given script.
func newTestPipeline(t *testing.T, provider llm.Provider, docs []ingest.Document) (*Pipeline, string) {
	t.Helper()

	dir := t.TempDir()
	store := vectorindex.NewStore(dir, &mockEmbedder{dims: 64})
	splitter := chunker.NewSplitter(200, 40)

	var idx *vectorindex.Index
	if len(docs) > 0 {
		var err error
		idx, err = store.BuildOrLoad(context.Background(), splitter.Split(docs), "")
		if err != nil {
			t.Fatalf("building corpus index: %v", err)
		}
	}

	r := retriever.New(provider, "test-model", 2)
	syn := answer.New(provider, "test-model")
	ext := extract.New(provider, "test-model")

	return New(store, splitter, r, syn, ext, idx), dir
}

func TestDecideEndToEnd(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		// answer synthesis (no reformulation on a fresh request)
		"Yes, knee surgery is covered after a 90 day waiting period.",
		// structured query extraction
		`{"age": 46, "procedure": "knee surgery", "location": "Pune", "policy_duration": "3 months"}`,
		// decision
		`{"decision": "Approved", "amount": 10000.0, "justification": "Covered under clause 4.2",
		  "clause_mapping": [{"clause": "4.2", "reason": "Knee surgery is listed"}]}`,
	}}

	pipe, _ := newTestPipeline(t, provider, policyDocs())

	result, err := pipe.Decide(context.Background(), Request{
		Query: "46-year-old male, knee surgery in Pune, 3-month-old insurance policy",
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if provider.calls != 3 {
		t.Errorf("made %d LLM calls, want 3", provider.calls)
	}
	if result.Answer == nil || *result.Answer != "Yes, knee surgery is covered after a 90 day waiting period." {
		t.Errorf("Answer = %v", result.Answer)
	}
	if result.Decision == nil || *result.Decision != "Approved" {
		t.Errorf("Decision = %v, want Approved", result.Decision)
	}
	if result.Amount == nil || *result.Amount != 10000.0 {
		t.Errorf("Amount = %v, want 10000.0", result.Amount)
	}
	if result.Justification == nil || *result.Justification == "" {
		t.Error("Justification missing")
	}
	if len(result.ClauseMapping) == 0 {
		t.Error("ClauseMapping empty")
	}
}

func TestDecideDontKnowShortCircuits(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"I'm sorry, I don't know the answer to that.",
	}}

	pipe, _ := newTestPipeline(t, provider, policyDocs())

	result, err := pipe.Decide(context.Background(), Request{Query: "Is cosmetic surgery in Antarctica covered?"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("made %d LLM calls, want 1 (no extraction after sentinel)", provider.calls)
	}
	if result.Answer == nil || *result.Answer != "I don't know." {
		t.Errorf("Answer = %v, want the exact sentinel", result.Answer)
	}
	if result.Decision != nil || result.Amount != nil || result.Justification != nil || result.ClauseMapping != nil {
		t.Errorf("sentinel result carries decision fields: %+v", result)
	}
}

func TestDecideNoIndex(t *testing.T) {
	provider := &scriptedProvider{}
	pipe, _ := newTestPipeline(t, provider, nil)

	_, err := pipe.Decide(context.Background(), Request{Query: "anything"})
	if !errors.Is(err, ErrNoIndex) {
		t.Errorf("err = %v, want ErrNoIndex", err)
	}
	if provider.calls != 0 {
		t.Errorf("made %d LLM calls, want 0", provider.calls)
	}
}

func TestDecideUploadedDocumentsGetRequestScopedIndex(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"The uploaded policy rejects dental claims.",
		`{"procedure": "dental filling"}`,
		`{"decision": "Rejected", "amount": 0, "justification": "Dental excluded",
		  "clause_mapping": [{"clause": "9.1", "reason": "Dental exclusion"}]}`,
	}}

	// No corpus index at all: the upload must supply one.
	pipe, storeDir := newTestPipeline(t, provider, nil)

	result, err := pipe.Decide(context.Background(), Request{
		Query: "Is a dental filling covered?",
		Documents: []ingest.Document{{
			ID:         "upload-1",
			SourcePath: "upload/dental.pdf",
			RawText:    "Clause 9.1: Dental procedures are excluded from coverage.",
		}},
	})
	if err != nil {
		t.Fatalf("Decide with upload: %v", err)
	}
	if result.Decision == nil || *result.Decision != "Rejected" {
		t.Errorf("Decision = %v, want Rejected", result.Decision)
	}

	// Uploads carry no identity key, so nothing may be persisted for them.
	entries, err := os.ReadDir(storeDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) > 0 {
		t.Error("upload index was persisted")
	}
}

func TestDecideWrapsProviderFaults(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("rate limited")}
	pipe, _ := newTestPipeline(t, provider, policyDocs())

	_, err := pipe.Decide(context.Background(), Request{Query: "Is knee surgery covered?"})
	if err == nil {
		t.Fatal("expected error")
	}

	var procErr *ProcessingError
	if !errors.As(err, &procErr) {
		t.Fatalf("err = %T, want *ProcessingError", err)
	}
	if procErr.Stage != "answer" {
		t.Errorf("Stage = %q, want answer", procErr.Stage)
	}
	if !errors.Is(err, provider.err) {
		t.Error("cause not unwrappable")
	}
}

func TestSessionConversation(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		// first Ask: empty history, just the answer
		"Knee surgery is covered after 90 days.",
		// second Ask: reformulation, then the answer
		"What is the waiting period for knee surgery?",
		"The waiting period is 90 days.",
	}}

	pipe, _ := newTestPipeline(t, provider, policyDocs())
	r := retriever.New(provider, "test-model", 2)
	syn := answer.New(provider, "test-model")
	session := NewSession(pipe.DefaultIndex(), r, syn)

	first, err := session.Ask(context.Background(), "Is knee surgery covered?")
	if err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	if first != "Knee surgery is covered after 90 days." {
		t.Errorf("first answer = %q", first)
	}
	if provider.calls != 1 {
		t.Errorf("first Ask made %d calls, want 1", provider.calls)
	}

	second, err := session.Ask(context.Background(), "And the waiting period?")
	if err != nil {
		t.Fatalf("second Ask: %v", err)
	}
	if second != "The waiting period is 90 days." {
		t.Errorf("second answer = %q", second)
	}
	if provider.calls != 3 {
		t.Errorf("second Ask total calls = %d, want 3 (reformulate + answer)", provider.calls)
	}

	turns := session.History()
	if len(turns) != 4 {
		t.Fatalf("history has %d turns, want 4", len(turns))
	}
	if turns[0].Role != retriever.RoleHuman || turns[1].Role != retriever.RoleAssistant {
		t.Errorf("turn roles = %v %v", turns[0].Role, turns[1].Role)
	}
}

func TestSessionAskFailureLeavesHistoryIntact(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"First answer."}}

	pipe, _ := newTestPipeline(t, provider, policyDocs())
	r := retriever.New(provider, "test-model", 2)
	syn := answer.New(provider, "test-model")
	session := NewSession(pipe.DefaultIndex(), r, syn)

	if _, err := session.Ask(context.Background(), "first question"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	// The script is exhausted; the next Ask fails mid-flight.
	if _, err := session.Ask(context.Background(), "second question"); err == nil {
		t.Fatal("expected error from exhausted provider")
	}

	if got := len(session.History()); got != 2 {
		t.Errorf("history has %d turns after failed Ask, want 2", got)
	}
}

func TestSessionNoIndex(t *testing.T) {
	session := NewSession(nil, nil, nil)
	if _, err := session.Ask(context.Background(), "anything"); !errors.Is(err, ErrNoIndex) {
		t.Errorf("err = %v, want ErrNoIndex", err)
	}
}
