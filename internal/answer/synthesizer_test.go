package answer

import (
	"context"
	"strings"
	"testing"

	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/retriever"
)

type mockProvider struct {
	response string
	requests []llm.CompletionRequest
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.requests = append(m.requests, req)
	return &llm.CompletionResponse{Content: m.response}, nil
}

func TestAnswerGroundsInContext(t *testing.T) {
	provider := &mockProvider{response: "  Knee surgery is covered after 90 days.  "}
	s := New(provider, "test-model")

	chunks := []chunker.Chunk{
		{Text: "Knee surgery is covered after a 90 day waiting period."},
		{Text: "Claims must be filed within 30 days."},
	}

	got, err := s.Answer(context.Background(), &retriever.History{}, chunks, "Is knee surgery covered?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "Knee surgery is covered after 90 days." {
		t.Errorf("Answer = %q, want trimmed response", got)
	}

	req := provider.requests[0]
	system := req.Messages[0]
	if system.Role != llm.RoleSystem {
		t.Errorf("first message role = %q, want system", system.Role)
	}
	for _, c := range chunks {
		if !strings.Contains(system.Content, c.Text) {
			t.Errorf("system prompt missing chunk %q", c.Text)
		}
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != llm.RoleUser || last.Content != "Is knee surgery covered?" {
		t.Errorf("last message = %+v, want the user question", last)
	}
}

func TestAnswerCarriesHistory(t *testing.T) {
	provider := &mockProvider{response: "Yes."}
	s := New(provider, "test-model")

	history := &retriever.History{}
	history.Append(retriever.RoleHuman, "Is knee surgery covered?")
	history.Append(retriever.RoleAssistant, "Yes, after 90 days.")

	if _, err := s.Answer(context.Background(), history, nil, "What about hip surgery?"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	msgs := provider.requests[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want system + 2 history + question", len(msgs))
	}
	if msgs[1].Role != llm.RoleUser || msgs[1].Content != "Is knee surgery covered?" {
		t.Errorf("history turn 1 = %+v", msgs[1])
	}
	if msgs[2].Role != llm.RoleAssistant || msgs[2].Content != "Yes, after 90 days." {
		t.Errorf("history turn 2 = %+v", msgs[2])
	}
}

func TestJoinContext(t *testing.T) {
	chunks := []chunker.Chunk{{Text: "first"}, {Text: "second"}}
	if got := JoinContext(chunks); got != "first\n\nsecond" {
		t.Errorf("JoinContext = %q", got)
	}
	if got := JoinContext(nil); got != "" {
		t.Errorf("JoinContext(nil) = %q, want empty", got)
	}
}

func TestIsDontKnow(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I don't know.", true},
		{"I DON'T KNOW.", true},
		{"Sorry, I am unable to answer that question.", true},
		{"The policy covers knee surgery.", false},
		{"", false},
		{"It is not known whether the clause applies.", false},
	}
	for _, tt := range tests {
		if got := IsDontKnow(tt.text); got != tt.want {
			t.Errorf("IsDontKnow(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
