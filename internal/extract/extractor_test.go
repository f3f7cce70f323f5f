package extract

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/clauselens/clauselens/internal/llm"
)

// mockProvider returns canned responses and records requests.
type mockProvider struct {
	responses []string
	requests  []llm.CompletionRequest
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.requests = append(m.requests, req)
	content := "{}"
	if len(m.responses) > 0 {
		content = m.responses[0]
		m.responses = m.responses[1:]
	}
	return &llm.CompletionResponse{Content: content}, nil
}

func TestParseQuery(t *testing.T) {
	provider := &mockProvider{responses: []string{
		`{"age": 46, "procedure": "knee surgery", "location": "Pune", "policy_duration": "3 months"}`,
	}}
	e := New(provider, "test-model")

	q, err := e.ParseQuery(context.Background(), "46M, knee surgery, Pune, 3-month policy")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}

	if q.Age == nil || *q.Age != 46 {
		t.Errorf("Age = %v, want 46", q.Age)
	}
	if q.Procedure == nil || *q.Procedure != "knee surgery" {
		t.Errorf("Procedure = %v, want knee surgery", q.Procedure)
	}
	if q.Location == nil || *q.Location != "Pune" {
		t.Errorf("Location = %v, want Pune", q.Location)
	}
	if q.PolicyDuration == nil || *q.PolicyDuration != "3 months" {
		t.Errorf("PolicyDuration = %v, want 3 months", q.PolicyDuration)
	}

	req := provider.requests[0]
	if !req.JSONMode {
		t.Error("ParseQuery did not request JSON mode")
	}
	if req.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", req.Temperature)
	}
}

func TestParseQueryMissingFieldsStayNil(t *testing.T) {
	provider := &mockProvider{responses: []string{
		`{"age": null, "procedure": "cataract surgery", "location": null, "policy_duration": null}`,
	}}
	e := New(provider, "test-model")

	q, err := e.ParseQuery(context.Background(), "cataract surgery")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q.Age != nil {
		t.Errorf("Age = %v, want nil", *q.Age)
	}
	if q.Procedure == nil || *q.Procedure != "cataract surgery" {
		t.Errorf("Procedure = %v", q.Procedure)
	}
}

func TestParseQueryTypeMismatchKeepsOtherFields(t *testing.T) {
	// age arrives as a string; the mismatch must not discard procedure.
	provider := &mockProvider{responses: []string{
		`{"procedure": "knee surgery", "age": "forty-six"}`,
	}}
	e := New(provider, "test-model")

	q, err := e.ParseQuery(context.Background(), "knee surgery, age forty-six")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q.Procedure == nil || *q.Procedure != "knee surgery" {
		t.Errorf("Procedure = %v, want knee surgery", q.Procedure)
	}
	if q.Age != nil {
		t.Errorf("Age = %v, want nil", *q.Age)
	}
}

func TestParseQueryNumericStringAge(t *testing.T) {
	provider := &mockProvider{responses: []string{
		`{"age": "46", "procedure": "knee surgery"}`,
	}}
	e := New(provider, "test-model")

	q, err := e.ParseQuery(context.Background(), "46, knee surgery")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q.Age == nil || *q.Age != 46 {
		t.Errorf("Age = %v, want 46", q.Age)
	}
}

func TestParseQueryGarbageIsError(t *testing.T) {
	provider := &mockProvider{responses: []string{`not json at all`}}
	e := New(provider, "test-model")

	if _, err := e.ParseQuery(context.Background(), "anything"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestDecide(t *testing.T) {
	provider := &mockProvider{responses: []string{
		`{"decision": "Approved", "amount": 10000.0, "justification": "Covered under clause 4.2",
		  "clause_mapping": [{"clause": "4.2", "reason": "Knee surgery is a listed procedure"}]}`,
	}}
	e := New(provider, "test-model")

	proc := "knee surgery"
	out, err := e.Decide(context.Background(), &StructuredQuery{Procedure: &proc}, "Clause 4.2: knee surgery covered.")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if out.Decision == nil || *out.Decision != "Approved" {
		t.Errorf("Decision = %v, want Approved", out.Decision)
	}
	if out.Amount == nil || *out.Amount != 10000.0 {
		t.Errorf("Amount = %v, want 10000.0", out.Amount)
	}
	if len(out.ClauseMapping) != 1 {
		t.Fatalf("ClauseMapping has %d entries, want 1", len(out.ClauseMapping))
	}
	if out.ClauseMapping[0].Clause == nil || *out.ClauseMapping[0].Clause != "4.2" {
		t.Errorf("Clause = %v, want 4.2", out.ClauseMapping[0].Clause)
	}
}

func TestCoerceAmount(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"number", `5000`, f(5000)},
		{"float", `5000.5`, f(5000.5)},
		{"zero", `0`, f(0)},
		{"numeric string", `"5000"`, f(5000)},
		{"numeric string with spaces", `" 2500.75 "`, f(2500.75)},
		{"null", `null`, nil},
		{"absent", ``, nil},
		{"non-numeric string", `"N/A"`, nil},
		{"word string", `"five thousand"`, nil},
		{"object", `{"value": 5000}`, nil},
		{"array", `[5000]`, nil},
		{"infinity string", `"Inf"`, nil},
		{"nan string", `"NaN"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceAmount(json.RawMessage(tt.raw))
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("CoerceAmount(%s) = %v, want nil", tt.raw, *got)
			case tt.want != nil && got == nil:
				t.Errorf("CoerceAmount(%s) = nil, want %v", tt.raw, *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("CoerceAmount(%s) = %v, want %v", tt.raw, *got, *tt.want)
			}
		})
	}
}

func TestParseDecisionStringAmountCoerced(t *testing.T) {
	out, err := parseDecision(`{"decision": "Approved", "amount": "5000", "justification": "ok"}`)
	if err != nil {
		t.Fatalf("parseDecision: %v", err)
	}
	if out.Amount == nil || *out.Amount != 5000 {
		t.Errorf("Amount = %v, want 5000", out.Amount)
	}
}

func TestParseDecisionBadAmountDegrades(t *testing.T) {
	out, err := parseDecision(`{"decision": "Rejected", "amount": "not applicable", "justification": "waiting period"}`)
	if err != nil {
		t.Fatalf("parseDecision: %v", err)
	}
	if out.Amount != nil {
		t.Errorf("Amount = %v, want nil", *out.Amount)
	}
	if out.Decision == nil || *out.Decision != "Rejected" {
		t.Errorf("Decision = %v, want Rejected", out.Decision)
	}
}

func TestParseDecisionNullAmountStaysAbsent(t *testing.T) {
	out, err := parseDecision(`{"decision": "Rejected", "amount": null, "justification": "pre-existing condition"}`)
	if err != nil {
		t.Fatalf("parseDecision: %v", err)
	}
	if out.Amount != nil {
		t.Errorf("Amount = %v, want nil", *out.Amount)
	}
	if out.Decision == nil || *out.Decision != "Rejected" {
		t.Errorf("Decision = %v, want Rejected", out.Decision)
	}
}

func TestParseDecisionMismatchedFieldsStayNil(t *testing.T) {
	// decision arrives as a number and one mapping entry is not an object;
	// both degrade without dropping the well-formed parts.
	out, err := parseDecision(`{"decision": 1, "amount": 5000,
		"clause_mapping": ["not an object", {"clause": "4.2", "reason": "listed procedure"}]}`)
	if err != nil {
		t.Fatalf("parseDecision: %v", err)
	}
	if out.Decision != nil {
		t.Errorf("Decision = %v, want nil", *out.Decision)
	}
	if out.Amount == nil || *out.Amount != 5000 {
		t.Errorf("Amount = %v, want 5000", out.Amount)
	}
	if len(out.ClauseMapping) != 1 {
		t.Fatalf("ClauseMapping has %d entries, want 1", len(out.ClauseMapping))
	}
	if out.ClauseMapping[0].Clause == nil || *out.ClauseMapping[0].Clause != "4.2" {
		t.Errorf("Clause = %v, want 4.2", out.ClauseMapping[0].Clause)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
		{"unclosed fence", "```json\n{\"a\": 1}", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
