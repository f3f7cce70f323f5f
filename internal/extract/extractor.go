// Package extract reifies free-text model output into typed schemas,
// tolerating malformed fields instead of failing the request.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/clauselens/clauselens/internal/llm"
)

const parseQueryPrompt = `Extract the structured details from the user's query and return a JSON object with exactly these fields:

{
  "age": 0,
  "procedure": "the medical procedure mentioned",
  "location": "where the procedure occurred",
  "policy_duration": "how long the policy has been active, e.g. '3 months'"
}

Set any field you cannot determine from the query to null. Do not guess.

User query: %s`

const decidePromptTemplate = `You are an expert insurance claim analyst. Based on the user's query and the provided policy clauses, make a final decision. Your response must conform to the required JSON structure.

## User Query Details:
%s

## Relevant Policy Clauses:
%s

## Instructions:
Return a JSON object with fields "decision" ('Approved' or 'Rejected'), "amount", "justification", and "clause_mapping" (a list of {"clause", "reason"} objects citing the specific clauses used). The 'amount' field MUST be a number (e.g., 5000.0 or 0).`

// Extractor runs schema-constrained completions and parses them tolerantly.
type Extractor struct {
	provider llm.Provider
	model    string
}

// New creates an Extractor.
func New(provider llm.Provider, model string) *Extractor {
	return &Extractor{provider: provider, model: model}
}

// ParseQuery extracts a StructuredQuery from a free-text question. Fields the
// model cannot determine stay nil; only a fully uninterpretable response is
// an error.
func (e *Extractor) ParseQuery(ctx context.Context, question string) (*StructuredQuery, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(parseQueryPrompt, question)}},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	// Fields are decoded one by one so a type mismatch on one field leaves
	// it nil without discarding the others. A whole-struct unmarshal would
	// allocate a pointer field before failing to store into it, leaving a
	// fabricated zero value behind.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &fields); err != nil {
		return nil, fmt.Errorf("parsing structured query: %w", err)
	}

	return &StructuredQuery{
		Age:            coerceInt(fields["age"]),
		Procedure:      coerceString(fields["procedure"]),
		Location:       coerceString(fields["location"]),
		PolicyDuration: coerceString(fields["policy_duration"]),
	}, nil
}

// Decide combines the structured query and the retrieved clauses into a
// DecisionOutput. A malformed amount degrades to nil rather than erroring.
func (e *Extractor) Decide(ctx context.Context, query *StructuredQuery, clauses string) (*DecisionOutput, error) {
	queryJSON, err := json.MarshalIndent(query, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding query details: %w", err)
	}

	prompt := fmt.Sprintf(decidePromptTemplate, string(queryJSON), clauses)
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	return parseDecision(resp.Content)
}

// parseDecision parses a raw model response into a DecisionOutput. Each
// field is coerced independently so one malformed field cannot poison the
// rest.
func parseDecision(raw string) (*DecisionOutput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return nil, fmt.Errorf("parsing decision: %w", err)
	}

	return &DecisionOutput{
		Decision:      coerceString(fields["decision"]),
		Amount:        CoerceAmount(fields["amount"]),
		Justification: coerceString(fields["justification"]),
		ClauseMapping: coerceClauseMappings(fields["clause_mapping"]),
	}, nil
}

// CoerceAmount converts a raw JSON value into a finite float. Numbers are
// kept, numeric strings are parsed, and everything else (null, "N/A",
// objects) becomes nil. It never fails: a bad amount degrades the result's
// completeness, not the request.
func CoerceAmount(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return &num
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		parsed, perr := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if perr == nil && !math.IsInf(parsed, 0) && !math.IsNaN(parsed) {
			return &parsed
		}
	}

	return nil
}

// isNull reports whether a raw JSON value is absent or the null literal.
// Unmarshaling null into a non-pointer target is a no-op with a nil error,
// so the literal has to be caught before any numeric or string decode.
func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// coerceString decodes a JSON string, returning nil for null or any other
// shape.
func coerceString(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// coerceInt decodes a JSON integer, also accepting a numeric string.
// Anything else becomes nil.
func coerceInt(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil {
			return &parsed
		}
	}
	return nil
}

// coerceClauseMappings decodes the clause_mapping list, dropping entries
// that are not objects instead of failing the whole list.
func coerceClauseMappings(raw json.RawMessage) []ClauseMapping {
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var mappings []ClauseMapping
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		mappings = append(mappings, ClauseMapping{
			Clause: coerceString(fields["clause"]),
			Reason: coerceString(fields["reason"]),
		})
	}
	return mappings
}

// stripFences removes a surrounding markdown code fence from model output.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return raw
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
