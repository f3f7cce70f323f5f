// Package audit records every decisioning request so outcomes can be
// reviewed after the fact.
package audit

import (
	"encoding/json"
	"time"

	"github.com/clauselens/clauselens/internal/extract"
)

// Status classifies how a decisioning request ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusDontKnow  Status = "dont_know"
	StatusNoIndex   Status = "no_index"
	StatusFailed    Status = "failed"
)

// Entry is one logged decisioning request.
type Entry struct {
	ID            string                  `json:"id"`
	Timestamp     time.Time               `json:"timestamp"`
	Query         string                  `json:"query"`
	UploadedFile  string                  `json:"uploaded_file,omitempty"`
	Answer        string                  `json:"answer,omitempty"`
	Decision      string                  `json:"decision,omitempty"`
	Amount        *float64                `json:"amount,omitempty"`
	Justification string                  `json:"justification,omitempty"`
	ClauseMapping []extract.ClauseMapping `json:"clause_mapping,omitempty"`
	Status        Status                  `json:"status"`
	Error         string                  `json:"error,omitempty"`
	DurationMS    int64                   `json:"duration_ms"`
}

// EntryFromResult builds an Entry from a completed decision result.
func EntryFromResult(query, uploadedFile string, result *extract.DecisionResult, took time.Duration) Entry {
	e := Entry{
		Query:        query,
		UploadedFile: uploadedFile,
		Status:       StatusCompleted,
		DurationMS:   took.Milliseconds(),
	}
	if result.Answer != nil {
		e.Answer = *result.Answer
	}
	if result.Decision != nil {
		e.Decision = *result.Decision
	} else {
		e.Status = StatusDontKnow
	}
	e.Amount = result.Amount
	if result.Justification != nil {
		e.Justification = *result.Justification
	}
	e.ClauseMapping = result.ClauseMapping
	return e
}

// clauseMappingJSON serializes clause mappings for storage, defaulting to an
// empty array so the column is always valid JSON.
func clauseMappingJSON(mappings []extract.ClauseMapping) string {
	if len(mappings) == 0 {
		return "[]"
	}
	data, err := json.Marshal(mappings)
	if err != nil {
		return "[]"
	}
	return string(data)
}
