package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clauselens/clauselens/internal/db"
	"github.com/clauselens/clauselens/internal/extract"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestRecordAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		Query:         "46M knee surgery Pune",
		UploadedFile:  "policy.pdf",
		Answer:        "Knee surgery is covered after 90 days.",
		Decision:      "Approved",
		Amount:        floatPtr(10000),
		Justification: "Clause 4.2 lists knee surgery",
		ClauseMapping: []extract.ClauseMapping{{Clause: strPtr("4.2"), Reason: strPtr("listed procedure")}},
		Status:        StatusCompleted,
		DurationMS:    1250,
	}

	saved, err := store.Record(ctx, entry)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("Record did not assign an ID")
	}
	if saved.Timestamp.IsZero() {
		t.Error("Record did not assign a timestamp")
	}

	got, err := store.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Query != entry.Query {
		t.Errorf("Query = %q", got.Query)
	}
	if got.Decision != "Approved" {
		t.Errorf("Decision = %q", got.Decision)
	}
	if got.Amount == nil || *got.Amount != 10000 {
		t.Errorf("Amount = %v", got.Amount)
	}
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q", got.Status)
	}
	if len(got.ClauseMapping) != 1 || *got.ClauseMapping[0].Clause != "4.2" {
		t.Errorf("ClauseMapping = %+v", got.ClauseMapping)
	}
	if got.DurationMS != 1250 {
		t.Errorf("DurationMS = %d", got.DurationMS)
	}
}

func TestRecordNilAmount(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	saved, err := store.Record(ctx, Entry{Query: "q", Status: StatusDontKnow})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Amount != nil {
		t.Errorf("Amount = %v, want nil", *got.Amount)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, e := range []Entry{
		{Query: "q1", Status: StatusCompleted},
		{Query: "q2", Status: StatusFailed, Error: "provider down"},
		{Query: "q3", Status: StatusCompleted},
	} {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	completed, err := store.Query(ctx, QueryFilter{Status: StatusCompleted})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("completed entries = %d, want 2", len(completed))
	}

	failed, err := store.Query(ctx, QueryFilter{Status: StatusFailed})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(failed) != 1 || failed[0].Error != "provider down" {
		t.Errorf("failed entries = %+v", failed)
	}

	limited, err := store.Query(ctx, QueryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited entries = %d, want 1", len(limited))
	}

	future := time.Now().UTC().Add(time.Hour)
	none, err := store.Query(ctx, QueryFilter{Since: &future})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("future-since entries = %d, want 0", len(none))
	}
}

func TestEntryFromResult(t *testing.T) {
	result := &extract.DecisionResult{
		Answer:        strPtr("Covered."),
		Decision:      strPtr("Approved"),
		Amount:        floatPtr(5000),
		Justification: strPtr("clause 4.2"),
	}

	e := EntryFromResult("query", "file.pdf", result, 900*time.Millisecond)
	if e.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", e.Status)
	}
	if e.Answer != "Covered." || e.Decision != "Approved" {
		t.Errorf("entry = %+v", e)
	}
	if e.DurationMS != 900 {
		t.Errorf("DurationMS = %d, want 900", e.DurationMS)
	}
}

func TestEntryFromResultDontKnow(t *testing.T) {
	result := &extract.DecisionResult{Answer: strPtr("I don't know.")}

	e := EntryFromResult("query", "", result, time.Second)
	if e.Status != StatusDontKnow {
		t.Errorf("Status = %q, want dont_know", e.Status)
	}
	if e.Decision != "" || e.Amount != nil {
		t.Errorf("entry carries decision fields: %+v", e)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	saved, err := store.Record(ctx, Entry{Query: "routed", Status: StatusCompleted})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	// List.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/decisions/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var entries []Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "routed" {
		t.Errorf("entries = %+v", entries)
	}

	// By ID.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/decisions/"+saved.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	// Unknown ID.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/decisions/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}
