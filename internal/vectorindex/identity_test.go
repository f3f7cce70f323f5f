package vectorindex

import (
	"testing"

	"github.com/clauselens/clauselens/internal/ingest"
)

func TestIdentityKeyDeterministic(t *testing.T) {
	docs := []ingest.Document{
		{ID: "a", SourcePath: "data/policy.pdf", RawText: "clause one"},
		{ID: "b", SourcePath: "data/terms.docx", RawText: "clause two"},
	}

	k1 := IdentityKey(docs)
	k2 := IdentityKey(docs)
	if k1 != k2 {
		t.Errorf("keys differ across calls: %q vs %q", k1, k2)
	}
	if len(k1) != 16 {
		t.Errorf("key length = %d, want 16", len(k1))
	}
}

func TestIdentityKeyOrderIndependent(t *testing.T) {
	a := ingest.Document{ID: "a", SourcePath: "data/policy.pdf", RawText: "clause one"}
	b := ingest.Document{ID: "b", SourcePath: "data/terms.docx", RawText: "clause two"}

	if IdentityKey([]ingest.Document{a, b}) != IdentityKey([]ingest.Document{b, a}) {
		t.Error("key depends on document order")
	}
}

func TestIdentityKeyIgnoresVolatileFields(t *testing.T) {
	doc := ingest.Document{ID: "run-1", SourcePath: "data/policy.pdf", RawText: "clause"}
	same := ingest.Document{ID: "run-2", SourcePath: "data/policy.pdf", RawText: "clause"}

	if IdentityKey([]ingest.Document{doc}) != IdentityKey([]ingest.Document{same}) {
		t.Error("key depends on the per-run document ID")
	}
}

func TestIdentityKeyChangesWithContent(t *testing.T) {
	base := []ingest.Document{{SourcePath: "data/policy.pdf", RawText: "clause one"}}
	edited := []ingest.Document{{SourcePath: "data/policy.pdf", RawText: "clause one amended"}}
	renamed := []ingest.Document{{SourcePath: "data/policy_v2.pdf", RawText: "clause one"}}

	if IdentityKey(base) == IdentityKey(edited) {
		t.Error("editing content did not change the key")
	}
	if IdentityKey(base) == IdentityKey(renamed) {
		t.Error("renaming the source did not change the key")
	}
}
