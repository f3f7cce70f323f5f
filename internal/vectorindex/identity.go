package vectorindex

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/clauselens/clauselens/internal/ingest"
)

// IdentityKey computes a deterministic content hash for a set of documents.
// Documents are hashed in source-path order so the key does not depend on
// directory listing order. Identical content always maps to the same key,
// which is what lets an index be reused instead of re-embedded.
func IdentityKey(docs []ingest.Document) string {
	sorted := make([]ingest.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SourcePath < sorted[j].SourcePath
	})

	h := sha256.New()
	for _, doc := range sorted {
		h.Write([]byte(doc.SourcePath))
		h.Write([]byte{0})
		h.Write([]byte(doc.RawText))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
