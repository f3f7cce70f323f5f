package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/clauselens/clauselens/internal/chunker"
)

const collectionName = "chunks"

// Index is a queryable similarity index over one chunk set. An Index is
// read-only after construction and safe for concurrent queries.
type Index struct {
	IdentityKey string
	Dimension   int

	db         *chromem.DB
	collection *chromem.Collection
}

// Scored pairs a retrieved chunk with its similarity score.
type Scored struct {
	Chunk chunker.Chunk
	Score float32
}

// Count returns the number of chunks in the index.
func (idx *Index) Count() int {
	return idx.collection.Count()
}

// Query returns the k most similar chunks, best match first. Ties keep the
// order the chunks were indexed in, which is document order.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]Scored, error) {
	if k <= 0 {
		k = 4
	}

	// chromem-go requires nResults <= collection size.
	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := idx.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	scored := make([]Scored, len(results))
	for i, r := range results {
		scored[i] = Scored{
			Chunk: chunkFromMetadata(r.Content, r.Metadata),
			Score: r.Similarity,
		}
	}

	// Stable re-sort: score descending, indexing order breaks ties.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return ordinal(results[i].Metadata) < ordinal(results[j].Metadata)
	})

	return scored, nil
}

// chunkToDocument flattens a chunk into a chromem document. The ordinal is
// the chunk's position in the overall indexing sequence.
func chunkToDocument(c chunker.Chunk, ord int) chromem.Document {
	return chromem.Document{
		ID:      fmt.Sprintf("%s:%d", c.ParentDocumentID, c.SequenceIndex),
		Content: c.Text,
		Metadata: map[string]string{
			"doc_id":     c.ParentDocumentID,
			"seq":        strconv.Itoa(c.SequenceIndex),
			"char_start": strconv.Itoa(c.CharStart),
			"char_end":   strconv.Itoa(c.CharEnd),
			"ord":        strconv.Itoa(ord),
		},
	}
}

func chunkFromMetadata(content string, m map[string]string) chunker.Chunk {
	seq, _ := strconv.Atoi(m["seq"])
	charStart, _ := strconv.Atoi(m["char_start"])
	charEnd, _ := strconv.Atoi(m["char_end"])
	return chunker.Chunk{
		ParentDocumentID: m["doc_id"],
		Text:             content,
		SequenceIndex:    seq,
		CharStart:        charStart,
		CharEnd:          charEnd,
	}
}

func ordinal(m map[string]string) int {
	ord, _ := strconv.Atoi(m["ord"])
	return ord
}
