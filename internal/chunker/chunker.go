// Package chunker splits documents into overlapping chunks of bounded size.
package chunker

import (
	"strings"

	"github.com/clauselens/clauselens/internal/ingest"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunk is a contiguous slice of one document's text. CharStart and CharEnd
// are rune offsets into the source document's RawText.
type Chunk struct {
	ParentDocumentID string
	Text             string
	SequenceIndex    int
	CharStart        int
	CharEnd          int
}

// separators, in priority order, from paragraph down to word boundaries.
// A chunk end snaps to the highest-priority boundary available before
// falling back to a raw character split.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter produces overlapping chunks. Consecutive chunks of the same
// document overlap by the configured number of characters; no chunk exceeds
// the configured size, and no chunk crosses a document boundary.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a Splitter. Non-positive size falls back to the
// default; an overlap that is negative or would prevent forward progress is
// clamped to a quarter of the size.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 4
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split chunks every document, preserving document order and the
// document-internal order of chunks.
func (s *Splitter) Split(docs []ingest.Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.splitText(doc.ID, doc.RawText)...)
	}
	return chunks
}

// splitText splits a single document's text. It slides a window of at most
// size runes, snapping each window end back to the best available separator,
// then steps forward by size-overlap so adjacent chunks share an overlap
// region.
func (s *Splitter) splitText(docID, text string) []Chunk {
	runes := []rune(text)
	if len(strings.TrimSpace(text)) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	seq := 0

	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.snapToBoundary(runes, start, end)
		}

		chunks = append(chunks, Chunk{
			ParentDocumentID: docID,
			Text:             string(runes[start:end]),
			SequenceIndex:    seq,
			CharStart:        start,
			CharEnd:          end,
		})
		seq++

		if end == len(runes) {
			break
		}

		next := end - s.overlap
		if next <= start {
			// Guarantees progress when a chunk came out shorter than the overlap.
			next = start + 1
		}
		start = next
	}

	return chunks
}

// snapToBoundary moves end backward onto the highest-priority separator found
// inside the window, keeping the separator with the leading chunk. The
// snapped end always stays far enough past start for the next window to make
// progress; if no separator qualifies, the raw character position is kept.
func (s *Splitter) snapToBoundary(runes []rune, start, end int) int {
	// The boundary must leave more than overlap characters in the chunk,
	// otherwise the next window would restart at or before this one.
	minEnd := start + s.overlap + 1
	window := string(runes[start:end])

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		boundary := start + len([]rune(window[:idx])) + len([]rune(sep))
		if boundary >= minEnd && boundary < end {
			return boundary
		}
	}
	return end
}
