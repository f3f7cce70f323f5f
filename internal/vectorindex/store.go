package vectorindex

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/clauselens/clauselens/internal/chunker"
	"github.com/clauselens/clauselens/internal/embeddings"
)

const indexFileName = "index.gob.gz"

// Store builds, persists, loads and deletes similarity indexes keyed by
// content identity. Persisted layout: one directory per key under the store
// dir; directory presence implies a complete index, guaranteed by writing to
// a temp directory and renaming it into place.
type Store struct {
	dir      string
	embedder embeddings.Embedder

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, embedder embeddings.Embedder) *Store {
	return &Store{
		dir:      dir,
		embedder: embedder,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Path returns the persistence directory for an identity key.
func (s *Store) Path(identityKey string) string {
	return filepath.Join(s.dir, "vectorstore_"+identityKey)
}

// keyLock returns the mutex serializing persistence operations for one key.
func (s *Store) keyLock(identityKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.keyLocks[identityKey]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[identityKey] = l
	}
	return l
}

// BuildOrLoad returns a queryable index over the given chunks.
//
// With a non-empty identityKey, a previously persisted index under that key
// is loaded and returned without touching the embedder; identical content is
// embedded exactly once per store. Otherwise every chunk is embedded and a
// new index is built, persisted under identityKey when one was given.
//
// Empty chunks yield (nil, nil): no index, not an error. A persistence
// failure is logged and the freshly built index is still returned.
func (s *Store) BuildOrLoad(ctx context.Context, chunks []chunker.Chunk, identityKey string) (*Index, error) {
	if identityKey != "" {
		lock := s.keyLock(identityKey)
		lock.Lock()
		defer lock.Unlock()

		if _, err := os.Stat(s.Path(identityKey)); err == nil {
			idx, err := s.load(identityKey)
			if err == nil {
				log.Printf("vectorindex: loaded existing index for key %s", identityKey)
				return idx, nil
			}
			// A directory that fails to load violates the completeness
			// invariant; clear it and rebuild from scratch.
			log.Printf("vectorindex: cached index %s unreadable, rebuilding: %v", identityKey, err)
			if err := os.RemoveAll(s.Path(identityKey)); err != nil {
				return nil, fmt.Errorf("clearing unreadable index %s: %w", identityKey, err)
			}
		}
	}

	if len(chunks) == 0 {
		return nil, nil
	}

	idx, err := s.build(ctx, chunks, identityKey)
	if err != nil {
		return nil, err
	}

	if identityKey != "" {
		if err := s.persist(idx, identityKey); err != nil {
			log.Printf("vectorindex: persisting index %s: %v", identityKey, err)
		} else {
			log.Printf("vectorindex: saved new index for key %s", identityKey)
		}
	}

	return idx, nil
}

// Delete removes a persisted index. Deleting a nonexistent key is a no-op.
// Callers must not delete a key with in-flight queries against its path.
func (s *Store) Delete(identityKey string) error {
	lock := s.keyLock(identityKey)
	lock.Lock()
	defer lock.Unlock()

	if err := os.RemoveAll(s.Path(identityKey)); err != nil {
		return fmt.Errorf("deleting index %s: %w", identityKey, err)
	}
	return nil
}

// build embeds every chunk and assembles an in-memory index.
func (s *Store) build(ctx context.Context, chunks []chunker.Chunk, identityKey string) (*Index, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(s.embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	// One batched embedder call instead of chromem's per-document embedding;
	// the OpenAI backend charges per request.
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		doc := chunkToDocument(c, i)
		doc.Embedding = vectors[i]
		docs[i] = doc
	}

	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	return &Index{
		IdentityKey: identityKey,
		Dimension:   s.embedder.Dimensions(),
		db:          db,
		collection:  col,
	}, nil
}

// persist writes the index to a temp directory and renames it into place, so
// the keyed directory either holds a complete index or does not exist.
func (s *Store) persist(idx *Index, identityKey string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	tmp, err := os.MkdirTemp(s.dir, "vectorstore_"+identityKey+".tmp")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := idx.db.ExportToFile(filepath.Join(tmp, indexFileName), true, ""); err != nil {
		return fmt.Errorf("exporting index: %w", err)
	}

	if err := os.Rename(tmp, s.Path(identityKey)); err != nil {
		return fmt.Errorf("renaming index into place: %w", err)
	}
	return nil
}

// load reads a persisted index from its keyed directory.
func (s *Store) load(identityKey string) (*Index, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(s.embedder)

	if err := db.ImportFromFile(filepath.Join(s.Path(identityKey), indexFileName), ""); err != nil {
		return nil, fmt.Errorf("importing index: %w", err)
	}

	col := db.GetCollection(collectionName, ef)
	if col == nil {
		return nil, fmt.Errorf("collection %q not found after import", collectionName)
	}

	return &Index{
		IdentityKey: identityKey,
		Dimension:   s.embedder.Dimensions(),
		db:          db,
		collection:  col,
	}, nil
}
