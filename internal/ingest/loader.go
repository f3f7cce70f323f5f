package ingest

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

// Loader reads a directory of supported files and yields normalized Documents.
// Supported extensions: .pdf, .docx, .eml, .msg (case-insensitive). Everything
// else is skipped silently; files that fail to parse are logged and skipped so
// one corrupt upload never aborts a batch.
type Loader struct {
	include    []string
	exclude    []string
	onDocument func(name string)
}

// Option configures the Loader.
type Option func(*Loader)

// WithInclude sets include glob patterns, matched against paths relative to
// the loaded directory.
func WithInclude(patterns []string) Option {
	return func(l *Loader) { l.include = patterns }
}

// WithExclude sets exclude glob patterns.
func WithExclude(patterns []string) Option {
	return func(l *Loader) { l.exclude = patterns }
}

// WithDocumentHook registers a callback invoked with each file name as it is
// parsed, for progress reporting.
func WithDocumentHook(fn func(name string)) Option {
	return func(l *Loader) { l.onDocument = fn }
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{include: []string{"**"}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type parseFunc func(path string) (string, map[string]string, error)

// parsersByExt dispatches on lower-cased file extension.
// .msg is handed to the email parser as a best effort; Outlook's binary
// format usually fails to parse and ends up on the skip path.
var parsersByExt = map[string]parseFunc{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".eml":  extractEmail,
	".msg":  extractEmail,
}

// LoadDirectory returns all Documents extractable from dir. A missing or
// empty directory yields an empty slice, not an error.
func (l *Loader) LoadDirectory(dir string) []Document {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("ingest: reading directory %s: %v", dir, err)
		}
		return nil
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !l.matches(name) {
			continue
		}

		parse, ok := parsersByExt[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}

		path := filepath.Join(dir, name)
		if l.onDocument != nil {
			l.onDocument(name)
		}
		text, meta, err := parse(path)
		if err != nil {
			log.Printf("ingest: loading %s: %v", path, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Printf("ingest: %s contains no extractable text, skipping", path)
			continue
		}

		if meta == nil {
			meta = make(map[string]string)
		}
		meta["filename"] = name

		docs = append(docs, Document{
			ID:         uuid.New().String(),
			SourcePath: path,
			RawText:    text,
			Metadata:   meta,
		})
	}

	return docs
}

// matches reports whether a file name passes the include/exclude globs.
func (l *Loader) matches(name string) bool {
	included := len(l.include) == 0
	for _, pattern := range l.include {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range l.exclude {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return false
		}
	}
	return true
}
