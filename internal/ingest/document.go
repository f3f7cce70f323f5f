package ingest

// Document is a normalized unit of corpus content extracted from one source file.
type Document struct {
	ID         string
	SourcePath string
	RawText    string
	Metadata   map[string]string
}
