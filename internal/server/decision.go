package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/clauselens/clauselens/internal/audit"
	"github.com/clauselens/clauselens/internal/ingest"
	"github.com/clauselens/clauselens/internal/pipeline"
)

const maxUploadBytes = 32 << 20

// errorResponse is the JSON error body for the decision endpoint.
type errorResponse struct {
	Detail string `json:"detail"`
}

// handleDecision accepts a multipart form with a required "query" field and
// an optional "file" upload, runs the decisioning pipeline, and returns the
// structured result.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid multipart form"})
		return
	}

	query := r.FormValue("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "query is required"})
		return
	}

	req := pipeline.Request{Query: query}
	var uploadedName string

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		uploadedName = header.Filename

		docs, stageErr := s.stageUpload(file, header.Filename)
		if stageErr != nil {
			log.Printf("server: staging upload %s: %v", header.Filename, stageErr)
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Could not read the uploaded document."})
			return
		}
		if len(docs) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Could not read the uploaded document."})
			return
		}
		// Uploaded documents get a request-scoped index with no identity
		// key: per-upload indexing is deliberately uncached.
		req.Documents = docs

	case errors.Is(err, http.ErrMissingFile):
		// No upload; the shared startup index will be used.

	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid file upload"})
		return
	}

	result, err := s.pipe.Decide(r.Context(), req)
	if err != nil {
		s.recordFailure(r, query, uploadedName, err, time.Since(started))

		if errors.Is(err, pipeline.ErrNoIndex) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Detail: "No documents available for decisioning. Please upload a document or start the service with documents in the data folder.",
			})
			return
		}
		log.Printf("server: decision request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "An error occurred during LLM processing."})
		return
	}

	if s.auditStore != nil {
		entry := audit.EntryFromResult(query, uploadedName, result, time.Since(started))
		if _, err := s.auditStore.Record(r.Context(), entry); err != nil {
			log.Printf("server: recording decision: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// stageUpload writes the uploaded file into a fresh temp directory, runs the
// ingestor over it, and cleans the directory up before returning.
func (s *Server) stageUpload(file io.Reader, filename string) ([]ingest.Document, error) {
	tempDir, err := os.MkdirTemp("", "clauselens-upload-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	// Only the base name is trusted; the extension drives parser dispatch.
	path := filepath.Join(tempDir, filepath.Base(filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	return s.loader.LoadDirectory(tempDir), nil
}

// recordFailure logs a failed request to the decision log.
func (s *Server) recordFailure(r *http.Request, query, uploadedName string, cause error, took time.Duration) {
	if s.auditStore == nil {
		return
	}

	status := audit.StatusFailed
	if errors.Is(cause, pipeline.ErrNoIndex) {
		status = audit.StatusNoIndex
	}

	entry := audit.Entry{
		Query:        query,
		UploadedFile: uploadedName,
		Status:       status,
		Error:        cause.Error(),
		DurationMS:   took.Milliseconds(),
	}
	if _, err := s.auditStore.Record(r.Context(), entry); err != nil {
		log.Printf("server: recording failed decision: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
