package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsift/internal/output"
	"github.com/dgallion1/docsift/internal/parser"
	"github.com/dgallion1/docsift/internal/pipeline"
)

// handleRank ranks the uploaded documents against persona and task.
// Multipart fields: files (repeated), persona, task.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	task := strings.TrimSpace(r.FormValue("task"))
	if task == "" {
		jsonError(w, "task is required", http.StatusBadRequest)
		return
	}
	sources, err := s.readUploads(form.File["files"])
	if err != nil {
		jsonError(w, err.Error(), uploadStatus(err))
		return
	}
	if len(sources) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	req := pipeline.Request{
		Persona:   strings.TrimSpace(r.FormValue("persona")),
		Task:      task,
		Documents: sources,
	}
	result, report, err := s.orchestrator.Rank(r.Context(), req)
	w.Header().Set("X-Run-ID", report.RunID)
	switch {
	case errors.Is(err, pipeline.ErrNoSections):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "documents": report.Documents})
		return
	case errors.Is(err, pipeline.ErrOracle):
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleOutline returns the heading outline of one uploaded document.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	sources, err := s.readUploads(form.File["file"])
	if err != nil {
		jsonError(w, err.Error(), uploadStatus(err))
		return
	}
	if len(sources) != 1 {
		jsonError(w, "exactly one file is required", http.StatusBadRequest)
		return
	}

	results, report := s.orchestrator.Outline(r.Context(), sources)
	w.Header().Set("X-Run-ID", report.RunID)
	if err := results[0].Err; err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, results[0].Outline)
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return r.MultipartForm, true
}

var (
	errUnsupported = errors.New("unsupported file type")
	errTooLarge    = errors.New("file exceeds max size")
)

func uploadStatus(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// readUploads reads every uploaded file into a pipeline source, in form order.
func (s *Server) readUploads(headers []*multipart.FileHeader) ([]pipeline.Source, error) {
	var total int64
	sources := make([]pipeline.Source, 0, len(headers))
	for _, fh := range headers {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			return nil, fmt.Errorf("%w: %s", errUnsupported, filepath.Ext(filename))
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.HTTP.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filename, err)
		}
		total += int64(len(data))
		if total > s.cfg.HTTP.MaxUploadBytes {
			return nil, fmt.Errorf("%w (%d bytes)", errTooLarge, s.cfg.HTTP.MaxUploadBytes)
		}
		sources = append(sources, pipeline.Source{Name: filename, Data: data})
	}
	return sources, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	_ = enc.Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	return output.SafeName(name)
}
