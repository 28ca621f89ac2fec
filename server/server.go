// Package server exposes the OCR and splitter operations over HTTP for
// deployments that keep a warm process instead of spawning a tool per
// document. The response documents are identical to the CLI output.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/ocr"
	"github.com/wudi/ocrkit/pipeline"
	"github.com/wudi/ocrkit/splitter"
)

// maxUploadBytes caps request bodies; oversized documents should be split
// client-side or uploaded at sane resolutions.
const maxUploadBytes = 64 << 20

// Server routes OCR requests to a shared engine and per-request pipeline
// configuration.
type Server struct {
	router  chi.Router
	engine  ocr.Engine
	logger  observability.Logger
	scratch string
}

// New builds the HTTP server. The engine is shared across requests; each
// request builds its own immutable pipeline configuration from overrides.
func New(engine ocr.Engine, scratch string, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	s := &Server{engine: engine, logger: logger, scratch: scratch}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Get("/health", s.handleHealth)
	r.Post("/ocr", s.handleOCR)
	r.Post("/split", s.handleSplit)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger tags every request with an id and logs its route.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		logger := s.logger.With(observability.String("request_id", id))
		logger.Info("request", observability.String("method", r.Method), observability.String("path", r.URL.Path))
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleOCR accepts an image (multipart field "image" or raw body) plus an
// optional flat JSON override document (multipart field "config" or the
// "config" query parameter) and responds with the DocumentResult.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	imageData, overrides, err := s.readRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, pipeline.Failure(err))
		return
	}
	cfg, err := pipeline.Build(overrides)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, pipeline.Failure(err))
		return
	}
	cfg.ScratchDir = s.scratch

	path, cleanup, err := s.spool(imageData)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, pipeline.Failure(err))
		return
	}
	defer cleanup()

	proc, err := pipeline.New(cfg, s.engine, pipeline.WithLogger(s.logger))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, pipeline.Failure(err))
		return
	}
	writeJSON(w, http.StatusOK, proc.ProcessFile(r.Context(), path))
}

// handleSplit mirrors handleOCR for the tile-extraction operation.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	imageData, overrides, err := s.readRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, splitter.Result{Error: err.Error(), Tiles: []splitter.Tile{}})
		return
	}
	cfg, err := pipeline.Build(overrides)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, splitter.Result{Error: err.Error(), Tiles: []splitter.Tile{}})
		return
	}

	path, cleanup, err := s.spool(imageData)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, splitter.Result{Error: err.Error(), Tiles: []splitter.Tile{}})
		return
	}
	defer cleanup()

	writeJSON(w, http.StatusOK, splitter.SplitFile(path, splitConfig(cfg)))
}

// splitConfig reuses the chunking threshold keys for the splitter tool.
func splitConfig(cfg pipeline.Config) geometry.SplitConfig {
	return cfg.Chunk
}

// readRequest extracts the image payload and override document from either a
// multipart form or a raw body plus query parameter.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) ([]byte, map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var imageData []byte
	var configDoc string

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, nil, fmt.Errorf("missing image field: %w", err)
		}
		defer file.Close()
		if imageData, err = io.ReadAll(file); err != nil {
			return nil, nil, fmt.Errorf("read image field: %w", err)
		}
		configDoc = r.FormValue("config")
	} else {
		var err error
		if imageData, err = io.ReadAll(r.Body); err != nil {
			return nil, nil, fmt.Errorf("read body: %w", err)
		}
		configDoc = r.URL.Query().Get("config")
	}

	if len(imageData) == 0 {
		return nil, nil, fmt.Errorf("empty image payload")
	}

	var overrides map[string]any
	if configDoc != "" {
		if err := json.Unmarshal([]byte(configDoc), &overrides); err != nil {
			return nil, nil, fmt.Errorf("parse config document: %w", err)
		}
	}
	return imageData, overrides, nil
}

// spool writes the upload to scratch storage so the pipeline and splitter see
// a file path, the same surface the CLI tools operate on.
func (s *Server) spool(data []byte) (string, func(), error) {
	if err := os.MkdirAll(s.scratch, 0o755); err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.scratch, "upload-*")
	if err != nil {
		return "", nil, fmt.Errorf("create upload file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { os.Remove(name) }
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write upload file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close upload file: %w", err)
	}
	return name, cleanup, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
