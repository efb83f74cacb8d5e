// Package server exposes rendering and navigation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/proteus/config"
	"github.com/c360studio/proteus/model"
	"github.com/c360studio/proteus/navigation"
	"github.com/c360studio/proteus/render"
)

// maxRequestBodySize limits POST body sizes.
const maxRequestBodySize = 1 << 20 // 1 MB

// Server serves rendered documents, matrices and navigation intents.
type Server struct {
	project    *model.Project
	renderer   *render.Renderer
	dispatcher *navigation.Dispatcher
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// New creates a server. A nil gatherer disables GET /metrics.
func New(project *model.Project, renderer *render.Renderer, dispatcher *navigation.Dispatcher, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		project:    project,
		renderer:   renderer,
		dispatcher: dispatcher,
		gatherer:   gatherer,
		logger:     logger,
	}
}

// DocumentInfo is one entry of GET /documents.
type DocumentInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse is the JSON body of failed JSON endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterHTTPHandlers registers all handlers under the given prefix.
// Handlers are registered as:
//
//	GET  <prefix>/documents
//	GET  <prefix>/documents/{id}?view=
//	GET  <prefix>/objects/{id}
//	GET  <prefix>/views
//	GET  <prefix>/matrix?cols=&rows=
//	POST <prefix>/navigate
//	GET  <prefix>/metrics
func (s *Server) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"documents", s.handleDocuments)
	mux.HandleFunc(prefix+"documents/", s.handleDocument)
	mux.HandleFunc(prefix+"objects/", s.handleObject)
	mux.HandleFunc(prefix+"views", s.handleViews)
	mux.HandleFunc(prefix+"matrix", s.handleMatrix)
	mux.HandleFunc(prefix+"navigate", s.handleNavigate)
	if s.gatherer != nil {
		mux.Handle(prefix+"metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns a mux with all handlers registered at the root.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHTTPHandlers("", mux)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ----------------------------------------------------------------------------
// GET /documents
// ----------------------------------------------------------------------------

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs := []DocumentInfo{}
	_ = s.project.View(func() error {
		for _, doc := range s.project.Documents() {
			docs = append(docs, DocumentInfo{ID: doc.ID, Name: doc.Name()})
		}
		return nil
	})

	writeJSON(w, http.StatusOK, docs)
}

// ----------------------------------------------------------------------------
// GET /documents/{id}
// ----------------------------------------------------------------------------

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := pathID(r.URL.Path, "documents/")
	if id == "" {
		http.Error(w, "Document id required", http.StatusBadRequest)
		return
	}

	page, err := s.renderer.RenderDocument(s.project, id, r.URL.Query().Get("view"))
	if err != nil {
		s.writeRenderError(w, err)
		return
	}
	writeHTML(w, page)
}

// ----------------------------------------------------------------------------
// GET /objects/{id}
// ----------------------------------------------------------------------------

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := pathID(r.URL.Path, "objects/")
	if id == "" {
		http.Error(w, "Object id required", http.StatusBadRequest)
		return
	}

	fragment, err := s.renderer.Render(s.project, id)
	if err != nil {
		s.writeRenderError(w, err)
		return
	}
	writeHTML(w, fragment)
}

// ----------------------------------------------------------------------------
// GET /views
// ----------------------------------------------------------------------------

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.renderer.Views())
}

// ----------------------------------------------------------------------------
// GET /matrix
// ----------------------------------------------------------------------------

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	cols := SplitTokens(q.Get("cols"))
	rows := SplitTokens(q.Get("rows"))

	writeHTML(w, s.renderer.BuildMatrix(s.project, cols, rows))
}

// ----------------------------------------------------------------------------
// POST /navigate
// ----------------------------------------------------------------------------

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.dispatcher == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "navigation disabled"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var in navigation.Intent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.dispatcher.Dispatch(r.Context(), in)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, model.ErrObjectNotFound):
			status = http.StatusNotFound
		case errors.Is(err, navigation.ErrEmptyID),
			errors.Is(err, navigation.ErrProjectTarget),
			errors.Is(err, navigation.ErrUnknownIntent):
			status = http.StatusBadRequest
		default:
			s.logger.Error("Navigation failed", "id", in.ObjectID, "error", err)
		}
		writeJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrObjectNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, config.ErrUnknownView):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("Render failed", "error", err)
		http.Error(w, "Render failed", http.StatusInternalServerError)
	}
}

// SplitTokens splits a class-set query value on commas and whitespace.
func SplitTokens(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func pathID(path, segment string) string {
	i := strings.LastIndex(path, segment)
	if i < 0 {
		return ""
	}
	id := path[i+len(segment):]
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, markup string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}
