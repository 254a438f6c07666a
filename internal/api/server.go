// Package api implements the HTTP API server for Wayfarer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/buildinfo"
	"github.com/wayfarerhq/wayfarer/internal/export"
	"github.com/wayfarerhq/wayfarer/internal/persona"
	"github.com/wayfarerhq/wayfarer/internal/plan"
	"github.com/wayfarerhq/wayfarer/internal/store"
)

// writeJSON encodes a value as a JSON response, logging failures.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address  string
	port     int
	pipeline *plan.Pipeline
	router   *persona.Router
	trips    *store.TripStore
	shareURL string
	logger   *slog.Logger
	server   *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, pipeline *plan.Pipeline, rtr *persona.Router, trips *store.TripStore, logger *slog.Logger) *Server {
	return &Server{
		address:  address,
		port:     port,
		pipeline: pipeline,
		router:   rtr,
		trips:    trips,
		logger:   logger,
	}
}

// SetShareURL configures the public base URL used for trip share links.
func (s *Server) SetShareURL(u string) {
	s.shareURL = u
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Document pipeline endpoints
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("POST /api/plan/constrain", s.handleConstrain)
	mux.HandleFunc("POST /api/plan/recontextualize", s.handleRecontextualize)

	// Concierge chat
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)
	mux.HandleFunc("GET /api/personas", s.handlePersonas)

	// Saved trips
	mux.HandleFunc("POST /api/trips", s.handleTripSave)
	mux.HandleFunc("GET /api/trips", s.handleTripList)
	mux.HandleFunc("GET /api/trips/{id}", s.handleTripGet)
	mux.HandleFunc("PUT /api/trips/{id}", s.handleTripUpdate)
	mux.HandleFunc("DELETE /api/trips/{id}", s.handleTripDelete)
	mux.HandleFunc("GET /api/trips/{id}/export", s.handleTripExport)
	mux.HandleFunc("GET /api/trips/{id}/qr", s.handleTripQR)

	// Health endpoints
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // document generation can take minutes
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "Wayfarer",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, persona.All(), s.logger)
}

// PlanRequest is the request body for POST /api/plan.
type PlanRequest struct {
	Destination  string   `json:"destination"`
	DurationDays int      `json:"durationDays"`
	BudgetTier   string   `json:"budgetTier"`
	Arrangement  string   `json:"arrangement"`
	Interests    []string `json:"interests,omitempty"`
}

func (r PlanRequest) criteria() plan.Criteria {
	return plan.Criteria{
		Destination:  r.Destination,
		DurationDays: r.DurationDays,
		BudgetTier:   plan.BudgetTier(r.BudgetTier),
		Arrangement:  plan.TravelerArrangement(r.Arrangement),
		Interests:    r.Interests,
	}
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.pipeline.Generate(r.Context(), req.criteria())
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, doc, s.logger)
}

// ConstrainRequest is the request body for POST /api/plan/constrain.
type ConstrainRequest struct {
	Document *plan.TravelDocument `json:"document"`
	Ceiling  int                  `json:"ceiling"`
}

func (s *Server) handleConstrain(w http.ResponseWriter, r *http.Request) {
	var req ConstrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Document == nil {
		s.errorResponse(w, http.StatusBadRequest, "document is required")
		return
	}

	doc, err := s.pipeline.Constrain(r.Context(), req.Document, req.Ceiling)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, doc, s.logger)
}

// RecontextualizeRequest is the request body for POST /api/plan/recontextualize.
type RecontextualizeRequest struct {
	Document  *plan.TravelDocument `json:"document"`
	Situation string               `json:"situation"`
}

func (s *Server) handleRecontextualize(w http.ResponseWriter, r *http.Request) {
	var req RecontextualizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Document == nil {
		s.errorResponse(w, http.StatusBadRequest, "document is required")
		return
	}

	doc, err := s.pipeline.Recontextualize(r.Context(), req.Document, plan.Situation(req.Situation))
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, doc, s.logger)
}

// AskRequest is the request body for POST /api/ask.
type AskRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.router.Ask(r.Context(), req.Message, req.Context)
	if err != nil {
		// Ask only fails on context cancellation.
		s.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, reply, s.logger)
}

// SaveTripRequest is the request body for POST /api/trips.
type SaveTripRequest struct {
	Document *plan.TravelDocument `json:"document"`
}

func (s *Server) handleTripSave(w http.ResponseWriter, r *http.Request) {
	var req SaveTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Document == nil {
		s.errorResponse(w, http.StatusBadRequest, "document is required")
		return
	}

	id, err := s.trips.Save(req.Document)
	if err != nil {
		var verr *plan.ValidationError
		if errors.As(err, &verr) {
			s.errorResponse(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		s.logger.Error("trip save failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"id": id}, s.logger)
}

func (s *Server) handleTripList(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.List()
	if err != nil {
		s.logger.Error("trip list failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"trips": trips}, s.logger)
}

func (s *Server) handleTripGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.trips.Load(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "trip not found")
			return
		}
		s.logger.Error("trip load failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, doc, s.logger)
}

func (s *Server) handleTripUpdate(w http.ResponseWriter, r *http.Request) {
	var req SaveTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Document == nil {
		s.errorResponse(w, http.StatusBadRequest, "document is required")
		return
	}

	if err := s.trips.Update(r.PathValue("id"), req.Document); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "trip not found")
			return
		}
		var verr *plan.ValidationError
		if errors.As(err, &verr) {
			s.errorResponse(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		s.logger.Error("trip update failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "updated"}, s.logger)
}

func (s *Server) handleTripDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.trips.Delete(r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "trip not found")
			return
		}
		s.logger.Error("trip delete failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "deleted"}, s.logger)
}

func (s *Server) handleTripExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.trips.Load(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "trip not found")
			return
		}
		s.logger.Error("trip load failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}
	switch format {
	case "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, export.Markdown(doc))
	case "html":
		html, err := export.HTML(doc)
		if err != nil {
			s.logger.Error("html export failed", "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "export error")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	default:
		s.errorResponse(w, http.StatusBadRequest, "unknown format: "+format)
	}
}

func (s *Server) handleTripQR(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.trips.Load(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "trip not found")
			return
		}
		s.logger.Error("trip load failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 2048 {
			s.errorResponse(w, http.StatusBadRequest, "size must be between 64 and 2048")
			return
		}
		size = n
	}

	base := s.shareURL
	if base == "" {
		base = "http://" + r.Host
	}
	png, err := export.ShareQR(fmt.Sprintf("%s/api/trips/%s", base, id), size)
	if err != nil {
		s.logger.Error("qr encode failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "export error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// pipelineError maps pipeline failures onto HTTP status codes.
func (s *Server) pipelineError(w http.ResponseWriter, err error) {
	var verr *plan.ValidationError
	switch {
	case errors.As(err, &verr):
		s.errorResponse(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error("pipeline failed", "error", err)
		s.errorResponse(w, http.StatusBadGateway, "document generation failed")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}
