// Package server exposes the assistant and hunt operations over a JSON
// HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/soclab/hunter/internal/assistant"
	"github.com/soclab/hunter/internal/catalog"
	"github.com/soclab/hunter/internal/hunt"
)

// Pinger checks search backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes API requests to the assistant and hunt collaborators.
type Server struct {
	assistant  *assistant.Assistant
	hunter     *hunt.Hunter
	catalog    *catalog.Catalog
	pinger     Pinger
	httpServer *http.Server
}

// New creates a Server over the given collaborators.
func New(a *assistant.Assistant, h *hunt.Hunter, cat *catalog.Catalog, pinger Pinger) *Server {
	return &Server{
		assistant: a,
		hunter:    h,
		catalog:   cat,
		pinger:    pinger,
	}
}

// Handler returns the API routing handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/hunt/mitre/", s.handleHuntTechnique)
	mux.HandleFunc("/api/hunt/iocs", s.handleHuntIOCs)
	mux.HandleFunc("/api/hunt/anomalies", s.handleHuntAnomalies)
	mux.HandleFunc("/api/attack/patterns", s.handleAttackPatterns)
	return mux
}

// Start begins listening on addr (":0" for OS-assigned). Returns the bound
// "host:port".
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}

	s.httpServer = &http.Server{Handler: s.Handler()}
	go s.httpServer.Serve(ln) //nolint:errcheck

	return ln.Addr().String(), nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	searchStatus := "connected"
	if err := s.pinger.Ping(r.Context()); err != nil {
		searchStatus = "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"services": map[string]string{"search": searchStatus},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	timeRange := r.URL.Query().Get("time_range")
	index := r.URL.Query().Get("index")

	result, err := s.assistant.SearchLogs(r.Context(), q, timeRange, index)
	if err != nil {
		// Collaborator failures stay in-band; the process keeps serving.
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	severity := r.URL.Query().Get("severity")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	report, err := s.assistant.GetSecurityAlerts(r.Context(), severity, limit)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type analyzeRequest struct {
	Question  string `json:"question"`
	Query     string `json:"query"`
	TimeRange string `json:"time_range"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	analysis, err := s.assistant.AnalyzeLogs(r.Context(), req.Question, req.Query, req.TimeRange)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleHuntTechnique(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/hunt/mitre/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "technique id is required")
		return
	}
	timeRange := r.URL.Query().Get("time_range")

	report, err := s.hunter.HuntTechnique(r.Context(), id, timeRange)
	if err != nil {
		if errors.Is(err, catalog.ErrTechniqueNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type iocHuntRequest struct {
	IOCs      []string `json:"iocs"`
	TimeRange string   `json:"time_range"`
}

func (s *Server) handleHuntIOCs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req iocHuntRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IOCs) == 0 {
		writeError(w, http.StatusBadRequest, "iocs is required")
		return
	}

	results := s.hunter.HuntIOCs(r.Context(), req.IOCs, req.TimeRange)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleHuntAnomalies(w http.ResponseWriter, r *http.Request) {
	timeRange := r.URL.Query().Get("time_range")
	writeJSON(w, http.StatusOK, s.hunter.HuntAnomalies(r.Context(), timeRange))
}

func (s *Server) handleAttackPatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.All())
}
