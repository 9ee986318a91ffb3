// Package api exposes the analysis engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lvonguyen/narcosignal/internal/investigation"
	"github.com/lvonguyen/narcosignal/internal/lexicon"
	"github.com/lvonguyen/narcosignal/internal/scoring"
)

// Server wires the scoring and investigation engines into HTTP handlers.
type Server struct {
	analyzer    *scoring.Analyzer
	aggregator  *investigation.Aggregator
	store       *lexicon.Store
	lexiconPath string
	redis       *redis.Client
	maxBatch    int
	logger      *zap.Logger
}

// Options carries the server dependencies. Redis may be nil; readiness then
// skips the ping. Aggregator may be nil when no OSINT tool is configured.
type Options struct {
	Analyzer    *scoring.Analyzer
	Aggregator  *investigation.Aggregator
	Store       *lexicon.Store
	LexiconPath string
	Redis       *redis.Client
	MaxBatch    int
	Logger      *zap.Logger
}

// NewServer creates the HTTP layer.
func NewServer(opts Options) *Server {
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 50
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		analyzer:    opts.Analyzer,
		aggregator:  opts.Aggregator,
		store:       opts.Store,
		lexiconPath: opts.LexiconPath,
		redis:       opts.Redis,
		maxBatch:    opts.MaxBatch,
		logger:      opts.Logger,
	}
}

// Routes registers all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/batch", s.handleAnalyzeBatch)
		r.Post("/investigate", s.handleInvestigate)

		r.Route("/lexicon", func(r chi.Router) {
			r.Get("/", s.handleLexiconInspect)
			r.Post("/reload", s.handleLexiconReload)
		})
	})
}

// Router builds a standalone router with the standard middleware stack.
func (s *Server) Router(extra ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	for _, mw := range extra {
		r.Use(mw)
	}
	s.Routes(r)
	return r
}

// =============================================================================
// Analysis Handlers
// =============================================================================

// AnalyzeRequest is one piece of content to score.
type AnalyzeRequest struct {
	Platform string `json:"platform"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// AnalyzeResponse is the scored assessment plus its request context.
type AnalyzeResponse struct {
	Platform   string    `json:"platform"`
	Username   string    `json:"username"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	scoring.ContentAssessment
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	assessment, err := s.analyzer.Analyze(req.Content)
	if err != nil {
		s.logger.Error("analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Platform:          req.Platform,
		Username:          req.Username,
		AnalyzedAt:        time.Now().UTC(),
		ContentAssessment: *assessment,
	})
}

// BatchAnalyzeRequest scores several pieces of content in one call.
type BatchAnalyzeRequest struct {
	Items []AnalyzeRequest `json:"items"`
}

// BatchAnalyzeResponse returns per-item results in request order. Items that
// failed carry an error string instead of an assessment.
type BatchAnalyzeResponse struct {
	Results []BatchItemResult `json:"results"`
	Count   int               `json:"count"`
	Flagged int               `json:"flagged"`
}

// BatchItemResult is one item's outcome.
type BatchItemResult struct {
	Platform   string                     `json:"platform"`
	Username   string                     `json:"username"`
	Assessment *scoring.ContentAssessment `json:"assessment,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	if len(req.Items) > s.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, "batch too large")
		return
	}

	resp := BatchAnalyzeResponse{Results: make([]BatchItemResult, 0, len(req.Items))}
	for _, item := range req.Items {
		result := BatchItemResult{Platform: item.Platform, Username: item.Username}
		if item.Content == "" {
			result.Error = "content is required"
		} else if assessment, err := s.analyzer.Analyze(item.Content); err != nil {
			result.Error = "analysis failed"
		} else {
			result.Assessment = assessment
			if assessment.IsFlagged {
				resp.Flagged++
			}
		}
		resp.Results = append(resp.Results, result)
	}
	resp.Count = len(resp.Results)

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Investigation Handler
// =============================================================================

// InvestigateRequest identifies the account to pivot on.
type InvestigateRequest struct {
	Username string `json:"username"`
	Platform string `json:"platform"`
}

func (s *Server) handleInvestigate(w http.ResponseWriter, r *http.Request) {
	if s.aggregator == nil {
		writeError(w, http.StatusServiceUnavailable, "no investigation tools configured")
		return
	}

	var req InvestigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := s.aggregator.Investigate(r.Context(), req.Username, req.Platform)
	if err != nil {
		if errors.Is(err, investigation.ErrInvalidUsername) {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}
		s.logger.Error("investigation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "investigation failed")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// =============================================================================
// Lexicon Handlers
// =============================================================================

// LexiconSummary describes the active term table.
type LexiconSummary struct {
	Categories map[string]int `json:"categories"`
	TermCount  int            `json:"term_count"`
}

func (s *Server) handleLexiconInspect(w http.ResponseWriter, r *http.Request) {
	table := s.store.Table()

	summary := LexiconSummary{Categories: make(map[string]int)}
	for _, entry := range table.Entries() {
		summary.Categories[entry.Category]++
		summary.TermCount++
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLexiconReload(w http.ResponseWriter, r *http.Request) {
	table, err := lexicon.LoadFile(s.lexiconPath)
	if err != nil {
		s.logger.Error("lexicon reload failed", zap.String("path", s.lexiconPath), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "lexicon reload failed: "+err.Error())
		return
	}

	s.store.Swap(table)
	s.logger.Info("lexicon reloaded",
		zap.String("path", s.lexiconPath),
		zap.Int("terms", len(table.Entries())),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "reloaded",
		"terms":  len(table.Entries()),
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"redis":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// =============================================================================
// Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
