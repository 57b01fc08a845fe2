// Package api provides the assessment API server.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getmedsage/medsage/internal/auth"
	"github.com/getmedsage/medsage/internal/database"
	"github.com/getmedsage/medsage/internal/intervention"
	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/internal/metrics"
	"github.com/getmedsage/medsage/internal/report"
	"github.com/getmedsage/medsage/internal/workflow"
)

// Embedder produces embedding vectors for the similarity search.
// *llm.Client implements it.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Server is the API server.
type Server struct {
	store         database.Store
	orchestrator  *workflow.Orchestrator
	embedder      Embedder
	kb            *knowledge.Base
	gateway       *intervention.Gateway
	interventions *intervention.Manager
	reviews       *intervention.ReviewHandler
	approvals     *intervention.ApprovalManager
	reports       *report.Generator
	verifier      *auth.Verifier
	corsOrigin    string
	version       string
	model         string
	log           *slog.Logger
	mux           *http.ServeMux
}

// Config holds API server configuration. Verifier may be nil, which leaves
// the API unauthenticated. Embedder may be nil, which disables similarity
// search for new assessments.
type Config struct {
	Store         database.Store
	Orchestrator  *workflow.Orchestrator
	Embedder      Embedder
	KB            *knowledge.Base
	Gateway       *intervention.Gateway
	Interventions *intervention.Manager
	Reviews       *intervention.ReviewHandler
	Approvals     *intervention.ApprovalManager
	Reports       *report.Generator
	Verifier      *auth.Verifier
	CORSOrigin    string
	Version       string
	Model         string
	Logger        *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	if cfg.Reports == nil {
		cfg.Reports = &report.Generator{}
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		store:         cfg.Store,
		orchestrator:  cfg.Orchestrator,
		embedder:      cfg.Embedder,
		kb:            cfg.KB,
		gateway:       cfg.Gateway,
		interventions: cfg.Interventions,
		reviews:       cfg.Reviews,
		approvals:     cfg.Approvals,
		reports:       cfg.Reports,
		verifier:      cfg.Verifier,
		corsOrigin:    cfg.CORSOrigin,
		version:       cfg.Version,
		model:         cfg.Model,
		log:           cfg.Logger,
		mux:           http.NewServeMux(),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	authMiddleware := s.authMiddleware()

	// Public endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())

	// Assessments
	s.mux.HandleFunc("POST /api/assessments", s.withAuth(authMiddleware, s.handleCreateAssessment))
	s.mux.HandleFunc("POST /api/assessments/stream", s.withAuth(authMiddleware, s.handleStreamAssessment))
	s.mux.HandleFunc("GET /api/assessments", s.withAuth(authMiddleware, s.handleListAssessments))
	s.mux.HandleFunc("GET /api/assessments/{assessmentID}", s.withAuth(authMiddleware, s.handleGetAssessment))
	s.mux.HandleFunc("GET /api/assessments/{assessmentID}/similar", s.withAuth(authMiddleware, s.handleSimilarAssessments))
	s.mux.HandleFunc("GET /api/assessments/{assessmentID}/report.pdf", s.withAuth(authMiddleware, s.handleAssessmentReport))
	s.mux.HandleFunc("GET /api/assessments/{assessmentID}/interventions", s.withAuth(authMiddleware, s.handleAssessmentInterventions))

	// Interventions
	s.mux.HandleFunc("GET /api/interventions", s.withAuth(authMiddleware, s.handleListInterventions))
	s.mux.HandleFunc("GET /api/interventions/report", s.withAuth(authMiddleware, s.handleInterventionReport))
	s.mux.HandleFunc("GET /api/interventions/{requestID}", s.withAuth(authMiddleware, s.handleGetIntervention))
	s.mux.HandleFunc("POST /api/interventions/{requestID}/assign", s.withAuth(authMiddleware, s.handleAssignIntervention))
	s.mux.HandleFunc("POST /api/interventions/{requestID}/comments", s.withAuth(authMiddleware, s.handleCommentIntervention))
	s.mux.HandleFunc("POST /api/interventions/{requestID}/approve", s.withAuth(authMiddleware, s.handleApproveIntervention))
	s.mux.HandleFunc("POST /api/interventions/{requestID}/deny", s.withAuth(authMiddleware, s.handleDenyIntervention))
	s.mux.HandleFunc("POST /api/interventions/{requestID}/escalate", s.withAuth(authMiddleware, s.handleEscalateIntervention))

	// Reviews
	s.mux.HandleFunc("POST /api/interventions/{requestID}/reviews", s.withAuth(authMiddleware, s.handleCreateReview))
	s.mux.HandleFunc("GET /api/reviews/{reviewID}", s.withAuth(authMiddleware, s.handleGetReview))
	s.mux.HandleFunc("POST /api/reviews/{reviewID}/findings", s.withAuth(authMiddleware, s.handleAddFinding))
	s.mux.HandleFunc("POST /api/reviews/{reviewID}/questions", s.withAuth(authMiddleware, s.handleAddQuestion))
	s.mux.HandleFunc("POST /api/reviews/{reviewID}/recommendations", s.withAuth(authMiddleware, s.handleAddRecommendation))
	s.mux.HandleFunc("POST /api/reviews/{reviewID}/complete", s.withAuth(authMiddleware, s.handleCompleteReview))

	// Approvals
	s.mux.HandleFunc("POST /api/approvals", s.withAuth(authMiddleware, s.handleCreateApproval))
	s.mux.HandleFunc("GET /api/approvals/{approvalID}", s.withAuth(authMiddleware, s.handleGetApproval))
	s.mux.HandleFunc("POST /api/approvals/{approvalID}/approve", s.withAuth(authMiddleware, s.handleApproveApproval))
	s.mux.HandleFunc("POST /api/approvals/{approvalID}/reject", s.withAuth(authMiddleware, s.handleRejectApproval))

	// System
	s.mux.HandleFunc("GET /api/system", s.withAuth(authMiddleware, s.handleSystem))
}

// authMiddleware returns the bearer-token middleware, or a pass-through when
// no identity provider is configured.
func (s *Server) authMiddleware() func(http.Handler) http.Handler {
	if s.verifier == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return auth.Middleware(s.verifier)
}

func (s *Server) withAuth(middleware func(http.Handler) http.Handler, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware(http.HandlerFunc(handler)).ServeHTTP(w, r)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSystem reports the pipeline configuration.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	diseases := 0
	if s.kb != nil {
		diseases = s.kb.DiseaseCount()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":                s.version,
		"model":                  s.model,
		"stages":                 workflow.StageNames(),
		"disease_count":          diseases,
		"intervention_threshold": s.gateway.Threshold(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
