package router

import (
	"net/http"

	"fraud-risk-engine/internal/interfaces/http/handler"
)

// Router holds all HTTP handlers
type Router struct {
	mux               *http.ServeMux
	assessmentHandler *handler.AssessmentHandler
	healthHandler     *handler.HealthHandler
	metricsPath       string
}

// NewRouter creates a new router with all routes configured
func NewRouter(
	assessmentHandler *handler.AssessmentHandler,
	healthHandler *handler.HealthHandler,
	metricsPath string,
) *Router {
	r := &Router{
		mux:               http.NewServeMux(),
		assessmentHandler: assessmentHandler,
		healthHandler:     healthHandler,
		metricsPath:       metricsPath,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	// Metrics
	if r.metricsPath != "" {
		r.mux.Handle("GET "+r.metricsPath, handler.MetricsHandler())
	}

	// Assessment endpoints
	r.mux.HandleFunc("POST /api/v1/fraud/assess", r.assessmentHandler.AssessTransaction)
	r.mux.HandleFunc("POST /api/v1/fraud/assess/batch", r.assessmentHandler.AssessBatch)
	r.mux.HandleFunc("POST /api/v1/fraud/preflight", r.assessmentHandler.PreFlight)
	r.mux.HandleFunc("POST /api/v1/fraud/validate-bank", r.assessmentHandler.ValidateBank)
	r.mux.HandleFunc("POST /api/v1/fraud/feedback", r.assessmentHandler.Feedback)

	// Stored assessments and review
	r.mux.HandleFunc("GET /api/v1/fraud/assessments/{transactionId}", r.assessmentHandler.GetAssessment)
	r.mux.HandleFunc("POST /api/v1/fraud/assessments/{transactionId}/review", r.assessmentHandler.ReviewAssessment)

	// Introspection
	r.mux.HandleFunc("GET /api/v1/fraud/rules", r.assessmentHandler.ListRules)
	r.mux.HandleFunc("GET /api/v1/fraud/features", r.assessmentHandler.ListFeatures)
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
