package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"fraud-risk-engine/internal/application/dto"
	fraudapp "fraud-risk-engine/internal/application/fraud"
	"fraud-risk-engine/internal/domain/fraud"
)

const maxBatchSize = 100

// RuleInfo is the serializable view of a configured rule.
type RuleInfo struct {
	ID       string  `json:"id"`
	Weight   float64 `json:"weight"`
	Blocking bool    `json:"blocking"`
}

// AssessmentHandler handles fraud assessment HTTP requests
type AssessmentHandler struct {
	engine *fraudapp.DetectionEngine
	repo   fraud.AssessmentRepository
	rules  []RuleInfo
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(engine *fraudapp.DetectionEngine, repo fraud.AssessmentRepository, rules []RuleInfo) *AssessmentHandler {
	return &AssessmentHandler{
		engine: engine,
		repo:   repo,
		rules:  rules,
	}
}

// AssessTransaction handles POST /api/v1/fraud/assess
func (h *AssessmentHandler) AssessTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	tc, err := req.ToContext()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessment := h.engine.AssessTransaction(r.Context(), tc)
	writeJSON(w, http.StatusOK, dto.FromAssessment(assessment))
}

// AssessBatch handles POST /api/v1/fraud/assess/batch
func (h *AssessmentHandler) AssessBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, "No transactions provided")
		return
	}
	if len(req.Transactions) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "Maximum 100 transactions per batch")
		return
	}

	contexts := make([]*fraud.TransactionContext, 0, len(req.Transactions))
	for _, txReq := range req.Transactions {
		tc, err := txReq.ToContext()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid transaction: "+err.Error())
			return
		}
		contexts = append(contexts, tc)
	}

	assessments := h.engine.AssessTransactionBatch(r.Context(), contexts)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": dto.FromAssessments(assessments),
		"count":       len(assessments),
	})
}

// PreFlight handles POST /api/v1/fraud/preflight
func (h *AssessmentHandler) PreFlight(w http.ResponseWriter, r *http.Request) {
	var req dto.PreFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	result := h.engine.PreFlightCheck(r.Context(), userID, req.SessionID, req.IPAddress, req.Endpoint)
	writeJSON(w, http.StatusOK, dto.FromPreFlight(result))
}

// GetAssessment handles GET /api/v1/fraud/assessments/{transactionId}
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("transactionId")
	transactionID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	assessment, err := h.repo.FindByTransactionID(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, fraud.ErrAssessmentNotFound) {
			writeError(w, http.StatusNotFound, "Assessment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get assessment: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FromAssessment(assessment))
}

// ReviewAssessment handles POST /api/v1/fraud/assessments/{transactionId}/review
func (h *AssessmentHandler) ReviewAssessment(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("transactionId")
	transactionID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	var req dto.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reviewerID, err := uuid.Parse(req.ReviewerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reviewer ID")
		return
	}

	assessment, err := h.repo.FindByTransactionID(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, fraud.ErrAssessmentNotFound) {
			writeError(w, http.StatusNotFound, "Assessment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get assessment: "+err.Error())
		return
	}

	if err := assessment.Review(reviewerID, fraud.AssessmentStatus(req.Verdict)); err != nil {
		switch {
		case errors.Is(err, fraud.ErrInvalidReviewVerdict):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, fraud.ErrAlreadyReviewed), errors.Is(err, fraud.ErrInvalidReviewTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if err := h.repo.Save(r.Context(), assessment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save review: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FromAssessment(assessment))
}

// ValidateBank handles POST /api/v1/fraud/validate-bank
func (h *AssessmentHandler) ValidateBank(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	tc, err := req.ToContext()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.engine.ValidateWithBankConnector(r.Context(), tc)
	writeJSON(w, http.StatusOK, dto.FromBankValidation(result))
}

// Feedback handles POST /api/v1/fraud/feedback
func (h *AssessmentHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req dto.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	outcome := fraudapp.TransactionOutcome(req.Outcome)
	if outcome != fraudapp.OutcomeCompleted && outcome != fraudapp.OutcomeFailed {
		writeError(w, http.StatusBadRequest, "Outcome must be COMPLETED or FAILED")
		return
	}

	h.engine.AnalyzePostTransaction(transactionID, outcome)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ListRules handles GET /api/v1/fraud/rules
func (h *AssessmentHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": h.rules,
		"count": len(h.rules),
	})
}

// ListFeatures handles GET /api/v1/fraud/features
func (h *AssessmentHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	names := fraud.FeatureNames()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"features": names,
		"count":    len(names),
	})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
