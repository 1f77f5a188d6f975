package fraud

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the discretized bucket derived from a risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// AssessmentStatus is the lifecycle state of a fraud assessment.
type AssessmentStatus string

const (
	StatusPending        AssessmentStatus = "PENDING"
	StatusApproved       AssessmentStatus = "APPROVED"
	StatusFlagged        AssessmentStatus = "FLAGGED"
	StatusReviewing      AssessmentStatus = "REVIEWING"
	StatusBlocked        AssessmentStatus = "BLOCKED"
	StatusConfirmedFraud AssessmentStatus = "CONFIRMED_FRAUD"
	StatusFalsePositive  AssessmentStatus = "FALSE_POSITIVE"
)

// RecommendedAction is the engine's advice to the caller.
type RecommendedAction string

const (
	ActionProceed               RecommendedAction = "PROCEED"
	ActionProceedWithMonitoring RecommendedAction = "PROCEED_WITH_MONITORING"
	ActionRequireVerification   RecommendedAction = "REQUIRE_ADDITIONAL_VERIFICATION"
	ActionBlockTransaction      RecommendedAction = "BLOCK_TRANSACTION"
)

// degradedRiskScore is the advisory score assigned when the engine could not
// complete a real assessment and fails open.
const degradedRiskScore = 0.1

// RiskLevelFromScore buckets a risk score. Boundaries are inclusive on the
// upper tier: 0.3 is MEDIUM, 0.6 is HIGH, 0.8 is CRITICAL.
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score >= 0.80:
		return RiskLevelCritical
	case score >= 0.60:
		return RiskLevelHigh
	case score >= 0.30:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// InitialStatusForLevel maps a risk level to the status an assessment is
// created with.
func InitialStatusForLevel(level RiskLevel) AssessmentStatus {
	switch level {
	case RiskLevelCritical:
		return StatusBlocked
	case RiskLevelHigh:
		return StatusReviewing
	case RiskLevelMedium:
		return StatusFlagged
	default:
		return StatusApproved
	}
}

// ActionForLevel maps a risk level to the recommended action.
func ActionForLevel(level RiskLevel) RecommendedAction {
	switch level {
	case RiskLevelCritical:
		return ActionBlockTransaction
	case RiskLevelHigh:
		return ActionRequireVerification
	case RiskLevelMedium:
		return ActionProceedWithMonitoring
	default:
		return ActionProceed
	}
}

// FraudAssessment is the persisted outcome of assessing one transaction.
// RiskLevel, initial Status and RecommendedAction are pure functions of the
// risk score at creation time. Only Status, ReviewedBy/ReviewedAt and
// BankValidationPassed are mutable after creation.
type FraudAssessment struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	SessionID     string    `json:"session_id,omitempty"`

	RiskScore         float64           `json:"risk_score"`
	RiskLevel         RiskLevel         `json:"risk_level"`
	Status            AssessmentStatus  `json:"status"`
	TriggeredRules    []TriggeredRule   `json:"triggered_rules"`
	FeatureVector     FeatureVector     `json:"feature_vector"`
	RecommendedAction RecommendedAction `json:"recommended_action"`

	BankConnectorUsed    string `json:"bank_connector_used,omitempty"`
	BankValidationPassed *bool  `json:"bank_validation_passed,omitempty"`

	// Degraded marks an advisory fail-open assessment produced after an
	// internal fault. It carries no triggered rules and must not be used to
	// block a transaction.
	Degraded bool `json:"degraded,omitempty"`

	ReviewedBy *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	AssessedAt time.Time  `json:"assessed_at"`
}

// NewFraudAssessment creates an assessment from a completed analysis. Risk
// level, status and action are derived from the score.
func NewFraudAssessment(ctx *TransactionContext, riskScore float64, rules RuleEvaluationResult, features FeatureVector) *FraudAssessment {
	level := RiskLevelFromScore(riskScore)
	return &FraudAssessment{
		ID:                uuid.New(),
		TransactionID:     ctx.TransactionID,
		UserID:            ctx.UserID,
		SessionID:         ctx.SessionID,
		RiskScore:         riskScore,
		RiskLevel:         level,
		Status:            InitialStatusForLevel(level),
		TriggeredRules:    rules.TriggeredRules,
		FeatureVector:     features,
		RecommendedAction: ActionForLevel(level),
		BankConnectorUsed: ctx.BankConnector,
		AssessedAt:        time.Now().UTC(),
	}
}

// NewDegradedAssessment creates the fail-open fallback assessment: low score,
// monitoring recommended, no rules recorded. The transaction is never blocked
// because of an internal fault.
func NewDegradedAssessment(ctx *TransactionContext) *FraudAssessment {
	a := &FraudAssessment{
		ID:                uuid.New(),
		RiskScore:         degradedRiskScore,
		RiskLevel:         RiskLevelLow,
		Status:            StatusApproved,
		TriggeredRules:    []TriggeredRule{},
		RecommendedAction: ActionProceedWithMonitoring,
		Degraded:          true,
		AssessedAt:        time.Now().UTC(),
	}
	if ctx != nil {
		a.TransactionID = ctx.TransactionID
		a.UserID = ctx.UserID
		a.SessionID = ctx.SessionID
		a.BankConnectorUsed = ctx.BankConnector
	}
	return a
}

// HighRisk reports whether the assessment is HIGH or CRITICAL, which routes
// it to the high-risk event topic.
func (a *FraudAssessment) HighRisk() bool {
	return a.RiskLevel == RiskLevelHigh || a.RiskLevel == RiskLevelCritical
}

// IsTerminal reports whether the assessment reached a reviewer verdict.
func (a *FraudAssessment) IsTerminal() bool {
	return a.Status == StatusConfirmedFraud || a.Status == StatusFalsePositive
}

// Review applies an explicit reviewer verdict. Verdicts are reachable only
// from FLAGGED, REVIEWING or BLOCKED; APPROVED assessments and already
// reviewed ones are rejected.
func (a *FraudAssessment) Review(reviewerID uuid.UUID, verdict AssessmentStatus) error {
	if verdict != StatusConfirmedFraud && verdict != StatusFalsePositive {
		return ErrInvalidReviewVerdict
	}
	if a.IsTerminal() {
		return ErrAlreadyReviewed
	}
	switch a.Status {
	case StatusFlagged, StatusReviewing, StatusBlocked:
	default:
		return ErrInvalidReviewTransition
	}
	now := time.Now().UTC()
	a.Status = verdict
	a.ReviewedBy = &reviewerID
	a.ReviewedAt = &now
	return nil
}

// SetBankValidation records the outcome of the bank connector validation.
func (a *FraudAssessment) SetBankValidation(passed bool) {
	a.BankValidationPassed = &passed
}
