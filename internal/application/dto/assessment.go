package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appfraud "fraud-risk-engine/internal/application/fraud"
	"fraud-risk-engine/internal/domain/fraud"
)

// AssessTransactionRequest is the API payload describing one transaction to
// assess. Only transaction_id, amount and timestamp are required; every other
// field defaults to "unknown".
type AssessTransactionRequest struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	FromAccountID string    `json:"from_account_id,omitempty"`
	ToAccountID   string    `json:"to_account_id,omitempty"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency,omitempty"`
	Type          string    `json:"type,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	DeviceID            string `json:"device_id,omitempty"`
	IPAddress           string `json:"ip_address,omitempty"`
	Location            string `json:"location,omitempty"`
	IsFirstTimeDevice   bool   `json:"is_first_time_device"`
	IsFirstTimeLocation bool   `json:"is_first_time_location"`

	FromAccountBalance *string `json:"from_account_balance,omitempty"`
	AccountAgeDays     *int    `json:"account_age_days,omitempty"`
	AccountType        string  `json:"account_type,omitempty"`

	BankConnector       string `json:"bank_connector,omitempty"`
	IsExternalTransfer  bool   `json:"is_external_transfer"`
	BeneficiaryVerified bool   `json:"beneficiary_verified"`

	TransactionCountToday       int        `json:"transaction_count_today"`
	TotalAmountToday            string     `json:"total_amount_today,omitempty"`
	AverageTransactionAmount    *string    `json:"average_transaction_amount,omitempty"`
	LastTransactionTime         *time.Time `json:"last_transaction_time,omitempty"`
	HasRecentFailedTransactions bool       `json:"has_recent_failed_transactions"`

	IsOutsideNormalHours   bool `json:"is_outside_normal_hours"`
	IsUnusualAmount        bool `json:"is_unusual_amount"`
	IsUnusualRecipient     bool `json:"is_unusual_recipient"`
	IsRapidFireTransaction bool `json:"is_rapid_fire_transaction"`
}

// ToContext converts the request into a domain transaction context. Amounts
// arrive as strings to avoid float precision loss.
func (r *AssessTransactionRequest) ToContext() (*fraud.TransactionContext, error) {
	transactionID, err := uuid.Parse(r.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction_id: %w", err)
	}

	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	tc := &fraud.TransactionContext{
		TransactionID: transactionID,
		SessionID:     r.SessionID,
		Amount:        amount,
		Currency:      r.Currency,
		Type:          fraud.TransactionType(r.Type),
		Timestamp:     r.Timestamp,

		DeviceID:            r.DeviceID,
		IPAddress:           r.IPAddress,
		Location:            r.Location,
		IsFirstTimeDevice:   r.IsFirstTimeDevice,
		IsFirstTimeLocation: r.IsFirstTimeLocation,

		AccountAgeDays: r.AccountAgeDays,
		AccountType:    r.AccountType,

		BankConnector:       r.BankConnector,
		IsExternalTransfer:  r.IsExternalTransfer,
		BeneficiaryVerified: r.BeneficiaryVerified,

		TransactionCountToday:       r.TransactionCountToday,
		LastTransactionTime:         r.LastTransactionTime,
		HasRecentFailedTransactions: r.HasRecentFailedTransactions,

		IsOutsideNormalHours:   r.IsOutsideNormalHours,
		IsUnusualAmount:        r.IsUnusualAmount,
		IsUnusualRecipient:     r.IsUnusualRecipient,
		IsRapidFireTransaction: r.IsRapidFireTransaction,
	}

	if r.UserID != "" {
		userID, err := uuid.Parse(r.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid user_id: %w", err)
		}
		tc.UserID = userID
	}
	if r.FromAccountID != "" {
		id, err := uuid.Parse(r.FromAccountID)
		if err != nil {
			return nil, fmt.Errorf("invalid from_account_id: %w", err)
		}
		tc.FromAccountID = id
	}
	if r.ToAccountID != "" {
		id, err := uuid.Parse(r.ToAccountID)
		if err != nil {
			return nil, fmt.Errorf("invalid to_account_id: %w", err)
		}
		tc.ToAccountID = id
	}
	if r.FromAccountBalance != nil {
		balance, err := decimal.NewFromString(*r.FromAccountBalance)
		if err != nil {
			return nil, fmt.Errorf("invalid from_account_balance: %w", err)
		}
		tc.FromAccountBalance = &balance
	}
	if r.TotalAmountToday != "" {
		total, err := decimal.NewFromString(r.TotalAmountToday)
		if err != nil {
			return nil, fmt.Errorf("invalid total_amount_today: %w", err)
		}
		tc.TotalAmountToday = total
	}
	if r.AverageTransactionAmount != nil {
		avg, err := decimal.NewFromString(*r.AverageTransactionAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid average_transaction_amount: %w", err)
		}
		tc.AverageTransactionAmount = &avg
	}

	return tc, nil
}

// AssessBatchRequest carries multiple transactions to assess together.
type AssessBatchRequest struct {
	Transactions []AssessTransactionRequest `json:"transactions"`
}

// PreFlightRequest asks for a gateway pre-flight decision.
type PreFlightRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Endpoint  string `json:"endpoint"`
}

// ReviewRequest applies a reviewer verdict to an assessment.
type ReviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Verdict    string `json:"verdict"` // CONFIRMED_FRAUD or FALSE_POSITIVE
}

// FeedbackRequest reports the downstream outcome of a processed transaction.
type FeedbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"` // COMPLETED or FAILED
}

// AssessmentResponse is the API view of a fraud assessment.
type AssessmentResponse struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	SessionID     string    `json:"session_id,omitempty"`

	RiskScore         float64               `json:"risk_score"`
	RiskLevel         string                `json:"risk_level"`
	Status            string                `json:"status"`
	TriggeredRules    []fraud.TriggeredRule `json:"triggered_rules"`
	RecommendedAction string                `json:"recommended_action"`

	BankConnectorUsed    string `json:"bank_connector_used,omitempty"`
	BankValidationPassed *bool  `json:"bank_validation_passed,omitempty"`
	Degraded             bool   `json:"degraded,omitempty"`

	ReviewedBy *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	AssessedAt time.Time  `json:"assessed_at"`
}

// FromAssessment converts a domain assessment to its API view.
func FromAssessment(a *fraud.FraudAssessment) AssessmentResponse {
	return AssessmentResponse{
		ID:                   a.ID,
		TransactionID:        a.TransactionID,
		UserID:               a.UserID,
		SessionID:            a.SessionID,
		RiskScore:            a.RiskScore,
		RiskLevel:            string(a.RiskLevel),
		Status:               string(a.Status),
		TriggeredRules:       a.TriggeredRules,
		RecommendedAction:    string(a.RecommendedAction),
		BankConnectorUsed:    a.BankConnectorUsed,
		BankValidationPassed: a.BankValidationPassed,
		Degraded:             a.Degraded,
		ReviewedBy:           a.ReviewedBy,
		ReviewedAt:           a.ReviewedAt,
		AssessedAt:           a.AssessedAt,
	}
}

// FromAssessments converts a batch of assessments.
func FromAssessments(assessments []*fraud.FraudAssessment) []AssessmentResponse {
	out := make([]AssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, FromAssessment(a))
	}
	return out
}

// PreFlightResponse is the API view of a pre-flight decision.
type PreFlightResponse struct {
	Allow                 bool    `json:"allow"`
	RequireAdditionalAuth bool    `json:"require_additional_auth"`
	RiskScore             float64 `json:"risk_score"`
}

// FromPreFlight converts a pre-flight result to its API view.
func FromPreFlight(r appfraud.PreFlightResult) PreFlightResponse {
	return PreFlightResponse{
		Allow:                 r.Allow,
		RequireAdditionalAuth: r.RequireAdditionalAuth,
		RiskScore:             r.RiskScore,
	}
}

// BankValidationResponse is the API view of a bank validation outcome.
type BankValidationResponse struct {
	Exists               bool `json:"exists"`
	Active               bool `json:"active"`
	HasPriorTransactions bool `json:"has_prior_transactions"`
	Inconclusive         bool `json:"inconclusive"`
	Passed               bool `json:"passed"`
}

// FromBankValidation converts a bank validation result to its API view.
func FromBankValidation(r fraud.BankValidationResult) BankValidationResponse {
	return BankValidationResponse{
		Exists:               r.Exists,
		Active:               r.Active,
		HasPriorTransactions: r.HasPriorTransactions,
		Inconclusive:         r.Inconclusive,
		Passed:               r.Passed(),
	}
}
