package fraud

import (
	"context"

	"github.com/google/uuid"
)

// AssessmentRepository is the persistence collaborator for fraud assessments.
// FindByTransactionID returns ErrAssessmentNotFound when nothing is stored.
type AssessmentRepository interface {
	Save(ctx context.Context, assessment *FraudAssessment) error
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*FraudAssessment, error)
}

// EventPublisher is the event bus collaborator. Publish failures are treated
// as a dependency fault: the engine logs and proceeds.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// BankValidationResult is the outcome of a beneficiary account check.
// Inconclusive results are treated as a pass by the engine.
type BankValidationResult struct {
	Exists               bool `json:"exists"`
	Active               bool `json:"active"`
	HasPriorTransactions bool `json:"has_prior_transactions"`
	Inconclusive         bool `json:"inconclusive"`
}

// Passed reports whether the validation should be treated as successful.
func (r BankValidationResult) Passed() bool {
	if r.Inconclusive {
		return true
	}
	return r.Exists && r.Active
}

// BankValidator confirms beneficiary account existence and activity through
// an external bank connector.
type BankValidator interface {
	Validate(ctx context.Context, connector, beneficiaryAccount string) (BankValidationResult, error)
}

// RequestSignals supplies the fast signals used by the gateway pre-flight
// check: recent request volume per user/session and IP reputation.
type RequestSignals interface {
	RecentRequestCount(ctx context.Context, userID uuid.UUID, sessionID string) (int64, error)
	IsSuspiciousIP(ctx context.Context, ip string) (bool, error)
}

// Scorer is the pluggable scoring model contract. Implementations may block
// and may fail; the engine bounds the call with a timeout and falls back to
// the deterministic scorer on any error.
type Scorer interface {
	Score(ctx context.Context, features FeatureVector) (float64, error)
}
