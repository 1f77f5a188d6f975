package fraud

import "errors"

// Input validation errors. These fail fast when a component is called
// directly; the orchestrator converts them into a degraded assessment.
var (
	ErrMissingContext       = errors.New("transaction context is required")
	ErrMissingTransactionID = errors.New("transaction id is required")
	ErrMissingTimestamp     = errors.New("transaction timestamp is required")
	ErrNegativeAmount       = errors.New("transaction amount must not be negative")
)

// Persistence and lifecycle errors.
var (
	ErrAssessmentNotFound      = errors.New("fraud assessment not found")
	ErrInvalidReviewVerdict    = errors.New("review verdict must be CONFIRMED_FRAUD or FALSE_POSITIVE")
	ErrInvalidReviewTransition = errors.New("assessment status does not allow review")
	ErrAlreadyReviewed         = errors.New("assessment has already been reviewed")
)

// Dependency errors. All of these fail open at the engine boundary.
var (
	ErrScorerUnavailable    = errors.New("scoring model unavailable")
	ErrValidatorUnavailable = errors.New("bank validator unavailable")
)
