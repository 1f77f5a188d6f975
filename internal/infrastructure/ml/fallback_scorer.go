package ml

import (
	"context"
	"fmt"

	"fraud-risk-engine/internal/domain/fraud"
)

// Fallback model weights. The recency term scores (1 - time_since_last): the
// shorter the gap to the previous transaction, the riskier.
const (
	wAmountNormalized = 0.30
	wAmountPercentile = 0.20
	wOutsideHours     = 0.10
	wCountToday       = 0.15
	wRecency          = 0.10
	wFirstDevice      = 0.20
	wFirstLocation    = 0.15
	wUnusualAmount    = 0.25
	wUnusualRecipient = 0.20
	wRapidFire        = 0.30
	wRecentFailures   = 0.15
)

// FallbackScorer is the deterministic production fallback used whenever no
// model-backed scorer is configured or the configured one fails. It is a
// pure weighted linear combination over fixed feature indices: identical
// vectors always produce bit-identical scores.
type FallbackScorer struct{}

// NewFallbackScorer creates the deterministic fallback scorer.
func NewFallbackScorer() *FallbackScorer {
	return &FallbackScorer{}
}

// Score implements fraud.Scorer.
func (s *FallbackScorer) Score(_ context.Context, features fraud.FeatureVector) (float64, error) {
	if len(features) != fraud.FeatureCount {
		return 0, fmt.Errorf("feature vector has %d entries, want %d", len(features), fraud.FeatureCount)
	}

	score := features[fraud.FeatAmountNormalized]*wAmountNormalized +
		features[fraud.FeatAmountPercentile]*wAmountPercentile +
		features[fraud.FeatOutsideBusinessHours]*wOutsideHours +
		features[fraud.FeatTransactionCountToday]*wCountToday +
		(1-features[fraud.FeatTimeSinceLastTransaction])*wRecency +
		features[fraud.FeatFirstTimeDevice]*wFirstDevice +
		features[fraud.FeatFirstTimeLocation]*wFirstLocation +
		features[fraud.FeatUnusualAmount]*wUnusualAmount +
		features[fraud.FeatUnusualRecipient]*wUnusualRecipient +
		features[fraud.FeatRapidFire]*wRapidFire +
		features[fraud.FeatRecentFailures]*wRecentFailures

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
