package fraud_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-risk-engine/internal/domain/fraud"
)

func validContext() *fraud.TransactionContext {
	return &fraud.TransactionContext{
		TransactionID: uuid.New(),
		UserID:        uuid.New(),
		SessionID:     "sess-1",
		Amount:        decimal.NewFromInt(100),
		Timestamp:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRiskLevelFromScore_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  fraud.RiskLevel
	}{
		{0.0, fraud.RiskLevelLow},
		{0.29999, fraud.RiskLevelLow},
		{0.3, fraud.RiskLevelMedium},
		{0.59999, fraud.RiskLevelMedium},
		{0.6, fraud.RiskLevelHigh},
		{0.79999, fraud.RiskLevelHigh},
		{0.8, fraud.RiskLevelCritical},
		{1.0, fraud.RiskLevelCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, fraud.RiskLevelFromScore(tc.score), "score %v", tc.score)
	}
}

func TestInitialStatusAndActionPerLevel(t *testing.T) {
	cases := []struct {
		level  fraud.RiskLevel
		status fraud.AssessmentStatus
		action fraud.RecommendedAction
	}{
		{fraud.RiskLevelLow, fraud.StatusApproved, fraud.ActionProceed},
		{fraud.RiskLevelMedium, fraud.StatusFlagged, fraud.ActionProceedWithMonitoring},
		{fraud.RiskLevelHigh, fraud.StatusReviewing, fraud.ActionRequireVerification},
		{fraud.RiskLevelCritical, fraud.StatusBlocked, fraud.ActionBlockTransaction},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, fraud.InitialStatusForLevel(tc.level))
		assert.Equal(t, tc.action, fraud.ActionForLevel(tc.level))
	}
}

func TestNewFraudAssessment_DerivesFromScore(t *testing.T) {
	ctx := validContext()
	var rules fraud.RuleEvaluationResult
	rules.Add(fraud.TriggeredRule{RuleID: "HIGH_VELOCITY", Weight: 0.5})

	a := fraud.NewFraudAssessment(ctx, 0.45, rules, make(fraud.FeatureVector, fraud.FeatureCount))

	assert.Equal(t, ctx.TransactionID, a.TransactionID)
	assert.Equal(t, ctx.UserID, a.UserID)
	assert.Equal(t, fraud.RiskLevelMedium, a.RiskLevel)
	assert.Equal(t, fraud.StatusFlagged, a.Status)
	assert.Equal(t, fraud.ActionProceedWithMonitoring, a.RecommendedAction)
	assert.Len(t, a.TriggeredRules, 1)
	assert.False(t, a.Degraded)
	assert.False(t, a.AssessedAt.IsZero())
}

func TestNewDegradedAssessment(t *testing.T) {
	ctx := validContext()

	a := fraud.NewDegradedAssessment(ctx)

	assert.InDelta(t, 0.1, a.RiskScore, 1e-9)
	assert.Equal(t, fraud.RiskLevelLow, a.RiskLevel)
	assert.Equal(t, fraud.StatusApproved, a.Status)
	assert.Equal(t, fraud.ActionProceedWithMonitoring, a.RecommendedAction)
	assert.Empty(t, a.TriggeredRules)
	assert.True(t, a.Degraded)
	assert.Equal(t, ctx.TransactionID, a.TransactionID)
}

func TestNewDegradedAssessment_NilContext(t *testing.T) {
	a := fraud.NewDegradedAssessment(nil)

	assert.True(t, a.Degraded)
	assert.Equal(t, uuid.Nil, a.TransactionID)
	assert.Equal(t, fraud.StatusApproved, a.Status)
}

func TestHighRisk(t *testing.T) {
	low := fraud.NewFraudAssessment(validContext(), 0.2, fraud.RuleEvaluationResult{}, nil)
	high := fraud.NewFraudAssessment(validContext(), 0.7, fraud.RuleEvaluationResult{}, nil)
	critical := fraud.NewFraudAssessment(validContext(), 0.9, fraud.RuleEvaluationResult{}, nil)

	assert.False(t, low.HighRisk())
	assert.True(t, high.HighRisk())
	assert.True(t, critical.HighRisk())
}

func TestReview_FromFlagged(t *testing.T) {
	a := fraud.NewFraudAssessment(validContext(), 0.45, fraud.RuleEvaluationResult{}, nil)
	reviewer := uuid.New()

	require.NoError(t, a.Review(reviewer, fraud.StatusConfirmedFraud))

	assert.Equal(t, fraud.StatusConfirmedFraud, a.Status)
	require.NotNil(t, a.ReviewedBy)
	assert.Equal(t, reviewer, *a.ReviewedBy)
	assert.NotNil(t, a.ReviewedAt)
	assert.True(t, a.IsTerminal())
}

func TestReview_ApprovedIsNotReviewable(t *testing.T) {
	a := fraud.NewFraudAssessment(validContext(), 0.1, fraud.RuleEvaluationResult{}, nil)

	err := a.Review(uuid.New(), fraud.StatusFalsePositive)
	assert.ErrorIs(t, err, fraud.ErrInvalidReviewTransition)
}

func TestReview_RejectsInvalidVerdict(t *testing.T) {
	a := fraud.NewFraudAssessment(validContext(), 0.9, fraud.RuleEvaluationResult{}, nil)

	err := a.Review(uuid.New(), fraud.StatusApproved)
	assert.ErrorIs(t, err, fraud.ErrInvalidReviewVerdict)
}

func TestReview_OnlyOnce(t *testing.T) {
	a := fraud.NewFraudAssessment(validContext(), 0.9, fraud.RuleEvaluationResult{}, nil)

	require.NoError(t, a.Review(uuid.New(), fraud.StatusFalsePositive))
	err := a.Review(uuid.New(), fraud.StatusConfirmedFraud)
	assert.ErrorIs(t, err, fraud.ErrAlreadyReviewed)
}

func TestContextValidate(t *testing.T) {
	valid := validContext()
	assert.NoError(t, valid.Validate())

	var nilCtx *fraud.TransactionContext
	assert.ErrorIs(t, nilCtx.Validate(), fraud.ErrMissingContext)

	noID := validContext()
	noID.TransactionID = uuid.Nil
	assert.ErrorIs(t, noID.Validate(), fraud.ErrMissingTransactionID)

	noTime := validContext()
	noTime.Timestamp = time.Time{}
	assert.ErrorIs(t, noTime.Validate(), fraud.ErrMissingTimestamp)

	negative := validContext()
	negative.Amount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), fraud.ErrNegativeAmount)
}

func TestSetBankValidation(t *testing.T) {
	a := fraud.NewFraudAssessment(validContext(), 0.2, fraud.RuleEvaluationResult{}, nil)
	require.Nil(t, a.BankValidationPassed)

	a.SetBankValidation(true)
	require.NotNil(t, a.BankValidationPassed)
	assert.True(t, *a.BankValidationPassed)
}

func TestBankValidationResult_Passed(t *testing.T) {
	assert.True(t, fraud.BankValidationResult{Inconclusive: true}.Passed())
	assert.True(t, fraud.BankValidationResult{Exists: true, Active: true}.Passed())
	assert.False(t, fraud.BankValidationResult{Exists: true}.Passed())
	assert.False(t, fraud.BankValidationResult{}.Passed())
}

func TestFeatureNames_CoversEveryIndex(t *testing.T) {
	names := fraud.FeatureNames()
	require.Len(t, names, fraud.FeatureCount)
	for i, name := range names {
		assert.NotEmpty(t, name, "feature %d has no name", i)
	}
	assert.Equal(t, "amount_normalized", fraud.FeatureName(fraud.FeatAmountNormalized))
	assert.Equal(t, "", fraud.FeatureName(fraud.FeatureCount))
}
