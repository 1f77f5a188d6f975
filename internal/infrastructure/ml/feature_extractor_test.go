package ml_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-risk-engine/internal/domain/fraud"
	"fraud-risk-engine/internal/infrastructure/ml"
)

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func baseContext() *fraud.TransactionContext {
	return &fraud.TransactionContext{
		TransactionID: uuid.New(),
		UserID:        uuid.New(),
		Amount:        decimal.NewFromInt(100),
		Type:          fraud.TransactionTypePayment,
		Timestamp:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), // Tuesday noon
	}
}

func TestExtract_LengthAndRange(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	ctx := baseContext()
	ctx.Amount = decimal.NewFromInt(750000)
	ctx.FromAccountBalance = decimalPtr(800000)
	ctx.AccountAgeDays = intPtr(900)
	ctx.AverageTransactionAmount = decimalPtr(50)
	ctx.LastTransactionTime = timePtr(ctx.Timestamp.Add(-3 * time.Minute))
	ctx.TransactionCountToday = 120
	ctx.TotalAmountToday = decimal.NewFromInt(900000)
	ctx.IsFirstTimeDevice = true
	ctx.IsFirstTimeLocation = true
	ctx.IsExternalTransfer = true
	ctx.IsUnusualAmount = true
	ctx.IsUnusualRecipient = true
	ctx.IsRapidFireTransaction = true
	ctx.HasRecentFailedTransactions = true

	v := extractor.Extract(ctx)

	require.Len(t, v, fraud.FeatureCount)
	for i, f := range v {
		assert.GreaterOrEqual(t, f, 0.0, "feature %s", fraud.FeatureName(i))
		assert.LessOrEqual(t, f, 1.0, "feature %s", fraud.FeatureName(i))
	}
}

func TestExtract_AmountLogScale(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	ctx := baseContext()
	ctx.Amount = decimal.NewFromInt(999) // log10(1000)/6 = 0.5

	v := extractor.Extract(ctx)
	assert.InDelta(t, 0.5, v[fraud.FeatAmountNormalized], 1e-3)

	ctx.Amount = decimal.NewFromInt(10_000_000)
	v = extractor.Extract(ctx)
	assert.InDelta(t, 1.0, v[fraud.FeatAmountNormalized], 1e-9)
}

func TestExtract_AmountPercentile(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	// No history reads neutral
	ctx := baseContext()
	v := extractor.Extract(ctx)
	assert.InDelta(t, 0.5, v[fraud.FeatAmountPercentile], 1e-9)

	// Amount equal to average sits at the curve's center
	ctx.AverageTransactionAmount = decimalPtr(100)
	v = extractor.Extract(ctx)
	assert.InDelta(t, 0.5, v[fraud.FeatAmountPercentile], 1e-9)

	// Far above average approaches 1
	ctx.Amount = decimal.NewFromInt(1000)
	v = extractor.Extract(ctx)
	expected := math.Tanh(1000.0/100.0-1)*0.5 + 0.5
	assert.InDelta(t, expected, v[fraud.FeatAmountPercentile], 1e-9)
	assert.Greater(t, v[fraud.FeatAmountPercentile], 0.9)
}

func TestExtract_TimeFeatures(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	ctx := baseContext() // Tuesday 12:00 UTC
	v := extractor.Extract(ctx)
	assert.InDelta(t, 0.5, v[fraud.FeatHourOfDay], 1e-9)
	assert.InDelta(t, 1.0/6.0, v[fraud.FeatDayOfWeek], 1e-9) // ISO day 2
	assert.Equal(t, 0.0, v[fraud.FeatIsWeekend])
	assert.Equal(t, 0.0, v[fraud.FeatOutsideBusinessHours])

	ctx.Timestamp = time.Date(2025, 6, 8, 20, 0, 0, 0, time.UTC) // Sunday 20:00
	v = extractor.Extract(ctx)
	assert.InDelta(t, 1.0, v[fraud.FeatDayOfWeek], 1e-9) // ISO day 7
	assert.Equal(t, 1.0, v[fraud.FeatIsWeekend])
	assert.Equal(t, 1.0, v[fraud.FeatOutsideBusinessHours])

	ctx.Timestamp = time.Date(2025, 6, 9, 7, 59, 0, 0, time.UTC) // Monday before open
	v = extractor.Extract(ctx)
	assert.Equal(t, 1.0, v[fraud.FeatOutsideBusinessHours])
}

func TestExtract_HistoryFeatures(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	ctx := baseContext()
	ctx.TransactionCountToday = 25
	ctx.TotalAmountToday = decimal.NewFromInt(50000)
	ctx.LastTransactionTime = timePtr(ctx.Timestamp.Add(-12 * time.Hour))

	v := extractor.Extract(ctx)
	assert.InDelta(t, 0.5, v[fraud.FeatTransactionCountToday], 1e-9) // 25/50
	assert.InDelta(t, 0.5, v[fraud.FeatDailyAmountToday], 1e-9)      // 50000/100000
	assert.InDelta(t, 0.5, v[fraud.FeatTimeSinceLastTransaction], 1e-9)
}

func TestExtract_NeutralDefaults(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	v := extractor.Extract(baseContext())

	assert.InDelta(t, 1.0, v[fraud.FeatTimeSinceLastTransaction], 1e-9) // no prior transaction
	assert.Equal(t, 0.0, v[fraud.FeatAccountAge])                       // unknown age
	assert.InDelta(t, 0.5, v[fraud.FeatBalanceRatio], 1e-9)             // unknown balance
}

func TestExtract_BalanceRatio(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	ctx := baseContext()
	ctx.Amount = decimal.NewFromInt(960)
	ctx.FromAccountBalance = decimalPtr(1000)

	v := extractor.Extract(ctx)
	assert.InDelta(t, 0.96, v[fraud.FeatBalanceRatio], 1e-9)
}

func TestExtract_AccountAge(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	ctx := baseContext()
	ctx.AccountAgeDays = intPtr(73) // 73/365 = 0.2

	v := extractor.Extract(ctx)
	assert.InDelta(t, 0.2, v[fraud.FeatAccountAge], 1e-9)

	ctx.AccountAgeDays = intPtr(700)
	v = extractor.Extract(ctx)
	assert.InDelta(t, 1.0, v[fraud.FeatAccountAge], 1e-9)
}

func TestExtract_TypeOneHot(t *testing.T) {
	extractor := ml.NewFeatureExtractor()

	cases := []struct {
		txType fraud.TransactionType
		index  int
	}{
		{fraud.TransactionTypeTransfer, fraud.FeatTypeTransfer},
		{fraud.TransactionTypePayment, fraud.FeatTypePayment},
		{fraud.TransactionTypeWithdrawal, fraud.FeatTypeWithdrawal},
		{fraud.TransactionTypeOther, fraud.FeatTypeOther},
		{fraud.TransactionType("SOMETHING_ELSE"), fraud.FeatTypeOther},
	}

	oneHot := []int{fraud.FeatTypeTransfer, fraud.FeatTypePayment, fraud.FeatTypeWithdrawal, fraud.FeatTypeOther}

	for _, tc := range cases {
		ctx := baseContext()
		ctx.Type = tc.txType
		v := extractor.Extract(ctx)

		for _, idx := range oneHot {
			if idx == tc.index {
				assert.Equal(t, 1.0, v[idx], "type %s", tc.txType)
			} else {
				assert.Equal(t, 0.0, v[idx], "type %s", tc.txType)
			}
		}
	}
}
