package ml

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fraud-risk-engine/internal/domain/fraud"
)

// Normalization constants. These are part of the model contract and must not
// change without retraining: serialized feature vectors are only comparable
// across assessments when the formulas stay fixed.
const (
	amountLogSaturation   = 6.0      // log10 scale, ~1e6 saturates at 1.0
	countTodaySaturation  = 50.0     // transactions per day
	dailyAmountSaturation = 100000.0 // cumulative daily amount
	accountAgeSaturation  = 365.0    // days
	recencyWindowMinutes  = 1440.0   // one day
	businessHoursStart    = 8        // UTC
	businessHoursEnd      = 18       // UTC
)

// FeatureExtractor converts a TransactionContext into the fixed 23-entry
// normalized feature vector. Extraction is a pure, total function: missing
// inputs map to neutral defaults (0.0 for absent facts, 0.5 where "unknown"
// carries no directional signal) and it never fails.
type FeatureExtractor struct{}

// NewFeatureExtractor creates a feature extractor.
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// Extract builds the feature vector for one transaction context.
func (e *FeatureExtractor) Extract(ctx *fraud.TransactionContext) fraud.FeatureVector {
	v := make(fraud.FeatureVector, fraud.FeatureCount)

	amount := ctx.Amount.InexactFloat64()
	v[fraud.FeatAmountNormalized] = clamp01(math.Log10(math.Max(amount, 0)+1) / amountLogSaturation)
	v[fraud.FeatAmountPercentile] = amountPercentile(amount, ctx.AverageTransactionAmount)

	ts := ctx.Timestamp.UTC()
	hour := ts.Hour()
	v[fraud.FeatHourOfDay] = float64(hour) / 24
	v[fraud.FeatDayOfWeek] = float64(isoWeekday(ts)-1) / 6
	if ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday {
		v[fraud.FeatIsWeekend] = 1
	}
	if hour < businessHoursStart || hour >= businessHoursEnd {
		v[fraud.FeatOutsideBusinessHours] = 1
	}

	v[fraud.FeatTransactionCountToday] = clamp01(float64(ctx.TransactionCountToday) / countTodaySaturation)
	v[fraud.FeatDailyAmountToday] = clamp01(ctx.TotalAmountToday.InexactFloat64() / dailyAmountSaturation)
	v[fraud.FeatTimeSinceLastTransaction] = timeSinceLast(ts, ctx.LastTransactionTime)
	v[fraud.FeatAccountAge] = accountAge(ctx.AccountAgeDays)
	v[fraud.FeatBalanceRatio] = balanceRatio(amount, ctx.FromAccountBalance)

	v[fraud.FeatFirstTimeDevice] = boolFeature(ctx.IsFirstTimeDevice)
	v[fraud.FeatFirstTimeLocation] = boolFeature(ctx.IsFirstTimeLocation)

	switch ctx.Type {
	case fraud.TransactionTypeTransfer:
		v[fraud.FeatTypeTransfer] = 1
	case fraud.TransactionTypePayment:
		v[fraud.FeatTypePayment] = 1
	case fraud.TransactionTypeWithdrawal:
		v[fraud.FeatTypeWithdrawal] = 1
	default:
		v[fraud.FeatTypeOther] = 1
	}

	v[fraud.FeatExternalTransfer] = boolFeature(ctx.IsExternalTransfer)
	v[fraud.FeatBeneficiaryVerified] = boolFeature(ctx.BeneficiaryVerified)
	v[fraud.FeatUnusualAmount] = boolFeature(ctx.IsUnusualAmount)
	v[fraud.FeatUnusualRecipient] = boolFeature(ctx.IsUnusualRecipient)
	v[fraud.FeatRapidFire] = boolFeature(ctx.IsRapidFireTransaction)
	v[fraud.FeatRecentFailures] = boolFeature(ctx.HasRecentFailedTransactions)

	return v
}

// amountPercentile positions the amount against the user's historical
// average on a tanh curve centered at 1x the average. No history reads as a
// neutral 0.5.
func amountPercentile(amount float64, avg *decimal.Decimal) float64 {
	if avg == nil {
		return 0.5
	}
	avgAmount := avg.InexactFloat64()
	if avgAmount <= 0 {
		return 0.5
	}
	return clamp01(math.Tanh(amount/avgAmount-1)*0.5 + 0.5)
}

func timeSinceLast(now time.Time, last *time.Time) float64 {
	if last == nil {
		return 1
	}
	minutes := now.Sub(*last).Minutes()
	return clamp01(minutes / recencyWindowMinutes)
}

func accountAge(days *int) float64 {
	if days == nil {
		return 0
	}
	return clamp01(float64(*days) / accountAgeSaturation)
}

// balanceRatio measures how much of the available balance this transaction
// consumes. Unknown or zero balance reads as a neutral 0.5.
func balanceRatio(amount float64, balance *decimal.Decimal) float64 {
	if balance == nil {
		return 0.5
	}
	b := balance.InexactFloat64()
	if b <= 0 {
		return 0.5
	}
	return clamp01(amount / b)
}

// isoWeekday returns the ISO-8601 day of week, Monday=1 through Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
