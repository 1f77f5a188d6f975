package fraud

// Feature indices into a FeatureVector. The order is fixed: scorer weights,
// serialized assessments and the model inference contract all depend on it.
const (
	FeatAmountNormalized = iota
	FeatAmountPercentile
	FeatHourOfDay
	FeatDayOfWeek
	FeatIsWeekend
	FeatOutsideBusinessHours
	FeatTransactionCountToday
	FeatDailyAmountToday
	FeatTimeSinceLastTransaction
	FeatAccountAge
	FeatBalanceRatio
	FeatFirstTimeDevice
	FeatFirstTimeLocation
	FeatTypeTransfer
	FeatTypePayment
	FeatTypeWithdrawal
	FeatTypeOther
	FeatExternalTransfer
	FeatBeneficiaryVerified
	FeatUnusualAmount
	FeatUnusualRecipient
	FeatRapidFire
	FeatRecentFailures

	// FeatureCount is the fixed length of every feature vector
	FeatureCount
)

// FeatureVector is the normalized numeric encoding of a TransactionContext.
// Every element is in [0,1]. It is created once per assessment and never
// mutated afterwards.
type FeatureVector []float64

var featureNames = [FeatureCount]string{
	FeatAmountNormalized:         "amount_normalized",
	FeatAmountPercentile:         "amount_percentile",
	FeatHourOfDay:                "hour_of_day",
	FeatDayOfWeek:                "day_of_week",
	FeatIsWeekend:                "is_weekend",
	FeatOutsideBusinessHours:     "outside_business_hours",
	FeatTransactionCountToday:    "transaction_count_today",
	FeatDailyAmountToday:         "daily_amount_today",
	FeatTimeSinceLastTransaction: "time_since_last_transaction",
	FeatAccountAge:               "account_age",
	FeatBalanceRatio:             "balance_ratio",
	FeatFirstTimeDevice:          "first_time_device",
	FeatFirstTimeLocation:        "first_time_location",
	FeatTypeTransfer:             "type_transfer",
	FeatTypePayment:              "type_payment",
	FeatTypeWithdrawal:           "type_withdrawal",
	FeatTypeOther:                "type_other",
	FeatExternalTransfer:         "external_transfer",
	FeatBeneficiaryVerified:      "beneficiary_verified",
	FeatUnusualAmount:            "unusual_amount",
	FeatUnusualRecipient:         "unusual_recipient",
	FeatRapidFire:                "rapid_fire_transaction",
	FeatRecentFailures:           "recent_failed_transactions",
}

// FeatureName returns the debug name for a feature index, or "" when the
// index is out of range.
func FeatureName(index int) string {
	if index < 0 || index >= FeatureCount {
		return ""
	}
	return featureNames[index]
}

// FeatureNames returns the full ordered index table, used for debugging and
// serialization of assessments.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

// Named returns the vector keyed by feature name.
func (v FeatureVector) Named() map[string]float64 {
	named := make(map[string]float64, len(v))
	for i, value := range v {
		if i < FeatureCount {
			named[featureNames[i]] = value
		}
	}
	return named
}
