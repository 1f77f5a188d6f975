package fraud

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType categorizes the kind of money movement being assessed
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypePayment    TransactionType = "PAYMENT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeOther      TransactionType = "OTHER"
)

// TransactionContext is an immutable snapshot of everything known about a
// transaction at assessment time. Amount and Timestamp are required; every
// other field may be absent. Absent numeric facts are pointers so that
// "unknown" stays distinguishable from zero.
type TransactionContext struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	SessionID     string          `json:"session_id,omitempty"`
	FromAccountID uuid.UUID       `json:"from_account_id,omitempty"`
	ToAccountID   uuid.UUID       `json:"to_account_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Type          TransactionType `json:"type,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`

	// Session, device and network facts
	DeviceID            string `json:"device_id,omitempty"`
	IPAddress           string `json:"ip_address,omitempty"`
	Location            string `json:"location,omitempty"`
	IsFirstTimeDevice   bool   `json:"is_first_time_device"`
	IsFirstTimeLocation bool   `json:"is_first_time_location"`

	// Account facts
	FromAccountBalance *decimal.Decimal `json:"from_account_balance,omitempty"`
	AccountAgeDays     *int             `json:"account_age_days,omitempty"`
	AccountType        string           `json:"account_type,omitempty"`

	// Bank connector facts
	BankConnector       string `json:"bank_connector,omitempty"`
	IsExternalTransfer  bool   `json:"is_external_transfer"`
	BeneficiaryVerified bool   `json:"beneficiary_verified"`

	// Historical aggregates supplied by the caller
	TransactionCountToday       int              `json:"transaction_count_today"`
	TotalAmountToday            decimal.Decimal  `json:"total_amount_today"`
	AverageTransactionAmount    *decimal.Decimal `json:"average_transaction_amount,omitempty"`
	LastTransactionTime         *time.Time       `json:"last_transaction_time,omitempty"`
	HasRecentFailedTransactions bool             `json:"has_recent_failed_transactions"`

	// Precomputed behavioral flags
	IsOutsideNormalHours   bool `json:"is_outside_normal_hours"`
	IsUnusualAmount        bool `json:"is_unusual_amount"`
	IsUnusualRecipient     bool `json:"is_unusual_recipient"`
	IsRapidFireTransaction bool `json:"is_rapid_fire_transaction"`
}

// Validate checks the required-field invariants. The orchestrator converts a
// validation failure into a degraded assessment rather than propagating it.
func (c *TransactionContext) Validate() error {
	if c == nil {
		return ErrMissingContext
	}
	if c.TransactionID == uuid.Nil {
		return ErrMissingTransactionID
	}
	if c.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if c.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}
