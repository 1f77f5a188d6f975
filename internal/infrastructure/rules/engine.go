package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fraud-risk-engine/internal/domain/fraud"
)

// Rule thresholds.
var (
	massiveAmountThreshold   = decimal.NewFromInt(1_000_000)
	newDeviceAmountThreshold = decimal.NewFromInt(50_000)
	dailyAmountLimit         = decimal.NewFromInt(100_000)
	roundAmountUnit          = decimal.NewFromInt(1_000)
	balanceDrainRatio        = decimal.NewFromFloat(0.95)
	averageAmountMultiple    = decimal.NewFromInt(5)
)

const (
	dailyVelocityLimit = 20
	newAccountMaxDays  = 30
)

// Rule is a deterministic fraud condition with a declared weight and a
// declared blocking flag. Blocking is never inferred from the weight: a new
// rule whose weight happens to cross 0.8 does not silently start forcing
// scores unless it is explicitly marked.
type Rule struct {
	ID       string
	Weight   float64
	Blocking bool
	Matches  func(ctx *fraud.TransactionContext) bool
	Reason   func(ctx *fraud.TransactionContext) string
}

// Engine evaluates the full rule table against a transaction context. It is
// pure and total: evaluation reads only the passed-in context and the
// engine's immutable configuration, and it never fails.
type Engine struct {
	rules       []Rule
	ipBlacklist map[string]struct{}
}

// NewEngine creates a rule engine with the built-in rule table and the given
// IP blacklist.
func NewEngine(ipBlacklist []string) *Engine {
	e := &Engine{
		ipBlacklist: make(map[string]struct{}, len(ipBlacklist)),
	}
	for _, ip := range ipBlacklist {
		e.ipBlacklist[ip] = struct{}{}
	}
	e.rules = e.buildRuleTable()
	return e
}

// Evaluate runs every rule against the context. All matching rules are
// recorded; the aggregate result is independent of evaluation order.
func (e *Engine) Evaluate(ctx *fraud.TransactionContext) fraud.RuleEvaluationResult {
	var result fraud.RuleEvaluationResult
	for _, rule := range e.rules {
		if rule.Matches(ctx) {
			result.Add(fraud.TriggeredRule{
				RuleID:   rule.ID,
				Weight:   rule.Weight,
				Reason:   rule.Reason(ctx),
				Blocking: rule.Blocking,
			})
		}
	}
	return result
}

// Rules returns a copy of the rule table for introspection endpoints.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

func (e *Engine) buildRuleTable() []Rule {
	return []Rule{
		// High-risk tier.
		{
			ID:       "MASSIVE_AMOUNT",
			Weight:   0.9,
			Blocking: true,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.Amount.GreaterThan(massiveAmountThreshold)
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("Transaction amount %s exceeds %s", ctx.Amount, massiveAmountThreshold)
			},
		},
		{
			ID:       "BALANCE_DRAIN",
			Weight:   0.8,
			Blocking: true,
			Matches: func(ctx *fraud.TransactionContext) bool {
				if ctx.FromAccountBalance == nil || !ctx.FromAccountBalance.IsPositive() {
					return false
				}
				return ctx.Amount.GreaterThan(ctx.FromAccountBalance.Mul(balanceDrainRatio))
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("Transaction amount %s drains more than 95%% of account balance %s", ctx.Amount, ctx.FromAccountBalance)
			},
		},
		{
			ID:       "BLACKLISTED_IP",
			Weight:   0.95,
			Blocking: true,
			Matches: func(ctx *fraud.TransactionContext) bool {
				if ctx.IPAddress == "" {
					return false
				}
				_, blocked := e.ipBlacklist[ctx.IPAddress]
				return blocked
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("Originating IP %s is blacklisted", ctx.IPAddress)
			},
		},
		{
			ID:     "NEW_DEVICE_LARGE_AMOUNT",
			Weight: 0.75,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.IsFirstTimeDevice && ctx.Amount.GreaterThan(newDeviceAmountThreshold)
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("First-time device with amount %s above %s", ctx.Amount, newDeviceAmountThreshold)
			},
		},
		{
			ID:     "RAPID_FIRE",
			Weight: 0.7,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.IsRapidFireTransaction
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return "More than 10 transactions within 5 minutes"
			},
		},

		// Medium-risk tier.
		{
			ID:     "UNVERIFIED_EXTERNAL_TRANSFER",
			Weight: 0.6,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.IsExternalTransfer && !ctx.BeneficiaryVerified
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("External transfer via %s to an unverified beneficiary", connectorOrUnknown(ctx))
			},
		},
		{
			ID:     "DAILY_LIMIT_EXCEEDED",
			Weight: 0.6,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.TotalAmountToday.GreaterThan(dailyAmountLimit)
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("Cumulative daily amount %s exceeds %s", ctx.TotalAmountToday, dailyAmountLimit)
			},
		},
		{
			ID:     "UNUSUAL_RECIPIENT",
			Weight: 0.5,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.IsUnusualRecipient
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return "Recipient is unusual for this user"
			},
		},
		{
			ID:     "HIGH_VELOCITY",
			Weight: 0.5,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.TransactionCountToday > dailyVelocityLimit
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("%d transactions today exceeds the limit of %d", ctx.TransactionCountToday, dailyVelocityLimit)
			},
		},
		{
			ID:     "OUTSIDE_NORMAL_HOURS",
			Weight: 0.4,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.IsOutsideNormalHours
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return "Transaction outside the user's normal hours"
			},
		},
		{
			ID:     "AMOUNT_ABOVE_AVERAGE",
			Weight: 0.4,
			Matches: func(ctx *fraud.TransactionContext) bool {
				if ctx.AverageTransactionAmount == nil || !ctx.AverageTransactionAmount.IsPositive() {
					return false
				}
				return ctx.Amount.GreaterThan(ctx.AverageTransactionAmount.Mul(averageAmountMultiple))
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("Amount %s is more than 5x the user's average %s", ctx.Amount, ctx.AverageTransactionAmount)
			},
		},
		{
			ID:     "FIRST_TIME_LOCATION",
			Weight: 0.3,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.IsFirstTimeLocation
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return "Transaction from a first-time location"
			},
		},
		{
			ID:     "RECENT_FAILED_TRANSACTIONS",
			Weight: 0.3,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.HasRecentFailedTransactions
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return "User has recent failed transactions"
			},
		},

		// Low-risk tier.
		{
			ID:     "NEW_ACCOUNT",
			Weight: 0.2,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.AccountAgeDays != nil && *ctx.AccountAgeDays < newAccountMaxDays
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("Account is %d days old", *ctx.AccountAgeDays)
			},
		},
		{
			ID:     "ROUND_AMOUNT",
			Weight: 0.1,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.Amount.IsPositive() && ctx.Amount.Mod(roundAmountUnit).IsZero()
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return fmt.Sprintf("Round amount %s", ctx.Amount)
			},
		},
		{
			ID:     "WEEKEND_TRANSACTION",
			Weight: 0.1,
			Matches: func(ctx *fraud.TransactionContext) bool {
				wd := ctx.Timestamp.UTC().Weekday()
				return wd == time.Saturday || wd == time.Sunday
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return "Weekend transaction"
			},
		},
		{
			ID:     "FIRST_TRANSACTION_TODAY",
			Weight: 0.05,
			Matches: func(ctx *fraud.TransactionContext) bool {
				return ctx.TransactionCountToday == 0
			},
			Reason: func(ctx *fraud.TransactionContext) string {
				return "First transaction of the day"
			},
		},
	}
}

func connectorOrUnknown(ctx *fraud.TransactionContext) string {
	if ctx.BankConnector == "" {
		return "unknown connector"
	}
	return ctx.BankConnector
}
