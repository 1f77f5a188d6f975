package fraud

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fraud-risk-engine/internal/domain/fraud"
	"fraud-risk-engine/internal/pkg/metrics"
)

// FeatureExtractor converts a transaction context into the feature vector.
type FeatureExtractor interface {
	Extract(ctx *fraud.TransactionContext) fraud.FeatureVector
}

// RuleEvaluator runs the deterministic rule table against a context.
type RuleEvaluator interface {
	Evaluate(ctx *fraud.TransactionContext) fraud.RuleEvaluationResult
}

// TransactionOutcome is the downstream result reported back after a
// transaction was processed.
type TransactionOutcome string

const (
	OutcomeCompleted TransactionOutcome = "COMPLETED"
	OutcomeFailed    TransactionOutcome = "FAILED"
)

// PreFlightResult is the gateway pre-flight decision.
type PreFlightResult struct {
	Allow                 bool    `json:"allow"`
	RequireAdditionalAuth bool    `json:"require_additional_auth"`
	RiskScore             float64 `json:"risk_score"`
}

// FalseNegativeFeedback is published when a transaction failed despite a low
// risk assessment. It feeds model retraining.
type FalseNegativeFeedback struct {
	TransactionID uuid.UUID          `json:"transaction_id"`
	RiskScore     float64            `json:"risk_score"`
	RiskLevel     fraud.RiskLevel    `json:"risk_level"`
	Outcome       TransactionOutcome `json:"outcome"`
	DetectedAt    time.Time          `json:"detected_at"`
}

// Options tunes the engine.
type Options struct {
	AssessmentsTopic string
	HighRiskTopic    string
	FeedbackTopic    string
	ScorerTimeout    time.Duration
	BatchConcurrency int
	DefaultRateLimit int
	RateLimits       map[string]int
}

// Params carries the engine's collaborators. Scorer, Validator and Signals
// are optional; Fallback, Repository and Publisher are required.
type Params struct {
	Extractor  FeatureExtractor
	Rules      RuleEvaluator
	Calculator *fraud.RiskScoreCalculator
	Scorer     fraud.Scorer
	Fallback   fraud.Scorer
	Repository fraud.AssessmentRepository
	Publisher  fraud.EventPublisher
	Validator  fraud.BankValidator
	Signals    fraud.RequestSignals
	Logger     *slog.Logger
	Options    Options
}

// DetectionEngine orchestrates the end-to-end fraud assessment flow. Every
// exported operation honors the fail-safe contract: it returns a value, never
// an error, and never blocks a transaction because of an internal fault.
type DetectionEngine struct {
	extractor  FeatureExtractor
	rules      RuleEvaluator
	calculator *fraud.RiskScoreCalculator
	scorer     fraud.Scorer
	fallback   fraud.Scorer
	repo       fraud.AssessmentRepository
	publisher  fraud.EventPublisher
	validator  fraud.BankValidator
	signals    fraud.RequestSignals
	logger     *slog.Logger
	opts       Options

	background sync.WaitGroup
}

// NewDetectionEngine creates the orchestrator.
func NewDetectionEngine(p Params) *DetectionEngine {
	if p.Options.BatchConcurrency <= 0 {
		p.Options.BatchConcurrency = 8
	}
	if p.Options.ScorerTimeout <= 0 {
		p.Options.ScorerTimeout = 2 * time.Second
	}
	if p.Options.DefaultRateLimit <= 0 {
		p.Options.DefaultRateLimit = 60
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &DetectionEngine{
		extractor:  p.Extractor,
		rules:      p.Rules,
		calculator: p.Calculator,
		scorer:     p.Scorer,
		fallback:   p.Fallback,
		repo:       p.Repository,
		publisher:  p.Publisher,
		validator:  p.Validator,
		signals:    p.Signals,
		logger:     p.Logger,
		opts:       p.Options,
	}
}

// AssessTransaction runs the full assessment pipeline for one transaction.
// On any internal fault it returns a degraded fail-open assessment instead of
// an error.
func (e *DetectionEngine) AssessTransaction(ctx context.Context, tc *fraud.TransactionContext) (assessment *fraud.FraudAssessment) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("assessment panicked, failing open", slog.Any("panic", r))
			assessment = e.degrade(ctx, tc)
		}
		metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
		metrics.AssessmentsTotal.WithLabelValues(string(assessment.RiskLevel)).Inc()
	}()

	if err := tc.Validate(); err != nil {
		e.logger.Warn("invalid transaction context, failing open", slog.String("error", err.Error()))
		return e.degrade(ctx, tc)
	}

	// Re-assessment of a known transaction is idempotent.
	if existing, err := e.repo.FindByTransactionID(ctx, tc.TransactionID); err == nil {
		return existing
	}

	// Feature extraction and rule evaluation are independent; run them
	// concurrently.
	featuresCh := make(chan fraud.FeatureVector, 1)
	go func() {
		featuresCh <- e.extractor.Extract(tc)
	}()
	rules := e.rules.Evaluate(tc)
	features := <-featuresCh

	scorerScore, err := e.score(ctx, features)
	if err != nil {
		e.logger.Error("all scorers failed, failing open",
			slog.String("transaction_id", tc.TransactionID.String()),
			slog.String("error", err.Error()),
		)
		return e.degrade(ctx, tc)
	}

	combined := e.calculator.Combine(rules, scorerScore)
	assessment = fraud.NewFraudAssessment(tc, combined, rules, features)

	e.persist(ctx, assessment)
	e.publish(ctx, assessment)

	e.logger.Info("transaction assessed",
		slog.String("transaction_id", tc.TransactionID.String()),
		slog.Float64("risk_score", assessment.RiskScore),
		slog.String("risk_level", string(assessment.RiskLevel)),
		slog.Int("triggered_rules", len(assessment.TriggeredRules)),
	)
	return assessment
}

// AssessTransactionBatch assesses every context with bounded concurrency.
// Results preserve input order; one context's fault never affects another.
func (e *DetectionEngine) AssessTransactionBatch(ctx context.Context, contexts []*fraud.TransactionContext) []*fraud.FraudAssessment {
	results := make([]*fraud.FraudAssessment, len(contexts))
	if len(contexts) == 0 {
		return results
	}

	workers := e.opts.BatchConcurrency
	if workers > len(contexts) {
		workers = len(contexts)
	}

	type job struct {
		index int
		tc    *fraud.TransactionContext
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = e.AssessTransaction(ctx, j.tc)
			}
		}()
	}
	for i, tc := range contexts {
		jobs <- job{index: i, tc: tc}
	}
	close(jobs)
	wg.Wait()

	return results
}

// AnalyzePostTransaction inspects the downstream outcome of an already
// assessed transaction. It is fire-and-forget: the analysis runs in the
// background and the caller returns immediately. A FAILED outcome on a
// LOW-risk assessment is a suspected false negative and is published as
// model feedback.
func (e *DetectionEngine) AnalyzePostTransaction(transactionID uuid.UUID, outcome TransactionOutcome) {
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("post-transaction analysis panicked", slog.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		assessment, err := e.repo.FindByTransactionID(ctx, transactionID)
		if err != nil {
			e.logger.Warn("post-transaction analysis skipped, assessment not found",
				slog.String("transaction_id", transactionID.String()),
			)
			return
		}

		if outcome != OutcomeFailed || assessment.RiskLevel != fraud.RiskLevelLow {
			return
		}

		feedback := FalseNegativeFeedback{
			TransactionID: transactionID,
			RiskScore:     assessment.RiskScore,
			RiskLevel:     assessment.RiskLevel,
			Outcome:       outcome,
			DetectedAt:    time.Now().UTC(),
		}
		if err := e.publisher.Publish(ctx, e.opts.FeedbackTopic, transactionID.String(), feedback); err != nil {
			metrics.PublishFailuresTotal.WithLabelValues(e.opts.FeedbackTopic).Inc()
			e.logger.Error("failed to publish false negative feedback",
				slog.String("transaction_id", transactionID.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		e.logger.Info("false negative feedback published",
			slog.String("transaction_id", transactionID.String()),
			slog.Float64("original_score", assessment.RiskScore),
		)
	}()
}

// PreFlightCheck is the fast gateway decision made before routing a request.
// It compares recent request volume against the endpoint's rate limit and
// consults IP reputation. Any signal failure fails open.
func (e *DetectionEngine) PreFlightCheck(ctx context.Context, userID uuid.UUID, sessionID, ip, endpoint string) PreFlightResult {
	allow := PreFlightResult{Allow: true, RiskScore: 0.1}
	if e.signals == nil {
		return allow
	}

	limit := e.opts.DefaultRateLimit
	if l, ok := e.opts.RateLimits[endpoint]; ok {
		limit = l
	}

	count, err := e.signals.RecentRequestCount(ctx, userID, sessionID)
	if err != nil {
		e.logger.Warn("pre-flight signals unavailable, failing open", slog.String("error", err.Error()))
		return allow
	}

	result := allow
	switch {
	case count >= int64(2*limit):
		result = PreFlightResult{Allow: false, RiskScore: 0.9}
		metrics.PreflightDenialsTotal.WithLabelValues("deny").Inc()
	case count > int64(limit):
		result = PreFlightResult{Allow: true, RequireAdditionalAuth: true, RiskScore: 0.6}
		metrics.PreflightDenialsTotal.WithLabelValues("additional_auth").Inc()
	}

	suspicious, err := e.signals.IsSuspiciousIP(ctx, ip)
	if err != nil {
		e.logger.Warn("IP reputation lookup failed, ignoring", slog.String("error", err.Error()))
		return result
	}
	if suspicious && result.Allow && !result.RequireAdditionalAuth {
		result.RequireAdditionalAuth = true
		if result.RiskScore < 0.5 {
			result.RiskScore = 0.5
		}
		metrics.PreflightDenialsTotal.WithLabelValues("suspicious_ip").Inc()
	}
	return result
}

// ValidateWithBankConnector confirms the beneficiary account through the
// external bank validator and records the outcome on the stored assessment.
// Validator failure yields an inconclusive result, which is treated as a
// pass.
func (e *DetectionEngine) ValidateWithBankConnector(ctx context.Context, tc *fraud.TransactionContext) fraud.BankValidationResult {
	inconclusive := fraud.BankValidationResult{Inconclusive: true}

	result := inconclusive
	if e.validator != nil && tc != nil {
		r, err := e.validator.Validate(ctx, tc.BankConnector, tc.ToAccountID.String())
		if err != nil {
			e.logger.Warn("bank validation inconclusive",
				slog.String("connector", tc.BankConnector),
				slog.String("error", err.Error()),
			)
		} else {
			result = r
		}
	}

	if tc == nil {
		return result
	}
	assessment, err := e.repo.FindByTransactionID(ctx, tc.TransactionID)
	if err != nil {
		return result
	}
	assessment.SetBankValidation(result.Passed())
	e.persist(ctx, assessment)
	return result
}

// Close waits for in-flight background analyses to finish.
func (e *DetectionEngine) Close() {
	e.background.Wait()
}

// score asks the primary scorer first, bounded by the configured timeout,
// and falls back to the deterministic scorer on any error. An error is
// returned only when the fallback itself fails.
func (e *DetectionEngine) score(ctx context.Context, features fraud.FeatureVector) (float64, error) {
	if e.scorer != nil {
		scoreCtx, cancel := context.WithTimeout(ctx, e.opts.ScorerTimeout)
		score, err := e.scorer.Score(scoreCtx, features)
		cancel()
		if err == nil {
			return score, nil
		}
		metrics.ScorerFallbacksTotal.Inc()
		e.logger.Warn("model scorer failed, using fallback", slog.String("error", err.Error()))
	}
	return e.fallback.Score(ctx, features)
}

// degrade builds, best-effort persists and returns the fail-open assessment.
func (e *DetectionEngine) degrade(ctx context.Context, tc *fraud.TransactionContext) *fraud.FraudAssessment {
	metrics.DegradedAssessmentsTotal.Inc()
	assessment := fraud.NewDegradedAssessment(tc)
	if assessment.TransactionID != uuid.Nil {
		e.persist(ctx, assessment)
	}
	return assessment
}

// persist saves the assessment. Save failures are logged and counted but
// never surfaced: the computed assessment is still returned to the caller.
func (e *DetectionEngine) persist(ctx context.Context, assessment *fraud.FraudAssessment) {
	if err := e.repo.Save(ctx, assessment); err != nil {
		metrics.PersistenceFailuresTotal.Inc()
		e.logger.Error("failed to persist assessment",
			slog.String("transaction_id", assessment.TransactionID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (e *DetectionEngine) publish(ctx context.Context, assessment *fraud.FraudAssessment) {
	key := assessment.TransactionID.String()
	if err := e.publisher.Publish(ctx, e.opts.AssessmentsTopic, key, assessment); err != nil {
		metrics.PublishFailuresTotal.WithLabelValues(e.opts.AssessmentsTopic).Inc()
		e.logger.Error("failed to publish assessment", slog.String("error", err.Error()))
	}
	if assessment.HighRisk() {
		if err := e.publisher.Publish(ctx, e.opts.HighRiskTopic, key, assessment); err != nil {
			metrics.PublishFailuresTotal.WithLabelValues(e.opts.HighRiskTopic).Inc()
			e.logger.Error("failed to publish high-risk alert", slog.String("error", err.Error()))
		}
	}
}
