package fraud

const (
	// baseRiskScore applies when no deterministic rule fired.
	baseRiskScore = 0.1

	// corroborationBonus rewards each additional triggered rule, capped so
	// that many weak signals cannot dominate one strong signal.
	corroborationBonus    = 0.05
	corroborationBonusCap = 0.2

	ruleScoreWeight   = 0.6
	scorerScoreWeight = 0.4

	// blockingFloor is the minimum combined score once a blocking rule fired.
	blockingFloor = 0.8
)

// RiskScoreCalculator blends the deterministic rule outcome with the scoring
// model output into a single risk score in [0,1]. It is a pure, total
// function of its inputs.
type RiskScoreCalculator struct{}

// NewRiskScoreCalculator creates a risk score calculator.
func NewRiskScoreCalculator() *RiskScoreCalculator {
	return &RiskScoreCalculator{}
}

// RuleScore converts a rule evaluation result into a score in [0,1].
func (c *RiskScoreCalculator) RuleScore(rules RuleEvaluationResult) float64 {
	if !rules.Triggered() {
		return baseRiskScore
	}
	bonus := corroborationBonus * float64(len(rules.TriggeredRules))
	if bonus > corroborationBonusCap {
		bonus = corroborationBonusCap
	}
	score := rules.MaxRiskScore + bonus
	if score > 1 {
		score = 1
	}
	return score
}

// Combine produces the final risk score from the rule result and the scorer
// output. A blocking rule forces the combined score to at least the blocking
// floor regardless of the model's opinion.
func (c *RiskScoreCalculator) Combine(rules RuleEvaluationResult, scorerScore float64) float64 {
	combined := c.RuleScore(rules)*ruleScoreWeight + scorerScore*scorerScoreWeight
	if rules.BlockingRuleTriggered && combined < blockingFloor {
		combined = blockingFloor
	}
	if combined < 0 {
		return 0
	}
	if combined > 1 {
		return 1
	}
	return combined
}
