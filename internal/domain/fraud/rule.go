package fraud

// TriggeredRule records a deterministic rule that matched the transaction
// context. Blocking is a declared property of the rule, never inferred from
// its weight.
type TriggeredRule struct {
	RuleID   string  `json:"rule_id"`
	Weight   float64 `json:"weight"`
	Reason   string  `json:"reason"`
	Blocking bool    `json:"blocking"`
}

// RuleEvaluationResult is the aggregate outcome of evaluating the full rule
// set against one transaction context.
type RuleEvaluationResult struct {
	TriggeredRules        []TriggeredRule `json:"triggered_rules"`
	MaxRiskScore          float64         `json:"max_risk_score"`
	BlockingRuleTriggered bool            `json:"blocking_rule_triggered"`
}

// Add records a triggered rule and keeps the derived aggregates consistent.
func (r *RuleEvaluationResult) Add(rule TriggeredRule) {
	r.TriggeredRules = append(r.TriggeredRules, rule)
	if rule.Weight > r.MaxRiskScore {
		r.MaxRiskScore = rule.Weight
	}
	if rule.Blocking {
		r.BlockingRuleTriggered = true
	}
}

// Triggered reports whether any rule fired.
func (r *RuleEvaluationResult) Triggered() bool {
	return len(r.TriggeredRules) > 0
}

// RuleIDs returns the ids of all triggered rules, in evaluation order.
func (r *RuleEvaluationResult) RuleIDs() []string {
	ids := make([]string, len(r.TriggeredRules))
	for i, rule := range r.TriggeredRules {
		ids[i] = rule.RuleID
	}
	return ids
}
