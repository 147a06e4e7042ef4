// Package risk evaluates transaction requests against the active policy.
//
// Evaluation is a pure function of (request, policy): no clock, no I/O, no
// hidden state, safe for unbounded parallelism.
package risk

import "github.com/curiouspay/trust/internal/trust/entity"

// Denial reasons, reported in a fixed priority order so concurrent or
// reordered checks can never change which reason the caller sees.
const (
	ReasonAmountNotPositive  = "amount must be positive"
	ReasonAmountExceedsLimit = "amount exceeds limit"
	ReasonCategoryNotAllowed = "merchant category not allowed"
	ReasonCountryNotAllowed  = "country not allowed"
	ReasonHighRiskMerchant   = "high risk merchant detected"
)

// Score weights and thresholds. The top amount band weighs enough to reach
// RiskLevelHigh with no other signal.
const (
	scoreAmountHighBand   = 5 // amount > 80% of cap
	scoreAmountMediumBand = 2 // amount > 50% of cap
	scoreAmountLowBand    = 1 // amount > 20% of cap
	scoreKeywordNearMiss  = 3

	levelHighAt   = 5
	levelMediumAt = 3
)

// Engine produces RiskDecisions. It is stateless; one instance serves all
// requests.
type Engine struct{}

// New constructs an Engine.
func New() *Engine {
	return &Engine{}
}

// Evaluate checks req against policy and returns a fresh decision.
//
// Hard-fail predicates run first: amount cap, category allowlist, country
// allowlist, merchant keyword block. Any failure denies with risk level high
// and the highest-priority reason. Only approved requests are scored, and the
// step-up flag depends solely on the amount threshold.
//
// The policy must have passed Validate; malformed policies are rejected at
// load time and never reach this path.
func (e *Engine) Evaluate(req entity.TransactionRequest, policy *entity.RiskPolicy) entity.RiskDecision {
	if reason, ok := e.hardFail(req, policy); ok {
		return entity.RiskDecision{
			Approved:       false,
			RequiresStepUp: false,
			RiskLevel:      entity.RiskLevelHigh,
			Reason:         reason,
		}
	}

	score := e.score(req, policy)

	return entity.RiskDecision{
		Approved:       true,
		RequiresStepUp: req.Amount > policy.RequirePinAboveAmount,
		RiskLevel:      levelFor(score),
		Score:          score,
	}
}

// hardFail returns the denial reason in fixed priority order: amount, then
// category, then country, then merchant keyword.
func (e *Engine) hardFail(req entity.TransactionRequest, policy *entity.RiskPolicy) (string, bool) {
	switch {
	case req.Amount <= 0:
		return ReasonAmountNotPositive, true
	case req.Amount > policy.MaxTransactionAmount:
		return ReasonAmountExceedsLimit, true
	case !policy.AllowsCategory(req.MerchantCategory):
		return ReasonCategoryNotAllowed, true
	case !policy.AllowsCountry(req.Country):
		return ReasonCountryNotAllowed, true
	case policy.KeywordHit(req.MerchantName):
		return ReasonHighRiskMerchant, true
	default:
		return "", false
	}
}

// score sums the soft signals of an already-approved request. Allowlist
// membership contributes nothing here; those checks are hard-fail only.
func (e *Engine) score(req entity.TransactionRequest, policy *entity.RiskPolicy) int {
	var score int

	// highest applicable amount band only
	switch {
	case req.Amount > policy.MaxTransactionAmount*0.8:
		score += scoreAmountHighBand
	case req.Amount > policy.MaxTransactionAmount*0.5:
		score += scoreAmountMediumBand
	case req.Amount > policy.MaxTransactionAmount*0.2:
		score += scoreAmountLowBand
	}

	if policy.KeywordNearMiss(req.MerchantName) {
		score += scoreKeywordNearMiss
	}

	if req.ExternalRiskScore > 0 {
		score += req.ExternalRiskScore
	}

	return score
}

func levelFor(score int) entity.RiskLevel {
	switch {
	case score >= levelHighAt:
		return entity.RiskLevelHigh
	case score >= levelMediumAt:
		return entity.RiskLevelMedium
	default:
		return entity.RiskLevelLow
	}
}
