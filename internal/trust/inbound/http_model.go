package inbound

import "github.com/curiouspay/trust/internal/trust/entity"

type EnrollRequest struct {
	RecoveryCodeCount int `json:"recovery_code_count,omitempty"`
}

// EnrollResponse is shown once. The secret and recovery codes cannot be
// retrieved again through any endpoint.
type EnrollResponse struct {
	Secret        string   `json:"secret"`
	EnrollmentURI string   `json:"enrollment_uri"`
	RecoveryCodes []string `json:"recovery_codes"`
}

func (EnrollResponse) Message() string {
	return "Two-factor enrollment created. Store the recovery codes now; they will not be shown again."
}

type VerifyStepUpRequest struct {
	Code      string `json:"code"`
	AttemptID string `json:"attempt_id,omitempty"`
}

type VerifyStepUpResponse struct {
	Approved     bool   `json:"approved"`
	Factor       string `json:"factor"`
	AttemptState string `json:"attempt_state,omitempty"`
}

type DisableTwoFactorRequest struct {
	Code string `json:"code"`
}

type DisableTwoFactorResponse struct{}

func (DisableTwoFactorResponse) Message() string {
	return "Two-factor authentication disabled."
}

type TransactionRequest struct {
	Amount            float64 `json:"amount"`
	MerchantName      string  `json:"merchant_name"`
	MerchantCategory  string  `json:"merchant_category"`
	Country           string  `json:"country"`
	TransactionType   string  `json:"transaction_type"`
	CardLast4         string  `json:"card_last4,omitempty"`
	ExternalRiskScore int     `json:"external_risk_score,omitempty"`
}

type DecisionResponse struct {
	Approved       bool   `json:"approved"`
	RequiresStepUp bool   `json:"requires_step_up"`
	RiskLevel      string `json:"risk_level"`
	Score          int    `json:"score"`
	Reason         string `json:"reason,omitempty"`
}

func decisionResponse(d entity.RiskDecision) DecisionResponse {
	return DecisionResponse{
		Approved:       d.Approved,
		RequiresStepUp: d.RequiresStepUp,
		RiskLevel:      d.RiskLevel.String(),
		Score:          d.Score,
		Reason:         d.Reason,
	}
}

type AuthorizeRequest struct {
	TransactionRequest
	StepUpCode string `json:"step_up_code,omitempty"`
}

type AuthorizeResponse struct {
	AttemptID string           `json:"attempt_id"`
	State     string           `json:"state"`
	Decision  DecisionResponse `json:"decision"`
}

type PolicyResponse struct {
	Version                   int64    `json:"version"`
	MaxTransactionAmount      float64  `json:"max_transaction_amount"`
	RequirePinAboveAmount     float64  `json:"require_pin_above_amount"`
	AllowedCountries          []string `json:"allowed_countries"`
	AllowedMerchantCategories []string `json:"allowed_merchant_categories"`
	HighRiskMerchantKeywords  []string `json:"high_risk_merchant_keywords"`
}

type ReplacePolicyRequest struct {
	MaxTransactionAmount      float64  `json:"max_transaction_amount"`
	RequirePinAboveAmount     float64  `json:"require_pin_above_amount"`
	AllowedCountries          []string `json:"allowed_countries"`
	AllowedMerchantCategories []string `json:"allowed_merchant_categories"`
	HighRiskMerchantKeywords  []string `json:"high_risk_merchant_keywords"`
}

type ReplacePolicyResponse struct {
	Version int64 `json:"version"`
}

func (ReplacePolicyResponse) Message() string {
	return "Risk policy replaced."
}
