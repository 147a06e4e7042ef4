package entity

import "time"

// TransactionRequest is the immutable input to a risk evaluation.
type TransactionRequest struct {
	// Amount is the transaction amount, always positive.
	Amount float64
	// MerchantName is the display name of the counterparty.
	MerchantName string
	// MerchantCategory is the category slug, matched against the policy allowlist.
	MerchantCategory string
	// Country is the ISO 3166-1 alpha-2 country of the merchant.
	Country string
	// TransactionType is payment, transfer, or refund.
	TransactionType string
	// CardLast4 is the last four digits of the funding card.
	CardLast4 string
	// ExternalRiskScore is an optional pre-computed soft signal from an
	// upstream fraud system, added to the score as-is.
	ExternalRiskScore int
}

// RiskDecision is the outcome of evaluating one request against a policy.
// Produced fresh per request, never mutated afterwards.
type RiskDecision struct {
	// Approved is false only for hard-fail policy violations.
	Approved bool `json:"approved"`
	// RequiresStepUp is true when the amount crosses the step-up threshold,
	// independent of risk level.
	RequiresStepUp bool `json:"requires_step_up"`
	// RiskLevel classifies the soft-risk score.
	RiskLevel RiskLevel `json:"risk_level"`
	// Score is the raw soft-risk score behind RiskLevel.
	Score int `json:"score"`
	// Reason is set only on denial, using a fixed priority when several
	// checks fail at once.
	Reason string `json:"reason,omitempty"`
}

// AuthorizationAttempt is the persisted state machine for one authorize call.
type AuthorizationAttempt struct {
	ID        string
	AccountID string
	State     AttemptState
	Decision  RiskDecision
	Factor    FactorType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Enrollment is the stored two-factor state for one account.
type Enrollment struct {
	AccountID string
	// SecretCiphertext is the AES-GCM sealed TOTP secret. Plaintext exists
	// only transiently inside enroll and verify calls.
	SecretCiphertext []byte
	// ReplayCursor is the highest accepted time step.
	ReplayCursor int64
	// Confirmed flips when the first valid code is verified after enrollment.
	Confirmed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecoveryCodeRecord is one stored recovery code hash.
type RecoveryCodeRecord struct {
	ID        int64
	AccountID string
	Hash      string
	CreatedAt time.Time
}
