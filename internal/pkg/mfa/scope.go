package mfa

// Purpose identifies the encryption purpose.
type Purpose string

const (
	// PurposeOTPSeed scopes encryption to TOTP shared secrets.
	PurposeOTPSeed Purpose = "otp_seed"
	// PurposeRecoveryCode scopes encryption to recovery code material.
	PurposeRecoveryCode Purpose = "recovery_code"
)

// Scope binds encryption to account-specific identifiers.
// It is used as AAD (Additional Authenticated Data) in AES-GCM, so ciphertext
// produced for one account or purpose will not decrypt under another.
type Scope struct {
	// AccountID is the account identifier for scoping.
	AccountID string
	// Purpose is the encryption purpose.
	Purpose Purpose
}
