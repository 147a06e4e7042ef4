package entity

import "errors"

var (
	// ErrNotFound is the storage-agnostic missing-row error.
	ErrNotFound = errors.New("trust: not found")
	// ErrConflict is the storage-agnostic uniqueness-violation error.
	ErrConflict = errors.New("trust: conflict")

	// ErrNotEnrolled indicates the account has no confirmed TOTP enrollment.
	ErrNotEnrolled = errors.New("trust: account is not enrolled in two-factor")
	// ErrAlreadyEnrolled indicates the account already holds a confirmed enrollment.
	ErrAlreadyEnrolled = errors.New("trust: account is already enrolled in two-factor")

	// ErrRecoveryCodeUnknownOrConsumed indicates the submitted recovery code
	// matches no unused entry. Already-consumed and never-issued codes are
	// deliberately indistinguishable.
	ErrRecoveryCodeUnknownOrConsumed = errors.New("trust: recovery code is unknown or already consumed")

	// ErrInvalidPolicyConfiguration indicates a policy that must not be activated.
	ErrInvalidPolicyConfiguration = errors.New("trust: invalid policy configuration")

	// ErrAttemptFinal indicates a step-up submission against an attempt that
	// already reached Approved or Denied.
	ErrAttemptFinal = errors.New("trust: authorization attempt is already final")
)
