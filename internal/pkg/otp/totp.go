package otp

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	// ErrCodeInvalid indicates the submitted code matches no step in the
	// accepted window.
	ErrCodeInvalid = errors.New("otp: invalid code")

	// ErrCodeReplayed indicates the submitted code is correct but its time
	// step has already been consumed.
	ErrCodeReplayed = errors.New("otp: code already used")
)

// Engine derives and verifies TOTP codes for base32-encoded secrets.
type Engine struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewEngine constructs an Engine with sensible defaults.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period. A skew of 1 accepts the adjacent step on each
// side of the current one.
func NewEngine(issuer string, period, skew uint, digits otp.Digits) *Engine {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	return &Engine{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// Generate creates a fresh random secret and provisioning URI for an account
// name. The secret comes from the library's CSPRNG and carries no relation to
// the account name or the current time.
func (e *Engine) Generate(accountName string) (secret string, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: accountName,
		Period:      e.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      e.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// Step returns the time step counter for the given instant.
func (e *Engine) Step(at time.Time) int64 {
	return at.Unix() / int64(e.period)
}

// CodeAt derives the code for a secret at a specific time step.
func (e *Engine) CodeAt(secret string, step int64) (string, error) {
	return totp.GenerateCodeCustom(secret, time.Unix(step*int64(e.period), 0).UTC(), totp.ValidateOpts{
		Period:    e.period,
		Digits:    e.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Verify checks code against the window of steps around at and enforces the
// replay cursor. On success it returns the matched step, which the caller
// must persist as the new cursor before treating the code as consumed.
//
// All candidate steps are derived and compared before the verdict so the
// comparison cost does not depend on which step, if any, matched. A correct
// code at or below cursor yields ErrCodeReplayed; no match at all yields
// ErrCodeInvalid.
func (e *Engine) Verify(secret, code string, at time.Time, cursor int64) (int64, error) {
	current := e.Step(at)

	// whole window already consumed; nothing to derive
	if current+int64(e.skew) <= cursor {
		return 0, ErrCodeReplayed
	}

	matched := int64(-1)
	for d := -int64(e.skew); d <= int64(e.skew); d++ {
		step := current + d
		if step < 0 {
			continue
		}

		candidate, err := e.CodeAt(secret, step)
		if err != nil {
			return 0, err
		}

		// highest matching step wins; keep scanning regardless
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			matched = step
		}
	}

	if matched < 0 {
		return 0, ErrCodeInvalid
	}

	if matched <= cursor {
		return 0, ErrCodeReplayed
	}

	return matched, nil
}
