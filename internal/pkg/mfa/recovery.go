package mfa

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/curiouspay/trust/internal/pkg/hash"
)

// RecoveryCodeGenerator defines an interface for generating recovery codes.
type RecoveryCodeGenerator interface {
	// Generate returns count unique recovery codes or an error if the random
	// source fails. A count of 0 or less yields the default batch size.
	Generate(count int) ([]string, error)
}

// DefaultRecoveryCodeCount is the batch size issued at enrollment.
const DefaultRecoveryCodeCount = 10

// alphabet is the character set used for recovery code generation.
//
// Digits, uppercase, and lowercase letters: 62 characters, high entropy while
// remaining typeable.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RecoveryCode generates cryptographically secure recovery codes.
//
// Codes are formatted as:
//
//	XXXX-XXXX-XXXX
//
// Each X is selected uniformly at random from the alphabet constant.
type RecoveryCode struct{}

// NewRecoveryCode returns a new RecoveryCode generator.
func NewRecoveryCode() *RecoveryCode {
	return &RecoveryCode{}
}

// Generate produces count unique recovery codes using crypto/rand.
func (rc *RecoveryCode) Generate(count int) ([]string, error) {
	if count <= 0 {
		count = DefaultRecoveryCodeCount
	}

	out := make([]string, 0, count)
	seen := make(map[string]struct{}, count)

	for len(out) < count {
		code, err := rc.generateCode()
		if err != nil {
			return nil, err
		}

		// extremely unlikely, but prevents accidental duplicates
		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

func (rc *RecoveryCode) generateCode() (string, error) {
	raw, err := rc.randomString(12)
	if err != nil {
		return "", err
	}
	return raw[0:4] + "-" + raw[4:8] + "-" + raw[8:12], nil
}

func (rc *RecoveryCode) randomString(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)

	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}

	return sb.String(), nil
}

// MatchRecoveryCode verifies code against every stored hash and returns the
// index of the matching one, or -1 when none match.
//
// Every hash is checked even after a match is found, so the work done does
// not reveal which position, if any, held the submitted code.
func MatchRecoveryCode(h hash.Hash, hashes []string, code string) int {
	matched := -1
	for i, stored := range hashes {
		if h.Verify(stored, code) && matched < 0 {
			matched = i
		}
	}

	return matched
}
