package mfa

import (
	"regexp"
	"testing"

	"github.com/curiouspay/trust/internal/pkg/hash"
)

var reCode = regexp.MustCompile(`^[0-9A-Za-z]{4}-[0-9A-Za-z]{4}-[0-9A-Za-z]{4}$`)

func TestRecoveryCodeGenerate(t *testing.T) {
	rc := NewRecoveryCode()

	codes, err := rc.Generate(0)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(codes) != DefaultRecoveryCodeCount {
		t.Fatalf("Generate(0) returned %d codes, want %d", len(codes), DefaultRecoveryCodeCount)
	}

	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if !reCode.MatchString(code) {
			t.Fatalf("code %q does not match XXXX-XXXX-XXXX", code)
		}
		if _, ok := seen[code]; ok {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = struct{}{}
	}

	five, err := rc.Generate(5)
	if err != nil {
		t.Fatalf("Generate(5) error: %v", err)
	}
	if len(five) != 5 {
		t.Fatalf("Generate(5) returned %d codes", len(five))
	}
}

func TestMatchRecoveryCode(t *testing.T) {
	// Arrange
	hasher := hash.NewArgon2id("pepper")
	codes := []string{"AAAA-BBBB-CCCC", "DDDD-EEEE-FFFF", "GGGG-HHHH-IIII"}

	hashes := make([]string, len(codes))
	for i, code := range codes {
		h, err := hasher.Hash(code)
		if err != nil {
			t.Fatalf("Hash error: %v", err)
		}
		hashes[i] = string(h)
	}

	// Act / Assert
	if idx := MatchRecoveryCode(hasher, hashes, "DDDD-EEEE-FFFF"); idx != 1 {
		t.Fatalf("MatchRecoveryCode = %d, want 1", idx)
	}
	if idx := MatchRecoveryCode(hasher, hashes, "ZZZZ-ZZZZ-ZZZZ"); idx != -1 {
		t.Fatalf("MatchRecoveryCode for unknown code = %d, want -1", idx)
	}
	if idx := MatchRecoveryCode(hasher, nil, "AAAA-BBBB-CCCC"); idx != -1 {
		t.Fatalf("MatchRecoveryCode against empty set = %d, want -1", idx)
	}
}
