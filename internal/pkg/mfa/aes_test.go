package mfa

import (
	"bytes"
	"errors"
	"testing"
)

func testEncryptor() *AESGCMEncryptor {
	return NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x42}, 32)})
}

func TestAESGCMEncryptorRoundTrip(t *testing.T) {
	e := testEncryptor()
	scope := Scope{AccountID: "acct-1", Purpose: PurposeOTPSeed}

	ct, err := e.Encrypt([]byte("GEZDGNBVGY3TQOJQ"), scope)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	pt, err := e.Decrypt(ct, scope)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if string(pt) != "GEZDGNBVGY3TQOJQ" {
		t.Fatalf("Decrypt = %q", pt)
	}
}

func TestAESGCMEncryptorScopeBinding(t *testing.T) {
	e := testEncryptor()

	ct, err := e.Encrypt([]byte("seed"), Scope{AccountID: "acct-1", Purpose: PurposeOTPSeed})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	cases := []Scope{
		{AccountID: "acct-2", Purpose: PurposeOTPSeed},
		{AccountID: "acct-1", Purpose: PurposeRecoveryCode},
	}
	for _, scope := range cases {
		if _, err := e.Decrypt(ct, scope); !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("Decrypt under %+v error = %v, want ErrDecryptFailed", scope, err)
		}
	}
}

func TestAESGCMEncryptorRejectsTamper(t *testing.T) {
	e := testEncryptor()
	scope := Scope{AccountID: "acct-1", Purpose: PurposeOTPSeed}

	ct, err := e.Encrypt([]byte("seed"), scope)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	ct[len(ct)-1] ^= 0x01
	if _, err := e.Decrypt(ct, scope); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("Decrypt of tampered ciphertext error = %v, want ErrDecryptFailed", err)
	}

	if _, err := e.Decrypt(ct[:4], scope); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("Decrypt of truncated ciphertext error = %v, want ErrCiphertextTooShort", err)
	}
}
