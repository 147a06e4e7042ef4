package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/curiouspay/trust/internal/pkg/otp"
	"github.com/curiouspay/trust/internal/trust/entity"
)

func TestEnrollIssuesSecretAndRecoveryCodes(t *testing.T) {
	uc, repo, _, _ := newTestUsecase(t)

	out, err := uc.Enroll(authCtx(), EnrollInput{})
	if err != nil {
		t.Fatalf("Enroll error: %v", err)
	}

	if out.Secret == "" || out.EnrollmentURI == "" {
		t.Fatal("Enroll returned empty secret or URI")
	}
	if len(out.RecoveryCodes) != 10 {
		t.Fatalf("recovery codes = %d, want 10", len(out.RecoveryCodes))
	}

	enr := repo.enrollments[testAccountID]
	if enr == nil {
		t.Fatal("enrollment not stored")
	}
	if enr.Confirmed {
		t.Fatal("fresh enrollment must start unconfirmed")
	}
	if string(enr.SecretCiphertext) == out.Secret {
		t.Fatal("secret stored in plaintext")
	}
}

func TestEnrollCustomRecoveryCodeCount(t *testing.T) {
	uc, _, _, _ := newTestUsecase(t)

	out, err := uc.Enroll(authCtx(), EnrollInput{RecoveryCodeCount: 5})
	if err != nil {
		t.Fatalf("Enroll error: %v", err)
	}
	if len(out.RecoveryCodes) != 5 {
		t.Fatalf("recovery codes = %d, want 5", len(out.RecoveryCodes))
	}
}

func TestEnrollConflictsWhenConfirmed(t *testing.T) {
	uc, _, engine, clk := newTestUsecase(t)

	enrollConfirmed(t, uc, engine, clk.Now())

	_, err := uc.Enroll(authCtx(), EnrollInput{})
	if !errors.Is(err, entity.ErrAlreadyEnrolled) {
		t.Fatalf("Enroll after confirmation: err = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestEnrollReplacesUnconfirmedEnrollment(t *testing.T) {
	uc, _, _, _ := newTestUsecase(t)

	first, err := uc.Enroll(authCtx(), EnrollInput{})
	if err != nil {
		t.Fatalf("first Enroll error: %v", err)
	}

	second, err := uc.Enroll(authCtx(), EnrollInput{})
	if err != nil {
		t.Fatalf("second Enroll error: %v", err)
	}

	if first.Secret == second.Secret {
		t.Fatal("re-enrollment must issue a fresh secret")
	}
}

func TestVerifyStepUpConfirmsEnrollment(t *testing.T) {
	uc, repo, engine, clk := newTestUsecase(t)

	enrollConfirmed(t, uc, engine, clk.Now())

	if !repo.enrollments[testAccountID].Confirmed {
		t.Fatal("first successful verification must confirm the enrollment")
	}
}

func TestVerifyStepUpRejectsReplay(t *testing.T) {
	uc, _, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())
	clk.Advance(30 * time.Second)

	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	if _, err := uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: code}); err != nil {
		t.Fatalf("first VerifyStepUp error: %v", err)
	}

	_, err = uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: code})
	if !errors.Is(err, otp.ErrCodeReplayed) {
		t.Fatalf("replayed code: err = %v, want ErrCodeReplayed", err)
	}
}

func TestVerifyStepUpRejectsWrongCode(t *testing.T) {
	uc, _, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())
	clk.Advance(30 * time.Second)

	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	_, err = uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: wrongCode(code)})
	if !errors.Is(err, otp.ErrCodeInvalid) {
		t.Fatalf("wrong code: err = %v, want ErrCodeInvalid", err)
	}
}

func TestVerifyStepUpNotEnrolled(t *testing.T) {
	uc, _, _, _ := newTestUsecase(t)

	_, err := uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: "123456"})
	if !errors.Is(err, entity.ErrNotEnrolled) {
		t.Fatalf("err = %v, want ErrNotEnrolled", err)
	}
}

func TestVerifyStepUpRecoveryCodeSingleUse(t *testing.T) {
	uc, _, engine, clk := newTestUsecase(t)

	_, codes := enrollConfirmed(t, uc, engine, clk.Now())

	out, err := uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: codes[0]})
	if err != nil {
		t.Fatalf("VerifyStepUp with recovery code error: %v", err)
	}
	if out.Factor != entity.FactorTypeRecoveryCode {
		t.Fatalf("Factor = %s, want RecoveryCode", out.Factor)
	}

	_, err = uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: codes[0]})
	if !errors.Is(err, entity.ErrRecoveryCodeUnknownOrConsumed) {
		t.Fatalf("reused recovery code: err = %v, want ErrRecoveryCodeUnknownOrConsumed", err)
	}
}

func TestVerifyStepUpRecoveryCodeRequiresConfirmed(t *testing.T) {
	uc, _, _, _ := newTestUsecase(t)

	out, err := uc.Enroll(authCtx(), EnrollInput{})
	if err != nil {
		t.Fatalf("Enroll error: %v", err)
	}

	_, err = uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: out.RecoveryCodes[0]})
	if !errors.Is(err, entity.ErrNotEnrolled) {
		t.Fatalf("recovery before confirmation: err = %v, want ErrNotEnrolled", err)
	}
}

func TestVerifyStepUpFinalizesPendingAttempt(t *testing.T) {
	uc, _, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())

	pending, err := uc.Authorize(authCtx(), validAuthorizeInput(150))
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}
	if pending.State != entity.AttemptStateStepUpRequired {
		t.Fatalf("State = %s, want StepUpRequired", pending.State)
	}

	clk.Advance(30 * time.Second)
	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	out, err := uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: code, AttemptID: pending.AttemptID})
	if err != nil {
		t.Fatalf("VerifyStepUp error: %v", err)
	}
	if !out.Approved || out.AttemptState != entity.AttemptStateApproved {
		t.Fatalf("out = %+v, want approved attempt", out)
	}

	// the attempt accepted its single submission; a second one must not land
	clk.Advance(30 * time.Second)
	code, err = engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	_, err = uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: code, AttemptID: pending.AttemptID})
	if !errors.Is(err, entity.ErrAttemptFinal) {
		t.Fatalf("second submission: err = %v, want ErrAttemptFinal", err)
	}
}

func TestVerifyStepUpFailedSubmissionDeniesAttempt(t *testing.T) {
	uc, repo, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())

	pending, err := uc.Authorize(authCtx(), validAuthorizeInput(150))
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}

	clk.Advance(30 * time.Second)
	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	if _, err := uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: wrongCode(code), AttemptID: pending.AttemptID}); err == nil {
		t.Fatal("wrong code bound to attempt: want error, got nil")
	}

	att := repo.attempts[pending.AttemptID]
	if att.State != entity.AttemptStateDenied {
		t.Fatalf("attempt state = %s, want Denied", att.State)
	}
}

func TestVerifyStepUpMalformedCodeKeepsAttemptPending(t *testing.T) {
	uc, repo, engine, clk := newTestUsecase(t)

	enrollConfirmed(t, uc, engine, clk.Now())

	pending, err := uc.Authorize(authCtx(), validAuthorizeInput(150))
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}

	if _, err := uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: "??????", AttemptID: pending.AttemptID}); err == nil {
		t.Fatal("malformed code: want error, got nil")
	}

	att := repo.attempts[pending.AttemptID]
	if att.State != entity.AttemptStateStepUpRequired {
		t.Fatalf("attempt state = %s, want StepUpRequired; malformed codes must not burn the submission", att.State)
	}
}

func TestDisableTwoFactor(t *testing.T) {
	uc, repo, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())
	clk.Advance(30 * time.Second)

	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	if err := uc.DisableTwoFactor(authCtx(), DisableTwoFactorInput{Code: code}); err != nil {
		t.Fatalf("DisableTwoFactor error: %v", err)
	}

	if _, ok := repo.enrollments[testAccountID]; ok {
		t.Fatal("enrollment still present after disable")
	}
	if len(repo.recovery[testAccountID]) != 0 {
		t.Fatal("recovery codes still present after disable")
	}
}

func TestDisableTwoFactorRejectsWrongCode(t *testing.T) {
	uc, repo, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())
	clk.Advance(30 * time.Second)

	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	if err := uc.DisableTwoFactor(authCtx(), DisableTwoFactorInput{Code: wrongCode(code)}); err == nil {
		t.Fatal("DisableTwoFactor with wrong code: want error, got nil")
	}

	if _, ok := repo.enrollments[testAccountID]; !ok {
		t.Fatal("enrollment removed despite failed verification")
	}
}
