package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/curiouspay/trust/internal/trust/entity"
	"github.com/curiouspay/trust/internal/trust/risk"
)

func validAuthorizeInput(amount float64) AuthorizeInput {
	return AuthorizeInput{
		EvaluateInput: EvaluateInput{
			Amount:           amount,
			MerchantName:     "Coffee Shop",
			MerchantCategory: "food",
			Country:          "US",
			TransactionType:  "payment",
			CardLast4:        "4242",
		},
	}
}

// wrongCode derives a syntactically valid 6-digit code that cannot match the
// real one by flipping its last digit.
func wrongCode(code string) string {
	last := code[len(code)-1]
	flipped := byte('0' + (last-'0'+1)%10)
	return code[:len(code)-1] + string(flipped)
}

func TestAuthorizeLowAmountApproved(t *testing.T) {
	uc, repo, _, _ := newTestUsecase(t)

	out, err := uc.Authorize(authCtx(), validAuthorizeInput(50))
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}

	if out.State != entity.AttemptStateApproved {
		t.Fatalf("State = %s, want Approved", out.State)
	}
	if !out.Decision.Approved || out.Decision.RequiresStepUp {
		t.Fatalf("Decision = %+v, want approved without step-up", out.Decision)
	}

	att, err := repo.GetAttempt(context.Background(), out.AttemptID, testAccountID)
	if err != nil {
		t.Fatalf("GetAttempt error: %v", err)
	}
	if att.State != entity.AttemptStateApproved {
		t.Fatalf("stored attempt state = %s, want Approved", att.State)
	}
}

func TestAuthorizeAboveThresholdRequiresStepUp(t *testing.T) {
	uc, repo, _, _ := newTestUsecase(t)

	out, err := uc.Authorize(authCtx(), validAuthorizeInput(150))
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}

	if out.State != entity.AttemptStateStepUpRequired {
		t.Fatalf("State = %s, want StepUpRequired", out.State)
	}
	if !out.Decision.RequiresStepUp {
		t.Fatal("Decision.RequiresStepUp = false, want true")
	}

	att, err := repo.GetAttempt(context.Background(), out.AttemptID, testAccountID)
	if err != nil {
		t.Fatalf("GetAttempt error: %v", err)
	}
	if att.State != entity.AttemptStateStepUpRequired {
		t.Fatalf("stored attempt state = %s, want StepUpRequired", att.State)
	}
}

func TestAuthorizeDeniedByPolicy(t *testing.T) {
	uc, _, _, _ := newTestUsecase(t)

	out, err := uc.Authorize(authCtx(), validAuthorizeInput(6000))
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}

	if out.State != entity.AttemptStateDenied {
		t.Fatalf("State = %s, want Denied", out.State)
	}
	if out.Decision.Reason != risk.ReasonAmountExceedsLimit {
		t.Fatalf("Reason = %q, want %q", out.Decision.Reason, risk.ReasonAmountExceedsLimit)
	}
	if out.Decision.RequiresStepUp {
		t.Fatal("denied transaction must not request step-up")
	}
}

func TestAuthorizeInlineStepUpApproves(t *testing.T) {
	uc, _, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())
	clk.Advance(30 * time.Second)

	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	in := validAuthorizeInput(150)
	in.StepUpCode = code

	out, err := uc.Authorize(authCtx(), in)
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}

	if out.State != entity.AttemptStateApproved {
		t.Fatalf("State = %s, want Approved", out.State)
	}
}

func TestAuthorizeInlineStepUpWrongCodeDenies(t *testing.T) {
	uc, repo, engine, clk := newTestUsecase(t)

	secret, _ := enrollConfirmed(t, uc, engine, clk.Now())
	clk.Advance(30 * time.Second)

	code, err := engine.CodeAt(secret, engine.Step(clk.Now()))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	in := validAuthorizeInput(150)
	in.StepUpCode = wrongCode(code)

	if _, err := uc.Authorize(authCtx(), in); err == nil {
		t.Fatal("Authorize with wrong code: want error, got nil")
	}

	// the failed submission must still burn the attempt as Denied
	var denied bool
	repo.mu.Lock()
	for _, att := range repo.attempts {
		if att.State == entity.AttemptStateDenied {
			denied = true
		}
	}
	repo.mu.Unlock()
	if !denied {
		t.Fatal("no Denied attempt stored after failed inline step-up")
	}
}

func TestAuthorizeMalformedInlineCodeDoesNotPersist(t *testing.T) {
	uc, repo, engine, clk := newTestUsecase(t)

	enrollConfirmed(t, uc, engine, clk.Now())

	priorAttempts := len(repo.attempts)

	in := validAuthorizeInput(150)
	in.StepUpCode = "not a code"

	if _, err := uc.Authorize(authCtx(), in); err == nil {
		t.Fatal("Authorize with malformed code: want error, got nil")
	}

	repo.mu.Lock()
	got := len(repo.attempts)
	repo.mu.Unlock()
	if got != priorAttempts {
		t.Fatalf("attempts stored = %d, want %d; malformed codes must not create attempts", got, priorAttempts)
	}
}

func TestAuthorizeRejectsInvalidInput(t *testing.T) {
	uc, _, _, _ := newTestUsecase(t)

	in := validAuthorizeInput(150)
	in.Amount = 0

	if _, err := uc.Authorize(authCtx(), in); err == nil {
		t.Fatal("Authorize with zero amount: want error, got nil")
	}
}

func TestAuthorizeRequiresAuthentication(t *testing.T) {
	uc, _, _, _ := newTestUsecase(t)

	if _, err := uc.Authorize(context.Background(), validAuthorizeInput(50)); err == nil {
		t.Fatal("Authorize without claims: want error, got nil")
	}
}

func TestAuthorizeNoActivePolicy(t *testing.T) {
	uc, repo, _, _ := newTestUsecase(t)
	repo.policy = nil

	if _, err := uc.Authorize(authCtx(), validAuthorizeInput(50)); err == nil {
		t.Fatal("Authorize without policy: want error, got nil")
	}
}
