package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/curiouspay/trust/internal/pkg/goerror"
	"github.com/curiouspay/trust/internal/pkg/mfa"
	"github.com/curiouspay/trust/internal/pkg/otp"
	"github.com/curiouspay/trust/internal/trust/entity"
)

var (
	reTOTPCode     = regexp.MustCompile(`^[0-9]{6}$`)
	reRecoveryCode = regexp.MustCompile(`^[0-9A-Za-z]{4}-[0-9A-Za-z]{4}-[0-9A-Za-z]{4}$`)
)

// VerifyStepUpInput carries one step-up submission. Code is either a 6-digit
// TOTP code or a recovery code; AttemptID optionally binds the submission to
// a pending authorization attempt.
type VerifyStepUpInput struct {
	Code      string `validate:"required,max=64"`
	AttemptID string `validate:"omitempty,uuid"`
}

// VerifyStepUpOutput reports the accepted factor and, when an attempt was
// bound, its final state.
type VerifyStepUpOutput struct {
	Approved     bool
	Factor       entity.FactorType
	AttemptState entity.AttemptState
}

// VerifyStepUp verifies a second-factor submission for the authenticated
// account. A bound attempt accepts exactly one submission: success finalizes
// it as Approved, failure as Denied. Either way the attempt is terminal
// afterwards.
func (s *Usecase) VerifyStepUp(ctx context.Context, in VerifyStepUpInput) (*VerifyStepUpOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyStepUp")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var attempt *entity.AuthorizationAttempt
	if in.AttemptID != "" {
		attempt, err = s.pendingAttempt(ctx, in.AttemptID, clm.AccountID)
		if err != nil {
			return nil, err
		}
	}

	factor, verifyErr := s.verifyFactor(ctx, clm.AccountID, in.Code)

	// a malformed code is not a factor submission and does not burn the
	// attempt's single try
	if factor == entity.FactorTypeUnknown {
		return nil, verifyErr
	}

	if attempt != nil {
		to := entity.AttemptStateApproved
		if verifyErr != nil {
			to = entity.AttemptStateDenied
		}

		moved, trErr := s.repoDB.TransitionAttempt(ctx, attempt.ID, entity.AttemptStateStepUpRequired, to, factor)
		if trErr != nil {
			slog.ErrorContext(ctx, "failed to transition attempt", "attempt_id", attempt.ID, "error", trErr)
			return nil, goerror.NewServer(trErr)
		}
		if !moved {
			return nil, goerror.NewBusinessWrap(entity.ErrAttemptFinal, "authorization attempt is already final", goerror.CodeConflict)
		}

		if verifyErr != nil {
			slog.WarnContext(ctx, "step-up denied", "account_id", clm.AccountID, "attempt_id", attempt.ID)
			return nil, verifyErr
		}

		slog.InfoContext(ctx, "step-up approved", "account_id", clm.AccountID, "attempt_id", attempt.ID, "factor", factor.String())

		return &VerifyStepUpOutput{Approved: true, Factor: factor, AttemptState: to}, nil
	}

	if verifyErr != nil {
		return nil, verifyErr
	}

	slog.InfoContext(ctx, "step-up verified", "account_id", clm.AccountID, "factor", factor.String())

	return &VerifyStepUpOutput{Approved: true, Factor: factor}, nil
}

// pendingAttempt loads an attempt that is still waiting for its single
// step-up submission.
func (s *Usecase) pendingAttempt(ctx context.Context, id, accountID string) (*entity.AuthorizationAttempt, error) {
	attempt, err := s.repoDB.GetAttempt(ctx, id, accountID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, goerror.NewBusiness("authorization attempt not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load attempt", "attempt_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if attempt.State.IsTerminal() {
		return nil, goerror.NewBusinessWrap(entity.ErrAttemptFinal, "authorization attempt is already final", goerror.CodeConflict)
	}
	if attempt.State != entity.AttemptStateStepUpRequired {
		return nil, goerror.NewBusiness("authorization attempt does not require step-up", goerror.CodeConflict)
	}

	return attempt, nil
}

// verifyFactor checks a submitted code against the account's TOTP secret or
// its recovery code set. The submitted code never reaches logs or responses.
func (s *Usecase) verifyFactor(ctx context.Context, accountID, code string) (entity.FactorType, error) {
	switch {
	case reTOTPCode.MatchString(code):
		return entity.FactorTypeTOTP, s.verifyTOTP(ctx, accountID, code)
	case reRecoveryCode.MatchString(code):
		return entity.FactorTypeRecoveryCode, s.verifyRecoveryCode(ctx, accountID, code)
	default:
		return entity.FactorTypeUnknown, goerror.NewInvalidFormat("code must be a 6-digit code or a recovery code")
	}
}

func (s *Usecase) verifyTOTP(ctx context.Context, accountID, code string) error {
	enr, err := s.enrollment(ctx, accountID)
	if err != nil {
		return err
	}

	secret, err := s.mfaEncryptor.Decrypt(enr.SecretCiphertext, mfa.Scope{
		AccountID: accountID,
		Purpose:   mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to unseal totp secret", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	local := s.cursor(accountID)
	step, err := s.engine.Verify(string(secret), code, s.clock.Now(), max(enr.ReplayCursor, local.Load()))
	if errors.Is(err, otp.ErrCodeInvalid) {
		slog.WarnContext(ctx, "totp code rejected", "account_id", accountID)
		return goerror.NewBusinessWrap(err, "invalid code", goerror.CodeUnauthorized)
	}
	if errors.Is(err, otp.ErrCodeReplayed) {
		slog.WarnContext(ctx, "totp code replayed", "account_id", accountID)
		return goerror.NewBusinessWrap(err, "code already used", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "totp verification failed", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	// compare-and-advance; a concurrent verification racing on the same or an
	// earlier step loses here
	moved, err := s.repoDB.AdvanceReplayCursor(ctx, accountID, step)
	if err != nil {
		slog.ErrorContext(ctx, "failed to advance replay cursor", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}
	if !moved {
		slog.WarnContext(ctx, "totp code lost replay race", "account_id", accountID)
		return goerror.NewBusinessWrap(otp.ErrCodeReplayed, "code already used", goerror.CodeConflict)
	}
	local.Advance(step)

	if !enr.Confirmed {
		if err := s.repoDB.ConfirmEnrollment(ctx, accountID); err != nil {
			slog.ErrorContext(ctx, "failed to confirm enrollment", "account_id", accountID, "error", err)
			return goerror.NewServer(err)
		}
		slog.InfoContext(ctx, "two-factor enrollment confirmed", "account_id", accountID)
	}

	return nil
}

func (s *Usecase) verifyRecoveryCode(ctx context.Context, accountID, code string) error {
	enr, err := s.enrollment(ctx, accountID)
	if err != nil {
		return err
	}
	if !enr.Confirmed {
		return goerror.NewBusinessWrap(entity.ErrNotEnrolled, "two-factor is not enabled", goerror.CodeForbidden)
	}

	records, err := s.repoDB.GetRecoveryCodes(ctx, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load recovery codes", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	hashes := make([]string, len(records))
	for i, rec := range records {
		hashes[i] = rec.Hash
	}

	idx := mfa.MatchRecoveryCode(s.argon2id, hashes, code)
	if idx < 0 {
		slog.WarnContext(ctx, "recovery code rejected", "account_id", accountID)
		return goerror.NewBusinessWrap(entity.ErrRecoveryCodeUnknownOrConsumed,
			"recovery code is unknown or already consumed", goerror.CodeUnauthorized)
	}

	consumed, err := s.repoDB.ConsumeRecoveryCode(ctx, records[idx].ID, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume recovery code", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}
	if !consumed {
		// lost a race with a concurrent submission of the same code
		slog.WarnContext(ctx, "recovery code already consumed", "account_id", accountID)
		return goerror.NewBusinessWrap(entity.ErrRecoveryCodeUnknownOrConsumed,
			"recovery code is unknown or already consumed", goerror.CodeUnauthorized)
	}

	slog.InfoContext(ctx, "recovery code consumed", "account_id", accountID, "remaining", len(records)-1)

	return nil
}

func (s *Usecase) enrollment(ctx context.Context, accountID string) (*entity.Enrollment, error) {
	enr, err := s.repoDB.GetEnrollment(ctx, accountID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, goerror.NewBusinessWrap(entity.ErrNotEnrolled, "two-factor is not enabled", goerror.CodeForbidden)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load enrollment", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return enr, nil
}
