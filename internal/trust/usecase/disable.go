package usecase

import (
	"context"
	"log/slog"

	"github.com/curiouspay/trust/internal/pkg/goerror"
)

// DisableTwoFactorInput requires a live second factor to prove possession
// before the enrollment is destroyed.
type DisableTwoFactorInput struct {
	Code string `validate:"required,max=64"`
}

// DisableTwoFactor verifies one factor submission and then deletes the
// account's enrollment: the sealed secret, the replay cursor, and every
// remaining recovery code. There is no soft-disable; re-enabling starts a
// fresh enrollment.
func (s *Usecase) DisableTwoFactor(ctx context.Context, in DisableTwoFactorInput) error {
	ctx, span := s.startSpan(ctx, "DisableTwoFactor")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if _, err := s.verifyFactor(ctx, clm.AccountID, in.Code); err != nil {
		return err
	}

	if err := s.repoDB.DeleteEnrollment(ctx, clm.AccountID); err != nil {
		slog.ErrorContext(ctx, "failed to delete enrollment", "account_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	// a future re-enrollment starts with a fresh replay window
	s.cursors.Delete(clm.AccountID)

	slog.InfoContext(ctx, "two-factor disabled", "account_id", clm.AccountID)

	return nil
}
