package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/curiouspay/trust/internal/pkg/goerror"
	"github.com/curiouspay/trust/internal/pkg/mfa"
	"github.com/curiouspay/trust/internal/trust/entity"
)

// EnrollInput configures a two-factor enrollment.
type EnrollInput struct {
	// RecoveryCodeCount overrides the default batch of 10 when positive.
	RecoveryCodeCount int `validate:"omitempty,min=1,max=20"`
}

// EnrollOutput is returned exactly once; neither the secret nor the recovery
// codes are retrievable again.
type EnrollOutput struct {
	Secret        string
	EnrollmentURI string
	RecoveryCodes []string
}

// Enroll provisions a fresh TOTP secret and recovery code batch for the
// authenticated account. The secret is random, sealed at rest, and stays
// unconfirmed until the first successful verification. A confirmed enrollment
// must be disabled before re-enrolling.
func (s *Usecase) Enroll(ctx context.Context, in EnrollInput) (*EnrollOutput, error) {
	ctx, span := s.startSpan(ctx, "Enroll")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	existing, err := s.repoDB.GetEnrollment(ctx, clm.AccountID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to load enrollment", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if existing != nil && existing.Confirmed {
		return nil, goerror.NewBusinessWrap(entity.ErrAlreadyEnrolled, "two-factor is already enabled", goerror.CodeConflict)
	}

	secret, uri, err := s.engine.Generate(clm.AccountEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sealed, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{
		AccountID: clm.AccountID,
		Purpose:   mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal totp secret", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codes, err := s.recoveryGen.Generate(in.RecoveryCodeCount)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate recovery codes", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashes := make([]string, len(codes))
	for i, code := range codes {
		h, err := s.argon2id.Hash(code)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash recovery code", "account_id", clm.AccountID, "error", err)
			return nil, goerror.NewServer(err)
		}
		hashes[i] = string(h)
	}

	now := s.clock.Now()
	enr := entity.Enrollment{
		AccountID:        clm.AccountID,
		SecretCiphertext: sealed,
		ReplayCursor:     0,
		Confirmed:        false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repoDB.CreateEnrollment(ctx, enr, hashes); err != nil {
		slog.ErrorContext(ctx, "failed to store enrollment", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "two-factor enrollment created", "account_id", clm.AccountID, "recovery_codes", len(codes))

	return &EnrollOutput{
		Secret:        secret,
		EnrollmentURI: uri,
		RecoveryCodes: codes,
	}, nil
}
