package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/curiouspay/trust/internal/pkg/goerror"
	"github.com/curiouspay/trust/internal/pkg/idempotency"
	"github.com/curiouspay/trust/internal/trust/entity"
)

// AuthorizeInput is a transaction authorization request. StepUpCode may be
// supplied up front to satisfy a step-up in the same call; IdempotencyKey
// protects against client retries double-running the attempt.
type AuthorizeInput struct {
	EvaluateInput
	StepUpCode     string `validate:"omitempty,max=64"`
	IdempotencyKey string `validate:"omitempty,max=128"`
}

// AuthorizeOutput reports the attempt and its (possibly non-terminal) state.
// State StepUpRequired means the caller must follow up with one step-up
// submission bound to AttemptID.
type AuthorizeOutput struct {
	AttemptID string
	State     entity.AttemptState
	Decision  entity.RiskDecision
}

// Authorize runs the full state machine for one transaction:
//
//	Start -> RiskEvaluated -> {Approved | Denied | StepUpRequired}
//
// A denial by policy and a failed step-up are both terminal. When a step-up
// is required and no code was supplied, the attempt is persisted pending and
// exactly one later submission decides it.
func (s *Usecase) Authorize(ctx context.Context, in AuthorizeInput) (*AuthorizeOutput, error) {
	ctx, span := s.startSpan(ctx, "Authorize")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.IdempotencyKey == "" {
		return s.authorize(ctx, clm.AccountID, in)
	}

	// the raw client key never reaches redis; it is keyed to the account and
	// hashed first
	digest, err := s.hmac.Hash(clm.AccountID + ":" + in.IdempotencyKey)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	var out *AuthorizeOutput
	execErr := s.idemp.Exec(ctx, "authorize:"+string(digest), func(ctx context.Context) error {
		var ferr error
		out, ferr = s.authorize(ctx, clm.AccountID, in)
		return ferr
	}, idempotency.WithStateTTL(s.cfg.GetMinute("modules.trust.authorize_idempotency_ttl_minutes")))

	switch {
	case errors.Is(execErr, idempotency.ErrAlreadyInProgress),
		errors.Is(execErr, idempotency.ErrAlreadyCompleted),
		errors.Is(execErr, idempotency.ErrAlreadyFailed):
		return nil, goerror.NewBusiness("duplicate authorization request", goerror.CodeConflict)
	case execErr != nil:
		return nil, execErr
	}

	return out, nil
}

func (s *Usecase) authorize(ctx context.Context, accountID string, in AuthorizeInput) (*AuthorizeOutput, error) {
	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	attempt := entity.AuthorizationAttempt{
		ID:        s.uuid.Generate(),
		AccountID: accountID,
		State:     entity.AttemptStateRiskEvaluated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	attempt.Decision = s.riskEngine.Evaluate(in.request(), policy)

	if !attempt.Decision.Approved {
		attempt.State = entity.AttemptStateDenied
		if err := s.repoDB.CreateAttempt(ctx, attempt); err != nil {
			slog.ErrorContext(ctx, "failed to store attempt", "attempt_id", attempt.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		slog.InfoContext(ctx, "transaction denied by policy",
			"account_id", accountID, "attempt_id", attempt.ID, "reason", attempt.Decision.Reason)

		return &AuthorizeOutput{AttemptID: attempt.ID, State: attempt.State, Decision: attempt.Decision}, nil
	}

	if !attempt.Decision.RequiresStepUp {
		attempt.State = entity.AttemptStateApproved
		if err := s.repoDB.CreateAttempt(ctx, attempt); err != nil {
			slog.ErrorContext(ctx, "failed to store attempt", "attempt_id", attempt.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		slog.InfoContext(ctx, "transaction approved",
			"account_id", accountID, "attempt_id", attempt.ID, "risk_level", attempt.Decision.RiskLevel.String())

		return &AuthorizeOutput{AttemptID: attempt.ID, State: attempt.State, Decision: attempt.Decision}, nil
	}

	if in.StepUpCode == "" {
		attempt.State = entity.AttemptStateStepUpRequired
		if err := s.repoDB.CreateAttempt(ctx, attempt); err != nil {
			slog.ErrorContext(ctx, "failed to store attempt", "attempt_id", attempt.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		slog.InfoContext(ctx, "transaction requires step-up",
			"account_id", accountID, "attempt_id", attempt.ID, "risk_level", attempt.Decision.RiskLevel.String())

		return &AuthorizeOutput{AttemptID: attempt.ID, State: attempt.State, Decision: attempt.Decision}, nil
	}

	// inline step-up: this is the attempt's single submission
	factor, verifyErr := s.verifyFactor(ctx, accountID, in.StepUpCode)
	if factor == entity.FactorTypeUnknown {
		return nil, verifyErr
	}

	attempt.Factor = factor
	attempt.State = entity.AttemptStateApproved
	if verifyErr != nil {
		attempt.State = entity.AttemptStateDenied
	}

	if err := s.repoDB.CreateAttempt(ctx, attempt); err != nil {
		slog.ErrorContext(ctx, "failed to store attempt", "attempt_id", attempt.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if verifyErr != nil {
		slog.WarnContext(ctx, "transaction denied by step-up", "account_id", accountID, "attempt_id", attempt.ID)
		return nil, verifyErr
	}

	slog.InfoContext(ctx, "transaction approved with step-up",
		"account_id", accountID, "attempt_id", attempt.ID, "factor", factor.String())

	return &AuthorizeOutput{AttemptID: attempt.ID, State: attempt.State, Decision: attempt.Decision}, nil
}
