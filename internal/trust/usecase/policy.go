package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/curiouspay/trust/internal/pkg/goerror"
	"github.com/curiouspay/trust/internal/trust/entity"
)

// ReplacePolicyInput is the full policy replacement payload. Partial updates
// are not supported; the whole policy is swapped or nothing is.
type ReplacePolicyInput struct {
	MaxTransactionAmount      float64  `validate:"required,gt=0"`
	RequirePinAboveAmount     float64  `validate:"gte=0"`
	AllowedCountries          []string `validate:"required,min=1,dive,len=2"`
	AllowedMerchantCategories []string `validate:"required,min=1"`
	HighRiskMerchantKeywords  []string `validate:"omitempty"`
}

// ReplacePolicyOutput reports the activated version.
type ReplacePolicyOutput struct {
	Version int64
}

// GetPolicy returns the active risk policy.
func (s *Usecase) GetPolicy(ctx context.Context) (*entity.RiskPolicy, error) {
	ctx, span := s.startSpan(ctx, "GetPolicy")
	defer span.End()

	if _, err := s.authenticated(ctx); err != nil {
		return nil, err
	}

	return s.policy(ctx)
}

// ReplacePolicy validates and activates a new policy version. Evaluators pick
// the new policy up atomically; no reader ever sees a mix of old and new
// fields.
func (s *Usecase) ReplacePolicy(ctx context.Context, in ReplacePolicyInput) (*ReplacePolicyOutput, error) {
	ctx, span := s.startSpan(ctx, "ReplacePolicy")
	defer span.End()

	if _, err := s.authenticated(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	policy := entity.RiskPolicy{
		MaxTransactionAmount:      in.MaxTransactionAmount,
		RequirePinAboveAmount:     in.RequirePinAboveAmount,
		AllowedCountries:          in.AllowedCountries,
		AllowedMerchantCategories: in.AllowedMerchantCategories,
		HighRiskMerchantKeywords:  in.HighRiskMerchantKeywords,
	}
	if err := policy.Validate(); err != nil {
		return nil, goerror.NewBusinessWrap(err, "policy configuration rejected", goerror.CodeUnprocessable)
	}

	version, err := s.repoDB.SavePolicy(ctx, policy)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save policy", "error", err)
		return nil, goerror.NewServer(err)
	}

	policy.Version = version
	s.activePolicy.Store(&policy)

	slog.InfoContext(ctx, "risk policy replaced", "version", version)

	return &ReplacePolicyOutput{Version: version}, nil
}

// policy returns the cached active policy, loading and validating it from
// storage on first use.
func (s *Usecase) policy(ctx context.Context) (*entity.RiskPolicy, error) {
	if p := s.activePolicy.Load(); p != nil {
		return p, nil
	}

	p, err := s.repoDB.GetActivePolicy(ctx)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, goerror.NewBusiness("no active risk policy", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load active policy", "error", err)
		return nil, goerror.NewServer(err)
	}

	// stored policies were validated before activation; re-validate anyway to
	// rebuild the lookup sets
	if err := p.Validate(); err != nil {
		slog.ErrorContext(ctx, "stored policy failed validation", "version", p.Version, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.activePolicy.Store(p)

	return p, nil
}
