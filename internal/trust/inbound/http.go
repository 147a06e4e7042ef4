package inbound

import (
	"context"

	"github.com/curiouspay/trust/internal/pkg/router"
	"github.com/curiouspay/trust/internal/trust/entity"
	"github.com/curiouspay/trust/internal/trust/usecase"
)

type uc interface {
	Enroll(ctx context.Context, in usecase.EnrollInput) (*usecase.EnrollOutput, error)
	VerifyStepUp(ctx context.Context, in usecase.VerifyStepUpInput) (*usecase.VerifyStepUpOutput, error)
	DisableTwoFactor(ctx context.Context, in usecase.DisableTwoFactorInput) error

	EvaluateTransaction(ctx context.Context, in usecase.EvaluateInput) (*entity.RiskDecision, error)
	Authorize(ctx context.Context, in usecase.AuthorizeInput) (*usecase.AuthorizeOutput, error)

	GetPolicy(ctx context.Context) (*entity.RiskPolicy, error)
	ReplacePolicy(ctx context.Context, in usecase.ReplacePolicyInput) (*usecase.ReplacePolicyOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Two-Factor (need authenticated)
	r.POST("/api/v1/trust/enroll", end.Enroll)
	r.POST("/api/v1/trust/step-up/verify", end.VerifyStepUp)
	r.POST("/api/v1/trust/2fa/disable", end.DisableTwoFactor)

	// Transactions (need authenticated)
	r.POST("/api/v1/trust/transactions/evaluate", end.EvaluateTransaction)
	r.POST("/api/v1/trust/transactions/authorize", end.Authorize)

	// Risk Policy (need authenticated)
	r.GET("/api/v1/trust/policy", end.GetPolicy)
	r.PUT("/api/v1/trust/policy", end.ReplacePolicy)
}
