package usecase

import (
	"context"

	"github.com/curiouspay/trust/internal/pkg/goerror"
	"github.com/curiouspay/trust/internal/trust/entity"
)

// EvaluateInput is one transaction to score against the active policy.
type EvaluateInput struct {
	Amount            float64 `validate:"required,gt=0"`
	MerchantName      string  `validate:"required,max=200"`
	MerchantCategory  string  `validate:"required,max=100"`
	Country           string  `validate:"required,len=2"`
	TransactionType   string  `validate:"required,oneof=payment transfer refund"`
	CardLast4         string  `validate:"omitempty,len=4,numeric"`
	ExternalRiskScore int     `validate:"omitempty,gte=0,lte=10"`
}

func (in EvaluateInput) request() entity.TransactionRequest {
	return entity.TransactionRequest{
		Amount:            in.Amount,
		MerchantName:      in.MerchantName,
		MerchantCategory:  in.MerchantCategory,
		Country:           in.Country,
		TransactionType:   in.TransactionType,
		CardLast4:         in.CardLast4,
		ExternalRiskScore: in.ExternalRiskScore,
	}
}

// EvaluateTransaction scores a transaction without starting an authorization
// attempt. Useful for pre-flight display ("this payment will need a code").
func (s *Usecase) EvaluateTransaction(ctx context.Context, in EvaluateInput) (*entity.RiskDecision, error) {
	ctx, span := s.startSpan(ctx, "EvaluateTransaction")
	defer span.End()

	if _, err := s.authenticated(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	decision := s.riskEngine.Evaluate(in.request(), policy)

	return &decision, nil
}
