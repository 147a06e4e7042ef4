package inbound

import (
	"github.com/curiouspay/trust/internal/pkg/router"
	"github.com/curiouspay/trust/internal/trust/usecase"
)

// HTTPEndpoint exposes HTTP handlers for two-factor and transaction trust
// workflows.
type HTTPEndpoint struct {
	uc uc
}

// Enroll provisions a TOTP secret and recovery codes for the caller.
// @Summary Enroll two-factor
// @Description Creates an unconfirmed TOTP enrollment. The secret, provisioning URI, and recovery codes are returned exactly once.
// @Tags Trust, TwoFactor
// @Accept json
// @Produce json
// @Param request body EnrollRequest true "Enrollment payload"
// @Success 200 {object} router.successResponse{data=EnrollResponse} "Enrollment material"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Two-factor already enabled"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/trust/enroll [post]
func (h *HTTPEndpoint) Enroll(r *router.Request) (any, error) {
	var req EnrollRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Enroll(r.Context(), usecase.EnrollInput{
		RecoveryCodeCount: req.RecoveryCodeCount,
	})
	if err != nil {
		return nil, err
	}

	return EnrollResponse{
		Secret:        resp.Secret,
		EnrollmentURI: resp.EnrollmentURI,
		RecoveryCodes: resp.RecoveryCodes,
	}, nil
}

// VerifyStepUp verifies one second-factor submission.
// @Summary Verify step-up code
// @Description Accepts a 6-digit TOTP code or a recovery code. When attempt_id is set, the submission finalizes that pending authorization attempt.
// @Tags Trust, TwoFactor
// @Accept json
// @Produce json
// @Param request body VerifyStepUpRequest true "Step-up payload"
// @Success 200 {object} router.successResponse{data=VerifyStepUpResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 409 {object} router.errorResponse "Code already used or attempt already final"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/trust/step-up/verify [post]
func (h *HTTPEndpoint) VerifyStepUp(r *router.Request) (any, error) {
	var req VerifyStepUpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyStepUp(r.Context(), usecase.VerifyStepUpInput{
		Code:      req.Code,
		AttemptID: req.AttemptID,
	})
	if err != nil {
		return nil, err
	}

	out := VerifyStepUpResponse{
		Approved: resp.Approved,
		Factor:   resp.Factor.String(),
	}
	if resp.AttemptState != 0 {
		out.AttemptState = resp.AttemptState.String()
	}

	return out, nil
}

// DisableTwoFactor removes the caller's enrollment after one factor check.
// @Summary Disable two-factor
// @Description Verifies a live code and deletes the enrollment, the replay state, and all remaining recovery codes.
// @Tags Trust, TwoFactor
// @Accept json
// @Produce json
// @Param request body DisableTwoFactorRequest true "Disable payload"
// @Success 200 {object} router.successResponse{data=DisableTwoFactorResponse} "Disable result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 403 {object} router.errorResponse "Two-factor not enabled"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/trust/2fa/disable [post]
func (h *HTTPEndpoint) DisableTwoFactor(r *router.Request) (any, error) {
	var req DisableTwoFactorRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.DisableTwoFactor(r.Context(), usecase.DisableTwoFactorInput{
		Code: req.Code,
	}); err != nil {
		return nil, err
	}

	return &DisableTwoFactorResponse{}, nil
}

// EvaluateTransaction scores a transaction without creating an attempt.
// @Summary Evaluate transaction risk
// @Description Runs the active risk policy against a transaction and returns the decision without persisting anything.
// @Tags Trust, Transactions
// @Accept json
// @Produce json
// @Param request body TransactionRequest true "Transaction payload"
// @Success 200 {object} router.successResponse{data=DecisionResponse} "Risk decision"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "No active risk policy"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/trust/transactions/evaluate [post]
func (h *HTTPEndpoint) EvaluateTransaction(r *router.Request) (any, error) {
	var req TransactionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	decision, err := h.uc.EvaluateTransaction(r.Context(), evaluateInput(req))
	if err != nil {
		return nil, err
	}

	return decisionResponse(*decision), nil
}

// Authorize runs the authorization state machine for a transaction.
// @Summary Authorize transaction
// @Description Evaluates the transaction and persists an authorization attempt. A step-up code may be supplied inline; the Idempotency-Key header guards against client retries.
// @Tags Trust, Transactions
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param request body AuthorizeRequest true "Authorization payload"
// @Success 200 {object} router.successResponse{data=AuthorizeResponse} "Attempt state and decision"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid step-up code"
// @Failure 409 {object} router.errorResponse "Duplicate request or code already used"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/trust/transactions/authorize [post]
func (h *HTTPEndpoint) Authorize(r *router.Request) (any, error) {
	var req AuthorizeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Authorize(r.Context(), usecase.AuthorizeInput{
		EvaluateInput:  evaluateInput(req.TransactionRequest),
		StepUpCode:     req.StepUpCode,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return nil, err
	}

	return AuthorizeResponse{
		AttemptID: resp.AttemptID,
		State:     resp.State.String(),
		Decision:  decisionResponse(resp.Decision),
	}, nil
}

// GetPolicy returns the active risk policy.
// @Summary Get risk policy
// @Tags Trust, Policy
// @Produce json
// @Success 200 {object} router.successResponse{data=PolicyResponse} "Active policy"
// @Failure 404 {object} router.errorResponse "No active risk policy"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/trust/policy [get]
func (h *HTTPEndpoint) GetPolicy(r *router.Request) (any, error) {
	policy, err := h.uc.GetPolicy(r.Context())
	if err != nil {
		return nil, err
	}

	return PolicyResponse{
		Version:                   policy.Version,
		MaxTransactionAmount:      policy.MaxTransactionAmount,
		RequirePinAboveAmount:     policy.RequirePinAboveAmount,
		AllowedCountries:          policy.AllowedCountries,
		AllowedMerchantCategories: policy.AllowedMerchantCategories,
		HighRiskMerchantKeywords:  policy.HighRiskMerchantKeywords,
	}, nil
}

// ReplacePolicy validates and activates a new policy version.
// @Summary Replace risk policy
// @Description Replaces the whole policy. Partial updates are not supported; invalid configurations are rejected before activation.
// @Tags Trust, Policy
// @Accept json
// @Produce json
// @Param request body ReplacePolicyRequest true "Policy payload"
// @Success 200 {object} router.successResponse{data=ReplacePolicyResponse} "Activated version"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Policy configuration rejected"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/trust/policy [put]
func (h *HTTPEndpoint) ReplacePolicy(r *router.Request) (any, error) {
	var req ReplacePolicyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ReplacePolicy(r.Context(), usecase.ReplacePolicyInput{
		MaxTransactionAmount:      req.MaxTransactionAmount,
		RequirePinAboveAmount:     req.RequirePinAboveAmount,
		AllowedCountries:          req.AllowedCountries,
		AllowedMerchantCategories: req.AllowedMerchantCategories,
		HighRiskMerchantKeywords:  req.HighRiskMerchantKeywords,
	})
	if err != nil {
		return nil, err
	}

	return &ReplacePolicyResponse{Version: resp.Version}, nil
}

func evaluateInput(req TransactionRequest) usecase.EvaluateInput {
	return usecase.EvaluateInput{
		Amount:            req.Amount,
		MerchantName:      req.MerchantName,
		MerchantCategory:  req.MerchantCategory,
		Country:           req.Country,
		TransactionType:   req.TransactionType,
		CardLast4:         req.CardLast4,
		ExternalRiskScore: req.ExternalRiskScore,
	}
}
