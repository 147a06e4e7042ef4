package entity

// RiskLevel classifies the outcome of a risk evaluation.
type RiskLevel int16

const (
	RiskLevelUnknown RiskLevel = 0
	RiskLevelLow     RiskLevel = 1
	RiskLevelMedium  RiskLevel = 2
	RiskLevelHigh    RiskLevel = 3
)

func (rl RiskLevel) String() string {
	switch rl {
	case RiskLevelLow:
		return "low"
	case RiskLevelMedium:
		return "medium"
	case RiskLevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// AttemptState is the lifecycle phase of one authorization attempt.
//
// Start -> RiskEvaluated -> {Approved | Denied | StepUpRequired}
// StepUpRequired -> {Approved | Denied}
// Approved and Denied are terminal.
type AttemptState int16

const (
	AttemptStateUnknown        AttemptState = 0
	AttemptStateStart          AttemptState = 1
	AttemptStateRiskEvaluated  AttemptState = 2
	AttemptStateApproved       AttemptState = 3
	AttemptStateDenied         AttemptState = 4
	AttemptStateStepUpRequired AttemptState = 5
)

func (as AttemptState) String() string {
	switch as {
	case AttemptStateStart:
		return "Start"
	case AttemptStateRiskEvaluated:
		return "RiskEvaluated"
	case AttemptStateApproved:
		return "Approved"
	case AttemptStateDenied:
		return "Denied"
	case AttemptStateStepUpRequired:
		return "StepUpRequired"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether the state is final.
func (as AttemptState) IsTerminal() bool {
	return as == AttemptStateApproved || as == AttemptStateDenied
}

// FactorType identifies which second factor satisfied a step-up.
type FactorType int16

const (
	FactorTypeUnknown      FactorType = 0
	FactorTypeTOTP         FactorType = 1
	FactorTypeRecoveryCode FactorType = 2
)

func (ft FactorType) String() string {
	switch ft {
	case FactorTypeTOTP:
		return "TOTP"
	case FactorTypeRecoveryCode:
		return "RecoveryCode"
	default:
		return "Unknown"
	}
}
