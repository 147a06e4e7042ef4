package db

import (
	"context"

	"github.com/curiouspay/trust/internal/trust/entity"
)

const createAttemptSQL = `
INSERT INTO trust_attempts
    (id, account_id, state, factor,
     decision_approved, decision_requires_step_up, decision_risk_level,
     decision_score, decision_reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (s *DB) CreateAttempt(ctx context.Context, att entity.AuthorizationAttempt) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAttempt")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createAttemptSQL,
		att.ID,
		att.AccountID,
		int16(att.State),
		int16(att.Factor),
		att.Decision.Approved,
		att.Decision.RequiresStepUp,
		int16(att.Decision.RiskLevel),
		att.Decision.Score,
		att.Decision.Reason,
		att.CreatedAt,
		att.UpdatedAt,
	)
	return s.mapError(err)
}

const getAttemptSQL = `
SELECT id, account_id, state, factor,
       decision_approved, decision_requires_step_up, decision_risk_level,
       decision_score, decision_reason, created_at, updated_at
FROM trust_attempts
WHERE id = $1 AND account_id = $2`

func (s *DB) GetAttempt(ctx context.Context, id, accountID string) (_ *entity.AuthorizationAttempt, err error) {
	ctx, span := s.startSpan(ctx, "GetAttempt")
	defer func() { s.endSpan(span, err) }()

	var (
		att       entity.AuthorizationAttempt
		state     int16
		factor    int16
		riskLevel int16
	)
	err = s.conn.QueryRow(ctx, getAttemptSQL, id, accountID).Scan(
		&att.ID,
		&att.AccountID,
		&state,
		&factor,
		&att.Decision.Approved,
		&att.Decision.RequiresStepUp,
		&riskLevel,
		&att.Decision.Score,
		&att.Decision.Reason,
		&att.CreatedAt,
		&att.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	att.State = entity.AttemptState(state)
	att.Factor = entity.FactorType(factor)
	att.Decision.RiskLevel = entity.RiskLevel(riskLevel)

	return &att, nil
}

const transitionAttemptSQL = `
UPDATE trust_attempts
SET state = $3, factor = $4, updated_at = NOW()
WHERE id = $1 AND state = $2`

// TransitionAttempt is a compare-and-swap on the attempt state. The WHERE
// clause enforces the single-submission rule: only one caller observes
// moved = true for a pending attempt.
func (s *DB) TransitionAttempt(ctx context.Context, id string, from, to entity.AttemptState, factor entity.FactorType) (moved bool, err error) {
	ctx, span := s.startSpan(ctx, "TransitionAttempt")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		tag, execErr := s.conn.Exec(ctx, transitionAttemptSQL, id, int16(from), int16(to), int16(factor))
		if execErr != nil {
			return execErr
		}
		moved = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, s.mapError(err)
	}

	return moved, nil
}
