package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/curiouspay/trust/internal/trust/entity"
	"github.com/jackc/pgx/v5"
)

const getActivePolicySQL = `
SELECT version, max_transaction_amount, require_pin_above_amount,
       allowed_countries, allowed_merchant_categories, high_risk_merchant_keywords
FROM trust_risk_policies
ORDER BY version DESC
LIMIT 1`

func (s *DB) GetActivePolicy(ctx context.Context) (_ *entity.RiskPolicy, err error) {
	ctx, span := s.startSpan(ctx, "GetActivePolicy")
	defer func() { s.endSpan(span, err) }()

	var p entity.RiskPolicy
	err = s.conn.QueryRow(ctx, getActivePolicySQL).Scan(
		&p.Version,
		&p.MaxTransactionAmount,
		&p.RequirePinAboveAmount,
		&p.AllowedCountries,
		&p.AllowedMerchantCategories,
		&p.HighRiskMerchantKeywords,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}

const nextPolicyVersionSQL = `
SELECT COALESCE(MAX(version), 0) + 1
FROM trust_risk_policies`

const insertPolicySQL = `
INSERT INTO trust_risk_policies
    (version, max_transaction_amount, require_pin_above_amount,
     allowed_countries, allowed_merchant_categories, high_risk_merchant_keywords)
VALUES ($1, $2, $3, $4, $5, $6)`

// SavePolicy appends a new policy version. Versions are never overwritten;
// the highest one is the active policy.
func (s *DB) SavePolicy(ctx context.Context, policy entity.RiskPolicy) (version int64, err error) {
	ctx, span := s.startSpan(ctx, "SavePolicy")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		tx, txErr := s.conn.BeginTx(ctx, pgx.TxOptions{})
		if txErr != nil {
			return txErr
		}
		defer func() {
			if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
				slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
			}
		}()

		if txErr = tx.QueryRow(ctx, nextPolicyVersionSQL).Scan(&version); txErr != nil {
			return txErr
		}

		if _, txErr = tx.Exec(ctx, insertPolicySQL,
			version,
			policy.MaxTransactionAmount,
			policy.RequirePinAboveAmount,
			policy.AllowedCountries,
			policy.AllowedMerchantCategories,
			policy.HighRiskMerchantKeywords,
		); txErr != nil {
			return txErr
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return 0, s.mapError(err)
	}

	return version, nil
}
