package db

import (
	"context"

	"github.com/curiouspay/trust/internal/trust/entity"
)

const getRecoveryCodesSQL = `
SELECT id, account_id, hash, created_at
FROM trust_recovery_codes
WHERE account_id = $1
ORDER BY id`

func (s *DB) GetRecoveryCodes(ctx context.Context, accountID string) (_ []entity.RecoveryCodeRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, getRecoveryCodesSQL, accountID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var records []entity.RecoveryCodeRecord
	for rows.Next() {
		var rec entity.RecoveryCodeRecord
		if err = rows.Scan(&rec.ID, &rec.AccountID, &rec.Hash, &rec.CreatedAt); err != nil {
			return nil, s.mapError(err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return records, nil
}

const consumeRecoveryCodeSQL = `
DELETE FROM trust_recovery_codes
WHERE id = $1 AND account_id = $2`

// ConsumeRecoveryCode deletes one code record. The delete doubles as the
// single-use guard: a concurrent submission of the same code finds the row
// gone and reports consumed = false.
func (s *DB) ConsumeRecoveryCode(ctx context.Context, id int64, accountID string) (consumed bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeRecoveryCode")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		tag, execErr := s.conn.Exec(ctx, consumeRecoveryCodeSQL, id, accountID)
		if execErr != nil {
			return execErr
		}
		consumed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, s.mapError(err)
	}

	return consumed, nil
}
