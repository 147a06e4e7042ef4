package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/curiouspay/trust/internal/trust/entity"
	"github.com/jackc/pgx/v5"
)

const getEnrollmentSQL = `
SELECT account_id, secret_ciphertext, replay_cursor, confirmed, created_at, updated_at
FROM trust_enrollments
WHERE account_id = $1`

func (s *DB) GetEnrollment(ctx context.Context, accountID string) (_ *entity.Enrollment, err error) {
	ctx, span := s.startSpan(ctx, "GetEnrollment")
	defer func() { s.endSpan(span, err) }()

	var enr entity.Enrollment
	err = s.conn.QueryRow(ctx, getEnrollmentSQL, accountID).Scan(
		&enr.AccountID,
		&enr.SecretCiphertext,
		&enr.ReplayCursor,
		&enr.Confirmed,
		&enr.CreatedAt,
		&enr.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &enr, nil
}

const upsertEnrollmentSQL = `
INSERT INTO trust_enrollments (account_id, secret_ciphertext, replay_cursor, confirmed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (account_id) WHERE NOT confirmed DO UPDATE
SET secret_ciphertext = EXCLUDED.secret_ciphertext,
    replay_cursor     = EXCLUDED.replay_cursor,
    updated_at        = EXCLUDED.updated_at`

const deleteRecoveryCodesSQL = `DELETE FROM trust_recovery_codes WHERE account_id = $1`

const insertRecoveryCodeSQL = `
INSERT INTO trust_recovery_codes (id, account_id, hash, created_at)
VALUES ($1, $2, $3, $4)`

// CreateEnrollment stores an unconfirmed enrollment and its recovery code
// hashes in one transaction. Re-enrolling an unconfirmed account replaces the
// previous secret and its codes; a confirmed account conflicts.
func (s *DB) CreateEnrollment(ctx context.Context, enr entity.Enrollment, recoveryHashes []string) (err error) {
	ctx, span := s.startSpan(ctx, "CreateEnrollment")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx, upsertEnrollmentSQL,
		enr.AccountID, enr.SecretCiphertext, enr.ReplayCursor, enr.Confirmed, enr.CreatedAt, enr.UpdatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, deleteRecoveryCodesSQL, enr.AccountID); err != nil {
		return s.mapError(err)
	}

	for _, h := range recoveryHashes {
		if _, err = tx.Exec(ctx, insertRecoveryCodeSQL, s.sid.Generate(), enr.AccountID, h, enr.CreatedAt); err != nil {
			return s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

const confirmEnrollmentSQL = `
UPDATE trust_enrollments
SET confirmed = TRUE, updated_at = NOW()
WHERE account_id = $1`

func (s *DB) ConfirmEnrollment(ctx context.Context, accountID string) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmEnrollment")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, confirmEnrollmentSQL, accountID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

const deleteEnrollmentSQL = `DELETE FROM trust_enrollments WHERE account_id = $1`

// DeleteEnrollment removes the enrollment and every remaining recovery code.
func (s *DB) DeleteEnrollment(ctx context.Context, accountID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteEnrollment")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx, deleteRecoveryCodesSQL, accountID); err != nil {
		return s.mapError(err)
	}

	tag, err := tx.Exec(ctx, deleteEnrollmentSQL, accountID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

const advanceReplayCursorSQL = `
UPDATE trust_enrollments
SET replay_cursor = $2, updated_at = NOW()
WHERE account_id = $1 AND replay_cursor < $2`

// AdvanceReplayCursor moves the cursor forward only; a stale step loses the
// compare inside the UPDATE and reports moved = false.
func (s *DB) AdvanceReplayCursor(ctx context.Context, accountID string, step int64) (moved bool, err error) {
	ctx, span := s.startSpan(ctx, "AdvanceReplayCursor")
	defer func() { s.endSpan(span, err) }()

	err = s.withRetry(ctx, func(ctx context.Context) error {
		tag, execErr := s.conn.Exec(ctx, advanceReplayCursorSQL, accountID, step)
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
