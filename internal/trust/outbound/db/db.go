// Package db is the PostgreSQL adapter for the trust module.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/curiouspay/trust/internal/pkg/instrument"
	"github.com/curiouspay/trust/internal/pkg/uid"
	"github.com/curiouspay/trust/internal/trust/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	sid  uid.NumberID
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, sid uid.NumberID, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		sid:  sid,
		ins:  ins,
	}
}

// - 23505 unique violation → entity.ErrConflict
// - 40001 serialization_failure → retryable
// - 40P01 deadlock_detected → retryable
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return entity.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("trust.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrNotFound) && !errors.Is(err, entity.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// withRetry re-runs fn on serialization failures and deadlocks, which postgres
// asks clients to retry.
func (s *DB) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.NewFibonacci(50 * time.Millisecond)
	b = retry.WithMaxRetries(3, b)
	b = retry.WithCappedDuration(time.Second, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
			return retry.RetryableError(err)
		}

		return err
	})
}
