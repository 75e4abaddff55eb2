package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// PostgresStore runs repositories against a pgx pool and executes units of work in
// serializable transactions.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxRetries int
	logger     *zap.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore builds the store. maxRetries bounds how many times a transaction aborted by a
// serialization failure or deadlock is re-run.
func NewPostgresStore(pool *pgxpool.Pool, maxRetries int, logger *zap.Logger) *PostgresStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &PostgresStore{pool: pool, maxRetries: maxRetries, logger: logger}
}

// Repos returns repositories bound to the pool.
func (s *PostgresStore) Repos() Repositories {
	return NewRepositories(s.pool)
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RunInTx begins a transaction, runs fn with repositories bound to it, and commits or rolls back.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(repos Repositories) error) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		s.logger.Warn("retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return err
}

func (s *PostgresStore) runOnce(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}
