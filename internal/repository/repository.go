package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Users       UserRepository
	Tickets     TicketRepository
	Assignments AssignmentRepository
	History     TicketHistoryRepository
}

// Store is the record store: repositories for single reads plus an atomic unit of work.
// Lookups that find nothing return pgx.ErrNoRows.
type Store interface {
	Repos() Repositories
	// RunInTx executes fn against repositories bound to one transaction. Either every write made
	// through those repositories is committed or none is.
	RunInTx(ctx context.Context, fn func(repos Repositories) error) error
	Ping(ctx context.Context) error
}

// NewRepositories binds all repositories to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Users:       NewUserRepository(db),
		Tickets:     NewTicketRepository(db),
		Assignments: NewAssignmentRepository(db),
		History:     NewTicketHistoryRepository(db),
	}
}

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

// UniqueViolation builds the error stores return when a unique constraint is hit.
func UniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: sqlStateUniqueViolation, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}
