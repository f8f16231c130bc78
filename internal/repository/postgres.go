package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	util "github.com/spec-kit/support-desk/pkg/util"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so repositories
// run unchanged inside and outside transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    querier
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore builds a store over the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

func (s *PostgresStore) Tickets() TicketRepository         { return &pgTicketRepository{q: s.q} }
func (s *PostgresStore) Users() UserRepository             { return &pgUserRepository{q: s.q} }
func (s *PostgresStore) Messages() MessageRepository       { return &pgMessageRepository{q: s.q} }
func (s *PostgresStore) Attachments() AttachmentRepository { return &pgAttachmentRepository{q: s.q} }
func (s *PostgresStore) Audit() AuditRepository            { return &pgAuditRepository{q: s.q} }

// WithinTx runs fn inside a database transaction. Nested calls join the
// outer transaction. Rollback happens on error or context cancellation.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PostgresStore{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pgError translates low-level pg failures into the domain taxonomy.
// Unique violations on the ticket number become retryable conflicts.
func pgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return util.NewConflict("concurrent write conflict", map[string]any{"constraint": pgErr.ConstraintName})
		case "23503":
			return util.NewValidationError("referenced row does not exist", map[string]any{"constraint": pgErr.ConstraintName})
		}
	}
	return err
}
