// Package postgres implements store.Store on PostgreSQL through pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sena-asistencia/backend/internal/store"
)

// conn is satisfied by *pgxpool.Pool and pgx.Tx. Begin on a pool opens a
// transaction; on a pgx.Tx it opens a savepoint.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the PostgreSQL store.
type Store struct {
	pool *pgxpool.Pool
	db   conn
}

var _ store.Store = (*Store)(nil)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (s *Store) Users() store.Users                 { return &usersRepo{db: s.db} }
func (s *Store) Events() store.Events               { return &eventsRepo{db: s.db} }
func (s *Store) ControlPoints() store.ControlPoints { return &controlPointsRepo{db: s.db} }
func (s *Store) QRTokens() store.QRTokens           { return &qrTokensRepo{db: s.db} }
func (s *Store) Attendance() store.Attendance       { return &attendanceRepo{db: s.db} }
func (s *Store) Exports() store.Exports             { return &exportsRepo{db: s.db} }

// WithTx runs fn inside a transaction (or a savepoint when s is already
// transaction-bound). fn's error rolls back; nil commits.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, db: tx})
	})
	return mapError(err)
}

func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.pool.Ping(ctx))
}
