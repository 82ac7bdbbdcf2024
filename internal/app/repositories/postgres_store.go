package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/db"
)

// DBTX is the query surface shared by the pool and a transaction
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the Store backed by PostgreSQL
type PostgresStore struct {
	db     *db.PostgresDB
	conn   DBTX
	policy *auth.AccessPolicy
	inTx   bool
}

// NewPostgresStore creates a Store over the connection pool
func NewPostgresStore(database *db.PostgresDB, policy *auth.AccessPolicy) *PostgresStore {
	return &PostgresStore{
		db:     database,
		conn:   database.Pool,
		policy: policy,
	}
}

// Forums returns the forum repository
func (s *PostgresStore) Forums() ForumRepository {
	return &pgForumRepository{conn: s.conn, policy: s.policy}
}

// Threads returns the thread repository
func (s *PostgresStore) Threads() ThreadRepository {
	return &pgThreadRepository{conn: s.conn, policy: s.policy}
}

// Posts returns the post repository
func (s *PostgresStore) Posts() PostRepository {
	return &pgPostRepository{conn: s.conn, policy: s.policy}
}

// Subscriptions returns the subscription repository
func (s *PostgresStore) Subscriptions() SubscriptionRepository {
	return &pgSubscriptionRepository{conn: s.conn, policy: s.policy}
}

// WithTx runs fn in a database transaction
func (s *PostgresStore) WithTx(ctx context.Context, fn TxFn) error {
	if s.inTx {
		return fn(ctx, s)
	}

	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &PostgresStore{
			db:     s.db,
			conn:   tx,
			policy: s.policy,
			inTx:   true,
		})
	})
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
