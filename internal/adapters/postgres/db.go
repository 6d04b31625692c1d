package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBExecutor implements the DBPort interface for one PostgreSQL database.
// The payin service runs two of these side by side: the legacy main DB and
// the payment DB.
type DBExecutor struct {
	primary *pgxpool.Pool
	replica *pgxpool.Pool
}

// NewDBExecutor creates an executor backed by a single primary pool.
func NewDBExecutor(primary *pgxpool.Pool) *DBExecutor {
	return &DBExecutor{primary: primary}
}

// NewDBExecutorWithReplica creates an executor with a read replica for
// tx-less reads. Stale replica reads are safe under the idempotency-key
// discipline: they cannot cause double side effects, only a visible retry.
func NewDBExecutorWithReplica(primary, replica *pgxpool.Pool) *DBExecutor {
	return &DBExecutor{primary: primary, replica: replica}
}

// Primary returns the pool backing writes.
func (db *DBExecutor) Primary() *pgxpool.Pool {
	return db.primary
}

// Replica returns the read pool, falling back to the primary when no
// replica is configured.
func (db *DBExecutor) Replica() *pgxpool.Pool {
	if db.replica != nil {
		return db.replica
	}
	return db.primary
}

// WithTransaction executes a function within a database transaction on the
// primary. The transaction is explicitly passed to the callback; it is
// rolled back on any error or panic and committed only on full success, so
// partial writes never become visible.
func (db *DBExecutor) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := db.primary.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// HealthCheck pings the primary.
func (db *DBExecutor) HealthCheck(ctx context.Context) error {
	return db.primary.Ping(ctx)
}

// Close closes both pools.
func (db *DBExecutor) Close() {
	db.primary.Close()
	if db.replica != nil {
		db.replica.Close()
	}
}
