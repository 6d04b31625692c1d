package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX represents a database executor that can be either a pool or a
// transaction. Repositories take one per call; nil means "use the pool".
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// WithTransaction executes fn within a write transaction on the primary.
	// The transaction is explicitly passed to the callback; it is rolled
	// back on any error and committed only on full success.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// DBPort provides access to one database (primary plus optional read
// replica) and its transaction management. The payin service holds two of
// these: the legacy main DB and the payment DB.
type DBPort interface {
	// Primary returns the pool backing writes.
	Primary() *pgxpool.Pool
	// Replica returns the pool backing reads with no open transaction.
	// Falls back to the primary when no replica is configured; stale reads
	// are safe under the idempotency-key discipline.
	Replica() *pgxpool.Pool
	TransactionManager
}
