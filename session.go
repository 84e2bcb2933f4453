package neo4jmcp

import "context"

// SessionProvider hands out scoped sessions against the pooled endpoint
// handle. The execution engine receives one by constructor injection so
// tests can substitute an in-memory provider.
type SessionProvider interface {
	// AcquireSession returns a session bound to the given database, or
	// the configured default when database is empty. It fails with a
	// not_connected error before Connect or after Disconnect.
	AcquireSession(ctx context.Context, database string) (Session, error)
}

// Session is a scoped, single-use binding to a transaction context on one
// database. Ownership is exclusive to the call that acquired it, and it
// must be closed on every exit path.
type Session interface {
	// Run submits a query outside an explicit transaction.
	Run(ctx context.Context, query string, params map[string]any) (Cursor, error)

	// Begin opens an explicit transaction for write execution.
	Begin(ctx context.Context) (Transaction, error)

	// Close releases the session back to the pool.
	Close(ctx context.Context) error
}

// Transaction is an explicit transaction scoped inside one session.
type Transaction interface {
	Run(ctx context.Context, query string, params map[string]any) (Cursor, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Cursor exposes a submitted query's results. Records must be fully
// collected before the owning session closes.
type Cursor interface {
	// Collect drains all result records.
	Collect(ctx context.Context) ([]Record, error)

	// Consume discards remaining records and returns the write summary.
	Consume(ctx context.Context) (WriteSummary, error)
}
