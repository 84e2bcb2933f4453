// Package engine routes compiled queries to the connection manager and
// normalizes outcomes into the public response envelope.
package engine

import (
	"context"

	"go.uber.org/zap"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// Engine executes compiled queries. It holds no connection state of its
// own; the session provider is injected so tests can substitute an
// in-memory implementation.
type Engine struct {
	provider neo4jmcp.SessionProvider
	log      *zap.Logger
}

// New creates an engine over the given session provider.
func New(provider neo4jmcp.SessionProvider, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{provider: provider, log: log}
}

// Execute runs a compiled query against the given database (empty means
// the configured default). Write intent opens an explicit transaction
// and guarantees rollback on every failure path before the session is
// released; read intent collects all records before the session closes.
// There is no retry at this layer.
func (e *Engine) Execute(ctx context.Context, database string, q neo4jmcp.CompiledQuery) (neo4jmcp.Result, error) {
	session, err := e.provider.AcquireSession(ctx, database)
	if err != nil {
		return neo4jmcp.Result{}, err
	}

	// Cleanup must run even when the caller's context is already
	// cancelled, or a mid-transaction cancellation would leak the
	// session without rolling back.
	cleanupCtx := context.WithoutCancel(ctx)

	defer func() {
		if err := session.Close(cleanupCtx); err != nil {
			e.log.Warn("session close failed", zap.Error(err))
		}
	}()

	if q.Intent == neo4jmcp.IntentWrite {
		return e.executeWrite(ctx, cleanupCtx, session, q)
	}

	return e.executeRead(ctx, session, q)
}

func (e *Engine) executeWrite(ctx, cleanupCtx context.Context, session neo4jmcp.Session, q neo4jmcp.CompiledQuery) (neo4jmcp.Result, error) {
	tx, err := session.Begin(ctx)
	if err != nil {
		return neo4jmcp.Result{}, err
	}

	cursor, err := tx.Run(ctx, q.Text, q.Params)
	if err != nil {
		e.rollback(cleanupCtx, tx)

		return neo4jmcp.Result{}, err
	}

	summary, err := cursor.Consume(ctx)
	if err != nil {
		e.rollback(cleanupCtx, tx)

		return neo4jmcp.Result{}, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		e.rollback(cleanupCtx, tx)

		return neo4jmcp.Result{}, err
	}

	e.log.Debug("write executed",
		zap.Int("nodes_created", summary.NodesCreated),
		zap.Int("nodes_deleted", summary.NodesDeleted),
		zap.Int("relationships_created", summary.RelationshipsCreated),
		zap.Int("relationships_deleted", summary.RelationshipsDeleted),
		zap.Int("properties_set", summary.PropertiesSet))

	return neo4jmcp.Result{Summary: summary, Write: true}, nil
}

func (e *Engine) executeRead(ctx context.Context, session neo4jmcp.Session, q neo4jmcp.CompiledQuery) (neo4jmcp.Result, error) {
	cursor, err := session.Run(ctx, q.Text, q.Params)
	if err != nil {
		return neo4jmcp.Result{}, err
	}

	records, err := cursor.Collect(ctx)
	if err != nil {
		return neo4jmcp.Result{}, err
	}

	e.log.Debug("read executed", zap.Int("records", len(records)))

	return neo4jmcp.Result{Records: records}, nil
}

func (e *Engine) rollback(ctx context.Context, tx neo4jmcp.Transaction) {
	if err := tx.Rollback(ctx); err != nil {
		e.log.Warn("rollback failed", zap.Error(err))
	}
}
