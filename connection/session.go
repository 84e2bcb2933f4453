package connection

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// Session adapts a driver session to the layer's session contract.
// It is single-use and owned exclusively by the call that acquired it.
type Session struct {
	inner        neo4j.SessionWithContext
	queryTimeout time.Duration
}

// Run submits a query in an auto-commit transaction.
func (s *Session) Run(ctx context.Context, query string, params map[string]any) (neo4jmcp.Cursor, error) {
	result, err := s.inner.Run(ctx, query, params, neo4j.WithTxTimeout(s.queryTimeout))
	if err != nil {
		return nil, classifyRunError(err)
	}

	return &cursor{result: result}, nil
}

// Begin opens an explicit transaction with the configured query timeout.
func (s *Session) Begin(ctx context.Context) (neo4jmcp.Transaction, error) {
	tx, err := s.inner.BeginTransaction(ctx, neo4j.WithTxTimeout(s.queryTimeout))
	if err != nil {
		return nil, classifyRunError(err)
	}

	return &transaction{inner: tx}, nil
}

// Close releases the session back to the pool.
func (s *Session) Close(ctx context.Context) error {
	err := s.inner.Close(ctx)
	if err != nil {
		return classifyRunError(err)
	}

	return nil
}

type transaction struct {
	inner neo4j.ExplicitTransaction
}

func (t *transaction) Run(ctx context.Context, query string, params map[string]any) (neo4jmcp.Cursor, error) {
	result, err := t.inner.Run(ctx, query, params)
	if err != nil {
		return nil, classifyRunError(err)
	}

	return &cursor{result: result}, nil
}

func (t *transaction) Commit(ctx context.Context) error {
	err := t.inner.Commit(ctx)
	if err != nil {
		return classifyRunError(err)
	}

	return nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	err := t.inner.Rollback(ctx)
	if err != nil {
		return classifyRunError(err)
	}

	return nil
}

type cursor struct {
	result neo4j.ResultWithContext
}

// Collect drains all records into memory so nothing references the
// session after it closes.
func (c *cursor) Collect(ctx context.Context) ([]neo4jmcp.Record, error) {
	records, err := c.result.Collect(ctx)
	if err != nil {
		return nil, classifyRunError(err)
	}

	rows := make([]neo4jmcp.Record, len(records))

	for i, record := range records {
		row := make(neo4jmcp.Record, len(record.Keys))
		for j, key := range record.Keys {
			row[key] = record.Values[j]
		}

		rows[i] = row
	}

	return rows, nil
}

// Consume discards remaining records and converts the driver summary
// counters into the stable write-summary shape.
func (c *cursor) Consume(ctx context.Context) (neo4jmcp.WriteSummary, error) {
	summary, err := c.result.Consume(ctx)
	if err != nil {
		return neo4jmcp.WriteSummary{}, classifyRunError(err)
	}

	counters := summary.Counters()

	return neo4jmcp.WriteSummary{
		NodesCreated:         counters.NodesCreated(),
		NodesDeleted:         counters.NodesDeleted(),
		RelationshipsCreated: counters.RelationshipsCreated(),
		RelationshipsDeleted: counters.RelationshipsDeleted(),
		PropertiesSet:        counters.PropertiesSet(),
		LabelsAdded:          counters.LabelsAdded(),
		LabelsRemoved:        counters.LabelsRemoved(),
		IndexesAdded:         counters.IndexesAdded(),
		IndexesRemoved:       counters.IndexesRemoved(),
		ConstraintsAdded:     counters.ConstraintsAdded(),
		ConstraintsRemoved:   counters.ConstraintsRemoved(),
	}, nil
}

// Compile-time interface checks.
var (
	_ neo4jmcp.Session     = (*Session)(nil)
	_ neo4jmcp.Transaction = (*transaction)(nil)
	_ neo4jmcp.Cursor      = (*cursor)(nil)
)
