package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
	"github.com/dpartin/neo4j-mcp/cypher"
	"github.com/dpartin/neo4j-mcp/engine"
)

// Resource describes one readable schema view.
type Resource struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Resources lists the readable schema views.
func (h *Handler) Resources() []Resource {
	return []Resource{
		{Name: "node_labels", Description: "Node labels present in the database"},
		{Name: "relationship_types", Description: "Relationship types present in the database"},
		{Name: "property_keys", Description: "Property keys present in the database"},
		{Name: "graph_schema", Description: "Combined labels, relationship types and property keys"},
	}
}

// ReadResource runs the schema introspection behind the named view and
// returns an envelope, like Call.
func (h *Handler) ReadResource(ctx context.Context, name, database string) neo4jmcp.Envelope {
	log := h.log.With(zap.String("resource", name))

	switch name {
	case "node_labels":
		return h.runSchemaQuery(ctx, log, database, cypher.SchemaLabels())
	case "relationship_types":
		return h.runSchemaQuery(ctx, log, database, cypher.SchemaRelationshipTypes())
	case "property_keys":
		return h.runSchemaQuery(ctx, log, database, cypher.SchemaPropertyKeys())
	case "graph_schema":
		return h.readGraphSchema(ctx, log, database)
	default:
		return engine.Normalize(neo4jmcp.Result{}, neo4jmcp.NewError(neo4jmcp.KindUnknown,
			fmt.Sprintf("unknown resource %q", name)).WithDetail("resource", name))
	}
}

func (h *Handler) runSchemaQuery(ctx context.Context, log *zap.Logger, database string, q neo4jmcp.CompiledQuery) neo4jmcp.Envelope {
	result, err := h.engine.Execute(ctx, database, q)
	if err != nil {
		log.Warn("schema query failed", zap.Error(err))
	}

	return engine.Normalize(result, err)
}

// readGraphSchema merges the three introspection queries into one view.
// The first failing query decides the envelope.
func (h *Handler) readGraphSchema(ctx context.Context, log *zap.Logger, database string) neo4jmcp.Envelope {
	labels, err := h.collectColumn(ctx, database, cypher.SchemaLabels(), "label")
	if err != nil {
		log.Warn("schema query failed", zap.Error(err))

		return engine.Normalize(neo4jmcp.Result{}, err)
	}

	relTypes, err := h.collectColumn(ctx, database, cypher.SchemaRelationshipTypes(), "relationshipType")
	if err != nil {
		log.Warn("schema query failed", zap.Error(err))

		return engine.Normalize(neo4jmcp.Result{}, err)
	}

	propertyKeys, err := h.collectColumn(ctx, database, cypher.SchemaPropertyKeys(), "propertyKey")
	if err != nil {
		log.Warn("schema query failed", zap.Error(err))

		return engine.Normalize(neo4jmcp.Result{}, err)
	}

	return neo4jmcp.Envelope{
		Success: true,
		Data: neo4jmcp.Record{
			"labels":             labels,
			"relationship_types": relTypes,
			"property_keys":      propertyKeys,
		},
	}
}

func (h *Handler) collectColumn(ctx context.Context, database string, q neo4jmcp.CompiledQuery, column string) ([]string, error) {
	result, err := h.engine.Execute(ctx, database, q)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(result.Records))

	for _, record := range result.Records {
		if s, ok := record[column].(string); ok {
			values = append(values, s)
		}
	}

	return values, nil
}
