// Package tools maps tool-calling names onto typed graph operations and
// runs them through the compile, execute, normalize pipeline. It
// consumes already-decoded JSON arguments; the wire protocol that
// carries them lives outside this layer.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
	"github.com/dpartin/neo4j-mcp/cypher"
	"github.com/dpartin/neo4j-mcp/engine"
)

// Tool describes one callable operation.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Handler dispatches tool calls. Every call produces a well-formed
// envelope; no error return crosses this boundary.
type Handler struct {
	cfg      *neo4jmcp.Config
	compiler *cypher.Compiler
	engine   *engine.Engine
	log      *zap.Logger
}

// NewHandler creates a dispatch handler over the given engine.
func NewHandler(cfg *neo4jmcp.Config, eng *engine.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}

	return &Handler{
		cfg:      cfg,
		compiler: cypher.NewCompiler(cfg.DefaultReadLimit),
		engine:   eng,
		log:      log,
	}
}

// Tools lists the callable operations.
func (h *Handler) Tools() []Tool {
	return []Tool{
		{Name: "create_node", Description: "Create a node with labels and properties"},
		{Name: "get_node", Description: "Retrieve nodes by id or filters"},
		{Name: "update_node", Description: "Update node properties and labels"},
		{Name: "delete_node", Description: "Delete a node, optionally cascading"},
		{Name: "create_relationship", Description: "Create a relationship between nodes"},
		{Name: "get_relationship", Description: "Retrieve relationships by id or filters"},
		{Name: "update_relationship", Description: "Update relationship properties"},
		{Name: "delete_relationship", Description: "Delete a relationship"},
		{Name: "run_query", Description: "Run a raw Cypher query with bound parameters"},
		{Name: "find_paths", Description: "Find a shortest path between two nodes"},
		{Name: "calculate_centrality", Description: "Rank nodes by degree centrality"},
		{Name: "graph_metrics", Description: "Report node, relationship and label counts"},
		{Name: "vector_search", Description: "Vector similarity search over a vector index"},
		{Name: "create_vector_index", Description: "Create a node vector index over a label and property"},
		{Name: "retrieve_context", Description: "Retrieve nodes whose text properties contain a query string"},
	}
}

// Call dispatches one tool invocation and always returns an envelope.
func (h *Handler) Call(ctx context.Context, name string, args json.RawMessage) neo4jmcp.Envelope {
	log := h.log.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("tool", name))

	req, database, err := h.decode(name, args)
	if err != nil {
		log.Warn("tool arguments rejected", zap.Error(err))

		return engine.Normalize(neo4jmcp.Result{}, err)
	}

	compiled, err := h.compiler.Compile(req)
	if err != nil {
		log.Warn("compilation rejected", zap.Error(err))

		return engine.Normalize(neo4jmcp.Result{}, err)
	}

	result, err := h.engine.Execute(ctx, database, compiled)
	if err != nil {
		log.Warn("execution failed",
			zap.String("kind", string(neo4jmcp.KindOf(err))),
			zap.Error(err))
	} else {
		log.Info("tool executed", zap.String("intent", compiled.Intent.String()))
	}

	return engine.Normalize(result, err)
}

// Argument shapes match the tool-calling schema of the server surface.
// JSON numbers for ids decode into int64 fields; property values stay
// dynamic until validated by the compiler.
type (
	createNodeArgs struct {
		Labels     []string       `json:"labels"`
		Properties map[string]any `json:"properties"`
		Database   string         `json:"database"`
	}

	getNodeArgs struct {
		NodeID     *int64         `json:"node_id"`
		Labels     []string       `json:"labels"`
		Properties map[string]any `json:"properties"`
		Limit      int            `json:"limit"`
		Database   string         `json:"database"`
	}

	updateNodeArgs struct {
		NodeID     int64          `json:"node_id"`
		Properties map[string]any `json:"properties"`
		Labels     []string       `json:"labels"`
		Database   string         `json:"database"`
	}

	deleteNodeArgs struct {
		NodeID   int64  `json:"node_id"`
		Cascade  *bool  `json:"cascade"`
		Database string `json:"database"`
	}

	createRelationshipArgs struct {
		FromNodeID int64          `json:"from_node_id"`
		ToNodeID   int64          `json:"to_node_id"`
		Type       string         `json:"relationship_type"`
		Properties map[string]any `json:"properties"`
		Database   string         `json:"database"`
	}

	getRelationshipArgs struct {
		RelationshipID *int64         `json:"relationship_id"`
		Type           string         `json:"relationship_type"`
		FromNodeID     *int64         `json:"from_node_id"`
		ToNodeID       *int64         `json:"to_node_id"`
		Properties     map[string]any `json:"properties"`
		Limit          int            `json:"limit"`
		Database       string         `json:"database"`
	}

	updateRelationshipArgs struct {
		RelationshipID int64          `json:"relationship_id"`
		Properties     map[string]any `json:"properties"`
		Database       string         `json:"database"`
	}

	deleteRelationshipArgs struct {
		RelationshipID int64  `json:"relationship_id"`
		Database       string `json:"database"`
	}

	runQueryArgs struct {
		Query      string         `json:"query"`
		Parameters map[string]any `json:"parameters"`
		Intent     string         `json:"intent"`
		Database   string         `json:"database"`
	}

	findPathsArgs struct {
		StartNodeID *int64 `json:"start_node_id"`
		EndNodeID   *int64 `json:"end_node_id"`
		MaxLength   int    `json:"max_length"`
		Database    string `json:"database"`
	}

	centralityArgs struct {
		Label    string `json:"label"`
		Limit    int    `json:"limit"`
		Database string `json:"database"`
	}

	graphMetricsArgs struct {
		Database string `json:"database"`
	}

	vectorSearchArgs struct {
		Index       string    `json:"index"`
		QueryVector []float64 `json:"query_vector"`
		TopK        int       `json:"top_k"`
		Database    string    `json:"database"`
	}

	createVectorIndexArgs struct {
		Index      string `json:"index"`
		Label      string `json:"node_label"`
		Property   string `json:"property"`
		Dimensions int    `json:"dimensions"`
		Database   string `json:"database"`
	}

	retrieveContextArgs struct {
		Query      string   `json:"query"`
		Label      string   `json:"node_label"`
		Properties []string `json:"properties"`
		Limit      int      `json:"limit"`
		Database   string   `json:"database"`
	}
)

func (h *Handler) decode(name string, args json.RawMessage) (neo4jmcp.Request, string, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "create_node":
		var a createNodeArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.CreateNode{Labels: a.Labels, Properties: a.Properties}, a.Database, nil

	case "get_node":
		var a getNodeArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.GetNode{ID: a.NodeID, Labels: a.Labels, Properties: a.Properties, Limit: a.Limit}, a.Database, nil

	case "update_node":
		var a updateNodeArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.UpdateNode{ID: a.NodeID, Properties: a.Properties, Labels: a.Labels}, a.Database, nil

	case "delete_node":
		var a deleteNodeArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		cascade := h.cfg.CascadeDelete
		if a.Cascade != nil {
			cascade = *a.Cascade
		}

		return neo4jmcp.DeleteNode{ID: a.NodeID, Cascade: cascade}, a.Database, nil

	case "create_relationship":
		var a createRelationshipArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.CreateRelationship{
			FromID:     a.FromNodeID,
			ToID:       a.ToNodeID,
			Type:       a.Type,
			Properties: a.Properties,
		}, a.Database, nil

	case "get_relationship":
		var a getRelationshipArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.GetRelationship{
			ID:         a.RelationshipID,
			Type:       a.Type,
			FromID:     a.FromNodeID,
			ToID:       a.ToNodeID,
			Properties: a.Properties,
			Limit:      a.Limit,
		}, a.Database, nil

	case "update_relationship":
		var a updateRelationshipArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.UpdateRelationship{ID: a.RelationshipID, Properties: a.Properties}, a.Database, nil

	case "delete_relationship":
		var a deleteRelationshipArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.DeleteRelationship{ID: a.RelationshipID}, a.Database, nil

	case "run_query":
		var a runQueryArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		intent, err := parseIntent(a.Intent)
		if err != nil {
			return nil, "", err
		}

		return neo4jmcp.RawQuery{Query: a.Query, Params: a.Parameters, DeclaredIntent: intent}, a.Database, nil

	case "find_paths":
		var a findPathsArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.AnalyticQuery{
			Algorithm: "shortest_path",
			StartID:   a.StartNodeID,
			EndID:     a.EndNodeID,
			MaxDepth:  a.MaxLength,
		}, a.Database, nil

	case "calculate_centrality":
		var a centralityArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.AnalyticQuery{Algorithm: "degree_centrality", Label: a.Label, Limit: a.Limit}, a.Database, nil

	case "graph_metrics":
		var a graphMetricsArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.AnalyticQuery{Algorithm: "graph_metrics"}, a.Database, nil

	case "vector_search":
		var a vectorSearchArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.VectorSearch{Index: a.Index, Vector: a.QueryVector, K: a.TopK}, a.Database, nil

	case "create_vector_index":
		var a createVectorIndexArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.CreateVectorIndex{
			Index:      a.Index,
			Label:      a.Label,
			Property:   a.Property,
			Dimensions: a.Dimensions,
		}, a.Database, nil

	case "retrieve_context":
		var a retrieveContextArgs
		if err := unmarshalArgs(args, &a); err != nil {
			return nil, "", err
		}

		return neo4jmcp.ContextSearch{
			Label:      a.Label,
			Text:       a.Query,
			Properties: a.Properties,
			Limit:      a.Limit,
		}, a.Database, nil

	default:
		return nil, "", neo4jmcp.NewError(neo4jmcp.KindUnknown,
			fmt.Sprintf("unknown tool %q", name)).WithDetail("tool", name)
	}
}

func unmarshalArgs(args json.RawMessage, into any) error {
	if err := json.Unmarshal(args, into); err != nil {
		return neo4jmcp.WrapError(neo4jmcp.KindEmptyOperation, "malformed tool arguments", err)
	}

	return nil
}

func parseIntent(s string) (neo4jmcp.Intent, error) {
	switch s {
	case "":
		return neo4jmcp.IntentUnspecified, nil
	case "read":
		return neo4jmcp.IntentRead, nil
	case "write":
		return neo4jmcp.IntentWrite, nil
	default:
		return neo4jmcp.IntentUnspecified, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			fmt.Sprintf("invalid intent %q", s))
	}
}
