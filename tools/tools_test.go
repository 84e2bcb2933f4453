package tools_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
	"github.com/dpartin/neo4j-mcp/engine"
	"github.com/dpartin/neo4j-mcp/tools"
)

// stubProvider replays canned results and records every executed query.

type stubProvider struct {
	records []neo4jmcp.Record
	summary neo4jmcp.WriteSummary

	queries []string
}

func (p *stubProvider) AcquireSession(context.Context, string) (neo4jmcp.Session, error) {
	return &stubSession{provider: p}, nil
}

type stubSession struct {
	provider *stubProvider
}

func (s *stubSession) Run(_ context.Context, query string, _ map[string]any) (neo4jmcp.Cursor, error) {
	s.provider.queries = append(s.provider.queries, query)

	return &stubCursor{provider: s.provider}, nil
}

func (s *stubSession) Begin(context.Context) (neo4jmcp.Transaction, error) {
	return &stubTx{provider: s.provider}, nil
}

func (s *stubSession) Close(context.Context) error { return nil }

type stubTx struct {
	provider *stubProvider
}

func (t *stubTx) Run(_ context.Context, query string, _ map[string]any) (neo4jmcp.Cursor, error) {
	t.provider.queries = append(t.provider.queries, query)

	return &stubCursor{provider: t.provider}, nil
}

func (t *stubTx) Commit(context.Context) error   { return nil }
func (t *stubTx) Rollback(context.Context) error { return nil }

type stubCursor struct {
	provider *stubProvider
}

func (c *stubCursor) Collect(context.Context) ([]neo4jmcp.Record, error) {
	return c.provider.records, nil
}

func (c *stubCursor) Consume(context.Context) (neo4jmcp.WriteSummary, error) {
	return c.provider.summary, nil
}

func newHandler(cfg *neo4jmcp.Config, provider *stubProvider) *tools.Handler {
	if cfg == nil {
		cfg = &neo4jmcp.Config{}
	}

	cfg.ApplyDefaults()

	return tools.NewHandler(cfg, engine.New(provider, nil), nil)
}

func TestCallUnknownTool(t *testing.T) {
	t.Parallel()

	handler := newHandler(nil, &stubProvider{})

	envelope := handler.Call(context.Background(), "destroy_graph", nil)

	if envelope.Success {
		t.Fatal("Call() reported success for an unknown tool")
	}

	if envelope.Error.Kind != neo4jmcp.KindUnknown {
		t.Errorf("Call() error kind = %q, want %q", envelope.Error.Kind, neo4jmcp.KindUnknown)
	}
}

func TestCallMalformedArguments(t *testing.T) {
	t.Parallel()

	handler := newHandler(nil, &stubProvider{})

	envelope := handler.Call(context.Background(), "create_node", json.RawMessage(`{"labels": 7}`))

	if envelope.Success {
		t.Fatal("Call() reported success for malformed arguments")
	}

	if envelope.Error.Kind != neo4jmcp.KindEmptyOperation {
		t.Errorf("Call() error kind = %q, want %q", envelope.Error.Kind, neo4jmcp.KindEmptyOperation)
	}
}

func TestCallRejectsInvalidIdentifier(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	handler := newHandler(nil, provider)

	envelope := handler.Call(context.Background(), "create_node",
		json.RawMessage(`{"labels": ["Bad Label"]}`))

	if envelope.Success {
		t.Fatal("Call() reported success for an invalid label")
	}

	if envelope.Error.Kind != neo4jmcp.KindInvalidIdentifier {
		t.Errorf("Call() error kind = %q, want %q", envelope.Error.Kind, neo4jmcp.KindInvalidIdentifier)
	}

	if len(provider.queries) != 0 {
		t.Errorf("Call() executed %d queries despite a compile rejection", len(provider.queries))
	}
}

func TestCallCreateNodeReturnsSummary(t *testing.T) {
	t.Parallel()

	summary := neo4jmcp.WriteSummary{NodesCreated: 1, PropertiesSet: 1, LabelsAdded: 1}
	provider := &stubProvider{summary: summary}
	handler := newHandler(nil, provider)

	envelope := handler.Call(context.Background(), "create_node",
		json.RawMessage(`{"labels": ["Person"], "properties": {"name": "Alice"}}`))

	if !envelope.Success {
		t.Fatalf("Call() failed: %v", envelope.Error)
	}

	if diff := cmp.Diff(summary, envelope.Data); diff != "" {
		t.Errorf("Call() data mismatch (-want +got):\n%s", diff)
	}
}

func TestCallGetNodeReturnsRecords(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{records: []neo4jmcp.Record{{"n": "flat"}}}
	handler := newHandler(nil, provider)

	envelope := handler.Call(context.Background(), "get_node", json.RawMessage(`{"node_id": 42}`))

	if !envelope.Success {
		t.Fatalf("Call() failed: %v", envelope.Error)
	}

	want := []neo4jmcp.Record{{"n": "flat"}}
	if diff := cmp.Diff(want, envelope.Data); diff != "" {
		t.Errorf("Call() data mismatch (-want +got):\n%s", diff)
	}
}

func TestCallDeleteNodeCascadeDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfgCascade bool
		args       string
		wantDetach bool
	}{
		{
			name:       "config cascade applies when args omit it",
			cfgCascade: true,
			args:       `{"node_id": 7}`,
			wantDetach: true,
		},
		{
			name:       "explicit cascade false overrides config",
			cfgCascade: true,
			args:       `{"node_id": 7, "cascade": false}`,
			wantDetach: false,
		},
		{
			name:       "explicit cascade true overrides config",
			cfgCascade: false,
			args:       `{"node_id": 7, "cascade": true}`,
			wantDetach: true,
		},
		{
			name:       "no cascade anywhere",
			cfgCascade: false,
			args:       `{"node_id": 7}`,
			wantDetach: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := &stubProvider{}
			handler := newHandler(&neo4jmcp.Config{CascadeDelete: tt.cfgCascade}, provider)

			envelope := handler.Call(context.Background(), "delete_node", json.RawMessage(tt.args))
			if !envelope.Success {
				t.Fatalf("Call() failed: %v", envelope.Error)
			}

			if len(provider.queries) != 1 {
				t.Fatalf("Call() executed %d queries, want 1", len(provider.queries))
			}

			gotDetach := strings.Contains(provider.queries[0], "DETACH DELETE")
			if gotDetach != tt.wantDetach {
				t.Errorf("query = %q, detach = %v, want %v", provider.queries[0], gotDetach, tt.wantDetach)
			}
		})
	}
}

func TestCallRunQueryRejectsInvalidIntent(t *testing.T) {
	t.Parallel()

	handler := newHandler(nil, &stubProvider{})

	envelope := handler.Call(context.Background(), "run_query",
		json.RawMessage(`{"query": "MATCH (n) RETURN n", "intent": "maybe"}`))

	if envelope.Success {
		t.Fatal("Call() reported success for an invalid intent")
	}

	if envelope.Error.Kind != neo4jmcp.KindEmptyOperation {
		t.Errorf("Call() error kind = %q, want %q", envelope.Error.Kind, neo4jmcp.KindEmptyOperation)
	}
}

func TestCallVectorSearch(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{records: []neo4jmcp.Record{{"node": "doc", "score": 0.9}}}
	handler := newHandler(nil, provider)

	envelope := handler.Call(context.Background(), "vector_search",
		json.RawMessage(`{"index": "embeddings", "query_vector": [0.1, 0.2], "top_k": 3}`))

	if !envelope.Success {
		t.Fatalf("Call() failed: %v", envelope.Error)
	}

	if len(provider.queries) != 1 || !strings.Contains(provider.queries[0], "db.index.vector.queryNodes") {
		t.Errorf("queries = %v, want one vector index call", provider.queries)
	}
}

func TestCallCreateVectorIndex(t *testing.T) {
	t.Parallel()

	summary := neo4jmcp.WriteSummary{IndexesAdded: 1}
	provider := &stubProvider{summary: summary}
	handler := newHandler(nil, provider)

	envelope := handler.Call(context.Background(), "create_vector_index",
		json.RawMessage(`{"index": "doc-embeddings.v2", "node_label": "Document", "property": "embedding"}`))

	if !envelope.Success {
		t.Fatalf("Call() failed: %v", envelope.Error)
	}

	if diff := cmp.Diff(summary, envelope.Data); diff != "" {
		t.Errorf("Call() data mismatch (-want +got):\n%s", diff)
	}

	if len(provider.queries) != 1 || !strings.Contains(provider.queries[0], "db.index.vector.createNodeIndex") {
		t.Errorf("queries = %v, want one index creation call", provider.queries)
	}
}

func TestCallRetrieveContext(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{records: []neo4jmcp.Record{{"n": "ctx"}}}
	handler := newHandler(nil, provider)

	envelope := handler.Call(context.Background(), "retrieve_context",
		json.RawMessage(`{"query": "graph", "node_label": "Document", "properties": ["title", "body"], "limit": 3}`))

	if !envelope.Success {
		t.Fatalf("Call() failed: %v", envelope.Error)
	}

	if len(provider.queries) != 1 {
		t.Fatalf("Call() executed %d queries, want 1", len(provider.queries))
	}

	query := provider.queries[0]
	if !strings.Contains(query, "CONTAINS") || strings.Contains(query, "graph") {
		t.Errorf("query = %q, want CONTAINS predicates with the text bound as a parameter", query)
	}
}

func TestToolsListsEveryDispatchTarget(t *testing.T) {
	t.Parallel()

	handler := newHandler(nil, &stubProvider{})

	listed := handler.Tools()
	if len(listed) == 0 {
		t.Fatal("Tools() returned nothing")
	}

	// Every listed tool must dispatch to something other than the
	// unknown-tool rejection.
	for _, tool := range listed {
		envelope := handler.Call(context.Background(), tool.Name, nil)

		if envelope.Error != nil && envelope.Error.Kind == neo4jmcp.KindUnknown {
			if _, ok := envelope.Error.Details["tool"]; ok {
				t.Errorf("listed tool %q is not dispatchable", tool.Name)
			}
		}
	}
}

func TestReadResourceUnknown(t *testing.T) {
	t.Parallel()

	handler := newHandler(nil, &stubProvider{})

	envelope := handler.ReadResource(context.Background(), "secrets", "")

	if envelope.Success {
		t.Fatal("ReadResource() reported success for an unknown resource")
	}

	if envelope.Error.Kind != neo4jmcp.KindUnknown {
		t.Errorf("ReadResource() error kind = %q, want %q", envelope.Error.Kind, neo4jmcp.KindUnknown)
	}
}

func TestReadResourceLabels(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{records: []neo4jmcp.Record{{"label": "Person"}, {"label": "Movie"}}}
	handler := newHandler(nil, provider)

	envelope := handler.ReadResource(context.Background(), "node_labels", "")

	if !envelope.Success {
		t.Fatalf("ReadResource() failed: %v", envelope.Error)
	}

	want := []neo4jmcp.Record{{"label": "Person"}, {"label": "Movie"}}
	if diff := cmp.Diff(want, envelope.Data); diff != "" {
		t.Errorf("ReadResource() data mismatch (-want +got):\n%s", diff)
	}
}

func TestReadResourceGraphSchema(t *testing.T) {
	t.Parallel()

	// The stub replays the same records for all three introspection
	// queries; the merge shape is what matters here.
	provider := &stubProvider{records: []neo4jmcp.Record{
		{"label": "Person", "relationshipType": "KNOWS", "propertyKey": "name"},
	}}
	handler := newHandler(nil, provider)

	envelope := handler.ReadResource(context.Background(), "graph_schema", "")

	if !envelope.Success {
		t.Fatalf("ReadResource() failed: %v", envelope.Error)
	}

	want := neo4jmcp.Record{
		"labels":             []string{"Person"},
		"relationship_types": []string{"KNOWS"},
		"property_keys":      []string{"name"},
	}

	if diff := cmp.Diff(want, envelope.Data); diff != "" {
		t.Errorf("ReadResource() data mismatch (-want +got):\n%s", diff)
	}

	if len(provider.queries) != 3 {
		t.Errorf("ReadResource() executed %d queries, want 3", len(provider.queries))
	}
}
