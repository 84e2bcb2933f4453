package engine_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
	"github.com/dpartin/neo4j-mcp/engine"
)

func TestNormalizeError(t *testing.T) {
	t.Parallel()

	err := neo4jmcp.NewError(neo4jmcp.KindQueryExecutionFailure, "syntax error")

	envelope := engine.Normalize(neo4jmcp.Result{}, err)

	if envelope.Success {
		t.Error("Normalize() reported success for an error")
	}

	if envelope.Data != nil {
		t.Error("Normalize() populated data alongside an error")
	}

	if envelope.Error == nil || envelope.Error.Kind != neo4jmcp.KindQueryExecutionFailure {
		t.Errorf("Normalize() error = %v, want kind %q", envelope.Error, neo4jmcp.KindQueryExecutionFailure)
	}
}

// An unclassified error must still produce a well-formed envelope.
func TestNormalizeUnclassifiedError(t *testing.T) {
	t.Parallel()

	envelope := engine.Normalize(neo4jmcp.Result{}, errors.New("surprise"))

	if envelope.Success {
		t.Error("Normalize() reported success for an error")
	}

	if envelope.Error == nil || envelope.Error.Kind != neo4jmcp.KindUnknown {
		t.Errorf("Normalize() error = %v, want kind %q", envelope.Error, neo4jmcp.KindUnknown)
	}
}

func TestNormalizeWriteSummary(t *testing.T) {
	t.Parallel()

	summary := neo4jmcp.WriteSummary{NodesCreated: 2, PropertiesSet: 4, LabelsAdded: 2}

	envelope := engine.Normalize(neo4jmcp.Result{Summary: summary, Write: true}, nil)

	if !envelope.Success {
		t.Fatal("Normalize() reported failure for a successful write")
	}

	if envelope.Error != nil {
		t.Errorf("Normalize() populated error alongside data: %v", envelope.Error)
	}

	if diff := cmp.Diff(summary, envelope.Data); diff != "" {
		t.Errorf("Normalize() data mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeFlattensSingleColumnNode(t *testing.T) {
	t.Parallel()

	node := dbtype.Node{
		Id:        42,
		ElementId: "4:abc:42",
		Labels:    []string{"Person"},
		Props:     map[string]any{"name": "Alice", "age": int64(30)},
	}

	envelope := engine.Normalize(neo4jmcp.Result{
		Records: []neo4jmcp.Record{{"n": node}},
	}, nil)

	want := []neo4jmcp.Record{{
		"name":       "Alice",
		"age":        int64(30),
		"id":         int64(42),
		"element_id": "4:abc:42",
		"labels":     []string{"Person"},
	}}

	if diff := cmp.Diff(want, envelope.Data); diff != "" {
		t.Errorf("Normalize() data mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeKeepsColumnsForMultiColumnRecords(t *testing.T) {
	t.Parallel()

	node := dbtype.Node{
		Id:        7,
		ElementId: "4:abc:7",
		Labels:    []string{"Document"},
		Props:     map[string]any{"title": "report"},
	}

	envelope := engine.Normalize(neo4jmcp.Result{
		Records: []neo4jmcp.Record{{"node": node, "score": 0.93}},
	}, nil)

	want := []neo4jmcp.Record{{
		"node": neo4jmcp.Record{
			"title":      "report",
			"id":         int64(7),
			"element_id": "4:abc:7",
			"labels":     []string{"Document"},
		},
		"score": 0.93,
	}}

	if diff := cmp.Diff(want, envelope.Data); diff != "" {
		t.Errorf("Normalize() data mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeFlattensRelationship(t *testing.T) {
	t.Parallel()

	rel := dbtype.Relationship{
		Id:        9,
		ElementId: "5:abc:9",
		StartId:   1,
		EndId:     2,
		Type:      "KNOWS",
		Props:     map[string]any{"since": int64(2020)},
	}

	envelope := engine.Normalize(neo4jmcp.Result{
		Records: []neo4jmcp.Record{{"r": rel}},
	}, nil)

	want := []neo4jmcp.Record{{
		"since":      int64(2020),
		"id":         int64(9),
		"element_id": "5:abc:9",
		"type":       "KNOWS",
		"start_id":   int64(1),
		"end_id":     int64(2),
	}}

	if diff := cmp.Diff(want, envelope.Data); diff != "" {
		t.Errorf("Normalize() data mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeFlattensPath(t *testing.T) {
	t.Parallel()

	path := dbtype.Path{
		Nodes: []dbtype.Node{
			{Id: 1, ElementId: "4:abc:1", Labels: []string{"Person"}, Props: map[string]any{"name": "Alice"}},
			{Id: 2, ElementId: "4:abc:2", Labels: []string{"Person"}, Props: map[string]any{"name": "Bob"}},
		},
		Relationships: []dbtype.Relationship{
			{Id: 9, ElementId: "5:abc:9", StartId: 1, EndId: 2, Type: "KNOWS", Props: map[string]any{}},
		},
	}

	envelope := engine.Normalize(neo4jmcp.Result{
		Records: []neo4jmcp.Record{{"p": path}},
	}, nil)

	want := []neo4jmcp.Record{{
		"nodes": []neo4jmcp.Record{
			{"name": "Alice", "id": int64(1), "element_id": "4:abc:1", "labels": []string{"Person"}},
			{"name": "Bob", "id": int64(2), "element_id": "4:abc:2", "labels": []string{"Person"}},
		},
		"relationships": []neo4jmcp.Record{
			{"id": int64(9), "element_id": "5:abc:9", "type": "KNOWS", "start_id": int64(1), "end_id": int64(2)},
		},
	}}

	if diff := cmp.Diff(want, envelope.Data); diff != "" {
		t.Errorf("Normalize() data mismatch (-want +got):\n%s", diff)
	}
}

// A colliding property name loses to the metadata sibling.
func TestNormalizeMetadataWinsOverProperties(t *testing.T) {
	t.Parallel()

	node := dbtype.Node{
		Id:        42,
		ElementId: "4:abc:42",
		Labels:    []string{"Person"},
		Props:     map[string]any{"id": "application-level-id"},
	}

	envelope := engine.Normalize(neo4jmcp.Result{
		Records: []neo4jmcp.Record{{"n": node}},
	}, nil)

	records, ok := envelope.Data.([]neo4jmcp.Record)
	if !ok || len(records) != 1 {
		t.Fatalf("Normalize() data = %T, want one record", envelope.Data)
	}

	if got := records[0]["id"]; got != int64(42) {
		t.Errorf("record id = %v, want metadata id 42", got)
	}
}

func TestNormalizeScalarRecordsPassThrough(t *testing.T) {
	t.Parallel()

	records := []neo4jmcp.Record{{"nodes": int64(10), "relationships": int64(4), "labels": int64(3)}}

	envelope := engine.Normalize(neo4jmcp.Result{Records: records}, nil)

	if diff := cmp.Diff(records, envelope.Data); diff != "" {
		t.Errorf("Normalize() data mismatch (-want +got):\n%s", diff)
	}
}
