package cypher_test

import (
	"testing"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
	"github.com/dpartin/neo4j-mcp/cypher"
)

func TestInferIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  neo4jmcp.Intent
	}{
		{"plain match", "MATCH (n) RETURN n", neo4jmcp.IntentRead},
		{"create", "CREATE (n:Person)", neo4jmcp.IntentWrite},
		{"lowercase merge", "merge (n:Person {id: 1})", neo4jmcp.IntentWrite},
		{"detach delete", "MATCH (n) DETACH DELETE n", neo4jmcp.IntentWrite},
		{"set clause", "MATCH (n) SET n.x = 1", neo4jmcp.IntentWrite},
		{"remove clause", "MATCH (n) REMOVE n.x", neo4jmcp.IntentWrite},
		{"drop index", "DROP INDEX idx", neo4jmcp.IntentWrite},
		{"foreach", "MATCH (n) FOREACH (x IN [] | SET n.x = x)", neo4jmcp.IntentWrite},
		{"keyword as substring stays read", "MATCH (n:Created) RETURN n.created_at", neo4jmcp.IntentRead},
		{"keyword as property stays read", "MATCH (n) RETURN n.settings", neo4jmcp.IntentRead},
		{"keyword in string literal is a known false positive", "MATCH (n) WHERE n.x = 'SET sail' RETURN n", neo4jmcp.IntentWrite},
		{"keyword after accented letter stays read", "MATCH (n) RETURN n.caféset", neo4jmcp.IntentRead},
		{"keyword before accented letter stays read", "MATCH (n) RETURN n.setédition", neo4jmcp.IntentRead},
		{"empty text", "", neo4jmcp.IntentRead},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := cypher.InferIntent(tt.query); got != tt.want {
				t.Errorf("InferIntent(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
