package cypher

import neo4jmcp "github.com/dpartin/neo4j-mcp"

// Fixed schema introspection statements backing the resource surface.
// They carry no caller input, so no validation applies.

// SchemaLabels lists the labels present in the database.
func SchemaLabels() neo4jmcp.CompiledQuery {
	return neo4jmcp.CompiledQuery{
		Text:   "CALL db.labels() YIELD label RETURN label",
		Params: map[string]any{},
		Intent: neo4jmcp.IntentRead,
	}
}

// SchemaRelationshipTypes lists the relationship types present in the
// database.
func SchemaRelationshipTypes() neo4jmcp.CompiledQuery {
	return neo4jmcp.CompiledQuery{
		Text:   "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType",
		Params: map[string]any{},
		Intent: neo4jmcp.IntentRead,
	}
}

// SchemaPropertyKeys lists the property keys present in the database.
func SchemaPropertyKeys() neo4jmcp.CompiledQuery {
	return neo4jmcp.CompiledQuery{
		Text:   "CALL db.propertyKeys() YIELD propertyKey RETURN propertyKey",
		Params: map[string]any{},
		Intent: neo4jmcp.IntentRead,
	}
}
