package engine

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// Normalize converts an execution outcome into the response envelope.
// It is the last line of defense: it never fails, and no driver-native
// handle survives past it. Exactly one of Data and Error is populated.
func Normalize(result neo4jmcp.Result, err error) neo4jmcp.Envelope {
	if err != nil {
		return neo4jmcp.Envelope{Success: false, Error: neo4jmcp.AsError(err)}
	}

	if result.Write {
		return neo4jmcp.Envelope{Success: true, Data: result.Summary}
	}

	flattened := make([]neo4jmcp.Record, len(result.Records))
	for i, record := range result.Records {
		flattened[i] = flattenRecord(record)
	}

	return neo4jmcp.Envelope{Success: true, Data: flattened}
}

// flattenRecord converts driver-native graph entities into the public
// mapping form. A single-column record holding an entity is expanded in
// place, so a plain node lookup surfaces its property map directly with
// id and label metadata as sibling fields. Multi-column records keep
// their column keys, flattening each entity value.
func flattenRecord(record neo4jmcp.Record) neo4jmcp.Record {
	if len(record) == 1 {
		for _, value := range record {
			if entity, ok := flattenValue(value); ok {
				return entity
			}
		}
	}

	out := make(neo4jmcp.Record, len(record))

	for key, value := range record {
		if entity, ok := flattenValue(value); ok {
			out[key] = entity
		} else {
			out[key] = value
		}
	}

	return out
}

func flattenValue(value any) (neo4jmcp.Record, bool) {
	switch v := value.(type) {
	case dbtype.Node:
		return flattenNode(v), true
	case dbtype.Relationship:
		return flattenRelationship(v), true
	case dbtype.Path:
		nodes := make([]neo4jmcp.Record, len(v.Nodes))
		for i, node := range v.Nodes {
			nodes[i] = flattenNode(node)
		}

		relationships := make([]neo4jmcp.Record, len(v.Relationships))
		for i, rel := range v.Relationships {
			relationships[i] = flattenRelationship(rel)
		}

		return neo4jmcp.Record{"nodes": nodes, "relationships": relationships}, true
	}

	return nil, false
}

func flattenNode(node dbtype.Node) neo4jmcp.Record {
	out := make(neo4jmcp.Record, len(node.Props)+3)

	for key, value := range node.Props {
		out[key] = value
	}

	// Metadata siblings win over colliding property names.
	out["id"] = node.Id
	out["element_id"] = node.ElementId
	out["labels"] = node.Labels

	return out
}

func flattenRelationship(rel dbtype.Relationship) neo4jmcp.Record {
	out := make(neo4jmcp.Record, len(rel.Props)+5)

	for key, value := range rel.Props {
		out[key] = value
	}

	out["id"] = rel.Id
	out["element_id"] = rel.ElementId
	out["type"] = rel.Type
	out["start_id"] = rel.StartId
	out["end_id"] = rel.EndId

	return out
}
