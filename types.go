package neo4jmcp

import "fmt"

// Intent declares whether a compiled query reads or mutates the graph.
// It decides transaction handling in the execution engine.
type Intent int

// Execution intents.
const (
	// IntentUnspecified lets the compiler infer the intent. Only raw
	// queries carry it; every typed variant has a fixed intent.
	IntentUnspecified Intent = iota

	IntentRead
	IntentWrite
)

func (i Intent) String() string {
	switch i {
	case IntentRead:
		return "read"
	case IntentWrite:
		return "write"
	default:
		return "unspecified"
	}
}

// Request is the tagged operation variant consumed by the query compiler.
// Implementations are the operation structs below; nothing else satisfies it.
type Request interface {
	// Intent returns the fixed execution intent of the variant.
	// RawQuery returns IntentUnspecified unless the caller declared one.
	Intent() Intent

	isRequest()
}

// CreateNode creates a node with the given labels and properties.
type CreateNode struct {
	Labels     []string
	Properties map[string]any
}

// GetNode looks up nodes by internal id, or by label and property
// predicates combined with AND. A lookup with labels but no predicates
// returns all nodes of those labels, bounded by Limit (or the compiler's
// default read cap when Limit is zero).
type GetNode struct {
	ID         *int64
	Labels     []string
	Properties map[string]any
	Limit      int
}

// UpdateNode sets properties and adds labels on the node with the given
// id. With neither properties nor labels it compiles to a read-back of
// the current state, observable as a successful no-change response.
type UpdateNode struct {
	ID         int64
	Properties map[string]any
	Labels     []string
}

// DeleteNode deletes the node with the given id. With Cascade set the
// delete detaches dependent relationships first; without it the delete
// fails at execution time if relationships exist.
type DeleteNode struct {
	ID      int64
	Cascade bool
}

// CreateRelationship creates a typed relationship between two existing
// nodes. When either endpoint does not exist, nothing is created and the
// operation still succeeds with a zero-count summary.
type CreateRelationship struct {
	FromID     int64
	ToID       int64
	Type       string
	Properties map[string]any
}

// GetRelationship looks up relationships by internal id, or by type,
// endpoint ids and property predicates combined with AND.
type GetRelationship struct {
	ID         *int64
	Type       string
	FromID     *int64
	ToID       *int64
	Properties map[string]any
	Limit      int
}

// UpdateRelationship sets properties on the relationship with the given
// id. With no properties it compiles to a read-back of the current state.
type UpdateRelationship struct {
	ID         int64
	Properties map[string]any
}

// DeleteRelationship deletes the relationship with the given id.
type DeleteRelationship struct {
	ID int64
}

// RawQuery passes caller-supplied query text through unmodified. Bind
// parameters are routed through the parameter mapping, never interpolated.
// DeclaredIntent, when set, bypasses the write-keyword heuristic.
type RawQuery struct {
	Query          string
	Params         map[string]any
	DeclaredIntent Intent
}

// AnalyticQuery runs a named analytic over the graph. The supported
// algorithms are compiled from fixed templates; the analytics capability
// itself is opaque to this layer.
type AnalyticQuery struct {
	Algorithm string
	StartID   *int64
	EndID     *int64
	Label     string
	MaxDepth  int
	Limit     int
}

// VectorSearch performs a vector similarity search against a named
// vector index. The query vector is supplied by an external embedding
// collaborator.
type VectorSearch struct {
	Index  string
	Vector []float64
	K      int
}

// CreateVectorIndex creates a node vector index over one label and
// property. Dimensions defaults to the standard embedding width when
// zero; the similarity function is fixed to cosine.
type CreateVectorIndex struct {
	Index      string
	Label      string
	Property   string
	Dimensions int
}

// ContextSearch retrieves nodes whose text properties contain the given
// fragment, OR-combined across properties. It backs context retrieval
// where no vector index exists.
type ContextSearch struct {
	Label      string
	Text       string
	Properties []string
	Limit      int
}

func (CreateNode) Intent() Intent         { return IntentWrite }
func (GetNode) Intent() Intent            { return IntentRead }
func (UpdateNode) Intent() Intent         { return IntentWrite }
func (DeleteNode) Intent() Intent         { return IntentWrite }
func (CreateRelationship) Intent() Intent { return IntentWrite }
func (GetRelationship) Intent() Intent    { return IntentRead }
func (UpdateRelationship) Intent() Intent { return IntentWrite }
func (DeleteRelationship) Intent() Intent { return IntentWrite }
func (AnalyticQuery) Intent() Intent      { return IntentRead }
func (VectorSearch) Intent() Intent       { return IntentRead }
func (CreateVectorIndex) Intent() Intent  { return IntentWrite }
func (ContextSearch) Intent() Intent      { return IntentRead }

// Intent returns the caller-declared intent, or IntentUnspecified to let
// the compiler fall back to the write-keyword heuristic.
func (r RawQuery) Intent() Intent { return r.DeclaredIntent }

func (CreateNode) isRequest()         {}
func (GetNode) isRequest()            {}
func (UpdateNode) isRequest()         {}
func (DeleteNode) isRequest()         {}
func (CreateRelationship) isRequest() {}
func (GetRelationship) isRequest()    {}
func (UpdateRelationship) isRequest() {}
func (DeleteRelationship) isRequest() {}
func (RawQuery) isRequest()           {}
func (AnalyticQuery) isRequest()      {}
func (VectorSearch) isRequest()       {}
func (CreateVectorIndex) isRequest()  {}
func (ContextSearch) isRequest()      {}

// CompiledQuery is an owned pair of query text and parameter mapping.
// Parameter names are compiler-generated and collision-free; caller
// values never appear in the text.
type CompiledQuery struct {
	Text   string
	Params map[string]any
	Intent Intent
}

// Record is a single result row keyed by return column. Values may be
// driver-native graph entities until the normalizer flattens them.
type Record map[string]any

// WriteSummary aggregates the structural effect of a write operation.
// All fields are always present so callers can treat the shape as stable.
type WriteSummary struct {
	NodesCreated         int `json:"nodes_created"`
	NodesDeleted         int `json:"nodes_deleted"`
	RelationshipsCreated int `json:"relationships_created"`
	RelationshipsDeleted int `json:"relationships_deleted"`
	PropertiesSet        int `json:"properties_set"`
	LabelsAdded          int `json:"labels_added"`
	LabelsRemoved        int `json:"labels_removed"`
	IndexesAdded         int `json:"indexes_added"`
	IndexesRemoved       int `json:"indexes_removed"`
	ConstraintsAdded     int `json:"constraints_added"`
	ConstraintsRemoved   int `json:"constraints_removed"`
}

// Result is the execution outcome before normalization: a record sequence
// for reads, a write summary for writes.
type Result struct {
	Records []Record
	Summary WriteSummary
	Write   bool
}

// Envelope is the sole contract surfaced to the tool-dispatch
// collaborator. Exactly one of Data and Error is populated, matching
// Success. Data is either a flattened record sequence or a WriteSummary.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   *Error `json:"error"`
}

// ValidateValue checks that v fits the closed property-value variant:
// string, integer, float, boolean, or an array of those scalars. Nested
// maps and other dynamic shapes are rejected.
func ValidateValue(v any) error {
	if isScalar(v) {
		return nil
	}

	switch arr := v.(type) {
	case []string, []bool, []int, []int64, []float64:
		return nil
	case []any:
		for _, elem := range arr {
			if !isScalar(elem) {
				return NewError(KindEmptyOperation,
					fmt.Sprintf("unsupported array element type %T", elem))
			}
		}

		return nil
	}

	return NewError(KindEmptyOperation,
		fmt.Sprintf("unsupported property value type %T", v))
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	}

	return false
}
