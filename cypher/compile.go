package cypher

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// Default bounds for analytic templates.
const (
	// DefaultMaxPathDepth caps variable-length path expansion in the
	// shortest_path template.
	DefaultMaxPathDepth = 10

	// DefaultVectorK is the result count for vector searches that do not
	// request one.
	DefaultVectorK = 10

	// DefaultVectorDimensions is the embedding width for vector indexes
	// created without an explicit dimension count.
	DefaultVectorDimensions = 1536
)

// Compiler translates operation requests into Cypher text plus a
// parameter mapping. It holds no connection state and is safe for
// concurrent use.
type Compiler struct {
	readLimit int
}

// NewCompiler creates a compiler whose unbounded lookups are capped at
// readLimit rows. A non-positive limit falls back to the documented
// default cap.
func NewCompiler(readLimit int) *Compiler {
	if readLimit <= 0 {
		readLimit = neo4jmcp.DefaultReadLimit
	}

	return &Compiler{readLimit: readLimit}
}

// Compile translates a request into a compiled query. Property values
// are always bound through generated parameter names; only validated
// structural tokens are interpolated into the text.
func (c *Compiler) Compile(req neo4jmcp.Request) (neo4jmcp.CompiledQuery, error) {
	switch r := req.(type) {
	case neo4jmcp.CreateNode:
		return c.createNode(r)
	case neo4jmcp.GetNode:
		return c.getNode(r)
	case neo4jmcp.UpdateNode:
		return c.updateNode(r)
	case neo4jmcp.DeleteNode:
		return c.deleteNode(r)
	case neo4jmcp.CreateRelationship:
		return c.createRelationship(r)
	case neo4jmcp.GetRelationship:
		return c.getRelationship(r)
	case neo4jmcp.UpdateRelationship:
		return c.updateRelationship(r)
	case neo4jmcp.DeleteRelationship:
		return c.deleteRelationship(r)
	case neo4jmcp.RawQuery:
		return c.rawQuery(r)
	case neo4jmcp.AnalyticQuery:
		return c.analyticQuery(r)
	case neo4jmcp.VectorSearch:
		return c.vectorSearch(r)
	case neo4jmcp.CreateVectorIndex:
		return c.createVectorIndex(r)
	case neo4jmcp.ContextSearch:
		return c.contextSearch(r)
	default:
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			fmt.Sprintf("unsupported request type %T", req))
	}
}

// binder generates collision-free parameter names. Names are derived
// structurally (p0, p1, ...) so no caller value can influence them.
type binder struct {
	params map[string]any
	n      int
}

func newBinder() *binder {
	return &binder{params: map[string]any{}}
}

// bind registers v under a fresh parameter name and returns its
// reference for use in query text.
func (b *binder) bind(v any) string {
	name := "p" + strconv.Itoa(b.n)
	b.n++
	b.params[name] = v

	return "$" + name
}

func (c *Compiler) createNode(r neo4jmcp.CreateNode) (neo4jmcp.CompiledQuery, error) {
	if len(r.Labels) == 0 {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"create_node requires at least one label")
	}

	labels, err := labelExpr(r.Labels)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	b := newBinder()

	props, err := inlineProps(b, r.Properties)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	return neo4jmcp.CompiledQuery{
		Text:   "CREATE (n" + labels + props + ")",
		Params: b.params,
		Intent: neo4jmcp.IntentWrite,
	}, nil
}

func (c *Compiler) getNode(r neo4jmcp.GetNode) (neo4jmcp.CompiledQuery, error) {
	b := newBinder()

	if r.ID != nil {
		return neo4jmcp.CompiledQuery{
			Text:   "MATCH (n) WHERE id(n) = " + b.bind(*r.ID) + " RETURN n",
			Params: b.params,
			Intent: neo4jmcp.IntentRead,
		}, nil
	}

	if len(r.Labels) == 0 && len(r.Properties) == 0 {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"get_node requires an id, labels, or property filters")
	}

	labels, err := labelExpr(r.Labels)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	where, err := propertyPredicates(b, "n", r.Properties)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	var text strings.Builder

	text.WriteString("MATCH (n" + labels + ")")

	if where != "" {
		text.WriteString(" WHERE " + where)
	}

	// Property-less label scans are unconditional; the cap bounds the
	// response size either way.
	text.WriteString(" RETURN n LIMIT " + strconv.Itoa(c.limitFor(r.Limit)))

	return neo4jmcp.CompiledQuery{
		Text:   text.String(),
		Params: b.params,
		Intent: neo4jmcp.IntentRead,
	}, nil
}

func (c *Compiler) updateNode(r neo4jmcp.UpdateNode) (neo4jmcp.CompiledQuery, error) {
	b := newBinder()
	idRef := b.bind(r.ID)

	assignments, err := propertyAssignments(b, "n", r.Properties)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	if len(r.Labels) > 0 {
		labels, err := labelExpr(r.Labels)
		if err != nil {
			return neo4jmcp.CompiledQuery{}, err
		}

		assignments = append(assignments, "n"+labels)
	}

	// Nothing to change: compile to a read-back of the current state so
	// the caller observes a successful no-change response.
	if len(assignments) == 0 {
		return neo4jmcp.CompiledQuery{
			Text:   "MATCH (n) WHERE id(n) = " + idRef + " RETURN n",
			Params: b.params,
			Intent: neo4jmcp.IntentWrite,
		}, nil
	}

	return neo4jmcp.CompiledQuery{
		Text:   "MATCH (n) WHERE id(n) = " + idRef + " SET " + strings.Join(assignments, ", "),
		Params: b.params,
		Intent: neo4jmcp.IntentWrite,
	}, nil
}

func (c *Compiler) deleteNode(r neo4jmcp.DeleteNode) (neo4jmcp.CompiledQuery, error) {
	b := newBinder()

	// Without cascade the delete is left to fail at execution time when
	// dependent relationships exist.
	verb := "DELETE"
	if r.Cascade {
		verb = "DETACH DELETE"
	}

	return neo4jmcp.CompiledQuery{
		Text:   "MATCH (n) WHERE id(n) = " + b.bind(r.ID) + " " + verb + " n",
		Params: b.params,
		Intent: neo4jmcp.IntentWrite,
	}, nil
}

func (c *Compiler) createRelationship(r neo4jmcp.CreateRelationship) (neo4jmcp.CompiledQuery, error) {
	if r.Type == "" {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"create_relationship requires a relationship type")
	}

	if err := checkIdentifier("relationship type", r.Type); err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	b := newBinder()
	fromRef := b.bind(r.FromID)
	toRef := b.bind(r.ToID)

	props, err := inlineProps(b, r.Properties)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	// MATCH before CREATE: a missing endpoint yields zero rows and a
	// zero-count summary rather than an execution error.
	text := "MATCH (a), (b) WHERE id(a) = " + fromRef + " AND id(b) = " + toRef +
		" CREATE (a)-[r:" + r.Type + props + "]->(b)"

	return neo4jmcp.CompiledQuery{
		Text:   text,
		Params: b.params,
		Intent: neo4jmcp.IntentWrite,
	}, nil
}

func (c *Compiler) getRelationship(r neo4jmcp.GetRelationship) (neo4jmcp.CompiledQuery, error) {
	b := newBinder()

	if r.ID != nil {
		return neo4jmcp.CompiledQuery{
			Text:   "MATCH ()-[r]->() WHERE id(r) = " + b.bind(*r.ID) + " RETURN r",
			Params: b.params,
			Intent: neo4jmcp.IntentRead,
		}, nil
	}

	if r.Type == "" && r.FromID == nil && r.ToID == nil && len(r.Properties) == 0 {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"get_relationship requires an id, type, endpoint ids, or property filters")
	}

	typeExpr := ""

	if r.Type != "" {
		if err := checkIdentifier("relationship type", r.Type); err != nil {
			return neo4jmcp.CompiledQuery{}, err
		}

		typeExpr = ":" + r.Type
	}

	var predicates []string

	if r.FromID != nil {
		predicates = append(predicates, "id(a) = "+b.bind(*r.FromID))
	}

	if r.ToID != nil {
		predicates = append(predicates, "id(b) = "+b.bind(*r.ToID))
	}

	propWhere, err := propertyPredicates(b, "r", r.Properties)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	if propWhere != "" {
		predicates = append(predicates, propWhere)
	}

	var text strings.Builder

	text.WriteString("MATCH (a)-[r" + typeExpr + "]->(b)")

	if len(predicates) > 0 {
		text.WriteString(" WHERE " + strings.Join(predicates, " AND "))
	}

	text.WriteString(" RETURN r LIMIT " + strconv.Itoa(c.limitFor(r.Limit)))

	return neo4jmcp.CompiledQuery{
		Text:   text.String(),
		Params: b.params,
		Intent: neo4jmcp.IntentRead,
	}, nil
}

func (c *Compiler) updateRelationship(r neo4jmcp.UpdateRelationship) (neo4jmcp.CompiledQuery, error) {
	b := newBinder()
	idRef := b.bind(r.ID)

	assignments, err := propertyAssignments(b, "r", r.Properties)
	if err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	if len(assignments) == 0 {
		return neo4jmcp.CompiledQuery{
			Text:   "MATCH ()-[r]->() WHERE id(r) = " + idRef + " RETURN r",
			Params: b.params,
			Intent: neo4jmcp.IntentWrite,
		}, nil
	}

	return neo4jmcp.CompiledQuery{
		Text:   "MATCH ()-[r]->() WHERE id(r) = " + idRef + " SET " + strings.Join(assignments, ", "),
		Params: b.params,
		Intent: neo4jmcp.IntentWrite,
	}, nil
}

func (c *Compiler) deleteRelationship(r neo4jmcp.DeleteRelationship) (neo4jmcp.CompiledQuery, error) {
	b := newBinder()

	return neo4jmcp.CompiledQuery{
		Text:   "MATCH ()-[r]->() WHERE id(r) = " + b.bind(r.ID) + " DELETE r",
		Params: b.params,
		Intent: neo4jmcp.IntentWrite,
	}, nil
}

func (c *Compiler) rawQuery(r neo4jmcp.RawQuery) (neo4jmcp.CompiledQuery, error) {
	if strings.TrimSpace(r.Query) == "" {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"raw query requires query text")
	}

	// Caller-chosen parameter names are referenced by the caller's own
	// text, so they pass through unrenamed but still validated.
	params := make(map[string]any, len(r.Params))

	for name, value := range r.Params {
		if err := checkIdentifier("parameter name", name); err != nil {
			return neo4jmcp.CompiledQuery{}, err
		}

		if err := neo4jmcp.ValidateValue(value); err != nil {
			return neo4jmcp.CompiledQuery{}, err
		}

		params[name] = value
	}

	intent := r.DeclaredIntent
	if intent == neo4jmcp.IntentUnspecified {
		intent = InferIntent(r.Query)
	}

	return neo4jmcp.CompiledQuery{
		Text:   r.Query,
		Params: params,
		Intent: intent,
	}, nil
}

func (c *Compiler) analyticQuery(r neo4jmcp.AnalyticQuery) (neo4jmcp.CompiledQuery, error) {
	b := newBinder()

	switch r.Algorithm {
	case "shortest_path":
		if r.StartID == nil || r.EndID == nil {
			return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
				"shortest_path requires start and end node ids")
		}

		depth := r.MaxDepth
		if depth <= 0 {
			depth = DefaultMaxPathDepth
		}

		text := "MATCH (a), (b) WHERE id(a) = " + b.bind(*r.StartID) +
			" AND id(b) = " + b.bind(*r.EndID) +
			" MATCH p = shortestPath((a)-[*.." + strconv.Itoa(depth) + "]-(b)) RETURN p"

		return neo4jmcp.CompiledQuery{Text: text, Params: b.params, Intent: neo4jmcp.IntentRead}, nil

	case "degree_centrality":
		labels := ""

		if r.Label != "" {
			if err := checkIdentifier("label", r.Label); err != nil {
				return neo4jmcp.CompiledQuery{}, err
			}

			labels = ":" + r.Label
		}

		text := "MATCH (n" + labels + ") RETURN id(n) AS id, labels(n) AS labels," +
			" COUNT { (n)--() } AS degree ORDER BY degree DESC LIMIT " +
			strconv.Itoa(c.limitFor(r.Limit))

		return neo4jmcp.CompiledQuery{Text: text, Params: b.params, Intent: neo4jmcp.IntentRead}, nil

	case "graph_metrics":
		text := "CALL { MATCH (n) RETURN count(n) AS nodes }" +
			" CALL { MATCH ()-[r]->() RETURN count(r) AS relationships }" +
			" CALL { CALL db.labels() YIELD label RETURN count(label) AS labels }" +
			" RETURN nodes, relationships, labels"

		return neo4jmcp.CompiledQuery{Text: text, Params: b.params, Intent: neo4jmcp.IntentRead}, nil

	default:
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			fmt.Sprintf("unsupported analytic algorithm %q", r.Algorithm)).
			WithDetail("algorithm", r.Algorithm)
	}
}

func (c *Compiler) vectorSearch(r neo4jmcp.VectorSearch) (neo4jmcp.CompiledQuery, error) {
	// The index name sits in a procedure-argument position and is bound
	// as a parameter, so the structural identifier grammar does not
	// apply; names like "doc-embeddings.v2" are legal.
	if r.Index == "" {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"vector_search requires an index name")
	}

	if len(r.Vector) == 0 {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"vector_search requires a query vector")
	}

	k := r.K
	if k <= 0 {
		k = DefaultVectorK
	}

	b := newBinder()
	text := "CALL db.index.vector.queryNodes(" + b.bind(r.Index) + ", " + b.bind(k) +
		", " + b.bind(r.Vector) + ") YIELD node, score RETURN node, score"

	return neo4jmcp.CompiledQuery{Text: text, Params: b.params, Intent: neo4jmcp.IntentRead}, nil
}

func (c *Compiler) createVectorIndex(r neo4jmcp.CreateVectorIndex) (neo4jmcp.CompiledQuery, error) {
	if r.Index == "" || r.Label == "" || r.Property == "" {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"create_vector_index requires an index name, a label, and a property")
	}

	// Label and property name real graph tokens even though they travel
	// as procedure arguments here; the index name is free-form.
	if err := checkIdentifier("label", r.Label); err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	if err := checkIdentifier("property key", r.Property); err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	dimensions := r.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultVectorDimensions
	}

	b := newBinder()
	text := "CALL db.index.vector.createNodeIndex(" + b.bind(r.Index) + ", " + b.bind(r.Label) +
		", " + b.bind(r.Property) + ", " + b.bind(dimensions) + ", 'cosine')"

	return neo4jmcp.CompiledQuery{Text: text, Params: b.params, Intent: neo4jmcp.IntentWrite}, nil
}

func (c *Compiler) contextSearch(r neo4jmcp.ContextSearch) (neo4jmcp.CompiledQuery, error) {
	if strings.TrimSpace(r.Text) == "" {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"context search requires query text")
	}

	if r.Label == "" || len(r.Properties) == 0 {
		return neo4jmcp.CompiledQuery{}, neo4jmcp.NewError(neo4jmcp.KindEmptyOperation,
			"context search requires a label and at least one text property")
	}

	if err := checkIdentifier("label", r.Label); err != nil {
		return neo4jmcp.CompiledQuery{}, err
	}

	b := newBinder()
	textRef := b.bind(r.Text)

	conditions := make([]string, 0, len(r.Properties))

	for _, key := range r.Properties {
		if err := checkIdentifier("property key", key); err != nil {
			return neo4jmcp.CompiledQuery{}, err
		}

		conditions = append(conditions, "n."+key+" CONTAINS "+textRef)
	}

	text := "MATCH (n:" + r.Label + ") WHERE " + strings.Join(conditions, " OR ") +
		" RETURN n LIMIT " + strconv.Itoa(c.limitFor(r.Limit))

	return neo4jmcp.CompiledQuery{Text: text, Params: b.params, Intent: neo4jmcp.IntentRead}, nil
}

func (c *Compiler) limitFor(requested int) int {
	if requested > 0 {
		return requested
	}

	return c.readLimit
}

// labelExpr validates labels and renders them as a ":A:B" suffix.
func labelExpr(labels []string) (string, error) {
	var expr strings.Builder

	for _, label := range labels {
		if err := checkIdentifier("label", label); err != nil {
			return "", err
		}

		expr.WriteString(":" + label)
	}

	return expr.String(), nil
}

// inlineProps renders properties as a " {key: $p0, ...}" map literal with
// every value bound through the parameter mapping. Keys are emitted in
// sorted order so compilation is deterministic.
func inlineProps(b *binder, props map[string]any) (string, error) {
	if len(props) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(props))

	for _, key := range sortedKeys(props) {
		if err := checkIdentifier("property key", key); err != nil {
			return "", err
		}

		if err := neo4jmcp.ValidateValue(props[key]); err != nil {
			return "", err
		}

		parts = append(parts, key+": "+b.bind(props[key]))
	}

	return " {" + strings.Join(parts, ", ") + "}", nil
}

// propertyPredicates renders AND-combined equality predicates against the
// given alias.
func propertyPredicates(b *binder, alias string, props map[string]any) (string, error) {
	if len(props) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(props))

	for _, key := range sortedKeys(props) {
		if err := checkIdentifier("property key", key); err != nil {
			return "", err
		}

		if err := neo4jmcp.ValidateValue(props[key]); err != nil {
			return "", err
		}

		parts = append(parts, alias+"."+key+" = "+b.bind(props[key]))
	}

	return strings.Join(parts, " AND "), nil
}

// propertyAssignments renders SET clauses against the given alias.
func propertyAssignments(b *binder, alias string, props map[string]any) ([]string, error) {
	assignments := make([]string, 0, len(props))

	for _, key := range sortedKeys(props) {
		if err := checkIdentifier("property key", key); err != nil {
			return nil, err
		}

		if err := neo4jmcp.ValidateValue(props[key]); err != nil {
			return nil, err
		}

		assignments = append(assignments, alias+"."+key+" = "+b.bind(props[key]))
	}

	return assignments, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
