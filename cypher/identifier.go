// Package cypher compiles typed graph operations into parameterized
// Cypher queries. Compilation is pure: no I/O and no driver types, so a
// compile error is always surfaced before the connection manager is
// touched.
package cypher

import (
	"fmt"
	"strings"
	"unicode"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// reservedWords are Cypher keywords rejected as structural tokens.
// Matching is case-insensitive.
var reservedWords = map[string]struct{}{
	"MATCH": {}, "CREATE": {}, "MERGE": {}, "DELETE": {}, "DETACH": {},
	"SET": {}, "REMOVE": {}, "RETURN": {}, "WHERE": {}, "WITH": {},
	"UNION": {}, "CALL": {}, "UNWIND": {}, "FOREACH": {}, "OPTIONAL": {},
	"LIMIT": {}, "SKIP": {}, "ORDER": {}, "BY": {}, "ASC": {}, "DESC": {},
	"AND": {}, "OR": {}, "XOR": {}, "NOT": {}, "IN": {}, "IS": {},
	"NULL": {}, "TRUE": {}, "FALSE": {}, "EXISTS": {}, "CASE": {},
	"WHEN": {}, "THEN": {}, "ELSE": {}, "END": {}, "DISTINCT": {},
	"AS": {}, "CONSTRAINT": {}, "INDEX": {}, "DROP": {}, "USING": {},
	"ON": {}, "STARTS": {}, "ENDS": {}, "CONTAINS": {},
}

// ValidIdentifier reports whether s satisfies the identifier grammar for
// structural tokens: a letter or underscore followed by letters, digits
// or underscores, and not a reserved Cypher word. Labels, relationship
// types and property keys occupy positions Cypher cannot parameterize,
// so they are interpolated into query text and must be constrained here
// rather than escaped.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
		} else {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return false
			}
		}
	}

	_, reserved := reservedWords[strings.ToUpper(s)]

	return !reserved
}

// checkIdentifier returns an invalid_identifier error naming the failing
// token, or nil.
func checkIdentifier(position, s string) error {
	if ValidIdentifier(s) {
		return nil
	}

	return neo4jmcp.NewError(neo4jmcp.KindInvalidIdentifier,
		fmt.Sprintf("invalid %s %q", position, s)).WithDetail("token", s)
}
