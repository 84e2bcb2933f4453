package cypher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// writeKeywords indicate a mutating statement when found at a word
// boundary in raw query text.
var writeKeywords = []string{
	"CREATE", "MERGE", "DELETE", "DETACH", "SET", "REMOVE", "DROP", "FOREACH",
}

// InferIntent decides read vs write routing for raw query text by
// scanning for write-indicating keywords. This is a heuristic, not a
// guarantee: a keyword inside a string literal is a false positive, and
// a write hidden behind a procedure CALL is a false negative. Callers
// that know their intent should declare it on the request instead.
func InferIntent(query string) neo4jmcp.Intent {
	upper := strings.ToUpper(query)

	for _, keyword := range writeKeywords {
		if containsWord(upper, keyword) {
			return neo4jmcp.IntentWrite
		}
	}

	return neo4jmcp.IntentRead
}

// containsWord reports whether word occurs in s delimited by non-word
// runes. Both inputs must already share case. Neighbors are decoded as
// runes so a multi-byte letter adjacent to the keyword does not pass
// for a boundary.
func containsWord(s, word string) bool {
	for start := 0; ; {
		i := strings.Index(s[start:], word)
		if i == -1 {
			return false
		}

		i += start
		end := i + len(word)

		left, _ := utf8.DecodeLastRuneInString(s[:i])
		right, _ := utf8.DecodeRuneInString(s[end:])

		leftOK := i == 0 || !isWordRune(left)
		rightOK := end == len(s) || !isWordRune(right)

		if leftOK && rightOK {
			return true
		}

		start = i + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
