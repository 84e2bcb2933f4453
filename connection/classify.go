package connection

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// classifyConnectError maps a connection-phase driver error onto the
// public taxonomy, distinguishing credential rejection from an
// unreachable endpoint.
func classifyConnectError(err error) *neo4jmcp.Error {
	var neoErr *neo4j.Neo4jError

	if errors.As(err, &neoErr) {
		if strings.HasPrefix(neoErr.Code, "Neo.ClientError.Security.") {
			return neo4jmcp.WrapError(neo4jmcp.KindAuthenticationFailure,
				"neo4j authentication failed", err).WithDetail("code", neoErr.Code)
		}

		return neo4jmcp.WrapError(neo4jmcp.KindConnectionFailure,
			"failed to connect to neo4j", err).WithDetail("code", neoErr.Code)
	}

	if neo4j.IsConnectivityError(err) {
		return neo4jmcp.WrapError(neo4jmcp.KindServiceUnavailable,
			"neo4j service unavailable", err)
	}

	return neo4jmcp.WrapError(neo4jmcp.KindConnectionFailure,
		"failed to connect to neo4j", err)
}

// classifyRunError maps a mid-execution driver error onto the public
// taxonomy: query-language errors become query_execution_failure,
// dropped connections and cancellations become session_failure.
func classifyRunError(err error) *neo4jmcp.Error {
	var e *neo4jmcp.Error
	if errors.As(err, &e) {
		return e
	}

	var neoErr *neo4j.Neo4jError

	if errors.As(err, &neoErr) {
		return neo4jmcp.WrapError(neo4jmcp.KindQueryExecutionFailure,
			"query execution failed", err).WithDetail("code", neoErr.Code)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return neo4jmcp.WrapError(neo4jmcp.KindSessionFailure,
			"call cancelled mid-execution", err)
	}

	if neo4j.IsConnectivityError(err) {
		return neo4jmcp.WrapError(neo4jmcp.KindSessionFailure,
			"connection dropped mid-execution", err)
	}

	return neo4jmcp.WrapError(neo4jmcp.KindUnknown, "unclassified driver failure", err)
}

// secureURI upgrades a plaintext URI scheme to its TLS variant when
// encryption is on. Already-secure schemes and unknown schemes pass
// through untouched.
func secureURI(uri string, encrypted bool) string {
	if !encrypted {
		return uri
	}

	switch {
	case strings.HasPrefix(uri, "neo4j://"):
		return "neo4j+s://" + strings.TrimPrefix(uri, "neo4j://")
	case strings.HasPrefix(uri, "bolt://"):
		return "bolt+s://" + strings.TrimPrefix(uri, "bolt://")
	default:
		return uri
	}
}
