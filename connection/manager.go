// Package connection owns the pooled Neo4j endpoint handle: lifecycle,
// session acquisition, liveness probing, and failure classification.
// Transient failures are classified and surfaced, never retried here;
// retry policy belongs to the dispatch layer above.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
)

// Health is the tri-state result of a liveness probe.
type Health string

// Health states.
const (
	HealthHealthy      Health = "healthy"
	HealthUnhealthy    Health = "unhealthy"
	HealthDisconnected Health = "disconnected"
)

// Manager owns the driver handle for one configured endpoint. The pool
// handle is process-lifetime scoped: Connect once at startup, Disconnect
// once at shutdown. Only Connect and Disconnect mutate the connected
// state; sessions may be acquired concurrently in between.
type Manager struct {
	cfg *neo4jmcp.Config
	log *zap.Logger

	mu        sync.RWMutex
	driver    neo4j.DriverWithContext
	connected bool
}

// NewManager creates a manager for the given endpoint config. The
// manager owns the config exclusively after construction.
func NewManager(cfg *neo4jmcp.Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}

	cfg.ApplyDefaults()

	return &Manager{cfg: cfg, log: log}
}

// Connect establishes the pooled endpoint handle and verifies liveness
// with a trivial round-trip before declaring success. Credential
// rejection and unreachable endpoints are reported as distinct kinds.
// A second Connect on a live manager is a no-op; the existing pool
// handle stays in place.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.RLock()
	connected := m.connected
	m.mu.RUnlock()

	if connected {
		return nil
	}

	if err := m.cfg.Validate(); err != nil {
		return neo4jmcp.WrapError(neo4jmcp.KindConnectionFailure, "invalid endpoint config", err)
	}

	uri := secureURI(m.cfg.URI, m.cfg.IsEncrypted())

	auth := neo4j.NoAuth()
	if m.cfg.Username != "" {
		auth = neo4j.BasicAuth(m.cfg.Username, m.cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth, func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = m.cfg.MaxPoolSize
		config.ConnectionAcquisitionTimeout = m.cfg.ConnectionTimeout()
		config.SocketConnectTimeout = m.cfg.ConnectionTimeout()
	})
	if err != nil {
		return classifyConnectError(err)
	}

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)

		return classifyConnectError(err)
	}

	err = probe(ctx, driver, m.cfg.Database)
	if err != nil {
		_ = driver.Close(ctx)

		return classifyConnectError(err)
	}

	m.mu.Lock()
	m.driver = driver
	m.connected = true
	m.mu.Unlock()

	m.log.Info("connected to neo4j",
		zap.String("uri", uri),
		zap.String("database", m.cfg.Database),
		zap.Int("max_pool_size", m.cfg.MaxPoolSize))

	return nil
}

// Disconnect releases the pooled handle. It is idempotent and never
// fails; teardown errors are logged and swallowed since the process is
// exiting the resource's lifetime regardless.
func (m *Manager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	driver := m.driver
	m.driver = nil
	m.connected = false
	m.mu.Unlock()

	if driver == nil {
		return
	}

	if err := driver.Close(ctx); err != nil {
		m.log.Warn("error closing neo4j driver", zap.Error(err))

		return
	}

	m.log.Info("disconnected from neo4j")
}

// AcquireSession returns a scoped session bound to the given database,
// or the configured default when database is empty. A cancelled caller
// context fails the call before any session is acquired.
func (m *Manager) AcquireSession(ctx context.Context, database string) (neo4jmcp.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, neo4jmcp.WrapError(neo4jmcp.KindSessionFailure,
			"call cancelled before session acquisition", err)
	}

	m.mu.RLock()
	driver, connected := m.driver, m.connected
	m.mu.RUnlock()

	if !connected {
		return nil, neo4jmcp.NewError(neo4jmcp.KindNotConnected, "not connected to neo4j")
	}

	if database == "" {
		database = m.cfg.Database
	}

	s := driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: database,
		AccessMode:   neo4j.AccessModeWrite,
	})

	return &Session{inner: s, queryTimeout: m.cfg.QueryTimeout()}, nil
}

// HealthCheck runs a liveness probe and reports a tri-state result. It
// never fails; probe errors degrade the state to unhealthy.
func (m *Manager) HealthCheck(ctx context.Context) Health {
	m.mu.RLock()
	driver, connected := m.driver, m.connected
	m.mu.RUnlock()

	if !connected {
		return HealthDisconnected
	}

	if err := probe(ctx, driver, m.cfg.Database); err != nil {
		m.log.Debug("liveness probe failed", zap.Error(err))

		return HealthUnhealthy
	}

	return HealthHealthy
}

// probe runs a trivial round-trip query and checks its answer.
func probe(ctx context.Context, driver neo4j.DriverWithContext, database string) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, "RETURN 1 AS ok", nil)
	if err != nil {
		return err
	}

	record, err := result.Single(ctx)
	if err != nil {
		return err
	}

	value, ok := record.Get("ok")
	if !ok {
		return errors.New("connection: liveness probe returned no value")
	}

	answer, ok := value.(int64)
	if !ok || answer != 1 {
		return fmt.Errorf("connection: liveness probe returned unexpected value %v", value)
	}

	return nil
}

// Compile-time interface check.
var _ neo4jmcp.SessionProvider = (*Manager)(nil)
