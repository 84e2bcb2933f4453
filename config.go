package neo4jmcp

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .neo4j-mcp.yaml is found.
	ErrConfigNotFound = errors.New("neo4jmcp: no .neo4j-mcp.yaml found")

	// ErrMissingURI is returned when the endpoint URI is not configured.
	ErrMissingURI = errors.New("neo4jmcp: endpoint uri is required")
)

// Configuration defaults.
const (
	// DefaultReadLimit bounds the result size of unconditional label
	// scans and property lookups that carry no explicit limit.
	DefaultReadLimit = 100

	DefaultMaxPoolSize              = 10
	DefaultConnectionTimeoutSeconds = 30
	DefaultQueryTimeoutSeconds      = 30
)

// Config holds the endpoint configuration consumed by the connection
// manager. It is immutable after construction; the manager owns it.
type Config struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`

	// Pool and timeout settings, enforced at the driver boundary.
	MaxPoolSize              int `yaml:"max_pool_size,omitempty"`
	ConnectionTimeoutSeconds int `yaml:"connection_timeout_seconds,omitempty"`
	QueryTimeoutSeconds      int `yaml:"query_timeout_seconds,omitempty"`

	// Encrypted defaults to true. A plain bolt:// or neo4j:// URI is
	// upgraded to its TLS scheme when encryption is on.
	Encrypted *bool `yaml:"encrypted,omitempty"`

	// DefaultReadLimit caps unbounded lookups. Zero means DefaultReadLimit.
	DefaultReadLimit int `yaml:"default_read_limit,omitempty"`

	// CascadeDelete is the default cascade policy applied by the tool
	// dispatch layer when a delete request does not state one.
	CascadeDelete bool `yaml:"cascade_delete,omitempty"`
}

// ApplyDefaults fills zero-valued settings with their defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = DefaultMaxPoolSize
	}

	if c.ConnectionTimeoutSeconds == 0 {
		c.ConnectionTimeoutSeconds = DefaultConnectionTimeoutSeconds
	}

	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = DefaultQueryTimeoutSeconds
	}

	if c.DefaultReadLimit == 0 {
		c.DefaultReadLimit = DefaultReadLimit
	}
}

// Validate checks that the config is usable for connecting.
func (c *Config) Validate() error {
	if c.URI == "" {
		return ErrMissingURI
	}

	return nil
}

// IsEncrypted reports the encryption policy; encryption is on by default.
func (c *Config) IsEncrypted() bool {
	return c.Encrypted == nil || *c.Encrypted
}

// ConnectionTimeout returns the connection timeout as a duration.
func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSeconds) * time.Second
}

// QueryTimeout returns the query timeout as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".neo4j-mcp.yaml", ".neo4j-mcp.yml", "neo4j-mcp.yaml", "neo4j-mcp.yml"}

// LoadConfig finds and loads the nearest config file walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}
