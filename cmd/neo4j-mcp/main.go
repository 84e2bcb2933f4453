// Command neo4j-mcp exposes graph operations over Neo4j as tool calls.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	neo4jmcp "github.com/dpartin/neo4j-mcp"
	"github.com/dpartin/neo4j-mcp/connection"
	"github.com/dpartin/neo4j-mcp/engine"
	"github.com/dpartin/neo4j-mcp/tools"
)

func main() {
	app := &cli.Command{
		Name:  "neo4j-mcp",
		Usage: "Schema-validated graph operations over Neo4j",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "uri",
				Usage:   "Neo4j connection URI",
				Sources: cli.EnvVars("NEO4J_URI"),
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Neo4j username",
				Sources: cli.EnvVars("NEO4J_USER"),
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Neo4j password",
				Sources: cli.EnvVars("NEO4J_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "target database (overrides config)",
				Sources: cli.EnvVars("NEO4J_DATABASE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file (default: walk up for .neo4j-mcp.yaml)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			healthCommand(),
			toolsCommand(),
			resourcesCommand(),
			callCommand(),
			readCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs to stderr so stdout stays reserved for envelopes. A
// terminal gets the console encoder, anything else gets JSON.
func newLogger(verbose bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = level

	if isatty.IsTerminal(os.Stderr.Fd()) {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	return config.Build()
}

// loadConfig resolves configuration with flags overriding file values.
func loadConfig(cmd *cli.Command) (*neo4jmcp.Config, error) {
	var (
		cfg *neo4jmcp.Config
		err error
	)

	if path := cmd.String("config"); path != "" {
		cfg, err = neo4jmcp.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting cwd: %w", err)
		}

		cfg, err = neo4jmcp.LoadConfig(cwd)
		if err != nil {
			cfg = &neo4jmcp.Config{}
		}
	}

	if uri := cmd.String("uri"); uri != "" {
		cfg.URI = uri
	}

	if username := cmd.String("username"); username != "" {
		cfg.Username = username
	}

	if password := cmd.String("password"); password != "" {
		cfg.Password = password
	}

	if database := cmd.String("database"); database != "" {
		cfg.Database = database
	}

	cfg.ApplyDefaults()

	return cfg, nil
}

// setup connects and wires the full pipeline. The returned cleanup
// disconnects and flushes the logger.
func setup(ctx context.Context, cmd *cli.Command) (*tools.Handler, func(), error) {
	log, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	manager := connection.NewManager(cfg, log)
	if err := manager.Connect(ctx); err != nil {
		_ = log.Sync()

		return nil, nil, err
	}

	eng := engine.New(manager, log)
	handler := tools.NewHandler(cfg, eng, log)

	cleanup := func() {
		manager.Disconnect(context.WithoutCancel(ctx))
		_ = log.Sync()
	}

	return handler, cleanup, nil
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Probe connectivity and report health state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, err := newLogger(cmd.Bool("verbose"))
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			manager := connection.NewManager(cfg, log)
			if err := manager.Connect(ctx); err != nil {
				// A failed connect still has a reportable health state.
				log.Warn("connect failed", zap.Error(err))
			}
			defer manager.Disconnect(context.WithoutCancel(ctx))

			health := manager.HealthCheck(ctx)

			return printJSON(map[string]string{"health": string(health)})
		},
	}
}

func toolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "List callable tools",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := &neo4jmcp.Config{}
			cfg.ApplyDefaults()

			handler := tools.NewHandler(cfg, nil, zap.NewNop())

			return printJSON(handler.Tools())
		},
	}
}

func resourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "resources",
		Usage: "List readable schema resources",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := &neo4jmcp.Config{}
			cfg.ApplyDefaults()

			handler := tools.NewHandler(cfg, nil, zap.NewNop())

			return printJSON(handler.Resources())
		},
	}
}

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Call a tool with JSON arguments",
		ArgsUsage: "<tool> [json-args]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("usage: neo4j-mcp call <tool> [json-args]")
			}

			name := cmd.Args().Get(0)

			args := json.RawMessage("{}")
			if cmd.Args().Len() > 1 {
				args = json.RawMessage(cmd.Args().Get(1))
			}

			handler, cleanup, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			envelope := handler.Call(ctx, name, args)
			if err := printJSON(envelope); err != nil {
				return err
			}

			if !envelope.Success {
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Read a schema resource",
		ArgsUsage: "<resource>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("usage: neo4j-mcp read <resource>")
			}

			name := cmd.Args().Get(0)

			handler, cleanup, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			envelope := handler.ReadResource(ctx, name, cmd.String("database"))
			if err := printJSON(envelope); err != nil {
				return err
			}

			if !envelope.Success {
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
