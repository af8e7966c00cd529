// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/rolltables/internal/platform/cmd"
	mcpservice "github.com/louisbranch/rolltables/internal/services/mcp/service"
	server "github.com/louisbranch/rolltables/internal/services/tables/app"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
)

// Config holds MCP command configuration.
type Config struct {
	HTTPAddr  string `env:"ROLLTABLES_MCP_HTTP_ADDR" envDefault:"localhost:8082"`
	Transport string `env:"ROLLTABLES_MCP_TRANSPORT" envDefault:"stdio"`
	DBPath    string `env:"ROLLTABLES_DB_PATH"       envDefault:"data/tables.db"`
	PacksPath string `env:"ROLLTABLES_PACKS_PATH"    envDefault:"data/packs.db"`
	Limits    engine.Limits
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "world tables database path")
	fs.StringVar(&cfg.PacksPath, "packs-path", cfg.PacksPath, "compendium packs database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the table stores and serves the MCP tools.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		runtime, err := server.OpenRuntime(server.StoreOptions{
			DBPath:    cfg.DBPath,
			PacksPath: cfg.PacksPath,
			Limits:    cfg.Limits,
		})
		if err != nil {
			return err
		}
		defer runtime.Close()

		mcpServer, err := mcpservice.NewServer(runtime.Service)
		if err != nil {
			return err
		}
		return mcpServer.Run(ctx, mcpservice.Config{Transport: cfg.Transport, HTTPAddr: cfg.HTTPAddr})
	})
}
