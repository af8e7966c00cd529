// Package tables parses tables service flags and launches the service.
package tables

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/rolltables/internal/platform/cmd"
	server "github.com/louisbranch/rolltables/internal/services/tables/app"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
)

// Config holds tables command configuration.
type Config struct {
	HTTPAddr  string `env:"ROLLTABLES_HTTP_ADDR"   envDefault:"localhost:8080"`
	GRPCAddr  string `env:"ROLLTABLES_GRPC_ADDR"   envDefault:"localhost:8081"`
	DBPath    string `env:"ROLLTABLES_DB_PATH"     envDefault:"data/tables.db"`
	PacksPath string `env:"ROLLTABLES_PACKS_PATH"  envDefault:"data/packs.db"`
	Limits    engine.Limits
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	bindFlags(fs, &cfg)
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "JSON API listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "world tables database path")
	fs.StringVar(&cfg.PacksPath, "packs-path", cfg.PacksPath, "compendium packs database path")
	fs.IntVar(&cfg.Limits.MaxDepth, "max-depth", cfg.Limits.MaxDepth, "deepest nested table level a draw may reach")
	fs.IntVar(&cfg.Limits.MaxSamplingAttempts, "max-sampling-attempts", cfg.Limits.MaxSamplingAttempts, "samples tried per table before giving up")
}

// Options converts the command configuration into server options.
func (c Config) Options() server.Options {
	return server.Options{
		HTTPAddr: c.HTTPAddr,
		GRPCAddr: c.GRPCAddr,
		Stores: server.StoreOptions{
			DBPath:    c.DBPath,
			PacksPath: c.PacksPath,
			Limits:    c.Limits,
		},
	}
}

// Run starts the tables service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTables, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Options())
	})
}
