// Package seed parses importer flags and loads roll tables into the stores.
package seed

import (
	"context"
	"flag"
	"io"

	entrypoint "github.com/louisbranch/rolltables/internal/platform/cmd"
	tableimporter "github.com/louisbranch/rolltables/internal/tools/importer/tables"
)

// storeEnv carries the store paths shared with the tables service.
type storeEnv struct {
	DBPath    string `env:"ROLLTABLES_DB_PATH"    envDefault:"data/tables.db"`
	PacksPath string `env:"ROLLTABLES_PACKS_PATH" envDefault:"data/packs.db"`
}

// Config holds seed command configuration.
type Config = tableimporter.Config

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var env storeEnv
	if err := entrypoint.ParseConfig(&env); err != nil {
		return Config{}, err
	}
	return tableimporter.ParseConfig(fs, args, Config{DBPath: env.DBPath, PacksPath: env.PacksPath})
}

// Run imports the configured documents.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		return tableimporter.Run(ctx, cfg, out)
	})
}
