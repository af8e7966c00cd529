package tableimporter

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	server "github.com/louisbranch/rolltables/internal/services/tables/app"
)

// Config holds configuration for the table importer.
type Config struct {
	Path      string
	DBPath    string
	PacksPath string
	DryRun    bool
}

// ParseConfig parses CLI flags into a Config. Store paths default to the
// values already in cfg.
func ParseConfig(fs *flag.FlagSet, args []string, cfg Config) (Config, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "tables.db")
	}
	if cfg.PacksPath == "" {
		cfg.PacksPath = filepath.Join("data", "packs.db")
	}

	fs.StringVar(&cfg.Path, "path", cfg.Path, "JSON document or directory of documents to import")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "world tables database path")
	fs.StringVar(&cfg.PacksPath, "packs-path", cfg.PacksPath, "compendium packs database path")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "validate without writing to the stores")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return Config{}, errors.New("path is required")
	}
	return cfg, nil
}

// Run executes the importer using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return errors.New("path is required")
	}

	docs, err := ReadPath(cfg.Path)
	if err != nil {
		return err
	}
	tables := Flatten(docs)
	if len(tables) == 0 {
		return errors.New("no tables found")
	}

	var summary Summary
	if cfg.DryRun {
		summary, err = Validate(tables)
		if err != nil {
			return err
		}
	} else {
		runtime, err := server.OpenRuntime(server.StoreOptions{DBPath: cfg.DBPath, PacksPath: cfg.PacksPath})
		if err != nil {
			return err
		}
		defer runtime.Close()
		summary, err = Import(ctx, runtime.Service, tables)
		if err != nil {
			return err
		}
	}

	for _, warning := range summary.Warnings {
		if _, err := fmt.Fprintf(out, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	verb := "imported"
	if cfg.DryRun {
		verb = "validated"
	}
	_, err = fmt.Fprintf(out, "%s %d world table(s) and %d pack table(s)\n", verb, summary.World, summary.Pack)
	return err
}
