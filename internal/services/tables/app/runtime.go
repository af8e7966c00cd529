package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/feed"
	"github.com/louisbranch/rolltables/internal/services/tables/service"
	"github.com/louisbranch/rolltables/internal/services/tables/storage/bbolt"
	"github.com/louisbranch/rolltables/internal/services/tables/storage/sqlite"
)

// StoreOptions locates the world and pack stores.
type StoreOptions struct {
	DBPath    string
	PacksPath string
	Limits    engine.Limits
}

func (o StoreOptions) withDefaults() StoreOptions {
	if strings.TrimSpace(o.DBPath) == "" {
		o.DBPath = filepath.Join("data", "tables.db")
	}
	if strings.TrimSpace(o.PacksPath) == "" {
		o.PacksPath = filepath.Join("data", "packs.db")
	}
	return o
}

// Runtime owns the stores behind a table service.
type Runtime struct {
	Service *service.Service
	Hub     *feed.Hub

	world     *sqlite.Store
	packs     *bbolt.Store
	closeOnce sync.Once
}

// OpenRuntime opens both stores and builds the service on top of them.
func OpenRuntime(opts StoreOptions) (*Runtime, error) {
	opts = opts.withDefaults()

	world, err := openWorldStore(opts.DBPath)
	if err != nil {
		return nil, err
	}
	packs, err := openPackStore(opts.PacksPath)
	if err != nil {
		_ = world.Close()
		return nil, err
	}

	hub := feed.NewHub()
	svc, err := service.New(service.Deps{
		Tables:      world,
		Packs:       packs,
		Diagnostics: world,
		Feed:        hub,
		Limits:      opts.Limits,
	})
	if err != nil {
		_ = packs.Close()
		_ = world.Close()
		return nil, err
	}
	return &Runtime{Service: svc, Hub: hub, world: world, packs: packs}, nil
}

// Close releases both stores. It is safe to call more than once.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		if err := r.packs.Close(); err != nil {
			log.Printf("close pack store: %v", err)
		}
		if err := r.world.Close(); err != nil {
			log.Printf("close table store: %v", err)
		}
	})
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	return nil
}

func openWorldStore(path string) (*sqlite.Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tables sqlite store: %w", err)
	}
	return store, nil
}

func openPackStore(path string) (*bbolt.Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	store, err := bbolt.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open packs bbolt store: %w", err)
	}
	return store, nil
}
