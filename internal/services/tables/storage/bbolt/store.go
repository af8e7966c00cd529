// Package bbolt stores compendium packs in BoltDB. Each pack is a bucket of
// JSON encoded tables keyed by table id.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/louisbranch/rolltables/internal/platform/timeouts"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
)

const packsBucket = "packs"

// Store provides a BoltDB-backed pack store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: timeouts.StoreOpen})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutPackTable stores table inside pack, creating the pack on first use.
// Drawn flags are cleared: pack tables never record draws.
func (s *Store) PutPackTable(ctx context.Context, pack string, table domain.Table) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	pack = strings.TrimSpace(pack)
	if pack == "" {
		return fmt.Errorf("pack name is required")
	}
	if err := table.Validate(); err != nil {
		return err
	}

	stored := table.Clone()
	stored.Pack = pack
	for i := range stored.Entries {
		stored.Entries[i].Drawn = false
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal pack table: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(packsBucket))
		if root == nil {
			return fmt.Errorf("packs bucket is missing")
		}
		bucket, err := root.CreateBucketIfNotExists([]byte(pack))
		if err != nil {
			return fmt.Errorf("create pack bucket %s: %w", pack, err)
		}
		return bucket.Put([]byte(stored.ID), payload)
	})
}

// GetPackTable fetches one table from a pack. A missing pack or table is
// storage.ErrNotFound.
func (s *Store) GetPackTable(ctx context.Context, pack, id string) (domain.Table, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Table{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Table{}, fmt.Errorf("table id is required")
	}

	var table domain.Table
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := packBucket(tx, pack)
		if err != nil {
			return err
		}
		payload := bucket.Get([]byte(id))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &table); err != nil {
			return fmt.Errorf("unmarshal pack table: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Table{}, err
	}
	return table, nil
}

// ListPackTables returns every table in a pack ordered by id.
func (s *Store) ListPackTables(ctx context.Context, pack string) ([]domain.Table, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	tables := []domain.Table{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := packBucket(tx, pack)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var table domain.Table
			if err := json.Unmarshal(payload, &table); err != nil {
				return fmt.Errorf("unmarshal pack table: %w", err)
			}
			tables = append(tables, table)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// ListPacks returns the pack names in key order.
func (s *Store) ListPacks(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	packs := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(packsBucket))
		if root == nil {
			return fmt.Errorf("packs bucket is missing")
		}
		return root.ForEach(func(name, value []byte) error {
			// Nested buckets report a nil value.
			if value == nil {
				packs = append(packs, string(name))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return packs, nil
}

func packBucket(tx *bbolt.Tx, pack string) (*bbolt.Bucket, error) {
	root := tx.Bucket([]byte(packsBucket))
	if root == nil {
		return nil, fmt.Errorf("packs bucket is missing")
	}
	bucket := root.Bucket([]byte(strings.TrimSpace(pack)))
	if bucket == nil {
		return nil, storage.ErrNotFound
	}
	return bucket, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(packsBucket)); err != nil {
			return fmt.Errorf("create packs bucket: %w", err)
		}
		return nil
	})
}

var _ storage.PackStore = (*Store)(nil)
