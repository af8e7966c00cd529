package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
)

func gems() domain.Table {
	return domain.Table{
		ID:      "gems",
		Name:    "Gems",
		Kind:    domain.KindTreasure,
		Formula: "1d100",
		Entries: []domain.Entry{
			{ID: "ruby", Text: "Ruby", Weight: 20, Drawn: true},
			{ID: "pearl", Text: "Pearl", Weight: 60},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetPackTable(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.PutPackTable(ctx, "dmg", gems()); err != nil {
		t.Fatalf("put pack table: %v", err)
	}

	got, err := store.GetPackTable(ctx, "dmg", "gems")
	if err != nil {
		t.Fatalf("get pack table: %v", err)
	}
	if got.Pack != "dmg" || got.Ref() != (domain.Reference{Pack: "dmg", TableID: "gems"}) {
		t.Fatalf("pack = %q", got.Pack)
	}
	if len(got.Entries) != 2 || got.Entries[0].Drawn {
		t.Fatalf("entries = %+v, want drawn flags cleared", got.Entries)
	}
}

func TestGetPackTableNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.GetPackTable(ctx, "missing", "gems"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing pack = %v", err)
	}
	if err := store.PutPackTable(ctx, "dmg", gems()); err != nil {
		t.Fatalf("put pack table: %v", err)
	}
	if _, err := store.GetPackTable(ctx, "dmg", "coins"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing table = %v", err)
	}
}

func TestListPacksAndTables(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	coins := gems()
	coins.ID = "coins"
	for _, put := range []struct {
		pack  string
		table domain.Table
	}{
		{"dmg", gems()},
		{"dmg", coins},
		{"bestiary", gems()},
	} {
		if err := store.PutPackTable(ctx, put.pack, put.table); err != nil {
			t.Fatalf("put %s/%s: %v", put.pack, put.table.ID, err)
		}
	}

	packs, err := store.ListPacks(ctx)
	if err != nil {
		t.Fatalf("list packs: %v", err)
	}
	if len(packs) != 2 || packs[0] != "bestiary" || packs[1] != "dmg" {
		t.Fatalf("packs = %v", packs)
	}

	tables, err := store.ListPackTables(ctx, "dmg")
	if err != nil {
		t.Fatalf("list pack tables: %v", err)
	}
	if len(tables) != 2 || tables[0].ID != "coins" || tables[1].ID != "gems" {
		t.Fatalf("tables = %+v", tables)
	}
}

func TestPutPackTableValidates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutPackTable(context.Background(), "", gems()); err == nil {
		t.Fatal("expected pack name error")
	}
	if err := store.PutPackTable(context.Background(), "dmg", domain.Table{ID: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "packs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
