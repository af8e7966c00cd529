package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/filter"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func encounters() domain.Table {
	return domain.Table{
		ID:      "encounters",
		Name:    "Encounters",
		Kind:    domain.KindStandard,
		Formula: "1d100",
		Entries: []domain.Entry{
			{ID: "goblin", Text: "Goblin", Range: domain.Range{Low: 1, High: 50}},
			{ID: "hoard", Text: "Goblin Hoard", Range: domain.Range{Low: 51, High: 90}, Reference: &domain.Reference{Pack: "dmg", TableID: "gems"}},
			{ID: "orc", Text: "Orc", Range: domain.Range{Low: 91, High: 100}},
		},
	}
}

func TestPutGetTableRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := encounters()
	if err := store.PutTable(context.Background(), input); err != nil {
		t.Fatalf("put table: %v", err)
	}

	got, err := store.GetTable(context.Background(), "encounters")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if got.Name != input.Name || got.Kind != input.Kind || got.Formula != input.Formula {
		t.Fatalf("table = %+v", got)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(got.Entries))
	}
	if got.Entries[1].ID != "hoard" || got.Entries[1].Reference == nil || got.Entries[1].Reference.Pack != "dmg" {
		t.Fatalf("reference entry = %+v", got.Entries[1])
	}
	if got.Entries[0].Reference != nil {
		t.Fatalf("plain entry gained a reference: %+v", got.Entries[0])
	}
}

func TestPutTableReplacesEntries(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	table := encounters()
	if err := store.PutTable(context.Background(), table); err != nil {
		t.Fatalf("put table: %v", err)
	}
	table.Kind = domain.KindTreasure
	table.Entries = table.Entries[:1]
	if err := store.PutTable(context.Background(), table); err != nil {
		t.Fatalf("replace table: %v", err)
	}

	got, err := store.GetTable(context.Background(), "encounters")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if got.Kind != domain.KindTreasure || len(got.Entries) != 1 {
		t.Fatalf("table = %+v", got)
	}
}

func TestPutTableValidates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutTable(context.Background(), domain.Table{ID: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
	pack := encounters()
	pack.Pack = "dmg"
	if err := store.PutTable(context.Background(), pack); err == nil {
		t.Fatal("expected pack tables to be rejected")
	}
}

func TestGetTableNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetTable(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestDeleteTable(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutTable(context.Background(), encounters()); err != nil {
		t.Fatalf("put table: %v", err)
	}
	if err := store.DeleteTable(context.Background(), "encounters"); err != nil {
		t.Fatalf("delete table: %v", err)
	}
	if _, err := store.GetTable(context.Background(), "encounters"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted = %v", err)
	}
	if err := store.DeleteTable(context.Background(), "encounters"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing = %v", err)
	}
}

func TestMarkAndResetDrawn(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.PutTable(ctx, encounters()); err != nil {
		t.Fatalf("put table: %v", err)
	}
	marked, err := store.MarkDrawn(ctx, []storage.DrawnMark{{TableID: "encounters", EntryIDs: []string{"goblin", "orc", "unknown"}}})
	if err != nil {
		t.Fatalf("mark drawn: %v", err)
	}
	if len(marked) != 1 || marked[0] != "encounters" {
		t.Fatalf("marked = %v", marked)
	}

	got, err := store.GetTable(ctx, "encounters")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if !got.Entries[0].Drawn || got.Entries[1].Drawn || !got.Entries[2].Drawn {
		t.Fatalf("drawn flags = %v %v %v", got.Entries[0].Drawn, got.Entries[1].Drawn, got.Entries[2].Drawn)
	}

	if err := store.ResetDrawn(ctx, "encounters"); err != nil {
		t.Fatalf("reset drawn: %v", err)
	}
	got, err = store.GetTable(ctx, "encounters")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	for _, e := range got.Entries {
		if e.Drawn {
			t.Fatalf("entry %s still drawn after reset", e.ID)
		}
	}

	if err := store.ResetDrawn(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("reset missing = %v", err)
	}
}

func TestMarkDrawnAcrossTables(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	second := encounters()
	second.ID = "wilds"
	for _, table := range []domain.Table{encounters(), second} {
		if err := store.PutTable(ctx, table); err != nil {
			t.Fatalf("put table: %v", err)
		}
	}

	marked, err := store.MarkDrawn(ctx, []storage.DrawnMark{
		{TableID: "encounters", EntryIDs: []string{"goblin"}},
		{TableID: "deleted", EntryIDs: []string{"a"}},
		{TableID: "wilds", EntryIDs: []string{"orc"}},
	})
	if err != nil {
		t.Fatalf("mark drawn: %v", err)
	}
	if len(marked) != 2 || marked[0] != "encounters" || marked[1] != "wilds" {
		t.Fatalf("marked = %v", marked)
	}
	for id, entry := range map[string]string{"encounters": "goblin", "wilds": "orc"} {
		got, err := store.GetTable(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		e, ok := got.Entry(entry)
		if !ok || !e.Drawn {
			t.Fatalf("%s/%s not drawn: %+v", id, entry, got.Entries)
		}
	}
}

func TestListTablesPagesAndFilters(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		table := encounters()
		table.ID = id
		table.Name = "Table " + id
		if id == "b" {
			table.Kind = domain.KindTreasure
		}
		if err := store.PutTable(ctx, table); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	first, err := store.ListTables(ctx, storage.ListOptions{PageSize: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first.Tables) != 2 || first.NextPageToken != "b" {
		t.Fatalf("first page = %d tables, token %q", len(first.Tables), first.NextPageToken)
	}
	if len(first.Tables[0].Entries) != 3 {
		t.Fatalf("listed table entries = %d", len(first.Tables[0].Entries))
	}

	second, err := store.ListTables(ctx, storage.ListOptions{PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Tables) != 1 || second.Tables[0].ID != "c" || second.NextPageToken != "" {
		t.Fatalf("second page = %+v", second)
	}

	cond, err := filter.ParseTableFilter(`kind = "treasure"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	filtered, err := store.ListTables(ctx, storage.ListOptions{PageSize: 10, Filter: cond})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered.Tables) != 1 || filtered.Tables[0].ID != "b" {
		t.Fatalf("filtered = %+v", filtered.Tables)
	}

	if _, err := store.ListTables(ctx, storage.ListOptions{}); err == nil {
		t.Fatal("expected page size error")
	}
}

func TestDiagnosticsNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	for i, condition := range []engine.Condition{engine.ConditionNoEligibleEntries, engine.ConditionSamplingExhausted} {
		record := storage.DiagnosticRecord{
			ID: string(condition),
			Diagnostic: engine.Diagnostic{
				Severity:  engine.SeverityWarning,
				Condition: condition,
				Table:     domain.Reference{Pack: "dmg", TableID: "gems"},
				Message:   "message",
				Metadata:  map[string]string{"Table": "gems"},
			},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendDiagnostic(ctx, record); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.ListDiagnostics(ctx, 10)
	if err != nil {
		t.Fatalf("list diagnostics: %v", err)
	}
	if len(got) != 2 || got[0].Diagnostic.Condition != engine.ConditionSamplingExhausted {
		t.Fatalf("diagnostics = %+v", got)
	}
	if got[1].Diagnostic.Table.Pack != "dmg" || got[1].Diagnostic.Metadata["Table"] != "gems" {
		t.Fatalf("decoded diagnostic = %+v", got[1].Diagnostic)
	}
	if !got[1].CreatedAt.Equal(base) {
		t.Fatalf("created_at = %v, want %v", got[1].CreatedAt, base)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.db")
	store, err := Open(path)
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
