// Package sqlite provides a SQLite-backed world table store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/rolltables/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
	"github.com/louisbranch/rolltables/internal/services/tables/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists world tables and the diagnostics log in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite table store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutTable creates or replaces a table. Entries are rewritten in order.
func (s *Store) PutTable(ctx context.Context, table domain.Table) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if table.Pack != "" {
		return fmt.Errorf("table %s belongs to pack %s", table.ID, table.Pack)
	}
	if err := table.Validate(); err != nil {
		return err
	}
	now := toMillis(s.now())

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put table: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO roll_tables (id, name, kind, formula, replacement, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   kind = excluded.kind,
		   formula = excluded.formula,
		   replacement = excluded.replacement,
		   updated_at = excluded.updated_at`,
		table.ID,
		strings.TrimSpace(table.Name),
		string(table.Kind),
		strings.TrimSpace(table.Formula),
		boolToInt(table.Replacement),
		now,
		now,
	); err != nil {
		return fmt.Errorf("put table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM table_entries WHERE table_id = ?`, table.ID); err != nil {
		return fmt.Errorf("clear table entries: %w", err)
	}
	for i, e := range table.Entries {
		var refPack, refTable string
		if e.Reference != nil {
			refPack, refTable = e.Reference.Pack, e.Reference.TableID
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO table_entries (
			   table_id, entry_id, position, text, range_low, range_high,
			   weight, drawn, ref_pack, ref_table_id
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			table.ID, e.ID, i, e.Text, e.Range.Low, e.Range.High,
			e.Weight, boolToInt(e.Drawn), refPack, refTable,
		); err != nil {
			return fmt.Errorf("put table entry %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put table: %w", err)
	}
	return nil
}

// GetTable returns one table with its entries in order.
func (s *Store) GetTable(ctx context.Context, id string) (domain.Table, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Table{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Table{}, fmt.Errorf("table id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, kind, formula, replacement FROM roll_tables WHERE id = ?`,
		id,
	)
	table, err := scanTable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Table{}, storage.ErrNotFound
		}
		return domain.Table{}, fmt.Errorf("get table: %w", err)
	}
	if table.Entries, err = s.loadEntries(ctx, table.ID); err != nil {
		return domain.Table{}, err
	}
	return table, nil
}

// DeleteTable removes a table and its entries.
func (s *Store) DeleteTable(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete table: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_entries WHERE table_id = ?`, id); err != nil {
		return fmt.Errorf("delete table entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM roll_tables WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete table: %w", err)
	}
	return nil
}

// ListTables returns one page of tables ordered by id.
func (s *Store) ListTables(ctx context.Context, opts storage.ListOptions) (storage.TablePage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TablePage{}, err
	}
	if opts.PageSize <= 0 {
		return storage.TablePage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		where  []string
		params []any
	)
	if token := strings.TrimSpace(opts.PageToken); token != "" {
		where = append(where, "id > ?")
		params = append(params, token)
	}
	if !opts.Filter.Empty() {
		where = append(where, "("+opts.Filter.Clause+")")
		params = append(params, opts.Filter.Params...)
	}
	query := `SELECT id, name, kind, formula, replacement FROM roll_tables`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC LIMIT ?"
	params = append(params, opts.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.TablePage{}, fmt.Errorf("list tables: %w", err)
	}
	page := storage.TablePage{Tables: make([]domain.Table, 0, opts.PageSize)}
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			_ = rows.Close()
			return storage.TablePage{}, fmt.Errorf("list tables: %w", err)
		}
		page.Tables = append(page.Tables, table)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return storage.TablePage{}, fmt.Errorf("list tables: %w", err)
	}
	_ = rows.Close()

	if len(page.Tables) > opts.PageSize {
		page.NextPageToken = page.Tables[opts.PageSize-1].ID
		page.Tables = page.Tables[:opts.PageSize]
	}
	for i := range page.Tables {
		if page.Tables[i].Entries, err = s.loadEntries(ctx, page.Tables[i].ID); err != nil {
			return storage.TablePage{}, err
		}
	}
	return page, nil
}

// MarkDrawn flags entries of several tables as drawn in one transaction.
// Unknown entry ids are ignored and missing tables are skipped.
func (s *Store) MarkDrawn(ctx context.Context, marks []storage.DrawnMark) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mark drawn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := toMillis(s.now())
	marked := []string{}
	for _, m := range marks {
		found, err := touchTable(ctx, tx, m.TableID, now)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if len(m.EntryIDs) > 0 {
			params := []any{m.TableID}
			for _, id := range m.EntryIDs {
				params = append(params, id)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE table_entries SET drawn = 1 WHERE table_id = ? AND entry_id IN (`+placeholders(len(m.EntryIDs))+`)`,
				params...,
			); err != nil {
				return nil, fmt.Errorf("mark drawn in %s: %w", m.TableID, err)
			}
		}
		marked = append(marked, m.TableID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mark drawn: %w", err)
	}
	return marked, nil
}

// ResetDrawn clears every drawn flag of a table.
func (s *Store) ResetDrawn(ctx context.Context, tableID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset drawn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	found, err := touchTable(ctx, tx, tableID, toMillis(s.now()))
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE table_entries SET drawn = 0 WHERE table_id = ?`, tableID); err != nil {
		return fmt.Errorf("reset drawn: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset drawn: %w", err)
	}
	return nil
}

func touchTable(ctx context.Context, tx *sql.Tx, tableID string, now int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE roll_tables SET updated_at = ? WHERE id = ?`, now, tableID)
	if err != nil {
		return false, fmt.Errorf("touch table %s: %w", tableID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch table %s: %w", tableID, err)
	}
	return n > 0, nil
}

func (s *Store) loadEntries(ctx context.Context, tableID string) ([]domain.Entry, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT entry_id, text, range_low, range_high, weight, drawn, ref_pack, ref_table_id
		   FROM table_entries
		  WHERE table_id = ?
		  ORDER BY position ASC`,
		tableID,
	)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		var (
			e                 domain.Entry
			drawn             int
			refPack, refTable string
		)
		if err := rows.Scan(&e.ID, &e.Text, &e.Range.Low, &e.Range.High, &e.Weight, &drawn, &refPack, &refTable); err != nil {
			return nil, fmt.Errorf("load entries: %w", err)
		}
		e.Drawn = drawn != 0
		if refTable != "" {
			e.Reference = &domain.Reference{Pack: refPack, TableID: refTable}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTable(row scanner) (domain.Table, error) {
	var (
		table       domain.Table
		kind        string
		replacement int
	)
	if err := row.Scan(&table.ID, &table.Name, &kind, &table.Formula, &replacement); err != nil {
		return domain.Table{}, err
	}
	table.Kind = domain.Kind(kind)
	table.Replacement = replacement != 0
	return table, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var _ storage.TableStore = (*Store)(nil)
