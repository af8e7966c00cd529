// Package storage defines persistence contracts for roll tables.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/filter"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrReadOnly indicates the container does not accept draw commits.
	ErrReadOnly = errors.New("container is read-only")
)

// ListOptions selects one page of tables.
type ListOptions struct {
	PageSize  int
	PageToken string
	Filter    filter.SQLCondition
}

// TablePage stores one page of tables.
type TablePage struct {
	Tables        []domain.Table
	NextPageToken string
}

// DrawnMark names the entries of one table to flag drawn.
type DrawnMark struct {
	TableID  string
	EntryIDs []string
}

// TableStore persists world tables.
type TableStore interface {
	// PutTable creates or replaces a table and its entries.
	PutTable(ctx context.Context, table domain.Table) error
	GetTable(ctx context.Context, id string) (domain.Table, error)
	DeleteTable(ctx context.Context, id string) error
	ListTables(ctx context.Context, opts ListOptions) (TablePage, error)
	// MarkDrawn flags entries across tables in one transaction. Tables that
	// no longer exist are skipped; the ids of the tables marked are returned.
	MarkDrawn(ctx context.Context, marks []DrawnMark) ([]string, error)
	// ResetDrawn clears every drawn flag of a table.
	ResetDrawn(ctx context.Context, tableID string) error
}

// PackStore persists compendium packs. Pack tables never record draws.
type PackStore interface {
	PutPackTable(ctx context.Context, pack string, table domain.Table) error
	GetPackTable(ctx context.Context, pack, id string) (domain.Table, error)
	ListPackTables(ctx context.Context, pack string) ([]domain.Table, error)
	ListPacks(ctx context.Context) ([]string, error)
}

// DiagnosticRecord is one persisted resolution diagnostic.
type DiagnosticRecord struct {
	ID         string
	Diagnostic engine.Diagnostic
	CreatedAt  time.Time
}

// DiagnosticStore persists the diagnostics log.
type DiagnosticStore interface {
	AppendDiagnostic(ctx context.Context, record DiagnosticRecord) error
	// ListDiagnostics returns the newest records first.
	ListDiagnostics(ctx context.Context, limit int) ([]DiagnosticRecord, error)
}
