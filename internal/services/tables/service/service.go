// Package service implements table operations shared by the HTTP API, the
// MCP tools and the importer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rolltables/internal/platform/errors"
	"github.com/louisbranch/rolltables/internal/platform/pagination"
	"github.com/louisbranch/rolltables/internal/platform/timeouts"
	"github.com/louisbranch/rolltables/internal/services/tables/diagnostics"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/feed"
	"github.com/louisbranch/rolltables/internal/services/tables/filter"
	"github.com/louisbranch/rolltables/internal/services/tables/lookup"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
)

const (
	defaultPageSize  = 50
	maxPageSize      = 200
	defaultDiagLimit = 50
)

// Publisher announces committed draws.
type Publisher interface {
	Publish(a feed.Announcement) feed.Announcement
}

// Deps wires the service. Tables is required; the rest are optional.
type Deps struct {
	Tables      storage.TableStore
	Packs       storage.PackStore
	Diagnostics storage.DiagnosticStore
	Feed        Publisher
	// Sink receives diagnostics in addition to the log and the store.
	Sink   engine.Sink
	Limits engine.Limits
}

// Service runs draws and table maintenance.
type Service struct {
	tables      storage.TableStore
	packs       storage.PackStore
	diagnostics storage.DiagnosticStore
	feed        Publisher
	resolver    *engine.Resolver
}

// New builds a service from deps.
func New(deps Deps) (*Service, error) {
	if deps.Tables == nil {
		return nil, errors.New("table store is required")
	}
	sinks := []engine.Sink{diagnostics.LogSink{}, deps.Sink}
	if deps.Diagnostics != nil {
		sinks = append(sinks, diagnostics.NewEmitter(deps.Diagnostics))
	}
	return &Service{
		tables:      deps.Tables,
		packs:       deps.Packs,
		diagnostics: deps.Diagnostics,
		feed:        deps.Feed,
		resolver:    engine.NewResolver(lookup.NewRouter(deps.Tables, deps.Packs), diagnostics.Multi(sinks...), deps.Limits),
	}, nil
}

// DrawRequest selects a table and tunes the resolution.
type DrawRequest struct {
	Table   domain.Reference
	Shallow bool
	Samples []int
	Seed    *int64
	Locale  string
}

// DrawResult is a resolution plus what happened to it afterwards.
type DrawResult struct {
	// Table is the drawn table as it stood before the draw.
	Table domain.Table
	Mode  domain.SelectionMode
	// Hits are the entries of Table the draw landed on, before references
	// were followed.
	Hits      []domain.Entry
	Outcome   engine.Outcome
	Committed bool
	// Marked lists, per world table, the entries flagged drawn by the commit.
	Marked       []engine.Consumption
	Announcement *feed.Announcement
}

// Draw resolves a table, marks consumed entries drawn and announces the
// result.
func (s *Service) Draw(ctx context.Context, req DrawRequest) (DrawResult, error) {
	result, err := s.Preview(ctx, req)
	if err != nil {
		return DrawResult{}, err
	}

	marked, err := s.commit(ctx, result.Table, result.Outcome)
	if err != nil {
		return DrawResult{}, err
	}
	result.Committed = true
	result.Marked = marked

	if s.feed != nil {
		a := s.feed.Publish(feed.Announcement{
			TableID:   result.Table.Ref().String(),
			TableName: result.Table.Name,
			Results:   result.Outcome.Texts(),
			Samples:   result.Outcome.Samples,
			Seed:      result.Outcome.Seed,
		})
		result.Announcement = &a
	}
	return result, nil
}

// Preview resolves a table without touching stored state.
func (s *Service) Preview(ctx context.Context, req DrawRequest) (DrawResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Draw)
	defer cancel()

	table, err := s.GetTable(ctx, req.Table)
	if err != nil {
		return DrawResult{}, err
	}

	outcome, err := s.resolver.Resolve(ctx, table, engine.Options{
		Shallow: req.Shallow,
		Samples: req.Samples,
		Seed:    req.Seed,
		Locale:  req.Locale,
	})
	if err != nil {
		return DrawResult{}, err
	}
	result := DrawResult{
		Table:   table,
		Mode:    domain.SelectorFor(table),
		Hits:    []domain.Entry{},
		Outcome: outcome,
	}
	if root, ok := outcome.Root(); ok && root.Table == table.Ref() {
		result.Hits = engine.HitsForSamples(table, root.Samples)
	}
	return result, nil
}

// commit marks the standard hits of every world table that draws without
// replacement, all in one store transaction. Pack tables are read-only and
// skipped.
func (s *Service) commit(ctx context.Context, root domain.Table, outcome engine.Outcome) ([]engine.Consumption, error) {
	var pending []engine.Consumption
	for _, c := range mergeConsumed(outcome.Consumed) {
		if !c.Table.InWorld() {
			log.Printf("draw %s: pack table %s is read-only, not marking %d entries", root.Ref(), c.Table, len(c.EntryIDs))
			continue
		}
		table := root
		if c.Table != root.Ref() {
			var err error
			table, err = s.tables.GetTable(ctx, c.Table.TableID)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load table %s for commit: %w", c.Table, err)
			}
		}
		if table.Replacement {
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	marks := make([]storage.DrawnMark, 0, len(pending))
	for _, c := range pending {
		marks = append(marks, storage.DrawnMark{TableID: c.Table.TableID, EntryIDs: c.EntryIDs})
	}
	markedIDs, err := s.tables.MarkDrawn(ctx, marks)
	if err != nil {
		return nil, fmt.Errorf("mark drawn: %w", err)
	}
	var marked []engine.Consumption
	for _, c := range pending {
		if containsString(markedIDs, c.Table.TableID) {
			marked = append(marked, c)
		}
	}
	return marked, nil
}

// mergeConsumed groups consumption by table, keeping first-seen order.
func mergeConsumed(in []engine.Consumption) []engine.Consumption {
	index := make(map[domain.Reference]int, len(in))
	var out []engine.Consumption
	for _, c := range in {
		i, ok := index[c.Table]
		if !ok {
			index[c.Table] = len(out)
			out = append(out, engine.Consumption{Table: c.Table})
			i = len(out) - 1
		}
		for _, id := range c.EntryIDs {
			if !containsString(out[i].EntryIDs, id) {
				out[i].EntryIDs = append(out[i].EntryIDs, id)
			}
		}
	}
	return out
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

// GetTable returns a world or pack table.
func (s *Service) GetTable(ctx context.Context, ref domain.Reference) (domain.Table, error) {
	ref.TableID = strings.TrimSpace(ref.TableID)
	ref.Pack = strings.TrimSpace(ref.Pack)
	if ref.TableID == "" {
		return domain.Table{}, invalidRequest("table id is required")
	}

	if ref.InWorld() {
		table, err := s.tables.GetTable(ctx, ref.TableID)
		if err != nil {
			return domain.Table{}, notFound(ref, err)
		}
		return table, nil
	}

	if s.packs == nil {
		return domain.Table{}, apperrors.WithMetadata(apperrors.CodePackNotFound, "packs are not configured", map[string]string{"Pack": ref.Pack})
	}
	table, err := s.packs.GetPackTable(ctx, ref.Pack, ref.TableID)
	if err != nil {
		return domain.Table{}, notFound(ref, err)
	}
	return table, nil
}

// ListRequest selects a page of world tables.
type ListRequest struct {
	Filter    string
	PageSize  int
	PageToken string
}

// ListTables returns one page of world tables matching an AIP-160 filter.
func (s *Service) ListTables(ctx context.Context, req ListRequest) (storage.TablePage, error) {
	cond, err := filter.ParseTableFilter(req.Filter)
	if err != nil {
		return storage.TablePage{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "parse table filter", err)
	}
	pageSize := pagination.ClampPageSize(req.PageSize, pagination.PageSizeConfig{Default: defaultPageSize, Max: maxPageSize})
	return s.tables.ListTables(ctx, storage.ListOptions{PageSize: pageSize, PageToken: req.PageToken, Filter: cond})
}

// ListPacks returns the compendium pack names.
func (s *Service) ListPacks(ctx context.Context) ([]string, error) {
	if s.packs == nil {
		return []string{}, nil
	}
	return s.packs.ListPacks(ctx)
}

// ListPackTables returns every table of a pack.
func (s *Service) ListPackTables(ctx context.Context, pack string) ([]domain.Table, error) {
	if s.packs == nil {
		return nil, apperrors.WithMetadata(apperrors.CodePackNotFound, "packs are not configured", map[string]string{"Pack": pack})
	}
	tables, err := s.packs.ListPackTables(ctx, pack)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.WithMetadata(apperrors.CodePackNotFound, "pack not found", map[string]string{"Pack": pack})
	}
	return tables, err
}

// PutTable stores a table in the world, or in its pack when Pack is set.
func (s *Service) PutTable(ctx context.Context, table domain.Table) (domain.Table, error) {
	if table.Kind == "" {
		table.Kind = domain.KindStandard
	}
	if err := table.Validate(); err != nil {
		return domain.Table{}, err
	}
	if table.Pack != "" {
		if s.packs == nil {
			return domain.Table{}, apperrors.WithMetadata(apperrors.CodePackNotFound, "packs are not configured", map[string]string{"Pack": table.Pack})
		}
		if err := s.packs.PutPackTable(ctx, table.Pack, table); err != nil {
			return domain.Table{}, fmt.Errorf("put pack table: %w", err)
		}
		return s.GetTable(ctx, table.Ref())
	}
	if err := s.tables.PutTable(ctx, table); err != nil {
		return domain.Table{}, fmt.Errorf("put table: %w", err)
	}
	return s.GetTable(ctx, table.Ref())
}

// SetKind switches a world table between standard and treasure.
func (s *Service) SetKind(ctx context.Context, ref domain.Reference, kind domain.Kind) (domain.Table, error) {
	if !ref.InWorld() {
		return domain.Table{}, readOnly(ref)
	}
	if kind != domain.KindStandard && kind != domain.KindTreasure {
		return domain.Table{}, apperrors.WithMetadata(apperrors.CodeTableKindInvalid, "unknown table kind", map[string]string{"Kind": string(kind)})
	}
	table, err := s.GetTable(ctx, ref)
	if err != nil {
		return domain.Table{}, err
	}
	if table.Kind == kind {
		return table, nil
	}
	table.Kind = kind
	if err := s.tables.PutTable(ctx, table); err != nil {
		return domain.Table{}, fmt.Errorf("set table kind: %w", err)
	}
	return table, nil
}

// ResetTable clears the drawn flags of a world table.
func (s *Service) ResetTable(ctx context.Context, ref domain.Reference) (domain.Table, error) {
	if !ref.InWorld() {
		return domain.Table{}, readOnly(ref)
	}
	if err := s.tables.ResetDrawn(ctx, ref.TableID); err != nil {
		return domain.Table{}, notFound(ref, err)
	}
	return s.GetTable(ctx, ref)
}

// Diagnostics returns the newest persisted diagnostics.
func (s *Service) Diagnostics(ctx context.Context, limit int) ([]storage.DiagnosticRecord, error) {
	if s.diagnostics == nil {
		return []storage.DiagnosticRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultDiagLimit
	}
	return s.diagnostics.ListDiagnostics(ctx, limit)
}

// Limits reports the resolution bounds in effect.
func (s *Service) Limits() engine.Limits {
	return s.resolver.Limits()
}

func notFound(ref domain.Reference, err error) error {
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return apperrors.WrapWithMetadata(apperrors.CodeTableNotFound, "table not found", map[string]string{"TableID": ref.String()}, err)
}

func readOnly(ref domain.Reference) error {
	return apperrors.WrapWithMetadata(apperrors.CodePackReadOnly, "pack "+ref.Pack+" is read-only", map[string]string{"Pack": ref.Pack}, storage.ErrReadOnly)
}

func invalidRequest(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeRequestInvalid, reason, map[string]string{"Reason": reason})
}

// ParseSamples parses a comma separated list of forced samples.
func ParseSamples(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	samples := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, invalidRequest(fmt.Sprintf("sample %q is not an integer", part))
		}
		samples = append(samples, v)
	}
	return samples, nil
}
