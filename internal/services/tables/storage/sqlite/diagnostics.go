package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
)

// AppendDiagnostic persists one diagnostic record.
func (s *Store) AppendDiagnostic(ctx context.Context, record storage.DiagnosticRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if record.ID == "" {
		return fmt.Errorf("diagnostic id is required")
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	metadata := record.Diagnostic.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal diagnostic metadata: %w", err)
	}

	d := record.Diagnostic
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO diagnostics (
		   id, severity, condition, table_pack, table_id, depth, message, metadata_json, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		string(d.Severity),
		string(d.Condition),
		d.Table.Pack,
		d.Table.TableID,
		d.Depth,
		d.Message,
		string(metadataJSON),
		toMillis(createdAt),
	); err != nil {
		return fmt.Errorf("append diagnostic: %w", err)
	}
	return nil
}

// ListDiagnostics returns up to limit records, newest first.
func (s *Store) ListDiagnostics(ctx context.Context, limit int) ([]storage.DiagnosticRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, severity, condition, table_pack, table_id, depth, message, metadata_json, created_at
		   FROM diagnostics
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	records := []storage.DiagnosticRecord{}
	for rows.Next() {
		var (
			record       storage.DiagnosticRecord
			severity     string
			condition    string
			pack, table  string
			metadataJSON string
			createdAt    int64
		)
		if err := rows.Scan(
			&record.ID,
			&severity,
			&condition,
			&pack,
			&table,
			&record.Diagnostic.Depth,
			&record.Diagnostic.Message,
			&metadataJSON,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list diagnostics: %w", err)
		}
		record.Diagnostic.Severity = engine.Severity(severity)
		record.Diagnostic.Condition = engine.Condition(condition)
		record.Diagnostic.Table = domain.Reference{Pack: pack, TableID: table}
		if err := json.Unmarshal([]byte(metadataJSON), &record.Diagnostic.Metadata); err != nil {
			return nil, fmt.Errorf("decode diagnostic metadata: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	return records, nil
}

var _ storage.DiagnosticStore = (*Store)(nil)
