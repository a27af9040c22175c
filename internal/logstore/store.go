// Package logstore persists the per-request audit trail: original and
// masked prompts, RAG context, upstream output, and the PII mappings
// applied, queryable by time range and substring.
package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"privacy-llm-gateway/internal/model"
)

// Store wraps a connection pool to the audit log table.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and returns a Store with its schema ensured.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", databaseURL, err)
	}

	s := &Store{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the audit table and its indexes if they don't already
// exist, mirroring the reference implementation's idempotent startup check.
func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS prompt_logs (
			id uuid PRIMARY KEY,
			timestamp timestamptz NOT NULL,
			original_input text NOT NULL,
			masked_input text NOT NULL,
			rag_context text,
			llm_output text NOT NULL,
			final_output text NOT NULL,
			pii_mappings jsonb NOT NULL
		);
		CREATE INDEX IF NOT EXISTS prompt_logs_timestamp_idx ON prompt_logs (timestamp DESC);
		CREATE INDEX IF NOT EXISTS prompt_logs_pii_mappings_idx ON prompt_logs USING GIN (pii_mappings);
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// LogRequest appends one completed request's audit trail. Callers only
// reach this after a request has succeeded end to end — failed requests
// write no row.
func (s *Store) LogRequest(ctx context.Context, entry model.LogEntry) error {
	mappings, err := json.Marshal(entry.PIIMappings)
	if err != nil {
		return fmt.Errorf("marshal pii mappings: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO prompt_logs (id, timestamp, original_input, masked_input, rag_context, llm_output, final_output, pii_mappings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Timestamp, entry.OriginalInput, entry.MaskedInput,
		entry.RAGContext, entry.LLMOutput, entry.FinalOutput, mappings,
	)
	if err != nil {
		return fmt.Errorf("insert log row: %w", err)
	}
	return nil
}

// QueryLogs returns rows matching q, ordered by timestamp descending,
// alongside the total count of matching rows regardless of limit/offset.
// Every filter is applied through a positional placeholder; none are
// string-interpolated into the query.
func (s *Store) QueryLogs(ctx context.Context, q model.LogQuery) (model.LogResponse, error) {
	limit := int64(50)
	if q.Limit != nil {
		limit = *q.Limit
	}
	offset := int64(0)
	if q.Offset != nil {
		offset = *q.Offset
	}

	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	var args []any
	argIdx := 1

	if q.StartDate != nil {
		fmt.Fprintf(&where, " AND timestamp >= $%d", argIdx)
		args = append(args, *q.StartDate)
		argIdx++
	}
	if q.EndDate != nil {
		fmt.Fprintf(&where, " AND timestamp <= $%d", argIdx)
		args = append(args, *q.EndDate)
		argIdx++
	}
	if q.SearchTerm != nil && *q.SearchTerm != "" {
		fmt.Fprintf(&where, " AND (original_input ILIKE $%d OR final_output ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*q.SearchTerm+"%")
		argIdx++
	}

	var total int64
	countQuery := "SELECT count(*) FROM prompt_logs" + where.String()
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return model.LogResponse{}, fmt.Errorf("count logs: %w", err)
	}

	selectQuery := fmt.Sprintf(
		"SELECT id, timestamp, original_input, masked_input, rag_context, llm_output, final_output, pii_mappings FROM prompt_logs%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d",
		where.String(), argIdx, argIdx+1,
	)
	rows, err := s.pool.Query(ctx, selectQuery, append(args, limit, offset)...)
	if err != nil {
		return model.LogResponse{}, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		var mappingsRaw []byte
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.OriginalInput, &e.MaskedInput, &e.RAGContext, &e.LLMOutput, &e.FinalOutput, &mappingsRaw); err != nil {
			return model.LogResponse{}, fmt.Errorf("scan log row: %w", err)
		}
		if err := json.Unmarshal(mappingsRaw, &e.PIIMappings); err != nil {
			return model.LogResponse{}, fmt.Errorf("unmarshal pii mappings: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return model.LogResponse{}, fmt.Errorf("iterate log rows: %w", err)
	}

	return model.LogResponse{Logs: entries, Total: total}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
