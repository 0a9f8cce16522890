package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/google/uuid"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// ConversationLog is the append-only postgres store behind
// ports.ConversationLog. Records are never updated or deleted.
type ConversationLog struct {
	db *sql.DB
}

func NewConversationLog(db *sql.DB) *ConversationLog {
	return &ConversationLog{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ConversationLog) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversation_records (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	source TEXT NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversation_records_conversation
	ON conversation_records(conversation_id, created_at ASC);
CREATE INDEX IF NOT EXISTS idx_conversation_records_kind
	ON conversation_records(conversation_id, kind, source);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ConversationLog) Append(ctx context.Context, kind domain.RecordKind, conversationID, source string, payload map[string]any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO conversation_records (id, conversation_id, kind, source, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, uuid.NewString(), conversationID, string(kind), source, payloadJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append conversation record: %w", err)
	}
	return nil
}

func (r *ConversationLog) Latest(ctx context.Context, conversationID string, kind domain.RecordKind, source string) (*domain.LogRecord, error) {
	query := `
SELECT id, conversation_id, kind, source, payload, created_at
FROM conversation_records
WHERE conversation_id = $1 AND kind = $2
`
	args := []any{conversationID, string(kind)}
	if source != "" {
		query += ` AND source = $3`
		args = append(args, source)
	}
	query += `
ORDER BY created_at DESC
LIMIT 1
`

	row := r.db.QueryRowContext(ctx, query, args...)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrResultNotFound, "postgres.Latest", fmt.Errorf("conversation %s kind %s", conversationID, kind))
		}
		return nil, err
	}
	return record, nil
}

func (r *ConversationLog) History(ctx context.Context, conversationID string) ([]domain.LogRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, conversation_id, kind, source, payload, created_at
FROM conversation_records
WHERE conversation_id = $1
ORDER BY created_at ASC
`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.LogRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.LogRecord, error) {
	var record domain.LogRecord
	var kind string
	var payloadRaw []byte

	if err := row.Scan(&record.ID, &record.ConversationID, &kind, &record.Source, &payloadRaw, &record.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan conversation record: %w", err)
	}
	record.Kind = domain.RecordKind(kind)
	if err := json.Unmarshal(payloadRaw, &record.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &record, nil
}
