package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

func newLogWithMock(t *testing.T) (*ConversationLog, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ConversationLog{db: db}, mock, func() { _ = db.Close() }
}

func TestAppendInsertsRecord(t *testing.T) {
	log, mock, done := newLogWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO conversation_records").
		WithArgs(sqlmock.AnyArg(), "conv-1", "result", "JSON", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := log.Append(context.Background(), domain.RecordResult, "conv-1", "JSON", map[string]any{"summary": "ok"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestReturnsDomainNotFound(t *testing.T) {
	log, mock, done := newLogWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, conversation_id, kind, source, payload, created_at").
		WithArgs("conv-1", "result", "JSON").
		WillReturnError(sql.ErrNoRows)

	_, err := log.Latest(context.Background(), "conv-1", domain.RecordResult, "JSON")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryScansPayloads(t *testing.T) {
	log, mock, done := newLogWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "kind", "source", "payload", "created_at"}).
		AddRow("r1", "conv-1", "metadata", "router", []byte(`{"format":"JSON"}`), now).
		AddRow("r2", "conv-1", "result", "JSON", []byte(`{"summary":"ok"}`), now.Add(time.Second))

	mock.ExpectQuery("SELECT id, conversation_id, kind, source, payload, created_at").
		WithArgs("conv-1").
		WillReturnRows(rows)

	records, err := log.History(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	if records[0].Kind != domain.RecordMetadata || records[0].Payload["format"] != "JSON" {
		t.Fatalf("first record = %+v", records[0])
	}
	if records[1].Payload["summary"] != "ok" {
		t.Fatalf("second record = %+v", records[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
