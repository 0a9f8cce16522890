package ports

import (
	"context"
	"io"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// ConversationLog is the append-only persistence collaborator. The core never
// queries by anything but conversation id and record kind.
type ConversationLog interface {
	Append(ctx context.Context, kind domain.RecordKind, conversationID, source string, payload map[string]any) error
	Latest(ctx context.Context, conversationID string, kind domain.RecordKind, source string) (*domain.LogRecord, error)
	History(ctx context.Context, conversationID string) ([]domain.LogRecord, error)
}

// ObjectStorage stores raw uploaded blobs for asynchronous processing.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// IntakeQueue publishes/consumes intake events.
type IntakeQueue interface {
	PublishIntakeReceived(ctx context.Context, event domain.IntakeEvent) error
	SubscribeIntakeReceived(ctx context.Context, handler func(context.Context, domain.IntakeEvent) error) error
}

// Outcome is the result of one action-sink invocation.
type Outcome struct {
	Success  bool           `json:"success"`
	Response map[string]any `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ActionSink delivers side-effecting actions to external systems. It may run
// in a simulated mode returning deterministic synthetic responses.
type ActionSink interface {
	Invoke(ctx context.Context, target string, payload map[string]any) (Outcome, error)
}

// DocumentText turns an opaque binary document into plain text.
type DocumentText interface {
	ExtractText(ctx context.Context, blob []byte) (string, error)
}

// SpreadsheetDecoder turns a spreadsheet blob into a key/value mapping.
type SpreadsheetDecoder interface {
	DecodeFirstSheet(blob []byte) (map[string]any, error)
}
