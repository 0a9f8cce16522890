package ports

import (
	"context"
	"io"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// IntakeTriager is the inbound contract for synchronous end-to-end triage.
type IntakeTriager interface {
	Triage(ctx context.Context, input domain.RawInput, conversationID string) (*domain.ResultEnvelope, error)
}

// IntakeIngestor is the inbound contract for asynchronous blob intake.
type IntakeIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader, conversationID string) (string, error)
}

// IntakeProcessor is the inbound contract for the queue worker.
type IntakeProcessor interface {
	ProcessStored(ctx context.Context, event domain.IntakeEvent) error
}

// ConversationReader is the inbound read model over the conversation log.
type ConversationReader interface {
	History(ctx context.Context, conversationID string) ([]domain.LogRecord, error)
	SimplifiedHistory(ctx context.Context, conversationID string) (*domain.SimplifiedHistory, error)
	Result(ctx context.Context, conversationID string) (map[string]any, error)
}
