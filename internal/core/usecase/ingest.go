package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
)

// IngestUseCase accepts raw uploads for asynchronous triage: the blob is
// stored, the conversation gets an intake record, and a queue event hands the
// work to a worker.
type IngestUseCase struct {
	storage ports.ObjectStorage
	log     ports.ConversationLog
	queue   ports.IntakeQueue
}

func NewIngestUseCase(
	storage ports.ObjectStorage,
	log ports.ConversationLog,
	queue ports.IntakeQueue,
) *IngestUseCase {
	return &IngestUseCase{
		storage: storage,
		log:     log,
		queue:   queue,
	}
}

func (uc *IngestUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
	conversationID string,
) (string, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(filename))

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return "", fmt.Errorf("save to object storage: %w", err)
	}

	if err := uc.log.Append(ctx, domain.RecordMetadata, conversationID, "ingest", map[string]any{
		"filename":    filename,
		"mime_type":   mimeType,
		"storage_key": storageKey,
		"received_at": time.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("record intake metadata: %w", err)
	}

	event := domain.IntakeEvent{
		ConversationID: conversationID,
		StorageKey:     storageKey,
		MimeType:       mimeType,
		ReceivedAt:     time.Now().UTC(),
	}
	if err := uc.queue.PublishIntakeReceived(ctx, event); err != nil {
		return "", fmt.Errorf("publish intake event: %w", err)
	}

	return conversationID, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "intake.bin"
	}
	return base
}
