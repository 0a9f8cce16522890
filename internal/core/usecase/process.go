package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
)

// ProcessUseCase consumes intake events: it loads the stored blob, shapes it
// into the raw-input variant the mime type implies, and runs the triage
// pipeline.
type ProcessUseCase struct {
	storage ports.ObjectStorage
	triager ports.IntakeTriager
}

func NewProcessUseCase(storage ports.ObjectStorage, triager ports.IntakeTriager) *ProcessUseCase {
	return &ProcessUseCase{
		storage: storage,
		triager: triager,
	}
}

func (uc *ProcessUseCase) ProcessStored(ctx context.Context, event domain.IntakeEvent) error {
	reader, err := uc.storage.Open(ctx, event.StorageKey)
	if err != nil {
		return fmt.Errorf("open stored blob %s: %w", event.StorageKey, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read stored blob %s: %w", event.StorageKey, err)
	}

	input := shapeInput(data, event.MimeType)
	if _, err := uc.triager.Triage(ctx, input, event.ConversationID); err != nil {
		return fmt.Errorf("triage stored intake: %w", err)
	}
	return nil
}

// shapeInput picks the raw-input variant for a stored blob. Textual mime
// types become text so header and JSON detection applies; everything else
// stays binary.
func shapeInput(data []byte, mimeType string) domain.RawInput {
	mime := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mime, "text/"),
		strings.Contains(mime, "json"),
		strings.Contains(mime, "message/rfc822"):
		return domain.TextInput(data)
	default:
		return domain.BlobInput(data)
	}
}
