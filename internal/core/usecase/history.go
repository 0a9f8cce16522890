package usecase

import (
	"context"
	"fmt"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
)

// HistoryUseCase is the read model over the conversation log.
type HistoryUseCase struct {
	log ports.ConversationLog
}

func NewHistoryUseCase(log ports.ConversationLog) *HistoryUseCase {
	return &HistoryUseCase{log: log}
}

func (uc *HistoryUseCase) History(ctx context.Context, conversationID string) ([]domain.LogRecord, error) {
	records, err := uc.log.History(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.WrapError(domain.ErrConversationNotFound, "usecase.History", fmt.Errorf("conversation %s", conversationID))
	}
	return records, nil
}

// SimplifiedHistory condenses the log into one event per record, carrying the
// classification context captured from the preceding metadata record. Payloads
// are stored flat, so the event data is the payload itself with no unwrapping.
func (uc *HistoryUseCase) SimplifiedHistory(ctx context.Context, conversationID string) (*domain.SimplifiedHistory, error) {
	records, err := uc.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	simplified := &domain.SimplifiedHistory{ConversationID: conversationID}
	format, intent := "", ""
	for _, record := range records {
		if record.Kind == domain.RecordMetadata {
			if f, ok := record.Payload["format"].(string); ok {
				format = f
			}
			if i, ok := record.Payload["intent"].(string); ok {
				intent = i
			}
			continue
		}
		simplified.Events = append(simplified.Events, domain.SimplifiedEvent{
			ID:        record.ID,
			Source:    record.Source,
			Format:    format,
			Intent:    intent,
			Timestamp: record.CreatedAt,
			Data:      record.Payload,
		})
	}
	return simplified, nil
}

// Result returns the latest triage result per format. A single-format
// conversation yields that result directly; a multi-format one yields a
// composite keyed by format.
func (uc *HistoryUseCase) Result(ctx context.Context, conversationID string) (map[string]any, error) {
	records, err := uc.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]map[string]any)
	var formats []string
	for _, record := range records {
		if record.Kind != domain.RecordResult {
			continue
		}
		if _, seen := latest[record.Source]; !seen {
			formats = append(formats, record.Source)
		}
		latest[record.Source] = record.Payload
	}
	if len(latest) == 0 {
		return nil, domain.WrapError(domain.ErrResultNotFound, "usecase.Result", fmt.Errorf("conversation %s", conversationID))
	}
	if len(latest) == 1 {
		return latest[formats[0]], nil
	}

	merged := map[string]any{
		"merged":  true,
		"formats": formats,
	}
	results := make(map[string]any, len(latest))
	for format, payload := range latest {
		results[format] = payload
	}
	merged["results"] = results
	return merged, nil
}
