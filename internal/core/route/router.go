package route

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowbit/intake-triage/internal/core/classify"
	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/extract"
	"github.com/flowbit/intake-triage/internal/core/ports"
)

// Router classifies raw input and dispatches it to the matching extractor,
// producing one ResultEnvelope per input. Conversation log writes are
// best-effort: a failed append is logged and never fails the triage call.
type Router struct {
	classifier     *classify.Classifier
	records        *extract.RecordExtractor
	correspondence *extract.CorrespondenceExtractor
	documents      *extract.DocumentExtractor
	sheets         ports.SpreadsheetDecoder
	log            ports.ConversationLog
	logger         *slog.Logger
}

func New(
	classifier *classify.Classifier,
	records *extract.RecordExtractor,
	correspondence *extract.CorrespondenceExtractor,
	documents *extract.DocumentExtractor,
	sheets ports.SpreadsheetDecoder,
	log ports.ConversationLog,
	logger *slog.Logger,
) *Router {
	return &Router{
		classifier:     classifier,
		records:        records,
		correspondence: correspondence,
		documents:      documents,
		sheets:         sheets,
		log:            log,
		logger:         logger,
	}
}

func (r *Router) Route(ctx context.Context, input domain.RawInput, conversationID string) *domain.ResultEnvelope {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	classification := r.classifier.Classify(input)
	envelope := &domain.ResultEnvelope{
		Format:         classification.Format,
		Intent:         classification.Intent,
		ConversationID: conversationID,
	}

	r.appendLog(ctx, domain.RecordMetadata, conversationID, "router", map[string]any{
		"format":        string(classification.Format),
		"intent":        string(classification.Intent),
		"classified_at": classification.Timestamp.Format(time.RFC3339Nano),
	})

	switch classification.Format {
	case domain.FormatStructuredRecord:
		r.routeRecord(ctx, input, envelope)
	case domain.FormatCorrespondence:
		text, _ := input.(domain.TextInput)
		envelope.ProcessedData.Correspondence = r.correspondence.Extract(string(text))
	case domain.FormatDocument:
		blob, _ := input.(domain.BlobInput)
		envelope.ProcessedData.Document = r.documents.Extract(ctx, blob)
		if envelope.ProcessedData.Document.Error != "" {
			r.logger.Warn("document text extraction failed",
				"conversation_id", conversationID,
				"error", envelope.ProcessedData.Document.Error)
		}
	default:
		envelope.Error = "Unsupported format"
	}

	if envelope.Error == "" {
		r.appendLog(ctx, domain.RecordExtraction, conversationID, string(classification.Format), extractionPayload(envelope))
	}
	return envelope
}

func (r *Router) routeRecord(ctx context.Context, input domain.RawInput, envelope *domain.ResultEnvelope) {
	fields, err := recordFields(input, r.sheets)
	if err != nil {
		envelope.Error = err.Error()
		return
	}
	record, anomalies := r.records.Extract(fields)
	envelope.ProcessedData.Record = record
	envelope.ProcessedData.Anomalies = anomalies
}

func recordFields(input domain.RawInput, sheets ports.SpreadsheetDecoder) (map[string]any, error) {
	switch v := input.(type) {
	case domain.RecordInput:
		return map[string]any(v), nil
	case domain.TextInput:
		return decodeJSONRecord(string(v))
	case domain.BlobInput:
		return sheets.DecodeFirstSheet(v)
	default:
		return nil, fmt.Errorf("route record fields: %w", domain.ErrInvalidInput)
	}
}

func decodeJSONRecord(text string) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "route.decodeJSONRecord", err)
	}
	switch v := decoded.(type) {
	case map[string]any:
		return v, nil
	case []any:
		// A bare list extracts as the record's line items.
		return map[string]any{"items": v}, nil
	default:
		return nil, fmt.Errorf("route record fields: json value is not a record: %w", domain.ErrInvalidInput)
	}
}

func (r *Router) appendLog(ctx context.Context, kind domain.RecordKind, conversationID, source string, payload map[string]any) {
	if r.log == nil {
		return
	}
	if err := r.log.Append(ctx, kind, conversationID, source, payload); err != nil {
		r.logger.Warn("conversation log append failed",
			"conversation_id", conversationID,
			"kind", string(kind),
			"error", err)
	}
}

func extractionPayload(envelope *domain.ResultEnvelope) map[string]any {
	payload := map[string]any{"format": string(envelope.Format)}
	switch {
	case envelope.ProcessedData.Record != nil:
		payload["record"] = envelope.ProcessedData.Record
		payload["anomaly_count"] = len(envelope.ProcessedData.Anomalies)
	case envelope.ProcessedData.Correspondence != nil:
		payload["correspondence"] = envelope.ProcessedData.Correspondence
	case envelope.ProcessedData.Document != nil:
		payload["document"] = envelope.ProcessedData.Document
	}
	return payload
}
