package domain

import "time"

// RecordKind partitions the append-only conversation log.
type RecordKind string

const (
	RecordMetadata   RecordKind = "metadata"
	RecordExtraction RecordKind = "extraction"
	RecordResult     RecordKind = "result"
	RecordAction     RecordKind = "action"
	RecordAlert      RecordKind = "alert"
)

// LogRecord is one appended conversation event. Payload holds a serialized
// copy of pipeline output; the log never holds live references back into a
// pipeline invocation.
type LogRecord struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Kind           RecordKind     `json:"kind"`
	Source         string         `json:"source"`
	Payload        map[string]any `json:"payload"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SimplifiedEvent is one entry of the flattened conversation history view.
type SimplifiedEvent struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Format    string         `json:"format"`
	Intent    string         `json:"intent"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// SimplifiedHistory is the condensed per-conversation timeline.
type SimplifiedHistory struct {
	ConversationID string            `json:"conversation_id"`
	Events         []SimplifiedEvent `json:"events"`
}

// IntakeEvent is the queue message linking a stored blob to its conversation.
type IntakeEvent struct {
	ConversationID string    `json:"conversation_id"`
	StorageKey     string    `json:"storage_key"`
	MimeType       string    `json:"mime_type"`
	ReceivedAt     time.Time `json:"received_at"`
}
