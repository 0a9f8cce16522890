package domain

import "time"

// FormatKind identifies the detected shape of an inbound payload. The string
// values are the wire values consumers and chain conditions already depend on,
// carried over from the upstream integration contract.
type FormatKind string

const (
	FormatStructuredRecord FormatKind = "JSON"
	FormatCorrespondence   FormatKind = "Email"
	FormatDocument         FormatKind = "PDF"
	FormatUnknown          FormatKind = "Unknown"
)

// IntentKind is the classified business purpose of an inbound payload.
type IntentKind string

const (
	IntentInvoice    IntentKind = "Invoice"
	IntentRFQ        IntentKind = "RFQ"
	IntentComplaint  IntentKind = "Complaint"
	IntentRegulation IntentKind = "Regulation"
	IntentFraudRisk  IntentKind = "FraudRisk"
	IntentOther      IntentKind = "Other"
)

// IntentPriority is the fixed tie-break order applied when several intents
// share the maximum score.
var IntentPriority = []IntentKind{
	IntentFraudRisk,
	IntentRegulation,
	IntentInvoice,
	IntentRFQ,
	IntentComplaint,
	IntentOther,
}

// RawInput is the closed set of inbound payload variants. Dispatch is by type
// switch; there is no generic "any dict" path.
type RawInput interface {
	isRawInput()
}

// BlobInput is an opaque binary payload (uploaded file content).
type BlobInput []byte

// RecordInput is an already-decoded key/value mapping.
type RecordInput map[string]any

// TextInput is a free-text payload (correspondence body or serialized record).
type TextInput string

func (BlobInput) isRawInput()   {}
func (RecordInput) isRawInput() {}
func (TextInput) isRawInput()   {}

// Classification is produced fresh per input and never mutated.
type Classification struct {
	Format    FormatKind `json:"format"`
	Intent    IntentKind `json:"intent"`
	Timestamp time.Time  `json:"timestamp"`
}
