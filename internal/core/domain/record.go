package domain

import "fmt"

// AnomalyKind tags a non-fatal deviation detected during extraction.
type AnomalyKind string

const (
	AnomalyMissingField     AnomalyKind = "missing_required_field"
	AnomalyFieldSubstituted AnomalyKind = "field_name_substituted"
	AnomalyTypeCoercion     AnomalyKind = "type_coercion_failure"
	AnomalySuspiciousValue  AnomalyKind = "suspicious_value"
	AnomalyUnknownEnum      AnomalyKind = "unknown_enum_value"
)

// Anomaly is additive evidence recorded alongside still-valid output. It never
// aborts processing.
type Anomaly struct {
	Kind   AnomalyKind `json:"kind"`
	Detail string      `json:"detail"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s: %s", a.Kind, a.Detail)
}

// LineItem is one entry of a normalized order.
type LineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// NormalizedRecord is the canonical schema structured-record inputs are mapped
// into. Every field either holds a validated value or its absence/defect is
// recorded in the accompanying anomaly list.
type NormalizedRecord struct {
	RecordID     *string    `json:"record_id"`
	Party        *string    `json:"party"`
	LineItems    []LineItem `json:"line_items"`
	TotalAmount  *float64   `json:"total_amount"`
	Currency     *string    `json:"currency"`
	DeliveryDate *string    `json:"delivery_date"`
}
