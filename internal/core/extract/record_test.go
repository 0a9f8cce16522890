package extract

import (
	"testing"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

func countAnomalies(anomalies []domain.Anomaly, kind domain.AnomalyKind) int {
	n := 0
	for _, a := range anomalies {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func TestRecordExtractorCleanInput(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, anomalies := e.Extract(map[string]any{
		"order_id":      "R-100",
		"customer":      "Acme Corp",
		"items":         []any{map[string]any{"sku": "A1", "qty": float64(2)}},
		"total_amount":  1250.5,
		"currency":      "eur",
		"delivery_date": "2026-03-15",
	})

	if record.RecordID == nil || *record.RecordID != "R-100" {
		t.Fatalf("record_id = %v", record.RecordID)
	}
	if record.Party == nil || *record.Party != "Acme Corp" {
		t.Fatalf("party = %v", record.Party)
	}
	if len(record.LineItems) != 1 || record.LineItems[0].SKU != "A1" || record.LineItems[0].Quantity != 2 {
		t.Fatalf("line_items = %+v", record.LineItems)
	}
	if record.TotalAmount == nil || *record.TotalAmount != 1250.5 {
		t.Fatalf("total_amount = %v", record.TotalAmount)
	}
	if record.Currency == nil || *record.Currency != "EUR" {
		t.Fatalf("currency = %v", record.Currency)
	}
	if record.DeliveryDate == nil || *record.DeliveryDate != "2026-03-15" {
		t.Fatalf("delivery_date = %v", record.DeliveryDate)
	}
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
}

func TestRecordExtractorAliasSubstitution(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, anomalies := e.Extract(map[string]any{
		"id":       "ORD-55",
		"name":     "Globex",
		"products": []any{map[string]any{"product_id": "P9", "qty": float64(4)}},
		"total":    99.0,
		"currency": "USD",
		"date":     "03/15/2026",
	})

	if record.RecordID == nil || *record.RecordID != "ORD-55" {
		t.Fatalf("record_id = %v", record.RecordID)
	}
	if record.DeliveryDate == nil || *record.DeliveryDate != "2026-03-15" {
		t.Fatalf("delivery_date = %v", record.DeliveryDate)
	}
	if got := countAnomalies(anomalies, domain.AnomalyFieldSubstituted); got != 5 {
		t.Fatalf("substitution anomalies = %d, want 5: %v", got, anomalies)
	}
	if got := countAnomalies(anomalies, domain.AnomalyMissingField); got != 0 {
		t.Fatalf("missing-field anomalies = %d: %v", got, anomalies)
	}
}

func TestRecordExtractorCanonicalNamesAreAliases(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	_, anomalies := e.Extract(map[string]any{
		"record_id":     "R-1",
		"party":         "Acme",
		"line_items":    []any{map[string]any{"sku": "A1", "qty": float64(1)}},
		"total_amount":  10.0,
		"currency":      "USD",
		"delivery_date": "2026-01-01",
	})

	if got := countAnomalies(anomalies, domain.AnomalyFieldSubstituted); got != 3 {
		t.Fatalf("substitution anomalies = %d, want 3: %v", got, anomalies)
	}
}

func TestRecordExtractorMissingTotalAmount(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, anomalies := e.Extract(map[string]any{
		"order_id":      "R-2",
		"customer":      "Initech",
		"items":         []any{map[string]any{"sku": "X", "qty": float64(1)}},
		"currency":      "USD",
		"delivery_date": "2026-01-01",
	})

	if record.TotalAmount != nil {
		t.Fatalf("total_amount = %v, want nil", *record.TotalAmount)
	}
	if got := countAnomalies(anomalies, domain.AnomalyMissingField); got != 1 {
		t.Fatalf("missing-field anomalies = %d, want exactly 1: %v", got, anomalies)
	}
}

func TestRecordExtractorNonNumericTotal(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, anomalies := e.Extract(map[string]any{
		"order_id":      "R-3",
		"customer":      "Initech",
		"items":         []any{},
		"total_amount":  "$1,200.50",
		"currency":      "USD",
		"delivery_date": "2026-01-01",
	})

	if record.TotalAmount == nil || *record.TotalAmount != 1200.50 {
		t.Fatalf("total_amount = %v, want 1200.50", record.TotalAmount)
	}
	if got := countAnomalies(anomalies, domain.AnomalyTypeCoercion); got != 0 {
		t.Fatalf("coercion anomalies = %d: %v", got, anomalies)
	}
	if got := countAnomalies(anomalies, domain.AnomalySuspiciousValue); got != 1 {
		t.Fatalf("suspicious anomalies = %d (empty line_items): %v", got, anomalies)
	}
}

func TestRecordExtractorGarbageTotalDefaultsToZero(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, anomalies := e.Extract(map[string]any{
		"order_id":      "R-4",
		"customer":      "Initech",
		"items":         []any{map[string]any{"sku": "X", "qty": float64(1)}},
		"total_amount":  "not a number",
		"currency":      "USD",
		"delivery_date": "2026-01-01",
	})

	if record.TotalAmount == nil || *record.TotalAmount != 0 {
		t.Fatalf("total_amount = %v, want 0", record.TotalAmount)
	}
	if got := countAnomalies(anomalies, domain.AnomalyTypeCoercion); got != 1 {
		t.Fatalf("coercion anomalies = %d: %v", got, anomalies)
	}
}

func TestRecordExtractorCurrencyHandling(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())

	record, anomalies := e.Extract(map[string]any{
		"order_id":      "R-5",
		"customer":      "Initech",
		"items":         []any{map[string]any{"sku": "X", "qty": float64(1)}},
		"total_amount":  10.0,
		"delivery_date": "2026-01-01",
	})
	if record.Currency == nil || *record.Currency != "USD" {
		t.Fatalf("defaulted currency = %v, want USD", record.Currency)
	}
	if got := countAnomalies(anomalies, domain.AnomalyMissingField); got != 1 {
		t.Fatalf("missing-field anomalies = %d: %v", got, anomalies)
	}

	record, anomalies = e.Extract(map[string]any{
		"order_id":      "R-6",
		"customer":      "Initech",
		"items":         []any{map[string]any{"sku": "X", "qty": float64(1)}},
		"total_amount":  10.0,
		"currency":      "XBT",
		"delivery_date": "2026-01-01",
	})
	if record.Currency == nil || *record.Currency != "XBT" {
		t.Fatalf("unknown currency = %v, want kept as XBT", record.Currency)
	}
	if got := countAnomalies(anomalies, domain.AnomalyUnknownEnum); got != 1 {
		t.Fatalf("enum anomalies = %d: %v", got, anomalies)
	}
}

func TestRecordExtractorNegativeTotal(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	_, anomalies := e.Extract(map[string]any{
		"order_id":      "R-7",
		"customer":      "Initech",
		"items":         []any{map[string]any{"sku": "X", "qty": float64(1)}},
		"total_amount":  -45.0,
		"currency":      "USD",
		"delivery_date": "2026-01-01",
	})
	if got := countAnomalies(anomalies, domain.AnomalySuspiciousValue); got != 1 {
		t.Fatalf("suspicious anomalies = %d: %v", got, anomalies)
	}
}

func TestRecordExtractorNestedDeliveryDate(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, _ := e.Extract(map[string]any{
		"order_id":     "R-8",
		"customer":     "Initech",
		"items":        []any{map[string]any{"sku": "X", "qty": float64(1)}},
		"total_amount": 10.0,
		"currency":     "USD",
		"delivery":     map[string]any{"date": "January 5, 2026"},
	})
	if record.DeliveryDate == nil || *record.DeliveryDate != "2026-01-05" {
		t.Fatalf("delivery_date = %v, want 2026-01-05", record.DeliveryDate)
	}
}

func TestRecordExtractorUnparseableDateKept(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, anomalies := e.Extract(map[string]any{
		"order_id":      "R-9",
		"customer":      "Initech",
		"items":         []any{map[string]any{"sku": "X", "qty": float64(1)}},
		"total_amount":  10.0,
		"currency":      "USD",
		"delivery_date": "next Tuesday",
	})
	if record.DeliveryDate == nil || *record.DeliveryDate != "next Tuesday" {
		t.Fatalf("delivery_date = %v, want kept verbatim", record.DeliveryDate)
	}
	if got := countAnomalies(anomalies, domain.AnomalyTypeCoercion); got != 1 {
		t.Fatalf("coercion anomalies = %d: %v", got, anomalies)
	}
}

func TestRecordExtractorEmptyInput(t *testing.T) {
	e := NewRecordExtractor(DefaultRecordSchema())
	record, anomalies := e.Extract(map[string]any{})

	if record == nil {
		t.Fatal("record is nil")
	}
	if got := countAnomalies(anomalies, domain.AnomalyMissingField); got != 6 {
		t.Fatalf("missing-field anomalies = %d, want 6: %v", got, anomalies)
	}
}
