package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// RecordSchema is the alias configuration for mapping arbitrary structured
// records into the canonical schema. First matching alias wins; the first
// alias is the expected upstream name, so only later aliases count as
// substitutions.
type RecordSchema struct {
	RecordIDAliases     []string
	PartyAliases        []string
	LineItemAliases     []string
	SKUAliases          []string
	QuantityAliases     []string
	TotalAmountAliases  []string
	CurrencyAliases     []string
	DeliveryDateAliases []string

	AcceptedCurrencies []string
	DefaultCurrency    string
	DateFormats        []string
}

// DefaultRecordSchema returns the production alias table.
func DefaultRecordSchema() RecordSchema {
	return RecordSchema{
		RecordIDAliases:     []string{"order_id", "record_id", "id", "order_number"},
		PartyAliases:        []string{"customer", "party", "customer_name", "name"},
		LineItemAliases:     []string{"items", "line_items", "products", "order_items"},
		SKUAliases:          []string{"sku", "id", "product_id"},
		QuantityAliases:     []string{"qty", "quantity", "amount", "count"},
		TotalAmountAliases:  []string{"total_amount", "amount", "total"},
		CurrencyAliases:     []string{"currency", "currency_code"},
		DeliveryDateAliases: []string{"delivery_date", "date", "delivery.date"},

		AcceptedCurrencies: []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD"},
		DefaultCurrency:    "USD",
		DateFormats: []string{
			"2006-01-02", "2006/01/02", "01/02/2006", "02/01/2006",
			"01-02-2006", "02-01-2006", "January 2, 2006", "Jan 2, 2006",
		},
	}
}

// RecordExtractor maps structured records into NormalizedRecord. Malformed
// values never abort extraction; every absence or defect lands in the anomaly
// list.
type RecordExtractor struct {
	schema RecordSchema
}

func NewRecordExtractor(schema RecordSchema) *RecordExtractor {
	return &RecordExtractor{schema: schema}
}

func (e *RecordExtractor) Extract(fields map[string]any) (*domain.NormalizedRecord, []domain.Anomaly) {
	record := &domain.NormalizedRecord{LineItems: []domain.LineItem{}}
	var anomalies []domain.Anomaly
	note := func(kind domain.AnomalyKind, format string, args ...any) {
		anomalies = append(anomalies, domain.Anomaly{Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	if value, alias, ok := lookupAlias(fields, e.schema.RecordIDAliases); ok {
		id := stringify(value)
		record.RecordID = &id
		if alias != e.schema.RecordIDAliases[0] {
			note(domain.AnomalyFieldSubstituted, "record_id mapped from %q", alias)
		}
	} else {
		note(domain.AnomalyMissingField, "missing required field: record_id")
	}

	if value, alias, ok := lookupAlias(fields, e.schema.PartyAliases); ok {
		party := stringify(value)
		record.Party = &party
		if alias != e.schema.PartyAliases[0] {
			note(domain.AnomalyFieldSubstituted, "party mapped from %q", alias)
		}
	} else {
		note(domain.AnomalyMissingField, "missing required field: party")
	}

	anomalies = append(anomalies, e.extractLineItems(fields, record)...)

	if value, alias, ok := lookupAlias(fields, e.schema.TotalAmountAliases); ok {
		amount, coerced := coerceFloat(value)
		record.TotalAmount = &amount
		if !coerced {
			note(domain.AnomalyTypeCoercion, "total_amount %v is not numeric, defaulted to 0", value)
		}
		if alias != e.schema.TotalAmountAliases[0] {
			note(domain.AnomalyFieldSubstituted, "total_amount mapped from %q", alias)
		}
		if amount < 0 {
			note(domain.AnomalySuspiciousValue, "negative total_amount: %v", amount)
		}
	} else {
		note(domain.AnomalyMissingField, "missing required field: total_amount")
	}

	if value, alias, ok := lookupAlias(fields, e.schema.CurrencyAliases); ok {
		currency := strings.ToUpper(strings.TrimSpace(stringify(value)))
		record.Currency = &currency
		if alias != e.schema.CurrencyAliases[0] {
			note(domain.AnomalyFieldSubstituted, "currency mapped from %q", alias)
		}
		if !contains(e.schema.AcceptedCurrencies, currency) {
			note(domain.AnomalyUnknownEnum, "unknown currency: %s", currency)
		}
	} else {
		fallback := e.schema.DefaultCurrency
		record.Currency = &fallback
		note(domain.AnomalyMissingField, "missing required field: currency, defaulted to %s", fallback)
	}

	if value, alias, ok := lookupAlias(fields, e.schema.DeliveryDateAliases); ok {
		date, normalized := e.normalizeDate(value)
		record.DeliveryDate = &date
		if !normalized {
			note(domain.AnomalyTypeCoercion, "unrecognized date format kept as-is: %v", value)
		}
		if alias != e.schema.DeliveryDateAliases[0] {
			note(domain.AnomalyFieldSubstituted, "delivery_date mapped from %q", alias)
		}
	} else {
		note(domain.AnomalyMissingField, "missing required field: delivery_date")
	}

	return record, anomalies
}

func (e *RecordExtractor) extractLineItems(fields map[string]any, record *domain.NormalizedRecord) []domain.Anomaly {
	var anomalies []domain.Anomaly
	note := func(kind domain.AnomalyKind, format string, args ...any) {
		anomalies = append(anomalies, domain.Anomaly{Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	value, alias, ok := lookupAlias(fields, e.schema.LineItemAliases)
	if !ok {
		note(domain.AnomalyMissingField, "missing required field: line_items")
		return anomalies
	}
	list, isList := value.([]any)
	if !isList {
		note(domain.AnomalyTypeCoercion, "line_items field %q is not a list", alias)
		return anomalies
	}
	if alias != e.schema.LineItemAliases[0] {
		note(domain.AnomalyFieldSubstituted, "line_items mapped from %q", alias)
	}
	if len(list) == 0 {
		note(domain.AnomalySuspiciousValue, "line_items is empty")
	}

	for i, element := range list {
		entry, isMap := element.(map[string]any)
		if !isMap {
			note(domain.AnomalyTypeCoercion, "line item %d is not an object", i)
			continue
		}
		item := domain.LineItem{}
		if sku, _, found := lookupAlias(entry, e.schema.SKUAliases); found {
			item.SKU = stringify(sku)
		} else {
			note(domain.AnomalyMissingField, "line item %d missing sku", i)
		}
		if qty, _, found := lookupAlias(entry, e.schema.QuantityAliases); found {
			n, coerced := coerceInt(qty)
			item.Quantity = n
			if !coerced {
				note(domain.AnomalyTypeCoercion, "line item %d quantity %v is not numeric", i, qty)
			}
		} else {
			note(domain.AnomalyMissingField, "line item %d missing quantity", i)
		}
		record.LineItems = append(record.LineItems, item)
	}
	return anomalies
}

func (e *RecordExtractor) normalizeDate(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range e.schema.DateFormats {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.Format("2006-01-02"), true
			}
		}
		return v, false
	case float64:
		return time.Unix(int64(v), 0).UTC().Format("2006-01-02"), true
	case int:
		return time.Unix(int64(v), 0).UTC().Format("2006-01-02"), true
	case int64:
		return time.Unix(v, 0).UTC().Format("2006-01-02"), true
	default:
		return stringify(value), false
	}
}

// lookupAlias tries aliases in order; dotted aliases descend into nested
// mappings.
func lookupAlias(fields map[string]any, aliases []string) (any, string, bool) {
	for _, alias := range aliases {
		if !strings.Contains(alias, ".") {
			if value, ok := fields[alias]; ok {
				return value, alias, true
			}
			continue
		}
		current := any(fields)
		found := true
		for _, segment := range strings.Split(alias, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				found = false
				break
			}
			current, ok = m[segment]
			if !ok {
				found = false
				break
			}
		}
		if found {
			return current, alias, true
		}
	}
	return nil, "", false
}

var nonNumericChars = regexp.MustCompile(`[^\d.\-]`)

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		cleaned := nonNumericChars.ReplaceAllString(v, "")
		if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return parsed, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func coerceInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		cleaned := nonNumericChars.ReplaceAllString(v, "")
		if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return int(parsed), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
