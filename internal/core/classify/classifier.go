package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

var (
	pdfMagic  = []byte("%PDF")
	xlsxMagic = []byte("PK\x03\x04")
)

// Classifier determines format and business intent of raw inputs. Classify
// never fails; unrecognized input degrades to Unknown/Other.
type Classifier struct {
	taxonomy Taxonomy
}

func New(taxonomy Taxonomy) *Classifier {
	return &Classifier{taxonomy: taxonomy}
}

func (c *Classifier) Classify(input domain.RawInput) domain.Classification {
	format := c.determineFormat(input)
	return domain.Classification{
		Format:    format,
		Intent:    c.determineIntent(input, format),
		Timestamp: time.Now().UTC(),
	}
}

func (c *Classifier) determineFormat(input domain.RawInput) domain.FormatKind {
	switch v := input.(type) {
	case domain.BlobInput:
		if bytes.HasPrefix(v, pdfMagic) {
			return domain.FormatDocument
		}
		if bytes.HasPrefix(v, xlsxMagic) {
			// Spreadsheet archives decode into structured records downstream.
			return domain.FormatStructuredRecord
		}
		return domain.FormatUnknown
	case domain.RecordInput:
		return domain.FormatStructuredRecord
	case domain.TextInput:
		text := string(v)
		trimmed := strings.TrimSpace(text)
		if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && json.Valid([]byte(trimmed)) {
			return domain.FormatStructuredRecord
		}
		if strings.Contains(text, "From:") || strings.Contains(text, "Subject:") || strings.Contains(text, "@") {
			return domain.FormatCorrespondence
		}
		return domain.FormatUnknown
	default:
		return domain.FormatUnknown
	}
}

func (c *Classifier) determineIntent(input domain.RawInput, format domain.FormatKind) domain.IntentKind {
	textual := strings.ToLower(textualForm(input))
	flattened := flattenedFields(input)

	scores := make(map[domain.IntentKind]int)
	for intent, keywords := range c.taxonomy.IntentKeywords {
		weight := 1
		if intent == domain.IntentFraudRisk {
			weight = 2
		}
		for _, keyword := range keywords {
			if strings.Contains(textual, keyword) {
				scores[intent] += weight
			}
		}
	}

	if format == domain.FormatStructuredRecord {
		for intent, fields := range c.taxonomy.IntentFields {
			for _, field := range fields {
				if hasFlattenedField(flattened, field) {
					scores[intent] += 2
				}
			}
		}
		scores[domain.IntentFraudRisk] += c.fraudFieldScore(flattened)
	}

	best, bestScore := domain.IntentOther, 0
	for _, intent := range intentOrder(scores) {
		if scores[intent] > bestScore {
			best, bestScore = intent, scores[intent]
		}
	}
	if bestScore == 0 {
		return defaultIntent(format)
	}
	// Fixed-priority tie-break among intents sharing the maximum score.
	for _, intent := range domain.IntentPriority {
		if scores[intent] == bestScore {
			return intent
		}
	}
	return best
}

func (c *Classifier) fraudFieldScore(flattened map[string]any) int {
	score := 0
	for name, value := range flattened {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "risk") {
			if n, ok := asNumber(value); ok && n > c.taxonomy.RiskScoreThreshold {
				score += 3
			}
		}
		for _, marker := range c.taxonomy.SuspicionFieldMarkers {
			if strings.Contains(lower, marker) && isTruthy(value) {
				score += 3
				break
			}
		}
	}
	return score
}

func defaultIntent(format domain.FormatKind) domain.IntentKind {
	if format == domain.FormatDocument {
		return domain.IntentRegulation
	}
	return domain.IntentOther
}

// intentOrder yields scored intents in a stable order so equal runs classify
// identically.
func intentOrder(scores map[domain.IntentKind]int) []domain.IntentKind {
	out := make([]domain.IntentKind, 0, len(scores))
	for intent := range scores {
		out = append(out, intent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func textualForm(input domain.RawInput) string {
	switch v := input.(type) {
	case domain.TextInput:
		return string(v)
	case domain.RecordInput:
		flat := flattenFields("", map[string]any(v))
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, "%s=%v\n", k, flat[k])
		}
		return b.String()
	default:
		return ""
	}
}

func flattenedFields(input domain.RawInput) map[string]any {
	record, ok := input.(domain.RecordInput)
	if !ok {
		if text, isText := input.(domain.TextInput); isText {
			var decoded map[string]any
			if err := json.Unmarshal([]byte(text), &decoded); err == nil {
				return flattenFields("", decoded)
			}
		}
		return nil
	}
	return flattenFields("", map[string]any(record))
}

// flattenFields produces the dot-path-keyed projection of a nested record.
// List elements contribute their element fields under the list's path.
func flattenFields(prefix string, fields map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range fields {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch nested := value.(type) {
		case map[string]any:
			for k, v := range flattenFields(path, nested) {
				out[k] = v
			}
		case []any:
			out[path] = value
			for _, element := range nested {
				if m, ok := element.(map[string]any); ok {
					for k, v := range flattenFields(path, m) {
						out[k] = v
					}
				}
			}
		default:
			out[path] = value
		}
	}
	return out
}

func hasFlattenedField(flattened map[string]any, field string) bool {
	for key := range flattened {
		if key == field || strings.HasSuffix(key, "."+field) {
			return true
		}
	}
	return false
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isTruthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		lower := strings.ToLower(strings.TrimSpace(v))
		return lower == "true" || lower == "yes" || lower == "1"
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}
