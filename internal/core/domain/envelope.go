package domain

import (
	"encoding/json"
	"time"
)

// ProcessedData is the one-of extraction payload carried by a ResultEnvelope.
// Exactly one of Record/Correspondence/Document is non-nil on a successful
// extraction; Anomalies accompanies Record.
type ProcessedData struct {
	Record         *NormalizedRecord     `json:"record,omitempty"`
	Anomalies      []Anomaly             `json:"anomalies,omitempty"`
	Correspondence *CorrespondenceRecord `json:"correspondence,omitempty"`
	Document       *DocumentRecord       `json:"document,omitempty"`
}

// ResultEnvelope is the unit handed to the rule/action engine. It is created
// once per input by the router and read-only afterward, except for the
// engine-appended Alerts, Actions and Summary fields.
type ResultEnvelope struct {
	Format         FormatKind    `json:"format"`
	Intent         IntentKind    `json:"intent"`
	ConversationID string        `json:"conversation_id"`
	ProcessedData  ProcessedData `json:"processed_data"`
	Error          string        `json:"error,omitempty"`

	Alerts  []Alert       `json:"alerts,omitempty"`
	Actions []ChainResult `json:"actions,omitempty"`
	Summary string        `json:"summary,omitempty"`
}

// ConditionContext projects the envelope into the nested mapping that chain and
// alert conditions resolve dot-paths against. Extraction fields are promoted to
// the top level (they never collide with envelope keys), so both
// "total_amount" and "processed_data.record.total_amount" address the same
// value.
func (e *ResultEnvelope) ConditionContext() map[string]any {
	out := map[string]any{
		"format":          string(e.Format),
		"intent":          string(e.Intent),
		"conversation_id": e.ConversationID,
		"anomaly_count":   len(e.ProcessedData.Anomalies),
	}
	if e.Error != "" {
		out["error"] = e.Error
	}

	processed := map[string]any{
		"anomaly_count": len(e.ProcessedData.Anomalies),
	}
	promote := func(v any) {
		fields := toMap(v)
		for key, value := range fields {
			processed[key] = value
			if _, taken := out[key]; !taken {
				out[key] = value
			}
		}
	}
	switch {
	case e.ProcessedData.Record != nil:
		promote(e.ProcessedData.Record)
		processed["anomalies"] = anomalyStrings(e.ProcessedData.Anomalies)
	case e.ProcessedData.Correspondence != nil:
		promote(e.ProcessedData.Correspondence)
	case e.ProcessedData.Document != nil:
		promote(e.ProcessedData.Document)
	}

	out["processed_data"] = processed
	return out
}

func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func anomalyStrings(anomalies []Anomaly) []any {
	out := make([]any, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, a.String())
	}
	return out
}

// Condition is one structured predicate over the envelope's condition context.
// Field is a dot-separated path; a missing intermediate key makes the condition
// false, never an error.
type Condition struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

// ChainSpec associates a conjunction of conditions with an ordered action list.
// Chains are immutable once registered.
type ChainSpec struct {
	ID         string      `json:"id" yaml:"id"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Actions    []string    `json:"actions" yaml:"actions"`
}

// AlertRuleSpec is the structured form of an alert rule. It shares the chain
// condition model; free-form predicate expressions are deliberately not
// supported.
type AlertRuleSpec struct {
	ID         string      `json:"id" yaml:"id"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Message    string      `json:"message" yaml:"message"`
	Level      string      `json:"level" yaml:"level"`
}

// ActionResult records one action invocation inside a triggered chain.
type ActionResult struct {
	ActionID string         `json:"action_id"`
	Success  bool           `json:"success"`
	Result   map[string]any `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ChainResult records one triggered chain with its per-action outcomes.
type ChainResult struct {
	ChainID     string         `json:"chain_id"`
	TriggeredAt time.Time      `json:"triggered_at"`
	Actions     []ActionResult `json:"actions"`
}

// Alert is one triggered alert rule.
type Alert struct {
	ID          string     `json:"id"`
	Message     string     `json:"message"`
	Level       string     `json:"level"`
	TriggeredAt time.Time  `json:"triggered_at"`
	Format      FormatKind `json:"format"`
	Intent      IntentKind `json:"intent"`
}
