package rules

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recordEnvelope(total float64) *domain.ResultEnvelope {
	id := "R-1"
	currency := "USD"
	return &domain.ResultEnvelope{
		Format:         domain.FormatStructuredRecord,
		Intent:         domain.IntentInvoice,
		ConversationID: "conv-1",
		ProcessedData: domain.ProcessedData{
			Record: &domain.NormalizedRecord{
				RecordID:    &id,
				TotalAmount: &total,
				Currency:    &currency,
			},
		},
	}
}

func TestEvaluateOperators(t *testing.T) {
	context := map[string]any{
		"format":       "JSON",
		"total_amount": 1500.0,
		"processed_data": map[string]any{
			"anomalies": []any{"missing_required_field: missing required field: party"},
		},
		"subject": "URGENT: invoice overdue",
	}

	cases := []struct {
		name      string
		condition domain.Condition
		want      bool
	}{
		{"eq string", domain.Condition{Field: "format", Operator: "eq", Value: "JSON"}, true},
		{"neq string", domain.Condition{Field: "format", Operator: "neq", Value: "PDF"}, true},
		{"gt hit", domain.Condition{Field: "total_amount", Operator: "gt", Value: 1000}, true},
		{"gt miss", domain.Condition{Field: "total_amount", Operator: "gt", Value: 2000}, false},
		{"lt", domain.Condition{Field: "total_amount", Operator: "lt", Value: 2000}, true},
		{"eq numeric coercion", domain.Condition{Field: "total_amount", Operator: "eq", Value: "1500"}, true},
		{"contains in list", domain.Condition{Field: "processed_data.anomalies", Operator: "contains", Value: "missing_required_field"}, true},
		{"contains in string", domain.Condition{Field: "subject", Operator: "contains", Value: "URGENT"}, true},
		{"regex", domain.Condition{Field: "subject", Operator: "regex", Value: `(?i)urgent`}, true},
		{"missing path", domain.Condition{Field: "processed_data.record.nope", Operator: "eq", Value: 1}, false},
		{"unknown operator", domain.Condition{Field: "format", Operator: "matches", Value: "JSON"}, false},
		{"bad regex", domain.Condition{Field: "subject", Operator: "regex", Value: "("}, false},
	}
	for _, tc := range cases {
		if got := Evaluate(tc.condition, context); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestChainFiresOnHighValueRecord(t *testing.T) {
	engine := NewEngine(testLogger())
	invoked := 0
	if err := engine.RegisterAction("flag_for_review", func(ctx context.Context, e *domain.ResultEnvelope) (map[string]any, error) {
		invoked++
		return map[string]any{"flagged": true}, nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := engine.DefineChain(domain.ChainSpec{
		ID: "high_value",
		Conditions: []domain.Condition{
			{Field: "format", Operator: "eq", Value: "JSON"},
			{Field: "total_amount", Operator: "gt", Value: 1000},
		},
		Actions: []string{"flag_for_review"},
	}); err != nil {
		t.Fatal(err)
	}

	results := engine.Process(context.Background(), recordEnvelope(1500))
	if len(results) != 1 || invoked != 1 {
		t.Fatalf("results = %d, invoked = %d", len(results), invoked)
	}
	if !results[0].Actions[0].Success {
		t.Fatalf("action result = %+v", results[0].Actions[0])
	}

	invoked = 0
	if results := engine.Process(context.Background(), recordEnvelope(500)); len(results) != 0 || invoked != 0 {
		t.Fatalf("chain fired below threshold: %+v", results)
	}
}

func TestDuplicateRegistrationKeepsOriginal(t *testing.T) {
	engine := NewEngine(testLogger())
	first := func(ctx context.Context, e *domain.ResultEnvelope) (map[string]any, error) {
		return map[string]any{"which": "first"}, nil
	}
	second := func(ctx context.Context, e *domain.ResultEnvelope) (map[string]any, error) {
		return map[string]any{"which": "second"}, nil
	}
	if err := engine.RegisterAction("act", first); err != nil {
		t.Fatal(err)
	}
	err := engine.RegisterAction("act", second)
	if !domain.IsKind(err, domain.ErrDuplicateRegistration) {
		t.Fatalf("err = %v", err)
	}
	if err := engine.DefineChain(domain.ChainSpec{ID: "c", Actions: []string{"act"}}); err != nil {
		t.Fatal(err)
	}
	err = engine.DefineChain(domain.ChainSpec{ID: "c", Actions: []string{"act"}})
	if !domain.IsKind(err, domain.ErrDuplicateRegistration) {
		t.Fatalf("err = %v", err)
	}

	results := engine.Process(context.Background(), recordEnvelope(1))
	if len(results) != 1 || results[0].Actions[0].Result["which"] != "first" {
		t.Fatalf("results = %+v", results)
	}
}

func TestDefineChainUnknownAction(t *testing.T) {
	engine := NewEngine(testLogger())
	err := engine.DefineChain(domain.ChainSpec{ID: "c", Actions: []string{"nope"}})
	if !domain.IsKind(err, domain.ErrUnknownAction) {
		t.Fatalf("err = %v", err)
	}
}

func TestActionFailureIsolated(t *testing.T) {
	engine := NewEngine(testLogger())
	ran := false
	_ = engine.RegisterAction("boom", func(ctx context.Context, e *domain.ResultEnvelope) (map[string]any, error) {
		return nil, errors.New("sink unavailable")
	})
	_ = engine.RegisterAction("after", func(ctx context.Context, e *domain.ResultEnvelope) (map[string]any, error) {
		ran = true
		return map[string]any{"ok": true}, nil
	})
	if err := engine.DefineChain(domain.ChainSpec{ID: "c", Actions: []string{"boom", "after"}}); err != nil {
		t.Fatal(err)
	}

	results := engine.Process(context.Background(), recordEnvelope(1))
	if len(results) != 1 || len(results[0].Actions) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Actions[0].Success || results[0].Actions[0].Error != "sink unavailable" {
		t.Fatalf("first action = %+v", results[0].Actions[0])
	}
	if !results[0].Actions[1].Success || !ran {
		t.Fatalf("second action = %+v", results[0].Actions[1])
	}
}

func TestAlertEvaluator(t *testing.T) {
	alerts := NewAlertEvaluator(testLogger())
	if err := alerts.AddRule(domain.AlertRuleSpec{
		ID: "high_value_intake",
		Conditions: []domain.Condition{
			{Field: "total_amount", Operator: "gt", Value: 1000},
		},
		Message: "High-value intake received",
		Level:   "warning",
	}); err != nil {
		t.Fatal(err)
	}
	err := alerts.AddRule(domain.AlertRuleSpec{ID: "high_value_intake"})
	if !domain.IsKind(err, domain.ErrDuplicateRegistration) {
		t.Fatalf("err = %v", err)
	}

	fired := alerts.Check(recordEnvelope(1500))
	if len(fired) != 1 || fired[0].Level != "warning" || fired[0].Format != domain.FormatStructuredRecord {
		t.Fatalf("alerts = %+v", fired)
	}
	if fired := alerts.Check(recordEnvelope(500)); len(fired) != 0 {
		t.Fatalf("alerts below threshold = %+v", fired)
	}
}
