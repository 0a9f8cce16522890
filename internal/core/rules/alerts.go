package rules

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// AlertEvaluator checks registered alert rules against each envelope. Rules
// use the same structured condition model as chains.
type AlertEvaluator struct {
	mu     sync.RWMutex
	rules  []domain.AlertRuleSpec
	logger *slog.Logger
}

func NewAlertEvaluator(logger *slog.Logger) *AlertEvaluator {
	return &AlertEvaluator{logger: logger}
}

func (a *AlertEvaluator) AddRule(spec domain.AlertRuleSpec) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.rules {
		if existing.ID == spec.ID {
			return domain.WrapError(domain.ErrDuplicateRegistration, "rules.AddRule", fmt.Errorf("alert rule %q", spec.ID))
		}
	}
	a.rules = append(a.rules, spec)
	return nil
}

// Check returns one alert per rule whose conditions all hold.
func (a *AlertEvaluator) Check(envelope *domain.ResultEnvelope) []domain.Alert {
	a.mu.RLock()
	rules := make([]domain.AlertRuleSpec, len(a.rules))
	copy(rules, a.rules)
	a.mu.RUnlock()

	conditionContext := envelope.ConditionContext()
	var alerts []domain.Alert
	for _, rule := range rules {
		if !EvaluateAll(rule.Conditions, conditionContext) {
			continue
		}
		a.logger.Info("alert triggered",
			"rule_id", rule.ID,
			"level", rule.Level,
			"conversation_id", envelope.ConversationID)
		alerts = append(alerts, domain.Alert{
			ID:          rule.ID,
			Message:     rule.Message,
			Level:       rule.Level,
			TriggeredAt: time.Now().UTC(),
			Format:      envelope.Format,
			Intent:      envelope.Intent,
		})
	}
	return alerts
}
