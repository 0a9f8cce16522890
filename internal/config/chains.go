package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// ChainsConfig is the declarative rule set loaded at startup: action chains
// plus alert rules, both expressed over the structured condition model.
type ChainsConfig struct {
	Chains     []domain.ChainSpec     `yaml:"chains"`
	AlertRules []domain.AlertRuleSpec `yaml:"alert_rules"`
}

// LoadChains reads the rule set from path, falling back to the built-in
// defaults when no path is configured.
func LoadChains(path string) (ChainsConfig, error) {
	if path == "" {
		return DefaultChains(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ChainsConfig{}, fmt.Errorf("read chains config: %w", err)
	}
	var cfg ChainsConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ChainsConfig{}, fmt.Errorf("parse chains config: %w", err)
	}
	return cfg, nil
}

// DefaultChains is the rule set used when no external configuration is given.
func DefaultChains() ChainsConfig {
	return ChainsConfig{
		Chains: []domain.ChainSpec{
			{
				ID: "high_value_intake",
				Conditions: []domain.Condition{
					{Field: "format", Operator: "eq", Value: "JSON"},
					{Field: "total_amount", Operator: "gt", Value: 10000},
				},
				Actions: []string{"flag_for_review", "email_notification"},
			},
			{
				ID: "fraud_followup",
				Conditions: []domain.Condition{
					{Field: "intent", Operator: "eq", Value: "FraudRisk"},
				},
				Actions: []string{"risk_alert", "flag_for_review"},
			},
			{
				ID: "complaint_followup",
				Conditions: []domain.Condition{
					{Field: "intent", Operator: "eq", Value: "Complaint"},
				},
				Actions: []string{"email_notification", "add_to_crm"},
			},
			{
				ID: "regulation_review",
				Conditions: []domain.Condition{
					{Field: "intent", Operator: "eq", Value: "Regulation"},
				},
				Actions: []string{"compliance_report"},
			},
			{
				ID: "threatening_correspondence",
				Conditions: []domain.Condition{
					{Field: "format", Operator: "eq", Value: "Email"},
					{Field: "tone", Operator: "eq", Value: "threatening"},
				},
				Actions: []string{"flag_for_review", "email_notification"},
			},
			{
				ID: "clean_archive",
				Conditions: []domain.Condition{
					{Field: "anomaly_count", Operator: "eq", Value: 0},
					{Field: "intent", Operator: "neq", Value: "FraudRisk"},
				},
				Actions: []string{"archive"},
			},
		},
		AlertRules: []domain.AlertRuleSpec{
			{
				ID: "high_value_alert",
				Conditions: []domain.Condition{
					{Field: "total_amount", Operator: "gt", Value: 10000},
				},
				Message: "High-value intake received",
				Level:   "warning",
			},
			{
				ID: "fraud_alert",
				Conditions: []domain.Condition{
					{Field: "intent", Operator: "eq", Value: "FraudRisk"},
				},
				Message: "Potential fraud detected",
				Level:   "critical",
			},
			{
				ID: "urgent_email",
				Conditions: []domain.Condition{
					{Field: "format", Operator: "eq", Value: "Email"},
					{Field: "urgency", Operator: "eq", Value: "High"},
				},
				Message: "Urgent correspondence received",
				Level:   "warning",
			},
			{
				ID: "anomaly_alert",
				Conditions: []domain.Condition{
					{Field: "anomaly_count", Operator: "gt", Value: 2},
				},
				Message: "Extraction produced multiple anomalies",
				Level:   "warning",
			},
			{
				ID: "unsupported_format_alert",
				Conditions: []domain.Condition{
					{Field: "error", Operator: "eq", Value: "Unsupported format"},
				},
				Message: "Input could not be classified",
				Level:   "info",
			},
		},
	}
}
