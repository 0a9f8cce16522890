package usecase

import (
	"context"
	"fmt"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
	"github.com/flowbit/intake-triage/internal/core/rules"
)

// defaultActionTargets maps action ids to their sink targets.
var defaultActionTargets = map[string]string{
	"email_notification": "notifications/email",
	"add_to_crm":         "crm/contacts",
	"flag_for_review":    "review/flags",
	"compliance_report":  "compliance/reports",
	"risk_alert":         "risk/alerts",
	"archive":            "archive/records",
}

// RegisterDefaultActions binds the built-in action vocabulary to the sink.
// Each action submits an envelope-derived payload to its target.
func RegisterDefaultActions(engine *rules.Engine, sink ports.ActionSink) error {
	for id, target := range defaultActionTargets {
		action := func(ctx context.Context, envelope *domain.ResultEnvelope) (map[string]any, error) {
			outcome, err := sink.Invoke(ctx, target, actionPayload(id, envelope))
			if err != nil {
				return nil, fmt.Errorf("invoke %s: %w", target, err)
			}
			if !outcome.Success {
				return nil, fmt.Errorf("invoke %s: %s", target, outcome.Error)
			}
			return outcome.Response, nil
		}
		if err := engine.RegisterAction(id, action); err != nil {
			return err
		}
	}
	return nil
}

func actionPayload(actionID string, envelope *domain.ResultEnvelope) map[string]any {
	payload := map[string]any{
		"action":          actionID,
		"conversation_id": envelope.ConversationID,
		"format":          string(envelope.Format),
		"intent":          string(envelope.Intent),
	}
	switch {
	case envelope.ProcessedData.Record != nil:
		record := envelope.ProcessedData.Record
		if record.RecordID != nil {
			payload["record_id"] = *record.RecordID
		}
		if record.TotalAmount != nil {
			payload["total_amount"] = *record.TotalAmount
		}
		payload["anomaly_count"] = len(envelope.ProcessedData.Anomalies)
	case envelope.ProcessedData.Correspondence != nil:
		c := envelope.ProcessedData.Correspondence
		payload["sender"] = c.SenderAddress
		payload["subject"] = c.Subject
		payload["urgency"] = string(c.Urgency)
		payload["tone"] = string(c.Tone)
	case envelope.ProcessedData.Document != nil:
		d := envelope.ProcessedData.Document
		payload["document_type"] = d.DocumentType
		if len(d.RegulatoryMentions) > 0 {
			payload["regulatory_mentions"] = d.RegulatoryMentions
		}
	}
	return payload
}
