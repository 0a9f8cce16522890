package usecase

import (
	"context"
	"log/slog"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
	"github.com/flowbit/intake-triage/internal/core/route"
	"github.com/flowbit/intake-triage/internal/core/rules"
)

// TriageUseCase runs the full pipeline: route/extract, action chains, alert
// rules, summary, persistence. Persistence of derived records is best-effort;
// the caller always receives the envelope.
type TriageUseCase struct {
	router *route.Router
	engine *rules.Engine
	alerts *rules.AlertEvaluator
	log    ports.ConversationLog
	logger *slog.Logger
}

func NewTriageUseCase(
	router *route.Router,
	engine *rules.Engine,
	alerts *rules.AlertEvaluator,
	log ports.ConversationLog,
	logger *slog.Logger,
) *TriageUseCase {
	return &TriageUseCase{
		router: router,
		engine: engine,
		alerts: alerts,
		log:    log,
		logger: logger,
	}
}

func (uc *TriageUseCase) Triage(ctx context.Context, input domain.RawInput, conversationID string) (*domain.ResultEnvelope, error) {
	envelope := uc.router.Route(ctx, input, conversationID)

	if envelope.Error == "" {
		envelope.Actions = uc.engine.Process(ctx, envelope)
	}
	envelope.Alerts = uc.alerts.Check(envelope)
	envelope.Summary = Summarize(envelope)

	uc.persistOutcome(ctx, envelope)

	uc.logger.Info("triage completed",
		"conversation_id", envelope.ConversationID,
		"format", string(envelope.Format),
		"intent", string(envelope.Intent),
		"chains", len(envelope.Actions),
		"alerts", len(envelope.Alerts))
	return envelope, nil
}

func (uc *TriageUseCase) persistOutcome(ctx context.Context, envelope *domain.ResultEnvelope) {
	for _, chain := range envelope.Actions {
		uc.append(ctx, domain.RecordAction, envelope.ConversationID, chain.ChainID, map[string]any{
			"chain":        chain,
			"triggered_at": chain.TriggeredAt,
		})
	}
	for _, alert := range envelope.Alerts {
		uc.append(ctx, domain.RecordAlert, envelope.ConversationID, alert.ID, map[string]any{
			"alert": alert,
			"level": alert.Level,
		})
	}
	uc.append(ctx, domain.RecordResult, envelope.ConversationID, string(envelope.Format), map[string]any{
		"result": envelope,
	})
}

func (uc *TriageUseCase) append(ctx context.Context, kind domain.RecordKind, conversationID, source string, payload map[string]any) {
	if err := uc.log.Append(ctx, kind, conversationID, source, payload); err != nil {
		uc.logger.Warn("conversation log append failed",
			"conversation_id", conversationID,
			"kind", string(kind),
			"error", err)
	}
}
