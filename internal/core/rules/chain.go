package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// Action is one invokable step of a chain. Implementations receive the
// envelope being processed and return a serializable result.
type Action func(ctx context.Context, envelope *domain.ResultEnvelope) (map[string]any, error)

// Engine holds registered actions and condition-guarded chains. Registration
// is first-wins: a duplicate id is rejected and the original stays untouched.
type Engine struct {
	mu      sync.RWMutex
	actions map[string]Action
	chains  []domain.ChainSpec
	logger  *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		actions: make(map[string]Action),
		logger:  logger,
	}
}

func (e *Engine) RegisterAction(id string, action Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.actions[id]; exists {
		return domain.WrapError(domain.ErrDuplicateRegistration, "rules.RegisterAction", fmt.Errorf("action %q", id))
	}
	e.actions[id] = action
	return nil
}

func (e *Engine) DefineChain(spec domain.ChainSpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.chains {
		if existing.ID == spec.ID {
			return domain.WrapError(domain.ErrDuplicateRegistration, "rules.DefineChain", fmt.Errorf("chain %q", spec.ID))
		}
	}
	for _, actionID := range spec.Actions {
		if _, exists := e.actions[actionID]; !exists {
			return domain.WrapError(domain.ErrUnknownAction, "rules.DefineChain", fmt.Errorf("chain %q references %q", spec.ID, actionID))
		}
	}
	e.chains = append(e.chains, spec)
	return nil
}

// Process evaluates every chain against the envelope and runs the actions of
// those whose conditions all hold, in definition order. A failing action is
// recorded and the chain continues with the next action.
func (e *Engine) Process(ctx context.Context, envelope *domain.ResultEnvelope) []domain.ChainResult {
	e.mu.RLock()
	chains := make([]domain.ChainSpec, len(e.chains))
	copy(chains, e.chains)
	e.mu.RUnlock()

	conditionContext := envelope.ConditionContext()
	var results []domain.ChainResult
	for _, chain := range chains {
		if !EvaluateAll(chain.Conditions, conditionContext) {
			continue
		}
		result := domain.ChainResult{
			ChainID:     chain.ID,
			TriggeredAt: time.Now().UTC(),
		}
		for _, actionID := range chain.Actions {
			result.Actions = append(result.Actions, e.runAction(ctx, actionID, envelope))
		}
		e.logger.Info("chain triggered",
			"chain_id", chain.ID,
			"conversation_id", envelope.ConversationID,
			"actions", len(result.Actions))
		results = append(results, result)
	}
	return results
}

func (e *Engine) runAction(ctx context.Context, actionID string, envelope *domain.ResultEnvelope) domain.ActionResult {
	e.mu.RLock()
	action := e.actions[actionID]
	e.mu.RUnlock()

	output, err := action(ctx, envelope)
	if err != nil {
		e.logger.Warn("action failed",
			"action_id", actionID,
			"conversation_id", envelope.ConversationID,
			"error", err)
		return domain.ActionResult{ActionID: actionID, Success: false, Error: err.Error()}
	}
	return domain.ActionResult{ActionID: actionID, Success: true, Result: output}
}
