package actionsink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowbit/intake-triage/internal/core/ports"
)

// Simulated is the development/test sink: every invocation succeeds locally
// and returns a synthetic response shaped like the real endpoint's.
type Simulated struct{}

func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Invoke(_ context.Context, target string, payload map[string]any) (ports.Outcome, error) {
	response := map[string]any{
		"reference":    fmt.Sprintf("%s-%s", referencePrefix(target), uuid.NewString()[:8]),
		"target":       target,
		"accepted_at":  time.Now().UTC().Format(time.RFC3339),
		"simulated":    true,
		"echo_action":  payload["action"],
		"conversation": payload["conversation_id"],
	}
	return ports.Outcome{Success: true, Response: response}, nil
}

func referencePrefix(target string) string {
	if i := strings.Index(target, "/"); i > 0 {
		return strings.ToUpper(target[:i])
	}
	return "SIM"
}
