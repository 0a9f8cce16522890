package actionsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
	"github.com/flowbit/intake-triage/internal/infrastructure/resilience"
)

// HTTPSink posts action payloads to an external endpoint, one path per
// target, with retry and circuit breaking around each call.
type HTTPSink struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewHTTPSink(baseURL string, executor *resilience.Executor) *HTTPSink {
	return &HTTPSink{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		executor:   executor,
	}
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "action sink status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("action sink %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("action sink %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func (s *HTTPSink) Invoke(ctx context.Context, target string, payload map[string]any) (ports.Outcome, error) {
	var outcome ports.Outcome

	call := func(callCtx context.Context) error {
		response, err := s.post(callCtx, target, payload)
		if err != nil {
			return err
		}
		outcome = ports.Outcome{Success: true, Response: response}
		return nil
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "actionsink."+target, call, classifySinkError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return ports.Outcome{Success: false, Error: err.Error()}, wrapTemporaryIfNeeded("action sink invoke", err)
	}
	return outcome, nil
}

func (s *HTTPSink) post(ctx context.Context, target string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal action payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, strings.TrimLeft(target, "/"))
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sink request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("post action: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read sink response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &HTTPStatusError{
			Operation:  target,
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       string(raw),
		}
	}

	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			out = map[string]any{"raw": string(raw)}
		}
	}
	return out, nil
}

func classifySinkError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}

	class := classifySinkError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
