package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/flowbit/intake-triage/internal/core/domain"
	"github.com/flowbit/intake-triage/internal/core/ports"
	"github.com/flowbit/intake-triage/internal/observability/metrics"
)

type Router struct {
	triager ports.IntakeTriager
	ingest  ports.IntakeIngestor
	reader  ports.ConversationReader

	serverMetrics *metrics.HTTPServerMetrics
	service       string

	rateLimitRPS   int
	rateLimitBurst int
	maxInFlight    int
}

func NewRouter(
	triager ports.IntakeTriager,
	ingest ports.IntakeIngestor,
	reader ports.ConversationReader,
	serverMetrics *metrics.HTTPServerMetrics,
	service string,
	rateLimitRPS, rateLimitBurst, maxInFlight int,
) *Router {
	return &Router{
		triager:        triager,
		ingest:         ingest,
		reader:         reader,
		serverMetrics:  serverMetrics,
		service:        service,
		rateLimitRPS:   rateLimitRPS,
		rateLimitBurst: rateLimitBurst,
		maxInFlight:    maxInFlight,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/intake", rt.triageIntake)
	mux.HandleFunc("/v1/intake/upload", rt.uploadIntake)
	mux.HandleFunc("/v1/conversations/", rt.conversationResource)
	if rt.serverMetrics != nil {
		mux.Handle("/metrics", rt.serverMetrics.Handler())
	}

	var handler http.Handler = mux
	if rt.serverMetrics != nil {
		handler = rt.serverMetrics.Middleware(rt.service, handler)
	}
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, 5*time.Second)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type intakeRequest struct {
	ConversationID string         `json:"conversation_id"`
	Record         map[string]any `json:"record"`
	Text           string         `json:"text"`
}

func (rt *Router) triageIntake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	var input domain.RawInput
	switch {
	case req.Record != nil && req.Text != "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "provide either 'record' or 'text', not both"})
		return
	case req.Record != nil:
		input = domain.RecordInput(req.Record)
	case req.Text != "":
		input = domain.TextInput(req.Text)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "one of 'record' or 'text' is required"})
		return
	}

	start := time.Now()
	envelope, err := rt.triager.Triage(r.Context(), input, req.ConversationID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	rt.recordTriageMetrics(envelope, time.Since(start))

	writeJSON(w, http.StatusOK, envelope)
}

func (rt *Router) uploadIntake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	conversationID, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		r.FormValue("conversation_id"),
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"conversation_id": conversationID,
		"status":          "queued",
	})
}

func (rt *Router) conversationResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/conversations/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "conversation id is required"})
		return
	}
	conversationID := parts[0]

	switch strings.Join(parts[1:], "/") {
	case "history":
		records, err := rt.reader.History(r.Context(), conversationID)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"conversation_id": conversationID,
			"records":         records,
		})
	case "history/simplified":
		simplified, err := rt.reader.SimplifiedHistory(r.Context(), conversationID)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, simplified)
	case "result":
		result, err := rt.reader.Result(r.Context(), conversationID)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown conversation resource"})
	}
}

func (rt *Router) recordTriageMetrics(envelope *domain.ResultEnvelope, duration time.Duration) {
	if rt.serverMetrics == nil {
		return
	}
	rt.serverMetrics.RecordTriage(rt.service, string(envelope.Format), string(envelope.Intent), duration)
	for _, anomaly := range envelope.ProcessedData.Anomalies {
		rt.serverMetrics.RecordAnomaly(rt.service, string(anomaly.Kind))
	}
	for _, alert := range envelope.Alerts {
		rt.serverMetrics.RecordAlert(rt.service, alert.Level)
	}
	for _, chain := range envelope.Actions {
		for _, action := range chain.Actions {
			rt.serverMetrics.RecordAction(rt.service, action.ActionID, action.Success)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
