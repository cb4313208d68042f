package tasks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"

	"equitask-backend/internal/analytics"
)

const (
	maxBodyBytes = 64 << 10

	msgMissingAPIKey = "OPENAI_API_KEY is not set on the server."
)

type TaskHandler struct {
	Simplifier *Simplifier
	Analytics  *analytics.Recorder // nil disables event recording
	Logger     *slog.Logger

	// APIKeyConfigured is false when the server started without a provider
	// credential; every simplify request then fails with 500.
	APIKeyConfigured bool
}

func New(s *Simplifier, rec *analytics.Recorder, apiKeyConfigured bool, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		Simplifier:       s,
		Analytics:        rec,
		Logger:           logger,
		APIKeyConfigured: apiKeyConfigured,
	}
}

// Simplify handles POST /ai/task-simplify.
func (h *TaskHandler) Simplify(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", requestID)
	log := h.Logger.With("request_id", requestID)

	if !h.APIKeyConfigured {
		log.Error("simplify request rejected", "error", msgMissingAPIKey)
		http.Error(w, msgMissingAPIKey, http.StatusInternalServerError)
		return
	}

	var body SimplifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := body.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	req := body.TaskRequest()

	// Once the model call is issued the pipeline runs to completion, even if
	// the client goes away.
	ctx := context.WithoutCancel(r.Context())
	res := h.Simplifier.Simplify(ctx, req)

	env := analytics.FromRequest(r)
	env.RequestID = requestID
	if err := h.Analytics.Log(ctx, env, analytics.EventTaskSimplified, eventProps(req, res), res.Reasons, analytics.SourceEventKeyFromRequest(r)); err != nil {
		log.Warn("analytics event not recorded", "error", err)
	}

	b, err := json.Marshal(res)
	if err != nil {
		log.Error("encode result", "error", err)
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(append(b, '\n')); err != nil {
		log.Debug("write response", "error", err)
	}
}

// eventProps is the sanitized analytics payload; it carries the text length,
// never the text.
func eventProps(req TaskRequest, res Result) map[string]any {
	props := map[string]any{
		"task_id":          res.TaskID,
		"status":           res.Status.String(),
		"confidence_score": res.ConfidenceScore,
		"fallback_type":    fallbackKind(res.Fallback).String(),
		"steps":            len(res.SimplifiedSteps),
		"task_type":        req.TaskType,
		"mode":             req.AccessibilityMode,
		"text_len":         utf8.RuneCountInString(req.TaskText),
	}
	if attempt, ok := res.Telemetry["attempt"]; ok {
		props["attempts"] = attempt
	}
	if reason, ok := res.Telemetry["fallback_reason"]; ok {
		props["fallback_reason"] = reason
	}
	return props
}

func fallbackKind(f Fallback) FallbackKind {
	if f == nil {
		return FallbackNone
	}
	return f.Kind()
}
