package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lib/pq"
)

const EventTaskSimplified = "task_simplified"

// Envelope is what we store with every event.
type Envelope struct {
	RequestID    string
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
}

// FromRequest extracts event envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web", "cli":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	return Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
}

// SourceEventKeyFromRequest returns the client idempotency key, if any.
// Duplicate keys are ignored on insert.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Recorder writes events to analytics_events. A nil *Recorder records
// nothing, so callers never need to check whether analytics is enabled.
type Recorder struct {
	db     Execer
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(db Execer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, logger: logger, now: time.Now}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analytics_events (
	id               BIGSERIAL PRIMARY KEY,
	event_name       TEXT        NOT NULL,
	event_time       TIMESTAMPTZ NOT NULL,
	request_id       TEXT,
	session_id       TEXT,
	platform         TEXT        NOT NULL,
	app_version      TEXT        NOT NULL DEFAULT '',
	device_locale    TEXT,
	source_event_key TEXT UNIQUE,
	reasons          TEXT[]      NOT NULL DEFAULT '{}',
	properties       JSONB       NOT NULL DEFAULT '{}'
)`

// EnsureSchema creates the events table if it does not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("analytics: ensure schema: %w", err)
	}
	return nil
}

// Log inserts one analytics event. Callers pass sanitized props only; raw
// task text never goes in here.
func (r *Recorder) Log(ctx context.Context, env Envelope, eventName string, props any, reasons []string, sourceEventKey string) error {
	if r == nil || eventName == "" {
		return nil
	}

	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("analytics: marshal %s props: %w", eventName, err)
	}
	if reasons == nil {
		reasons = []string{}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			request_id, session_id,
			platform, app_version, device_locale,
			source_event_key,
			reasons, properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		ON CONFLICT (source_event_key) DO NOTHING
	`, eventName, r.now().UTC(),
		nullIfEmpty(env.RequestID), nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(sourceEventKey),
		pq.Array(reasons), string(b),
	)
	if err != nil {
		return fmt.Errorf("analytics: insert %s: %w", eventName, err)
	}

	r.logger.Debug("analytics event recorded", "event", eventName, "request_id", env.RequestID)
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
