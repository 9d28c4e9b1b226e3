package observability

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// AuditEvent is the stable record emitted for security-relevant auth
// actions (code issued, account created, login, signin). The version field
// guards downstream parsers against shape changes.
type AuditEvent struct {
	EventVersion int    `json:"event_version"`
	EventName    string `json:"event_name"`
	ActorEmail   string `json:"actor_email"`
	ActorIP      string `json:"actor_ip"`
	Action       string `json:"action"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
	RequestID    string `json:"request_id"`
	TS           string `json:"ts"`
}

type AuditInput struct {
	EventName  string
	ActorEmail string
	Action     string
	Outcome    string
	Reason     string
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return AuditEvent{
		EventVersion: 1,
		EventName:    in.EventName,
		ActorEmail:   in.ActorEmail,
		ActorIP:      ip,
		Action:       in.Action,
		Outcome:      in.Outcome,
		Reason:       in.Reason,
		RequestID:    r.Header.Get("X-Request-Id"),
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
}

func (e AuditEvent) Validate() error {
	switch {
	case e.EventVersion == 0:
		return errors.New("audit event missing version")
	case e.EventName == "":
		return errors.New("audit event missing event_name")
	case e.Action == "":
		return errors.New("audit event missing action")
	case e.Outcome == "":
		return errors.New("audit event missing outcome")
	case e.TS == "":
		return errors.New("audit event missing ts")
	}
	return nil
}

// Audit emits the event on the default logger, tagged with the active
// trace so it can be correlated with the request span.
func Audit(r *http.Request, in AuditInput) {
	ev := BuildAuditEvent(r, in)
	attrs := []any{
		"event", ev.EventName,
		"actor_email", ev.ActorEmail,
		"actor_ip", ev.ActorIP,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"request_id", ev.RequestID,
		"ts", ev.TS,
	}
	if ev.Reason != "" {
		attrs = append(attrs, "reason", ev.Reason)
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		attrs = append(attrs, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	slog.InfoContext(r.Context(), "audit", attrs...)
}
