package goSession

import (
	"context"
	"io"
	"net/http"

	"github.com/MrEthical07/goSession/gateway"
	"github.com/MrEthical07/goSession/internal/audit"
)

// Audit event types emitted by the Store.
const (
	AuditSessionChecked    = "session_checked"
	AuditLoginStarted      = "login_started"
	AuditLoginFailed       = "login_failed"
	AuditLogout            = "logout"
	AuditLogoutFailed      = "logout_failed"
	AuditRefreshSuccess    = "refresh_success"
	AuditRefreshFailed     = "refresh_failed"
	AuditCredentialRevoked = "credential_revoked"
)

type (
	// AuditEvent is one session lifecycle record.
	AuditEvent = audit.Event
	// AuditSink receives audit events from the dispatcher goroutine.
	AuditSink = audit.Sink
	// AuditSinkFunc adapts a function to AuditSink.
	AuditSinkFunc = audit.SinkFunc
	// NoOpSink drops every event.
	NoOpSink = audit.NoOpSink
	// ChannelSink buffers events on a channel.
	ChannelSink = audit.ChannelSink
	// JSONWriterSink writes one JSON object per line.
	JSONWriterSink = audit.JSONWriterSink
)

// NewChannelSink returns a sink that buffers up to buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

func (s *Store) emitAudit(ctx context.Context, event AuditEvent) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, event)
}

// AuditDropped reports audit events lost to a full buffer.
func (s *Store) AuditDropped() uint64 {
	return s.audit.Dropped()
}

func (s *Store) credentialRevoked(req *http.Request) {
	s.metrics.Inc(MetricCredentialRevoked)
	s.emitAudit(req.Context(), AuditEvent{
		EventType: AuditCredentialRevoked,
		RequestID: req.Header.Get(gateway.RequestIDHeader),
		Path:      req.URL.Path,
		Success:   true,
	})
}
