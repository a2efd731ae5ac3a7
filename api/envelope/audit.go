package envelope

import (
	"time"

	"go.uber.org/zap"
)

// AuditEntry records one handled request
type AuditEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Route      string    `json:"route"`
	InputHash  string    `json:"input_hash"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// AuditLogger records audit entries
type AuditLogger interface {
	Log(entry AuditEntry)
}

// ZapAuditLogger writes audit entries as structured log lines
type ZapAuditLogger struct {
	Logger *zap.Logger
}

// Log implements AuditLogger
func (l ZapAuditLogger) Log(e AuditEntry) {
	fields := []zap.Field{
		zap.String("route", e.Route),
		zap.String("input_hash", e.InputHash),
		zap.String("request_id", e.RequestID),
		zap.String("client_ip", e.ClientIP),
		zap.Int64("duration_ms", e.DurationMs),
	}
	if !e.Success {
		l.Logger.Warn("request failed", append(fields, zap.String("error", e.Error))...)
		return
	}
	l.Logger.Info("request", fields...)
}

// NewAuditEntry starts an entry for env
func NewAuditEntry(route string, env *Envelope, requestID, clientIP string) AuditEntry {
	e := AuditEntry{
		Timestamp: time.Now().UTC(),
		Route:     route,
		RequestID: requestID,
		ClientIP:  clientIP,
		Success:   true,
	}
	if env != nil {
		e.InputHash = string(env.InputHash)
	}
	return e
}

// MarkFailed marks the entry as failed
func (e *AuditEntry) MarkFailed(err error) {
	e.Success = false
	e.Error = err.Error()
}

// SetDuration sets the duration
func (e *AuditEntry) SetDuration(d time.Duration) {
	e.DurationMs = d.Milliseconds()
}
