package logging

import (
	"context"
	"log/slog"

	"bdremux/internal/services"
)

// FieldSessionID is the structured logging key carrying the run session id.
const FieldSessionID = "session_id"

// sessionIDHandler stamps every record with the run session id. When built
// without one it falls back to the id carried by the record's context.
type sessionIDHandler struct {
	base      slog.Handler
	sessionID string
}

func newSessionIDHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &sessionIDHandler{base: base, sessionID: sessionID}
}

func (h *sessionIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionIDHandler) Handle(ctx context.Context, record slog.Record) error {
	id := h.sessionID
	if id == "" && ctx != nil {
		id, _ = services.SessionIDFromContext(ctx)
	}
	if id != "" {
		record.AddAttrs(slog.String(FieldSessionID, id))
	}
	return h.base.Handle(ctx, record)
}

func (h *sessionIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionIDHandler{base: h.base.WithAttrs(attrs), sessionID: h.sessionID}
}

func (h *sessionIDHandler) WithGroup(name string) slog.Handler {
	return &sessionIDHandler{base: h.base.WithGroup(name), sessionID: h.sessionID}
}
