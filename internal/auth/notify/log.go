package notify

import (
	"context"
	"log/slog"

	"github.com/coachhub/platform/internal/auth/domain"
)

// LogPublisher writes events to the log instead of a broker, for local
// development. One-time codes only appear at debug level.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, e domain.Event) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}

	attrs := []any{"type", e.Type, "user_id", e.UserID, "email", e.Email}
	l.InfoContext(ctx, "auth event", attrs...)

	if code, ok := e.Data["code"]; ok {
		l.DebugContext(ctx, "signup otp issued", "email", e.Email, "code", code, "expires_at", e.Data["expiresAt"])
	}
	return nil
}

func (LogPublisher) Close() error { return nil }
