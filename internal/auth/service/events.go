package service

import (
	"context"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/pkg/slogx"
)

// EventPublisher delivers domain events to the notification pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, domain.Event) error { return nil }

func publisherOrDiscard(p EventPublisher) EventPublisher {
	if p == nil {
		return discardPublisher{}
	}
	return p
}

// publishBestEffort logs instead of failing the caller; the user facing
// operation has already been committed.
func publishBestEffort(ctx context.Context, p EventPublisher, e domain.Event) {
	if err := publisherOrDiscard(p).Publish(ctx, e); err != nil {
		slogx.FromContext(ctx).Warn("event publish failed", "type", e.Type, "user_id", e.UserID, "err", err)
	}
}
