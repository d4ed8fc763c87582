package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OutboxRepository hands unsent events to the dispatcher.
type OutboxRepository interface {
	// Dispatch claims up to limit unsent events and marks those for which send succeeds.
	Dispatch(ctx context.Context, limit int, send func(context.Context, model.OutboxEvent) error) (int, error)
}
