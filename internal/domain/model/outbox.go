package model

import "time"

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OutboxEvent is a domain event stored with the change that produced it.
type OutboxEvent struct {
	ID          int64
	AggregateID int64
	Type        string
	Payload     []byte
	CreatedAt   time.Time
	SentAt      *time.Time
}
