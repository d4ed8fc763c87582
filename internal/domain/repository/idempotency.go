package repository

import "context"

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore interface {
	// Reserve claims key for a new placement. When the key is already taken it
	// returns reserved=false and the order id stored for it, or zero while the
	// first placement is still running.
	Reserve(ctx context.Context, key string) (orderID int64, reserved bool, err error)
	Complete(ctx context.Context, key string, orderID int64) error
	Release(ctx context.Context, key string) error
}
