package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Dispatch claims a batch of unsent events. Rows locked by a concurrent
// dispatcher are skipped, so each event is handed to send by one worker at a time.
func (r *outboxRepository) Dispatch(ctx context.Context, limit int, send func(context.Context, model.OutboxEvent) error) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	sent := 0
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT id, aggregate_id, event_type, payload, created_at
             FROM outbox
             WHERE sent_at IS NULL
             ORDER BY id
             LIMIT $1
             FOR UPDATE SKIP LOCKED`, limit)
		if err != nil {
			return fmt.Errorf("select outbox: %w", err)
		}

		events := make([]model.OutboxEvent, 0, limit)
		for rows.Next() {
			var e model.OutboxEvent
			if err := rows.Scan(&e.ID, &e.AggregateID, &e.Type, &e.Payload, &e.CreatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan outbox: %w", err)
			}
			events = append(events, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, e := range events {
			if err := send(ctx, e); err != nil {
				if r.storage.logger != nil {
					r.storage.logger.Warn("publish outbox event",
						slog.Int64("event_id", e.ID),
						slog.String("type", e.Type),
						slog.String("error", err.Error()),
					)
				}
				continue
			}
			if _, err := tx.Exec(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, e.ID); err != nil {
				return fmt.Errorf("mark outbox event %d: %w", e.ID, err)
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}
