package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module exposes the idempotency key store to fx graph. The store is nil
// when REDIS_ADDR is empty, which disables Idempotency-Key handling.
var Module = fx.Provide(newStore)

type storeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newStore(p storeParams) repository.IdempotencyStore {
	if p.Config.RedisAddr == "" {
		p.Logger.Warn("REDIS_ADDR is empty, Idempotency-Key header is ignored")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         p.Config.RedisAddr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewRedisStore(client, p.Config.IdempotencyTTL)
}
