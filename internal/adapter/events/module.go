package events

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module exposes the outbox event publisher to fx graph.
var Module = fx.Provide(newPublisher)

type publisherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newPublisher(p publisherParams) Publisher {
	var pub Publisher
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Warn("KAFKA_BROKERS is empty, outbox events will only be logged")
		pub = NewLogPublisher(p.Logger)
	} else {
		p.Logger.Info("publishing outbox events to kafka",
			slog.String("brokers", strings.Join(p.Config.KafkaBrokers, ",")),
			slog.String("topic", p.Config.KafkaTopic),
		)
		pub = NewKafkaPublisher(p.Config.KafkaBrokers, p.Config.KafkaTopic)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	return pub
}
