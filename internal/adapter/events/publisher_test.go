package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

type writerStub struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *writerStub) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherKeysByAggregate(t *testing.T) {
	writer := &writerStub{}
	pub := &KafkaPublisher{writer: writer}
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := pub.Publish(context.Background(), model.OutboxEvent{
		ID:          9,
		AggregateID: 42,
		Type:        model.EventOrderPlaced,
		Payload:     []byte(`{"order_id":42}`),
		CreatedAt:   created,
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.JSONEq(t, `{"order_id":42}`, string(msg.Value))
	assert.Equal(t, created, msg.Time)
	assert.Equal(t, []kafka.Header{
		{Key: "event_id", Value: []byte("9")},
		{Key: "event_type", Value: []byte("order.placed")},
	}, msg.Headers)

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisherWrapsError(t *testing.T) {
	boom := errors.New("leader not available")
	pub := &KafkaPublisher{writer: &writerStub{err: boom}}

	err := pub.Publish(context.Background(), model.OutboxEvent{ID: 1, Type: model.EventOrderStatusChanged})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "order.status_changed")
}

func TestLogPublisherLogsEvent(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), model.OutboxEvent{ID: 3, AggregateID: 7, Type: model.EventOrderPlaced}))
	assert.Contains(t, buf.String(), `"aggregate_id":7`)
	assert.NoError(t, pub.Close())
}

func TestNewPublisherSelectsImplementation(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	lc := &testhelpers.LifecycleRecorder{}
	pub := newPublisher(publisherParams{Lifecycle: lc, Config: &config.Config{}, Logger: logger})
	assert.IsType(t, &LogPublisher{}, pub)
	require.Len(t, lc.Hooks, 1)
	require.NoError(t, lc.Hooks[0].OnStop(context.Background()))

	kafkaCfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "orders"}
	pub = newPublisher(publisherParams{Lifecycle: lc, Config: kafkaCfg, Logger: logger})
	kp, ok := pub.(*KafkaPublisher)
	require.True(t, ok)
	writer, ok := kp.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "orders", writer.Topic)
	assert.True(t, strings.Contains(writer.Addr.String(), "localhost:9092"))
}

func TestModuleClosesPublisherOnStop(t *testing.T) {
	app := fxtest.New(t,
		Module,
		fx.Supply(&config.Config{}),
		fx.Provide(func() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }),
		fx.Invoke(func(Publisher) {}),
	)
	app.RequireStart()
	app.RequireStop()
}
