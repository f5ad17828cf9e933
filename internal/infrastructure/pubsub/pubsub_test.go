package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/shared/logger"
)

type testEvent struct {
	events.BaseEvent
	UserID string `json:"user_id"`
}

func newTestEvent() testEvent {
	return testEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: "sub_1",
			EventType:   "subscription.activated",
			OccurredAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Version:     1,
		},
		UserID: "user-1",
	}
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(newTestEvent())
	require.NoError(t, err)

	assert.Equal(t, "subscription.activated", env.EventType)
	assert.Equal(t, "sub_1", env.AggregateID)
	assert.Equal(t, int64(1772359200000), env.OccurredAt)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "user-1", payload["user_id"])
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_KeysByAggregate(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, topic: "paygate.events", logger: logger.NewNopLogger()}

	require.NoError(t, p.Publish(context.Background(), newTestEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "sub_1", string(w.msgs[0].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "subscription.activated", string(w.msgs[0].Headers[0].Value))

	w.err = errors.New("broker down")
	assert.Error(t, p.Publish(context.Background(), newTestEvent()))
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(logger.NewNopLogger())
	assert.NoError(t, p.Publish(context.Background(), newTestEvent()))
}

func TestRedisEventBus_Publish(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	const channel = "paygate:test:events"
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	bus := NewRedisEventBus(client, channel, logger.NewNopLogger())
	require.NoError(t, bus.Publish(ctx, newTestEvent()))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
	assert.Equal(t, "sub_1", env.AggregateID)
}
