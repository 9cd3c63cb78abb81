package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestInMemoryBus_PublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())
	ctx := context.Background()

	var got1, got2 []string
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		got1 = append(got1, string(event))
		return nil
	})
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		got2 = append(got2, string(event))
		return nil
	})

	err := bus.Publish(ctx, "order-events", json.RawMessage(`{"eventId":"e-1"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{`{"eventId":"e-1"}`}, got1)
	assert.Equal(t, []string{`{"eventId":"e-1"}`}, got2)
}

func TestInMemoryBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	err := bus.Publish(context.Background(), "delivery-events", json.RawMessage(`{}`))
	assert.NoError(t, err)
}

func TestInMemoryBus_SubscriberErrorDoesNotAbortFanOut(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	var delivered bool
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		return errors.New("handler failure")
	})
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		delivered = true
		return nil
	})

	err := bus.Publish(context.Background(), "order-events", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestInMemoryBus_SubscriberPanicIsIsolated(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	var delivered bool
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		panic("subscriber blew up")
	})
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		delivered = true
		return nil
	})

	err := bus.Publish(context.Background(), "order-events", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestInMemoryBus_FIFOPerTopic(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	var got []string
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		got = append(got, string(event))
		return nil
	})

	for _, payload := range []string{`"a"`, `"b"`, `"c"`, `"d"`} {
		require.NoError(t, bus.Publish(context.Background(), "order-events", json.RawMessage(payload)))
	}

	assert.Equal(t, []string{`"a"`, `"b"`, `"c"`, `"d"`}, got)
}

func TestInMemoryBus_TopicsAreIndependent(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	var orderEvents, deliveryEvents int
	bus.Subscribe(TopicOrderEvents, func(ctx context.Context, event json.RawMessage) error {
		orderEvents++
		return nil
	})
	bus.Subscribe(TopicDeliveryEvents, func(ctx context.Context, event json.RawMessage) error {
		deliveryEvents++
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), TopicOrderEvents, json.RawMessage(`{}`)))
	require.NoError(t, bus.Publish(context.Background(), TopicOrderEvents, json.RawMessage(`{}`)))
	require.NoError(t, bus.Publish(context.Background(), TopicDeliveryEvents, json.RawMessage(`{}`)))

	assert.Equal(t, 2, orderEvents)
	assert.Equal(t, 1, deliveryEvents)
}

func TestInMemoryBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	var mu sync.Mutex
	var count int
	bus.Subscribe("order-events", func(ctx context.Context, event json.RawMessage) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), "order-events", json.RawMessage(`{}`))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
}

func TestPublishJSON(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	var got json.RawMessage
	bus.Subscribe("delivery-events", func(ctx context.Context, event json.RawMessage) error {
		got = event
		return nil
	})

	err := PublishJSON(context.Background(), bus, "delivery-events", map[string]string{"orderId": "o-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"o-1"}`, string(got))
}

func TestPublishJSON_MarshalError(t *testing.T) {
	bus := NewInMemoryBus(newTestLogger())

	err := PublishJSON(context.Background(), bus, "delivery-events", make(chan int))
	assert.Error(t, err)
}
