package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duisenbekovayan/devstore/internal/shop"
)

func TestMessageRoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := shop.CartEvent{Type: shop.EventAdded, Session: "sid", ProductID: "dev-py", Qty: 2, At: at}

	m, err := Message(ev)
	require.NoError(t, err)
	assert.Equal(t, "sid", string(m.Key))
	assert.Equal(t, at, m.Time)

	got, err := Decode(m.Value)
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string]string{
		"not json":        `{`,
		"unknown type":    `{"type":"teleported","session":"s"}`,
		"missing id":      `{"type":"added","session":"s"}`,
		"missing session": `{"type":"cleared"}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(in))
			assert.ErrorIs(t, err, errInvalidEvent)
		})
	}

	_, err := Decode([]byte(`{"type":"checkout","session":"s","total":1398}`))
	assert.NoError(t, err)
}

func TestProcessMessage(t *testing.T) {
	var got []shop.CartEvent
	c := &Consumer{
		log: zap.NewNop(),
		handle: func(_ context.Context, ev shop.CartEvent) error {
			got = append(got, ev)
			return nil
		},
	}
	ctx := context.Background()

	require.NoError(t, c.processMessage(ctx, kafkago.Message{Value: []byte(`{"type":"cleared","session":"s"}`)}))
	require.Len(t, got, 1)
	assert.Equal(t, shop.EventCleared, got[0].Type)

	// garbage without a DLQ is skipped, not retried
	require.NoError(t, c.processMessage(ctx, kafkago.Message{Value: []byte(`nope`)}))
	assert.Len(t, got, 1)

	boom := errors.New("downstream")
	c.handle = func(context.Context, shop.CartEvent) error { return boom }
	err := c.processMessage(ctx, kafkago.Message{Value: []byte(`{"type":"cleared","session":"s"}`)})
	assert.ErrorIs(t, err, boom)
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}
