package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/duisenbekovayan/devstore/internal/shop"
)

// Handler processes one decoded cart event. Returning an error leaves the
// offset uncommitted so the message is read again.
type Handler func(ctx context.Context, ev shop.CartEvent) error

type Consumer struct {
	reader  *kafkago.Reader
	dlq     *kafkago.Writer // optional: dead-letter queue
	handle  Handler
	log     *zap.Logger
	backoff time.Duration
}

type Config struct {
	Brokers          []string
	Topic            string
	GroupID          string
	DLQTopic         string // "" disables the DLQ
	MinBytes         int
	MaxBytes         int
	MaxWait          time.Duration
	ReadErrorBackoff time.Duration
}

func (cfg *Config) defaults() {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 2 * time.Second
	}
	if cfg.ReadErrorBackoff == 0 {
		cfg.ReadErrorBackoff = 2 * time.Second
	}
}

func NewConsumer(cfg Config, h Handler, log *zap.Logger) *Consumer {
	cfg.defaults()
	if log == nil {
		log = zap.NewNop()
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
		// commit manually after the handler succeeds
		CommitInterval: 0,
	})
	var w *kafkago.Writer
	if cfg.DLQTopic != "" {
		w = &kafkago.Writer{
			Addr:     kafkago.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &kafkago.LeastBytes{},
		}
	}

	return &Consumer{
		reader:  r,
		dlq:     w,
		handle:  h,
		log:     log,
		backoff: cfg.ReadErrorBackoff,
	}
}

func (c *Consumer) Close() error {
	var err1, err2 error
	if c.reader != nil {
		err1 = c.reader.Close()
	}
	if c.dlq != nil {
		err2 = c.dlq.Close()
	}
	return errors.Join(err1, err2)
}

// Run reads until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	cfg := c.reader.Config()
	c.log.Info("cart event consumer started", zap.String("topic", cfg.Topic), zap.String("group", cfg.GroupID))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.log.Warn("kafka fetch", zap.Error(err), zap.Duration("retry_in", c.backoff))
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		if err := c.processMessage(ctx, m); err != nil {
			// offset not committed, the message comes back
			c.log.Warn("process cart event", zap.Int64("offset", m.Offset), zap.Error(err))
			if !sleep(ctx, 500*time.Millisecond) {
				return nil
			}
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Warn("kafka commit", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, m kafkago.Message) error {
	ev, err := Decode(m.Value)
	if err != nil {
		c.log.Warn("invalid cart event", zap.Int64("offset", m.Offset), zap.Error(err))
		if c.dlq != nil {
			if werr := c.dlq.WriteMessages(ctx, kafkago.Message{Key: m.Key, Value: m.Value, Time: time.Now()}); werr != nil {
				return fmt.Errorf("dlq write: %w", werr)
			}
		}
		// garbage never gets better; commit it
		return nil
	}
	return c.handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var errInvalidEvent = errors.New("invalid cart event")

// Decode parses and validates a cart event payload.
func Decode(b []byte) (shop.CartEvent, error) {
	var ev shop.CartEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", errInvalidEvent, err)
	}
	switch ev.Type {
	case shop.EventAdded, shop.EventQtyChanged, shop.EventRemoved:
		if ev.ProductID == "" {
			return ev, fmt.Errorf("%w: %s without product_id", errInvalidEvent, ev.Type)
		}
	case shop.EventCleared, shop.EventCheckout:
	default:
		return ev, fmt.Errorf("%w: unknown type %q", errInvalidEvent, ev.Type)
	}
	if ev.Session == "" {
		return ev, fmt.Errorf("%w: missing session", errInvalidEvent)
	}
	return ev, nil
}
