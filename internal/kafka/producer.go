package kafka

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/duisenbekovayan/devstore/internal/shop"
)

// Publisher writes cart events keyed by session, so one browser's events stay ordered.
type Publisher struct {
	w *kafkago.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
	}}
}

func (p *Publisher) Publish(ctx context.Context, ev shop.CartEvent) error {
	msg, err := Message(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error { return p.w.Close() }

// Message encodes ev the way Publish sends it.
func Message(ev shop.CartEvent) (kafkago.Message, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{Key: []byte(ev.Session), Value: b, Time: ev.At}, nil
}
