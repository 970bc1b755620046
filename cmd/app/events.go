package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duisenbekovayan/devstore/internal/kafka"
	"github.com/duisenbekovayan/devstore/internal/shop"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Cart event stream tools",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the cart event topic and log every event",
	RunE: func(cmd *cobra.Command, args []string) error {
		brokers := cfg.KafkaBrokers()
		if len(brokers) == 0 {
			return errors.New("KAFKA_BROKER is not set")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cons := kafka.NewConsumer(kafka.Config{
			Brokers:  brokers,
			Topic:    cfg.KafkaTopic,
			GroupID:  cfg.KafkaGroup,
			DLQTopic: cfg.KafkaDLQTopic,
		}, logEvent, logger)
		defer cons.Close()
		return cons.Run(ctx)
	},
}

func logEvent(_ context.Context, ev shop.CartEvent) error {
	logger.Info("cart event",
		zap.String("type", string(ev.Type)),
		zap.String("session", ev.Session),
		zap.String("product", ev.ProductID),
		zap.Int("qty", ev.Qty),
		zap.Int64("total", ev.Total),
		zap.Time("at", ev.At),
	)
	return nil
}

var publishFile string

// eventsPublishCmd sends sample events from a JSON file, for checking tail.
var eventsPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish cart events from a JSON array file",
	RunE: func(cmd *cobra.Command, args []string) error {
		brokers := cfg.KafkaBrokers()
		if len(brokers) == 0 {
			return errors.New("KAFKA_BROKER is not set")
		}
		data, err := os.ReadFile(publishFile)
		if err != nil {
			return err
		}
		var events []shop.CartEvent
		if err := json.Unmarshal(data, &events); err != nil {
			return err
		}

		p := kafka.NewPublisher(brokers, cfg.KafkaTopic)
		defer p.Close()
		for _, ev := range events {
			if ev.At.IsZero() {
				ev.At = time.Now().UTC()
			}
			if err := p.Publish(cmd.Context(), ev); err != nil {
				logger.Warn("publish", zap.String("type", string(ev.Type)), zap.Error(err))
			}
		}
		logger.Info("published", zap.Int("events", len(events)), zap.String("topic", cfg.KafkaTopic))
		return nil
	},
}

func init() {
	eventsPublishCmd.Flags().StringVar(&publishFile, "file", "events.json", "JSON array of cart events")
	eventsCmd.AddCommand(eventsTailCmd, eventsPublishCmd)
}
