package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"storefront/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Dispatcher publishes formatted notifications to the notification topic.
// A downstream delivery worker fans them out to email or chat.
type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

type notification struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

func (d *Dispatcher) Send(ctx context.Context, recipients []string, subject, body string) error {
	payload, err := json.Marshal(notification{Recipients: recipients, Subject: subject, Body: body})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(subject),
		Value:   payload,
		Headers: tracing.InjectKafkaHeaders(ctx, nil),
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	d.log.Debug("notification published", "topic", d.topic, "recipients", len(recipients))
	return nil
}
