package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/zuvees/storefront/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(event.Type)},
	}
	if event.Traceparent != "" {
		// Resume the span context recorded at commit time so the message
		// carries the producer's trace, not the relay's.
		msgCtx := tracing.ExtractKafkaHeaders(ctx, []kafka.Header{
			{Key: tracing.TraceparentHeader, Value: []byte(event.Traceparent)},
		})
		headers = tracing.InjectKafkaHeaders(msgCtx, headers)
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("outbox dispatch failed", "event_id", event.ID, "err", err)
		return err
	}
	d.log.Info("outbox dispatched", "event_id", event.ID, "type", event.Type)
	return nil
}
