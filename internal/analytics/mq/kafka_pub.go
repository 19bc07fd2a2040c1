package mq

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

type kafkaQueue struct {
	w *kafka.Writer
}

func NewKafka(brokers []string, topic string) Queue {
	if topic == "" {
		topic = "keeperhub.events"
	}
	// Writers are safe for concurrent use
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &kafkaQueue{w: w}
}

func (q *kafkaQueue) Close() error { return q.w.Close() }

// PublishEvent keys messages by game so one game's events stay ordered.
func (q *kafkaQueue) PublishEvent(ctx context.Context, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return q.w.WriteMessages(ctx, kafka.Message{Key: []byte(evt.GameID), Value: b})
}
