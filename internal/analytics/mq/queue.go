package mq

import (
	"context"
	"time"
)

// Event is one recorded game event as it travels to the analytics sink.
type Event struct {
	Type       string            `json:"type"`
	GameID     string            `json:"game_id"`
	Fields     map[string]string `json:"fields"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Queue publishes recorded game events to a message broker.
// Implementations are backed by Redis Streams, Kafka, or a no-op for dev.
type Queue interface {
	PublishEvent(ctx context.Context, evt Event) error
	Close() error
}
