package mq

import (
	"context"
	"testing"
)

func TestNewSelectsBackend(t *testing.T) {
	q, err := New(Config{})
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if _, ok := q.(*Noop); !ok {
		t.Fatalf("want noop by default, got %T", q)
	}
	if err := q.PublishEvent(context.Background(), Event{Type: "turn"}); err != nil {
		t.Fatalf("noop publish: %v", err)
	}

	if _, err := New(Config{Type: "kafka"}); err == nil {
		t.Fatalf("kafka without brokers must fail")
	}
	if _, err := New(Config{Type: "amqp"}); err == nil {
		t.Fatalf("unknown type must fail")
	}
	if _, err := New(Config{Type: "redis", RedisURL: "not a url"}); err == nil {
		t.Fatalf("bad redis url must fail")
	}

	q, err = New(Config{Type: "redis", RedisURL: "redis://localhost:6379/0"})
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	_ = q.Close()
	q, err = New(Config{Type: "kafka", KafkaBrokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("kafka: %v", err)
	}
	_ = q.Close()
}
