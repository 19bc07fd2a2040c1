package mq

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

type redisQueue struct {
	cli          *redis.Client
	stream       string
	maxLen       int64
	maxLenApprox bool
}

func NewRedis(url, stream string, maxLen int64, approx bool) (Queue, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if stream == "" {
		stream = "keeperhub:events"
	}
	return &redisQueue{cli: redis.NewClient(opt), stream: stream, maxLen: maxLen, maxLenApprox: approx}, nil
}

func (q *redisQueue) Close() error { return q.cli.Close() }

// PublishEvent appends evt to the stream as a single JSON "data" field.
func (q *redisQueue) PublishEvent(ctx context.Context, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: q.stream, Values: map[string]any{"data": string(b)}}
	if q.maxLen > 0 {
		args.MaxLen = q.maxLen
		args.Approx = q.maxLenApprox
	}
	return q.cli.XAdd(ctx, args).Err()
}
