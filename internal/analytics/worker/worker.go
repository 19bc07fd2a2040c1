package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/cuihairu/keeperhub/internal/analytics/mq"
)

type Config struct {
	RedisURL   string
	Stream     string
	Group      string
	Consumer   string
	ClickHouse ClickHouseConfig
	BatchSize  int64
	Block      time.Duration
}

// Row is one game_events row.
type Row struct {
	EventType  string
	GameID     string
	Payload    string
	ReceivedAt time.Time
}

// Sink stores decoded rows.
type Sink interface {
	Insert(ctx context.Context, rows []Row) error
	Close() error
}

// Worker moves recorded game events from the redis stream into the sink.
type Worker struct {
	rdb      *redis.Client
	sink     Sink
	stream   string
	group    string
	consumer string
	count    int64
	block    time.Duration
}

func New(ctx context.Context, c Config) (*Worker, error) {
	ropt, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	sink, err := OpenClickHouse(ctx, c.ClickHouse)
	if err != nil {
		return nil, err
	}
	return newWorker(redis.NewClient(ropt), sink, c), nil
}

func newWorker(rdb *redis.Client, sink Sink, c Config) *Worker {
	w := &Worker{rdb: rdb, sink: sink, stream: c.Stream, group: c.Group, consumer: c.Consumer, count: c.BatchSize, block: c.Block}
	if w.stream == "" {
		w.stream = "keeperhub:events"
	}
	if w.group == "" {
		w.group = "keeperhub-worker"
	}
	if w.consumer == "" {
		host, _ := os.Hostname()
		w.consumer = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if w.count <= 0 {
		w.count = 200
	}
	if w.block <= 0 {
		w.block = 2 * time.Second
	}
	return w
}

func (w *Worker) Close() error {
	return errors.Join(w.sink.Close(), w.rdb.Close())
}

// Run consumes until ctx is done. Entries left pending by an earlier failed
// insert are retried first.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.rdb.XGroupCreateMkStream(ctx, w.stream, w.group, "$").Err(); err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group: %w", err)
	}
	slog.Info("analytics worker started", "stream", w.stream, "group", w.group, "consumer", w.consumer)
	start := "0"
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.group,
			Consumer: w.consumer,
			Streams:  []string{w.stream, start},
			Count:    w.count,
			Block:    w.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				start = ">"
				continue
			}
			slog.Warn("xreadgroup", "err", err)
			time.Sleep(time.Second)
			continue
		}
		n, failed := 0, false
		for _, str := range res {
			n += len(str.Messages)
			if !w.process(ctx, str.Messages) {
				failed = true
			}
		}
		switch {
		case failed:
			// retry the pending entries after a pause
			start = "0"
			time.Sleep(time.Second)
		case start == "0" && n == 0:
			start = ">"
		}
	}
}

func (w *Worker) process(ctx context.Context, msgs []redis.XMessage) bool {
	ok := true
	rows, ack, drop := decodeMessages(msgs)
	for _, id := range drop {
		slog.Warn("dropping malformed event", "id", id)
	}
	if len(rows) > 0 {
		if err := w.sink.Insert(ctx, rows); err != nil {
			slog.Warn("insert game events", "rows", len(rows), "err", err)
			// leave the batch pending; only the malformed ones are acked
			ack = drop
			ok = false
		}
	}
	if len(ack) > 0 {
		if err := w.rdb.XAck(ctx, w.stream, w.group, ack...).Err(); err != nil {
			slog.Warn("xack", "err", err)
		}
	}
	return ok
}

// decodeMessages returns the rows to insert, every id to ack after a
// successful insert and the ids of malformed messages.
func decodeMessages(msgs []redis.XMessage) (rows []Row, ack, drop []string) {
	for _, msg := range msgs {
		ack = append(ack, msg.ID)
		row, err := RowFromValues(msg.Values)
		if err != nil {
			drop = append(drop, msg.ID)
			continue
		}
		rows = append(rows, row)
	}
	return rows, ack, drop
}

// RowFromValues decodes the "data" field written by the redis queue.
func RowFromValues(values map[string]any) (Row, error) {
	var data string
	switch v := values["data"].(type) {
	case string:
		data = v
	case []byte:
		data = string(v)
	}
	if data == "" {
		return Row{}, errors.New("missing data field")
	}
	var evt mq.Event
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return Row{}, err
	}
	if evt.Type == "" {
		return Row{}, errors.New("missing event type")
	}
	payload, err := json.Marshal(evt.Fields)
	if err != nil {
		return Row{}, err
	}
	ts := evt.ReceivedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Row{EventType: evt.Type, GameID: evt.GameID, Payload: string(payload), ReceivedAt: ts}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
