package worker

import (
	"context"
	"fmt"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseConfig struct {
	DSN   string
	Table string
}

const createTable = `CREATE TABLE IF NOT EXISTS %s (
	event_type  LowCardinality(String),
	game_id     String,
	payload     String,
	received_at DateTime64(3)
) ENGINE = MergeTree ORDER BY (event_type, received_at)`

type clickhouseSink struct {
	conn  clickhouse.Conn
	table string
}

// OpenClickHouse connects with a clickhouse:// DSN and ensures the table exists.
func OpenClickHouse(ctx context.Context, c ClickHouseConfig) (Sink, error) {
	dsn := c.DSN
	if dsn == "" {
		dsn = "clickhouse://localhost:9000/default"
	}
	opt, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opt)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	table := c.Table
	if table == "" {
		table = "game_events"
	}
	if err := conn.Exec(ctx, fmt.Sprintf(createTable, table)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	return &clickhouseSink{conn: conn, table: table}, nil
}

func (s *clickhouseSink) Insert(ctx context.Context, rows []Row) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table+" (event_type, game_id, payload, received_at)")
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := batch.Append(r.EventType, r.GameID, r.Payload, r.ReceivedAt); err != nil {
			_ = batch.Abort()
			return err
		}
	}
	return batch.Send()
}

func (s *clickhouseSink) Close() error { return s.conn.Close() }
