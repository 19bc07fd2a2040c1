package eventsgorm

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection, otherwise each pooled conn sees its own :memory: database
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db)
}

func TestStatsByRetiredID(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	for _, rec := range []any{
		&RetiredConquered{GameID: "g1", RetiredID: "site1", PlayerName: "p"},
		&RetiredLoaded{GameID: "g1", RetiredID: "site1", PlayerName: "p"},
		&RetiredLoaded{GameID: "g2", RetiredID: "site1", PlayerName: "q"},
		&RetiredLoaded{GameID: "g3", RetiredID: "site2", PlayerName: "q"},
	} {
		if err := r.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	stats, err := r.StatsByRetiredID(ctx, []string{"site1", "site2", "site3"})
	if err != nil {
		t.Fatal(err)
	}
	if s := stats["site1"]; s.Conquered != 1 || s.Loaded != 2 {
		t.Fatalf("site1: %+v", s)
	}
	if s := stats["site2"]; s.Conquered != 0 || s.Loaded != 1 {
		t.Fatalf("site2: %+v", s)
	}
	if s := stats["site3"]; s.Conquered != 0 || s.Loaded != 0 {
		t.Fatalf("site3: %+v", s)
	}
}

func TestListMessagesByBoard(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	_ = r.Insert(ctx, &Message{GameID: "g", BoardID: 7, Author: "a", Text: "first"})
	_ = r.Insert(ctx, &Message{GameID: "g", BoardID: 8, Author: "b", Text: "elsewhere"})
	_ = r.Insert(ctx, &Message{GameID: "g", BoardID: 7, Author: "c", Text: "second"})
	msgs, err := r.ListMessages(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}
