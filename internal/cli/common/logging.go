package common

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/viper"
	"github.com/zeromicro/go-zero/core/logx"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig selects the process log sink.
// Format: console|json; Level: debug|info|warn|error.
type LogConfig struct {
	Level      string `json:",default=info"`
	Format     string `json:",default=console"`
	File       string `json:",optional"`
	MaxSize    int    `json:",default=100"`
	MaxBackups int    `json:",default=7"`
	MaxAge     int    `json:",default=30"`
	Compress   bool   `json:",default=true"`
}

// SetupLogger configures std log, the slog default logger and the logx
// writer to share one sink. With a File set the sink is a rotating file.
func SetupLogger(c LogConfig) io.Writer {
	var w io.Writer = os.Stderr
	if strings.TrimSpace(c.File) != "" {
		w = &lumberjack.Logger{Filename: c.File, MaxSize: c.MaxSize, MaxBackups: c.MaxBackups, MaxAge: c.MaxAge, Compress: c.Compress}
	}
	lvl := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.ToLower(c.Format) == "json" {
		h = slog.NewJSONHandler(w, opts)
		log.SetFlags(0)
	} else {
		h = slog.NewTextHandler(w, opts)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}
	slog.SetDefault(slog.New(&countHandler{next: h}))
	log.SetOutput(w)
	logx.SetWriter(logx.NewWriter(w))
	return w
}

// LogConfigFromViper reads an "AppLog" section, falling back to defaults.
func LogConfigFromViper(v *viper.Viper) LogConfig {
	c := LogConfig{Level: "info", Format: "console", MaxSize: 100, MaxBackups: 7, MaxAge: 30, Compress: true}
	sub := v.Sub("applog")
	if sub == nil {
		return c
	}
	if s := sub.GetString("level"); s != "" {
		c.Level = s
	}
	if s := sub.GetString("format"); s != "" {
		c.Format = s
	}
	c.File = sub.GetString("file")
	for key, dst := range map[string]*int{"maxsize": &c.MaxSize, "maxbackups": &c.MaxBackups, "maxage": &c.MaxAge} {
		if sub.IsSet(key) {
			*dst = sub.GetInt(key)
		}
	}
	if sub.IsSet("compress") {
		c.Compress = sub.GetBool("compress")
	}
	return c
}

// --------- counters for log levels ----------

var cntDebug, cntInfo, cntWarn, cntError atomic.Int64

type countHandler struct{ next slog.Handler }

func (c *countHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return c.next.Enabled(ctx, lvl)
}

func (c *countHandler) Handle(ctx context.Context, rec slog.Record) error {
	switch {
	case rec.Level >= slog.LevelError:
		cntError.Add(1)
	case rec.Level >= slog.LevelWarn:
		cntWarn.Add(1)
	case rec.Level >= slog.LevelInfo:
		cntInfo.Add(1)
	default:
		cntDebug.Add(1)
	}
	return c.next.Handle(ctx, rec)
}

func (c *countHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &countHandler{next: c.next.WithAttrs(attrs)}
}
func (c *countHandler) WithGroup(name string) slog.Handler { return &countHandler{next: c.next.WithGroup(name)} }

// GetLogCounters returns current log counters by level.
func GetLogCounters() map[string]int64 {
	d, i, w, e := cntDebug.Load(), cntInfo.Load(), cntWarn.Load(), cntError.Load()
	return map[string]int64{"debug": d, "info": i, "warn": w, "error": e, "total": d + i + w + e}
}
