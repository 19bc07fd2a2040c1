package svc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"

	"github.com/cuihairu/keeperhub/internal/analytics/mq"
	"github.com/cuihairu/keeperhub/internal/db"
	"github.com/cuihairu/keeperhub/internal/gameevents"
	"github.com/cuihairu/keeperhub/internal/ingest"
	"github.com/cuihairu/keeperhub/internal/objstore"
	"github.com/cuihairu/keeperhub/internal/parser"
	eventsgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/events"
	scoresgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/highscores"
	retiredgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/retired"
	"github.com/cuihairu/keeperhub/internal/telemetry"
	"github.com/cuihairu/keeperhub/services/hub/internal/config"
)

type ServiceContext struct {
	Config    config.Config
	DB        *gorm.DB
	Store     objstore.Store
	Retired   *retiredgorm.Repo
	Scores    *scoresgorm.Repo
	Events    *eventsgorm.Repo
	Pipeline  *ingest.Pipeline
	Recorder  *gameevents.Recorder
	Queue     mq.Queue
	Telemetry *telemetry.Provider
}

// Deps are the external collaborators of the service.
type Deps struct {
	DB     *gorm.DB
	Store  objstore.Store
	Parser parser.Parser
	Queue  mq.Queue
	// Telemetry is optional; nil disables metrics.
	Telemetry *telemetry.Provider
}

func MustNewServiceContext(c config.Config) *ServiceContext {
	ctx, err := NewServiceContext(c)
	logx.Must(err)
	return ctx
}

// NewServiceContext opens the database, artifact store, parser and queue
// described by c.
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	logx.Info("Initializing hub service context")
	ctx := context.Background()

	gdb, err := db.Open(db.Options{
		Driver:          c.Database.Driver,
		DataSource:      c.Database.DataSource,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		LogLevel:        c.Database.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	store, err := objstore.Open(ctx, objstore.Config{
		Driver:         c.Storage.Driver,
		Bucket:         c.Storage.Bucket,
		Region:         c.Storage.Region,
		Endpoint:       c.Storage.Endpoint,
		AccessKey:      c.Storage.AccessKey,
		SecretKey:      c.Storage.SecretKey,
		ForcePathStyle: c.Storage.ForcePathStyle,
		BaseDir:        c.Storage.BaseDir,
		SignedURLTTL:   c.Storage.SignedURLTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if c.Parser.SpoolDir != "" {
		if err := os.MkdirAll(c.Parser.SpoolDir, 0o755); err != nil {
			return nil, fmt.Errorf("spool dir: %w", err)
		}
	}
	queue, err := mq.New(c.Analytics)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	tp, err := telemetry.NewProvider(ctx, c.Otel)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	s, err := New(c, Deps{
		DB:        gdb,
		Store:     store,
		Parser:    parser.NewExec(c.Parser.Binary, c.Parser.Timeout),
		Queue:     queue,
		Telemetry: tp,
	})
	if err != nil {
		return nil, errors.Join(err, queue.Close(), tp.Shutdown(ctx))
	}
	return s, nil
}

// New wires the service around already opened dependencies.
func New(c config.Config, d Deps) (*ServiceContext, error) {
	if c.Database.AutoMigrate {
		for _, m := range []func(*gorm.DB) error{retiredgorm.AutoMigrate, scoresgorm.AutoMigrate, eventsgorm.AutoMigrate} {
			if err := m(d.DB); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
	}
	queue := d.Queue
	if queue == nil {
		queue = mq.NewNoop()
	}
	s := &ServiceContext{
		Config:    c,
		DB:        d.DB,
		Store:     d.Store,
		Retired:   retiredgorm.NewRepo(d.DB),
		Scores:    scoresgorm.NewRepo(d.DB),
		Events:    eventsgorm.NewRepo(d.DB),
		Queue:     queue,
		Telemetry: d.Telemetry,
	}
	rec, err := gameevents.NewRecorder(s.Events, queue)
	if err != nil {
		return nil, err
	}
	var metrics ingest.Metrics
	if d.Telemetry != nil {
		metrics = d.Telemetry.Ingest
		rec.SetCounter(d.Telemetry.Ingest)
	}
	s.Recorder = rec
	s.Pipeline = ingest.New(ingest.Options{
		Store:   d.Store,
		Parser:  d.Parser,
		Retired: s.Retired,
		Scores:  s.Scores,
		Limits: ingest.Limits{
			GameSave:      c.Limits.GameSave,
			SiteSave:      c.Limits.SiteSave,
			ScoreFile:     c.Limits.ScoreFile,
			HighscoreFile: c.Limits.HighscoreFile,
		},
		SpoolDir: c.Parser.SpoolDir,
		Metrics:  metrics,
	})
	return s, nil
}

// Close releases the queue, exporters and database pool.
func (s *ServiceContext) Close() {
	var errs []error
	if s.Queue != nil {
		errs = append(errs, s.Queue.Close())
	}
	if s.Telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, s.Telemetry.Shutdown(ctx))
		cancel()
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logx.Errorf("close service context: %v", err)
	}
}
