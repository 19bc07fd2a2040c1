package config

import (
	"time"

	"github.com/zeromicro/go-zero/rest"

	"github.com/cuihairu/keeperhub/internal/analytics/mq"
	"github.com/cuihairu/keeperhub/internal/cli/common"
	"github.com/cuihairu/keeperhub/internal/telemetry"
)

type Config struct {
	rest.RestConf

	Database struct {
		Driver          string        `json:",default=auto,options=auto|mysql|postgres|sqlite"`
		DataSource      string        `json:",default=file:data/keeperhub.db"`
		MaxOpenConns    int           `json:",default=20"`
		MaxIdleConns    int           `json:",default=5"`
		ConnMaxLifetime time.Duration `json:",default=1h"`
		LogLevel        string        `json:",default=warn"`
		AutoMigrate     bool          `json:",default=false"`
	} `json:",optional"`

	Storage struct {
		Driver         string        `json:",default=file,options=file|s3|oss|cos"`
		BaseDir        string        `json:",default=uploads"`
		Bucket         string        `json:",optional"`
		Region         string        `json:",optional"`
		Endpoint       string        `json:",optional"`
		AccessKey      string        `json:",optional"`
		SecretKey      string        `json:",optional"`
		ForcePathStyle bool          `json:",default=false"`
		SignedURLTTL   time.Duration `json:",default=15m"`

		// RedirectDownloads answers downloads with a signed URL instead of
		// streaming through the hub.
		RedirectDownloads bool `json:",default=false"`
	} `json:",optional"`

	Parser struct {
		Binary   string        `json:",default=parse_game"`
		Timeout  time.Duration `json:",default=30s"`
		SpoolDir string        `json:",optional"`
	} `json:",optional"`

	Limits struct {
		GameSave      int64 `json:",default=10000000"`
		SiteSave      int64 `json:",default=5000000"`
		ScoreFile     int64 `json:",default=100000"`
		HighscoreFile int64 `json:",default=10000000"`
	} `json:",optional"`

	Analytics mq.Config        `json:",optional"`
	Otel      telemetry.Config `json:",optional"`
	AppLog    common.LogConfig `json:",optional"`

	// Worker is read by `keeperhub worker`; the hub ignores it.
	Worker struct {
		Group         string        `json:",default=keeperhub-worker"`
		Consumer      string        `json:",optional"`
		ClickHouseDSN string        `json:",default=clickhouse://localhost:9000/default"`
		Table         string        `json:",default=game_events"`
		BatchSize     int64         `json:",default=200"`
		Block         time.Duration `json:",default=2s"`
	} `json:",optional"`
}
