package workercmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuihairu/keeperhub/internal/analytics/worker"
	common "github.com/cuihairu/keeperhub/internal/cli/common"
)

// ConfigFromViper maps the hub config's Analytics and Worker sections onto
// the worker. Keys are lower-cased by viper.
func ConfigFromViper(v *viper.Viper) worker.Config {
	c := worker.Config{
		RedisURL:  v.GetString("analytics.redisurl"),
		Stream:    v.GetString("analytics.stream"),
		Group:     v.GetString("worker.group"),
		Consumer:  v.GetString("worker.consumer"),
		BatchSize: v.GetInt64("worker.batchsize"),
		Block:     v.GetDuration("worker.block"),
		ClickHouse: worker.ClickHouseConfig{
			DSN:   v.GetString("worker.clickhousedsn"),
			Table: v.GetString("worker.table"),
		},
	}
	if c.RedisURL == "" {
		c.RedisURL = "redis://localhost:6379/0"
	}
	if c.ClickHouse.DSN == "" {
		c.ClickHouse.DSN = "clickhouse://localhost:9000/default"
	}
	return c
}

// New returns `keeperhub worker`.
func New() *cobra.Command {
	var cfgFile, profile string
	var includes []string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Copy recorded game events from the redis stream into ClickHouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := common.LoadWithIncludes(cfgFile, includes)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if v, err = common.ApplySectionAndProfile(v, "", profile); err != nil {
				return err
			}
			common.SetupLogger(common.LogConfigFromViper(v))
			if t := v.GetString("analytics.type"); t != "" && t != "redis" {
				slog.Warn("hub is not publishing to redis; the worker will idle", "analytics.type", t)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			w, err := worker.New(ctx, ConfigFromViper(v))
			if err != nil {
				return fmt.Errorf("init worker: %w", err)
			}
			defer func() {
				if err := w.Close(); err != nil {
					slog.Warn("close worker", "err", err)
				}
			}()
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "f", "services/hub/etc/hub.yaml", "hub config file")
	cmd.Flags().StringSliceVar(&includes, "include", nil, "config files merged over --config, in order")
	cmd.Flags().StringVar(&profile, "profile", "", "profiles.<name> overlay")
	return cmd
}
