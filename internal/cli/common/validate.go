package common

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/viper"

	"github.com/cuihairu/keeperhub/internal/objstore"
)

func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	return nil
}

// StorageConfigFromViper maps a "Storage" section onto objstore.Config.
func StorageConfigFromViper(v *viper.Viper) objstore.Config {
	return objstore.Config{
		Driver:         v.GetString("storage.driver"),
		Bucket:         v.GetString("storage.bucket"),
		Region:         v.GetString("storage.region"),
		Endpoint:       v.GetString("storage.endpoint"),
		AccessKey:      v.GetString("storage.accesskey"),
		SecretKey:      v.GetString("storage.secretkey"),
		ForcePathStyle: v.GetBool("storage.forcepathstyle"),
		BaseDir:        v.GetString("storage.basedir"),
		SignedURLTTL:   v.GetDuration("storage.signedurlttl"),
	}
}

// ValidateHubConfig checks a hub service config. Strict mode also requires an
// explicit data source and a parser binary that resolves on PATH.
func ValidateHubConfig(v *viper.Viper, strict bool) error {
	if sub := v.Sub("hub"); sub != nil {
		v = sub
	}
	if v.IsSet("port") {
		if err := ValidatePort(v.GetInt("port")); err != nil {
			return fmt.Errorf("Port: %w", err)
		}
	} else if strict {
		return fmt.Errorf("Port missing")
	}

	switch d := strings.ToLower(v.GetString("database.driver")); d {
	case "", "auto", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("Database.Driver: unknown driver %q", d)
	}
	if strict && v.GetString("database.datasource") == "" {
		return fmt.Errorf("Database.DataSource missing")
	}

	sc := StorageConfigFromViper(v)
	if sc.Driver == "" && sc.BaseDir == "" {
		sc.BaseDir = "uploads"
	}
	if err := objstore.Validate(sc); err != nil {
		return fmt.Errorf("Storage: %w", err)
	}

	bin := v.GetString("parser.binary")
	if bin == "" {
		bin = "parse_game"
	}
	if strict {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("Parser.Binary: %w", err)
		}
	}
	if v.IsSet("parser.timeout") && v.GetDuration("parser.timeout") <= 0 {
		return fmt.Errorf("Parser.Timeout must be positive")
	}

	for _, k := range []string{"gamesave", "sitesave", "scorefile", "highscorefile"} {
		if v.GetInt64("limits."+k) < 0 {
			return fmt.Errorf("Limits.%s must not be negative", k)
		}
	}

	switch t := strings.ToLower(v.GetString("analytics.type")); t {
	case "", "noop":
	case "redis":
		if v.GetString("analytics.redisurl") == "" && strict {
			return fmt.Errorf("Analytics.RedisURL missing")
		}
	case "kafka":
		if len(v.GetStringSlice("analytics.kafkabrokers")) == 0 {
			return fmt.Errorf("Analytics.KafkaBrokers missing")
		}
	default:
		return fmt.Errorf("Analytics.Type: unknown queue %q", t)
	}

	if v.IsSet("otel.samplingratio") {
		if r := v.GetFloat64("otel.samplingratio"); r < 0 || r > 1 {
			return fmt.Errorf("Otel.SamplingRatio must be within [0,1]")
		}
	}
	return nil
}
