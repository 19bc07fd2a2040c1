package mq

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// Config selects and configures the queue backend.
type Config struct {
	Type string `json:",default=noop,options=noop|redis|kafka"`

	RedisURL     string `json:",default=redis://localhost:6379/0"`
	Stream       string `json:",default=keeperhub:events"`
	MaxLen       int64  `json:",default=1000000"`
	MaxLenApprox bool   `json:",default=true"`

	KafkaBrokers []string `json:",optional"`
	KafkaTopic   string   `json:",default=keeperhub.events"`
}

// New builds the Queue named by c.Type.
func New(c Config) (Queue, error) {
	switch strings.ToLower(c.Type) {
	case "", "noop":
		return NewNoop(), nil
	case "redis":
		q, err := NewRedis(c.RedisURL, c.Stream, c.MaxLen, c.MaxLenApprox)
		if err != nil {
			return nil, err
		}
		logx.Infof("analytics queue: redis stream %s", c.Stream)
		return q, nil
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka queue needs at least one broker")
		}
		logx.Infof("analytics queue: kafka brokers=%s topic=%s", strings.Join(c.KafkaBrokers, ","), c.KafkaTopic)
		return NewKafka(c.KafkaBrokers, c.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported analytics queue type %q", c.Type)
	}
}
