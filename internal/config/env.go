package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds connection and runtime settings read from the environment.
type EnvConfig struct {
	PostgresDSN      string        `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN    string        `envconfig:"CLICKHOUSE_DSN"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty        bool          `envconfig:"LOG_PRETTY" default:"false"`
	FeedAddr         string        `envconfig:"FEED_ADDR" default:":8080"`
	FeedInterval     time.Duration `envconfig:"FEED_INTERVAL" default:"15m"`
	MetricsNamespace string        `envconfig:"METRICS_NAMESPACE" default:"fx_calendar_lab"`
}

// LoadEnv reads the environment. A .env file in the working directory is
// loaded first when present; variables already set take precedence.
func LoadEnv() (*EnvConfig, error) {
	_ = godotenv.Load()

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}
