package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Envelope EnvelopeConfig `mapstructure:"envelope"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"env"`
	Version     string `mapstructure:"version"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	// Addr serves /metrics when set. Only used outside Lambda.
	Addr string `mapstructure:"addr"`
}

type DynamoDBConfig struct {
	Table       string `mapstructure:"table"`
	Region      string `mapstructure:"region"`
	Endpoint    string `mapstructure:"endpoint"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type EnvelopeConfig struct {
	// Field is the top-level key marking a wrapped notification.
	Field string `mapstructure:"field"`
	// TimestampSource is "sent" or "now"; see service.TimestampSource.
	TimestampSource string `mapstructure:"timestamp_source"`
}

type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

var defaults = map[string]any{
	"app.name":    "order-ingestor",
	"app.env":     "development",
	"app.version": "0.0.0",

	"log.level":  "info",
	"log.format": "json",
	"log.output": "stdout",

	"tracing.enabled":      false,
	"tracing.service_name": "order-ingestor",
	"tracing.endpoint":     "localhost:4318",
	"tracing.insecure":     true,
	"tracing.sample_rate":  1.0,

	"metrics.namespace": "order_ingestor",
	"metrics.addr":      "",

	"dynamodb.table":        "Orders",
	"dynamodb.region":       "us-east-1",
	"dynamodb.endpoint":     "",
	"dynamodb.max_attempts": 3,

	"envelope.field":            "Message",
	"envelope.timestamp_source": "sent",

	"breaker.enabled":      true,
	"breaker.max_failures": 5,
	"breaker.open_timeout": 30 * time.Second,
}

// Extra environment names accepted on top of the derived SECTION_KEY form.
var envAliases = map[string][]string{
	"dynamodb.table":   {"ORDERS_TABLE"},
	"dynamodb.region":  {"AWS_REGION"},
	"tracing.endpoint": {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// Load reads configuration from the environment and, if path is not empty,
// from a config file. Environment values win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.DynamoDB.Table == "" {
		errs = append(errs, "DYNAMODB_TABLE is required")
	}
	if cfg.DynamoDB.Region == "" {
		errs = append(errs, "DYNAMODB_REGION (or AWS_REGION) is required")
	}
	if cfg.DynamoDB.MaxAttempts < 1 {
		errs = append(errs, "DYNAMODB_MAX_ATTEMPTS must be at least 1")
	}

	if cfg.Envelope.Field == "" {
		errs = append(errs, "ENVELOPE_FIELD must not be empty")
	}
	switch cfg.Envelope.TimestampSource {
	case "sent", "now":
	default:
		errs = append(errs, fmt.Sprintf("ENVELOPE_TIMESTAMP_SOURCE must be \"sent\" or \"now\", got %q", cfg.Envelope.TimestampSource))
	}

	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		errs = append(errs, "TRACING_SAMPLE_RATE must be between 0 and 1")
	}

	if cfg.Breaker.Enabled {
		if cfg.Breaker.MaxFailures == 0 {
			errs = append(errs, "BREAKER_MAX_FAILURES must be positive when the breaker is enabled")
		}
		if cfg.Breaker.OpenTimeout <= 0 {
			errs = append(errs, "BREAKER_OPEN_TIMEOUT must be positive when the breaker is enabled")
		}
	}

	if cfg.DynamoDB.Endpoint != "" && cfg.App.Environment == "production" {
		errs = append(errs, "DYNAMODB_ENDPOINT override is not allowed in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
