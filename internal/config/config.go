package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"queueWatch/internal/modules/queue/domain"
)

// Config is the resolved configuration shared by every binary. Keys match the
// environment variable names; a config.yaml in . or ./config may set them too.
type Config struct {
	Location  *time.Location
	Provider  ProviderConfig
	Remote    RemoteConfig
	Collector CollectorConfig
	Storage   StorageConfig
	Server    ServerConfig
	Kafka     KafkaConfig
	Logging   LoggingConfig
}

type ProviderConfig struct {
	URL           string
	Search        string
	TargetStoreID int64
	Timeout       time.Duration
}

type RemoteConfig struct {
	URL      string
	Secret   string
	AuthMode string
	Timeout  time.Duration
	TokenTTL time.Duration
}

type CollectorConfig struct {
	Interval    time.Duration
	Window      domain.OperatingWindow
	MaxRuntime  time.Duration
	GracePeriod time.Duration
}

type StorageConfig struct {
	LogDirectory string
	Driver       string
	BadgerDir    string
	DatabaseURL  string
	BatchSize    int
}

type ServerConfig struct {
	Port     string
	WSBuffer int
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	Publish bool
	Consume bool
}

type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

// maxRuntimeHours is the largest bound that still fits in a time.Duration.
const maxRuntimeHours = float64(math.MaxInt64 / int64(time.Hour))

var ErrInvalidConfig = errors.New("invalid configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "Asia/Shanghai")

	v.SetDefault("provider_url", "https://xcx.zhufuguihuoguo.com/api/item/lists")
	v.SetDefault("provider_search", "禹悦汇")
	v.SetDefault("target_store_id", 19)
	v.SetDefault("provider_timeout", "10s")

	v.SetDefault("api_url", "http://localhost:3000/api/collect")
	v.SetDefault("api_secret", "")
	v.SetDefault("api_auth_mode", "static")
	v.SetDefault("api_timeout", "10s")
	v.SetDefault("api_token_ttl", "1m")

	v.SetDefault("collect_interval", "10s")
	v.SetDefault("operating_start", "11:00")
	v.SetDefault("operating_end", "22:00")
	v.SetDefault("max_runtime_hours", "0")
	v.SetDefault("shutdown_grace", "5s")

	v.SetDefault("data_dir", "data/snapshots")
	v.SetDefault("store_driver", StoreBadger)
	v.SetDefault("badger_dir", "data/badger")
	v.SetDefault("database_url", "")
	v.SetDefault("migration_batch_size", 100)

	v.SetDefault("port", "3000")
	v.SetDefault("ws_buffer", 16)

	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_group_id", "queuewatch-server")
	v.SetDefault("kafka_topic", "queue.snapshots")
	v.SetDefault("kafka_publish", false)
	v.SetDefault("kafka_consume", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_directory", "./logs")
}

// Load reads defaults, an optional config file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		slog.Debug("config file loaded", slog.String("path", v.ConfigFileUsed()))
	}

	var errs []error
	duration := func(key string) time.Duration {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, strings.ToUpper(key), v.GetString(key)))
		}
		return d
	}
	integer := func(key string) int {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, strings.ToUpper(key), v.GetString(key)))
		}
		return n
	}

	cfg := &Config{
		Provider: ProviderConfig{
			URL:           strings.TrimSpace(v.GetString("provider_url")),
			Search:        v.GetString("provider_search"),
			TargetStoreID: int64(integer("target_store_id")),
			Timeout:       duration("provider_timeout"),
		},
		Remote: RemoteConfig{
			URL:      strings.TrimSpace(v.GetString("api_url")),
			Secret:   strings.TrimSpace(v.GetString("api_secret")),
			AuthMode: strings.ToLower(strings.TrimSpace(v.GetString("api_auth_mode"))),
			Timeout:  duration("api_timeout"),
			TokenTTL: duration("api_token_ttl"),
		},
		Collector: CollectorConfig{
			Interval:    duration("collect_interval"),
			GracePeriod: duration("shutdown_grace"),
		},
		Storage: StorageConfig{
			LogDirectory: strings.TrimSpace(v.GetString("data_dir")),
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),
			BadgerDir:    strings.TrimSpace(v.GetString("badger_dir")),
			DatabaseURL:  strings.TrimSpace(v.GetString("database_url")),
			BatchSize:    integer("migration_batch_size"),
		},
		Server: ServerConfig{
			Port:     strings.TrimSpace(v.GetString("port")),
			WSBuffer: integer("ws_buffer"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("kafka_brokers")),
			GroupID: strings.TrimSpace(v.GetString("kafka_group_id")),
			Topic:   strings.TrimSpace(v.GetString("kafka_topic")),
			Publish: v.GetBool("kafka_publish"),
			Consume: v.GetBool("kafka_consume"),
		},
		Logging: LoggingConfig{
			Level:     v.GetString("log_level"),
			Format:    v.GetString("log_format"),
			Directory: strings.TrimSpace(v.GetString("log_directory")),
		},
	}

	loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("timezone")))
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: TIMEZONE: %v", ErrInvalidConfig, err))
	}
	cfg.Location = loc

	window, err := domain.ParseOperatingWindow(v.GetString("operating_start"), v.GetString("operating_end"))
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: OPERATING_START/OPERATING_END: %v", ErrInvalidConfig, err))
	}
	cfg.Collector.Window = window

	var hours float64
	var hoursErr error
	if raw := strings.TrimSpace(v.GetString("max_runtime_hours")); raw != "" {
		hours, hoursErr = strconv.ParseFloat(raw, 64)
	}
	if hoursErr != nil || math.IsNaN(hours) || hours < 0 || hours > maxRuntimeHours {
		errs = append(errs, fmt.Errorf("%w: MAX_RUNTIME_HOURS=%q must be a finite non-negative number of hours", ErrInvalidConfig, v.GetString("max_runtime_hours")))
	}
	cfg.Collector.MaxRuntime = time.Duration(hours * float64(time.Hour))

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if c.Collector.Interval == 0 {
		errs = append(errs, fmt.Errorf("%w: COLLECT_INTERVAL must be positive", ErrInvalidConfig))
	}
	switch c.Remote.AuthMode {
	case "static", "jwt":
	default:
		errs = append(errs, fmt.Errorf("%w: API_AUTH_MODE=%q must be static or jwt", ErrInvalidConfig, c.Remote.AuthMode))
	}
	switch c.Storage.Driver {
	case StoreBadger:
	case StorePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("%w: DATABASE_URL is required for the postgres store", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: STORE_DRIVER=%q must be badger or postgres", ErrInvalidConfig, c.Storage.Driver))
	}
	if c.Provider.TargetStoreID <= 0 {
		errs = append(errs, fmt.Errorf("%w: TARGET_STORE_ID must be positive", ErrInvalidConfig))
	}
	if c.Storage.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: MIGRATION_BATCH_SIZE must be positive", ErrInvalidConfig))
	}
	if (c.Kafka.Publish || c.Kafka.Consume) && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, fmt.Errorf("%w: KAFKA_BROKERS is required when kafka is enabled", ErrInvalidConfig))
	}
	return errs
}

func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
