package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StorageDriver — тип хранилища заказов.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// BrokerKind — брокер, в который outbox публикует события.
type BrokerKind string

const (
	BrokerNone     BrokerKind = "none"
	BrokerKafka    BrokerKind = "kafka"
	BrokerRabbitMQ BrokerKind = "rabbitmq"
)

// Переменные окружения.
const (
	EnvGRPCAddr            = "BREAKTIME_GRPC_ADDR"
	EnvHTTPAddr            = "BREAKTIME_HTTP_ADDR"
	EnvMetricsAddr         = "BREAKTIME_METRICS_ADDR"
	EnvStorageDriver       = "BREAKTIME_STORAGE_DRIVER"
	EnvPostgresDSN         = "BREAKTIME_POSTGRES_DSN"
	EnvPostgresAutoMigrate = "BREAKTIME_POSTGRES_AUTO_MIGRATE"
	EnvBroker              = "BREAKTIME_BROKER"
	EnvKafkaBrokers        = "BREAKTIME_KAFKA_BROKERS"
	EnvKafkaTopic          = "BREAKTIME_KAFKA_TOPIC"
	EnvRabbitMQURL         = "BREAKTIME_RABBITMQ_URL"
	EnvRabbitMQQueue       = "BREAKTIME_RABBITMQ_QUEUE"
	EnvRabbitMQPoolSize    = "BREAKTIME_RABBITMQ_POOL_SIZE"
	EnvOutboxPollInterval  = "BREAKTIME_OUTBOX_POLL_INTERVAL"
	EnvOutboxBatchSize     = "BREAKTIME_OUTBOX_BATCH_SIZE"
	EnvOutboxMaxAttempts   = "BREAKTIME_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetryDelay    = "BREAKTIME_OUTBOX_RETRY_DELAY"
	EnvShutdownTimeout     = "BREAKTIME_SHUTDOWN_TIMEOUT"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	Broker           BrokerKind
	KafkaBrokers     string // через запятую
	KafkaTopic       string
	RabbitMQURL      string
	RabbitMQQueue    string
	RabbitMQPoolSize int

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		Broker:              BrokerNone,
		KafkaTopic:          "breaktime.order.events",
		RabbitMQQueue:       "breaktime.orders",
		RabbitMQPoolSize:    4,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    100 * time.Millisecond,
		ShutdownTimeout:     5 * time.Second,
	}
}

// LoadConfig накладывает значения из окружения на DefaultConfig.
// getenv обычно os.Getenv; пустое значение оставляет значение по умолчанию.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	if getenv == nil {
		return cfg, nil
	}

	lookup := func(key string) string { return strings.TrimSpace(getenv(key)) }

	setString := func(key string, target *string) {
		if v := lookup(key); v != "" {
			*target = v
		}
	}
	setString(EnvGRPCAddr, &cfg.GRPCAddr)
	setString(EnvHTTPAddr, &cfg.HTTPAddr)
	setString(EnvMetricsAddr, &cfg.MetricsAddr)
	setString(EnvPostgresDSN, &cfg.PostgresDSN)
	setString(EnvKafkaBrokers, &cfg.KafkaBrokers)
	setString(EnvKafkaTopic, &cfg.KafkaTopic)
	setString(EnvRabbitMQURL, &cfg.RabbitMQURL)
	setString(EnvRabbitMQQueue, &cfg.RabbitMQQueue)

	if v := lookup(EnvStorageDriver); v != "" {
		cfg.StorageDriver = StorageDriver(strings.ToLower(v))
	}
	if v := lookup(EnvBroker); v != "" {
		cfg.Broker = BrokerKind(strings.ToLower(v))
	}

	var errs []error
	if v := lookup(EnvPostgresAutoMigrate); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPostgresAutoMigrate, err))
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	setInt := func(key string, target *int) {
		v := lookup(key)
		if v == "" {
			return
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*target = parsed
	}
	setInt(EnvRabbitMQPoolSize, &cfg.RabbitMQPoolSize)
	setInt(EnvOutboxBatchSize, &cfg.OutboxBatchSize)
	setInt(EnvOutboxMaxAttempts, &cfg.OutboxMaxAttempts)

	setDuration := func(key string, target *time.Duration) {
		v := lookup(key)
		if v == "" {
			return
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*target = parsed
	}
	setDuration(EnvOutboxPollInterval, &cfg.OutboxPollInterval)
	setDuration(EnvOutboxRetryDelay, &cfg.OutboxRetryDelay)
	setDuration(EnvShutdownTimeout, &cfg.ShutdownTimeout)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("parse config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc address is required"))
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for postgres storage", EnvPostgresDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	switch c.Broker {
	case "", BrokerNone:
	case BrokerKafka:
		if len(c.KafkaBrokerList()) == 0 {
			errs = append(errs, fmt.Errorf("%s is required for kafka broker", EnvKafkaBrokers))
		}
	case BrokerRabbitMQ:
		if c.RabbitMQURL == "" {
			errs = append(errs, fmt.Errorf("%s is required for rabbitmq broker", EnvRabbitMQURL))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported broker %q", c.Broker))
	}

	if c.OutboxBatchSize < 0 || c.OutboxMaxAttempts < 0 || c.RabbitMQPoolSize < 0 {
		errs = append(errs, errors.New("outbox and pool sizes must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// KafkaBrokerList разбирает список брокеров, пропуская пустые элементы.
func (c Config) KafkaBrokerList() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
