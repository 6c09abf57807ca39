package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/breaktime/internal/messaging/kafka"
)

const envKafkaBrokers = "BREAKTIME_KAFKA_BROKERS"

type config struct {
	brokers []string
	replay  kafka.ReplayOptions
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func readConfig(args []string, getenv func(string) string) (config, error) {
	var (
		brokersRaw string
		cfg        config
	)

	fs := flag.NewFlagSet("breaktime-dlq", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: "+envKafkaBrokers+")")
	fs.StringVar(&cfg.replay.SourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	fs.StringVar(&cfg.replay.TargetTopic, "target-topic", kafka.TopicOrderEvents, "fallback topic when the message has no original-topic header")
	fs.IntVar(&cfg.replay.Limit, "limit", 100, "max number of messages to scan/replay")
	fs.BoolVar(&cfg.replay.Execute, "execute", false, "execute replay; default is dry-run")
	fs.DurationVar(&cfg.replay.IdleTimeout, "idle-timeout", 2*time.Second, "idle timeout per partition")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" && getenv != nil {
		brokersRaw = getenv(envKafkaBrokers)
	}
	for _, broker := range strings.Split(brokersRaw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.brokers = append(cfg.brokers, broker)
		}
	}

	switch {
	case len(cfg.brokers) == 0:
		return config{}, fmt.Errorf("kafka brokers are required (-brokers or %s)", envKafkaBrokers)
	case strings.TrimSpace(cfg.replay.SourceTopic) == "":
		return config{}, fmt.Errorf("source-topic is required")
	case cfg.replay.Limit <= 0:
		return config{}, fmt.Errorf("limit must be > 0")
	case cfg.replay.IdleTimeout <= 0:
		return config{}, fmt.Errorf("idle-timeout must be > 0")
	}

	return cfg, nil
}

func run(ctx context.Context, cfg config) error {
	logger := log.WithField("component", "dlq-replay")

	consumerConfig := sarama.NewConfig()
	consumerConfig.Consumer.Return.Errors = true
	consumer, err := sarama.NewConsumer(cfg.brokers, consumerConfig)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	var producer *kafka.Producer
	if cfg.replay.Execute {
		producer, err = kafka.NewProducer(cfg.brokers, "breaktime-dlq", logger)
		if err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()
	}

	_, err = kafka.NewReplayer(consumer, producer, cfg.replay, logger).Run(ctx)
	return err
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
