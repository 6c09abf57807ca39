package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/breaktime/internal/app"
	"github.com/vladislavdragonenkov/breaktime/internal/version"
)

const envLogLevel = "BREAKTIME_LOG_LEVEL"

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(getenv func(string) string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(parseLogLevel(getenv(envLogLevel)))
}

func parseLogLevel(raw string) log.Level {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(raw)
	if err != nil {
		log.WithField("value", raw).Warn("unknown log level, using info")
		return log.InfoLevel
	}
	return level
}

func main() {
	setupLogger(os.Getenv)

	cfg, err := app.LoadConfig(os.Getenv)
	if err != nil {
		log.WithError(err).Fatal("некорректная конфигурация")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":      version.Current().String(),
		"grpc_addr":    cfg.GRPCAddr,
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"broker":       cfg.Broker,
	}).Info("запускаем breaktime")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("breaktime остановлен")
}
