package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	breaktimev1 "github.com/vladislavdragonenkov/breaktime/api/breaktime/v1"
	healthcheck "github.com/vladislavdragonenkov/breaktime/internal/health"
	"github.com/vladislavdragonenkov/breaktime/internal/httpapi"
	"github.com/vladislavdragonenkov/breaktime/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/breaktime/internal/service/grpc"
	"github.com/vladislavdragonenkov/breaktime/internal/service/orders"
	"github.com/vladislavdragonenkov/breaktime/internal/service/outbox"
	"github.com/vladislavdragonenkov/breaktime/internal/version"
)

const defaultShutdownTimeout = 5 * time.Second

// Run собирает зависимости и обслуживает gRPC, HTTP-шлюз и метрики до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return err
	}
	defer deps.close(logger)

	// Ошибка брокера уже залогирована, сервис работает без публикации событий.
	broker, _ := initBroker(cfg, logger.WithField("layer", "broker"))
	defer broker.close()

	serviceOpts := []orders.Option{
		orders.WithMetrics(metrics.NewOrderMetrics(prometheus.DefaultRegisterer)),
	}
	if broker.enabled() {
		serviceOpts = append(serviceOpts, orders.WithOutbox(deps.outboxRepo))
	}
	orderService := orders.NewService(deps.repo, logger.WithField("layer", "service"), serviceOpts...)

	outboxCancel, outboxDone := startOutboxWorker(ctx, cfg, deps, broker, logger)
	defer shutdownOutboxWorker(outboxCancel, outboxDone, logger)

	grpcMetrics := registerGRPCMetrics(logger)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	breaktimev1.RegisterOrderServiceServer(grpcServer, grpcsvc.NewOrderService(orderService, logger.WithField("layer", "grpc")))
	grpcMetrics.InitializeMetrics(grpcServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.Register("storage", deps.storageChecker)
	healthHandler.Register("broker", brokerChecker(cfg.Broker, broker))
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	gatewaySrv := startGatewayServer(ctx, cfg.HTTPAddr, orderService, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(gatewaySrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(cfg.ShutdownTimeout):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(gatewaySrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(gatewaySrv, logger)
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// registerGRPCMetrics регистрирует серверные метрики gRPC, переиспользуя уже зарегистрированные.
func registerGRPCMetrics(logger *log.Entry) *promgrpc.ServerMetrics {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("failed to register grpc metrics")
	}
	return grpcMetrics
}

// startOutboxWorker запускает outbox worker, только если настроен брокер.
func startOutboxWorker(ctx context.Context, cfg Config, deps runtimeDependencies, broker brokerPublishers, logger *log.Entry) (context.CancelFunc, <-chan struct{}) {
	if !broker.enabled() || deps.outboxRepo == nil {
		logger.Info("outbox worker is disabled: no broker configured")
		return nil, nil
	}

	opts := []outbox.Option{
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithBrokerName(broker.name),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		outbox.WithMetrics(metrics.NewOutboxMetrics(prometheus.DefaultRegisterer)),
	}
	if broker.dlq != nil {
		opts = append(opts, outbox.WithDLQPublisher(broker.dlq))
	}
	worker := outbox.NewWorker(deps.outboxRepo, broker.publisher, opts...)

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(workerCtx)
	}()
	return cancel, done
}

// shutdownOutboxWorker останавливает worker и ждёт завершения текущего батча.
func shutdownOutboxWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel == nil {
		return
	}
	cancel()
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info("outbox worker stopped")
	case <-time.After(defaultShutdownTimeout):
		logger.Warn("outbox worker did not stop in time")
	}
}

// startGatewayServer запускает HTTP-шлюз поверх сервиса заказов.
func startGatewayServer(ctx context.Context, addr string, orderService httpapi.Orders, logger *log.Entry) *http.Server {
	if addr == "" {
		logger.Info("http gateway is disabled")
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	gatewayLogger := logger.WithField("layer", "http")
	handler := httpapi.NewOrderHandler(orderService, healthcheck.NewHeartbeat(nil), gatewayLogger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(handler, gatewayLogger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("HTTP шлюз слушает %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("http gateway failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
