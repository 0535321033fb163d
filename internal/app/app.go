package app

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/origamishop/orders/internal/api/rest"
	"github.com/origamishop/orders/internal/auth"
	healthcheck "github.com/origamishop/orders/internal/health"
	"github.com/origamishop/orders/internal/messaging/kafka"
	ordersvc "github.com/origamishop/orders/internal/service/orders"
	"github.com/origamishop/orders/internal/service/outbox"
	"github.com/origamishop/orders/internal/version"
)

// Run собирает сервис заказов и блокируется до отмены ctx или падения
// HTTP-сервера. Kafka опциональна: без брокеров события копятся в outbox.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if deps.closeFn != nil {
			if closeErr := deps.closeFn(); closeErr != nil {
				logger.WithError(closeErr).Warn("failed to close storage")
			}
		}
	}()

	// Ошибка подключения к Kafka не фатальна, producer остаётся nil
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)

	service := ordersvc.NewService(
		deps.orders,
		deps.products,
		deps.outboxRepo,
		deps.timelineRepo,
		logger.WithField("layer", "service"),
	)

	var workerCancel context.CancelFunc
	var workerDone chan struct{}
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker := outbox.NewWorker(
			deps.outboxRepo,
			publisher,
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithDLQPublisher(dlqPublisher),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		workerDone = make(chan struct{})
		go func() {
			defer close(workerDone)
			worker.Run(workerCtx)
		}()
	}

	authenticator := auth.NewAuthenticator([]byte(cfg.JWTSecret))
	middleware := rest.NewAuthMiddleware(authenticator, logger.WithField("layer", "rest"))
	handler := rest.NewHandler(service, logger.WithField("layer", "rest"))
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: rest.NewMux(handler, middleware)}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		shutdownOutboxWorker(workerCancel, workerDone, logger)
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		shutdownOutboxWorker(workerCancel, workerDone, logger)
		closeKafka(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// shutdownOutboxWorker останавливает фонового обработчика outbox.
func shutdownOutboxWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
	logger.Info("outbox worker stopped")
}
