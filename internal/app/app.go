package app

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"orderflow/internal/authz"
	"orderflow/internal/cacheinval"
	"orderflow/internal/config"
	"orderflow/internal/entity"
	"orderflow/internal/events"
	"orderflow/internal/repository"
	"orderflow/internal/service"
	httpt "orderflow/internal/transport/http"
	"orderflow/pkg/cache"
	"orderflow/pkg/kafka"
	"orderflow/pkg/logger"
	"orderflow/pkg/metric"
	"orderflow/pkg/ratelimit"
	"orderflow/pkg/storage/postgres"
	"orderflow/pkg/storage/postgres/transaction"

	"golang.org/x/sync/errgroup"
)

func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)

	metrics := initMetrics(eg, &cfg.Metrics, log)

	db, dbErr := initDatabase(&cfg.Postgres, log)
	if dbErr != nil {
		return dbErr
	}
	defer closeDB(db)

	txManager, txErr := initTransactionManager(db, log, metrics)
	if txErr != nil {
		return txErr
	}

	orderCache, cacheErr := initCache(&cfg.Cache, log, metrics)
	if cacheErr != nil {
		return cacheErr
	}
	defer stopCache(orderCache)

	limiter, limiterErr := initLimiter(&cfg.RateLimit, log, metrics)
	if limiterErr != nil {
		return limiterErr
	}
	defer limiter.StopSweep()

	notifier, notifierErr := initNotifier(&cfg.Redis, log)
	if notifierErr != nil {
		return notifierErr
	}
	defer notifier.Close()

	publisher, publisherErr := initPublisher(cfg, log, metrics)
	if publisherErr != nil {
		return publisherErr
	}
	defer publisher.Close()

	intakeService := initIntakeService(
		cfg,
		db,
		txManager,
		orderCache,
		notifier,
		publisher,
		log,
	)

	if serverErr := initHTTPServer(ctx, eg, cfg, intakeService, limiter, log, metrics); serverErr != nil {
		return serverErr
	}

	return waitForShutdown(eg)
}

func initMetrics(
	eg *errgroup.Group,
	cfg *config.Metrics,
	log logger.Logger,
) metric.Factory {
	metrics := metric.NewFactory()

	hostPort := net.JoinHostPort(cfg.Host, cfg.Port)
	metricsServer := &http.Server{
		Addr:              hostPort,
		Handler:           metrics.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	eg.Go(func() error {
		log.Infow("starting metrics server", "port", cfg.Port)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app.initMetrics: %w", err)
		}
		return nil
	})

	return metrics
}

func initDatabase(cfg *config.Postgres, log logger.Logger) (*postgres.Postgres, error) {
	db, err := postgres.NewPostgres(
		&postgres.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Name:     cfg.Name,
			User:     cfg.User,
			Password: cfg.Password,
			SSLMode:  cfg.SSLMode,
		},
		log.With("component", "database"),
		postgres.MaxPoolSize(cfg.PoolMax),
		postgres.MaxConnAttempts(cfg.ConnAttempts),
		postgres.BaseRetryDelay(cfg.BaseRetryDelay),
		postgres.MaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initDatabase: %w", err)
	}
	return db, nil
}

func closeDB(db *postgres.Postgres) {
	if db != nil {
		db.Close()
	}
}

func initTransactionManager(
	db *postgres.Postgres,
	log logger.Logger,
	metrics metric.Factory,
) (transaction.Manager, error) {
	txManager, err := transaction.NewManager(
		db,
		log.With("component", "transaction manager"),
		metrics.Transaction(),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initTransactionManager: %w", err)
	}
	return txManager, nil
}

func initCache(
	cfg *config.Cache,
	log logger.Logger,
	metrics metric.Factory,
) (cache.Cache[string, *entity.Order], error) {
	orderCache, err := cache.NewLRUCache[string, *entity.Order](
		"order",
		cfg.Capacity,
		log.With("component", "cache"),
		metrics.Cache(),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initCache: %w", err)
	}
	orderCache.StartCleanup(cfg.CleanupInterval)
	return orderCache, nil
}

func stopCache(orderCache cache.Cache[string, *entity.Order]) {
	if orderCache != nil {
		orderCache.StopCleanup()
	}
}

func initLimiter(
	cfg *config.RateLimit,
	log logger.Logger,
	metrics metric.Factory,
) (*ratelimit.Limiter, error) {
	limiter, err := ratelimit.NewLimiter(
		log.With("component", "rate limiter"),
		metrics.RateLimit(),
		ratelimit.SweepInterval(cfg.SweepInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initLimiter: %w", err)
	}
	limiter.StartSweep()
	return limiter, nil
}

func initNotifier(cfg *config.Redis, log logger.Logger) (*cacheinval.Notifier, error) {
	notifier, err := cacheinval.NewNotifier(
		cacheinval.Config{
			Addr:      cfg.Addr,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
		},
		log.With("component", "cache invalidation"),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initNotifier: %w", err)
	}
	return notifier, nil
}

func initPublisher(
	cfg *config.Config,
	log logger.Logger,
	metrics metric.Factory,
) (*events.Publisher, error) {
	writer, err := kafka.NewKafkaWriter(
		kafka.WriterConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		},
		log.With("component", "kafka writer"),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initPublisher: %w", err)
	}
	return events.NewPublisher(writer, log.With("component", "event publisher"), metrics.Events()), nil
}

func initIntakeService(
	cfg *config.Config,
	db *postgres.Postgres,
	txManager transaction.Manager,
	orderCache cache.Cache[string, *entity.Order],
	notifier *cacheinval.Notifier,
	publisher *events.Publisher,
	log logger.Logger,
) *service.IntakeService {
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)

	return service.NewIntakeService(
		customerRepo,
		orderRepo,
		productRepo,
		txManager,
		notifier,
		publisher,
		log.With("component", "intake service"),
		orderCache,
		cfg.Cache.TTL,
		service.QueryTimeout(cfg.Postgres.QueryTimeout),
		service.DuplicateWindow(cfg.RateLimit.DuplicateWindow),
	)
}

func initHTTPServer(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Config,
	intakeService *service.IntakeService,
	limiter *ratelimit.Limiter,
	log logger.Logger,
	metrics metric.Factory,
) error {
	resolver := authz.NewResolver(cfg.Auth.JWTSecret)

	httpServer, err := httpt.NewHTTPServer(
		httpt.NewOrderHandler(intakeService, resolver, limiter, cfg, log, metrics.HTTP()),
		&cfg.HTTP,
		log.With("component", "http server"),
	)
	if err != nil {
		return fmt.Errorf("app.initHTTPServer: %w", err)
	}

	eg.Go(func() error {
		return httpServer.Start(ctx)
	})
	return nil
}

func waitForShutdown(eg *errgroup.Group) error {
	if err := eg.Wait(); err != nil && !isShutdownSignal(err) {
		return fmt.Errorf("app.waitForShutdown: application failed: %w", err)
	}
	return nil
}

func isShutdownSignal(err error) bool {
	return err != nil && err.Error() == "shutdown signal"
}
