package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/bufl/ledger/internal/adapter/http"
	"github.com/bufl/ledger/internal/adapter/http/handler"
	postgresRepo "github.com/bufl/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/bufl/ledger/internal/adapter/repository/redis"
	"github.com/bufl/ledger/internal/infrastructure/config"
	"github.com/bufl/ledger/internal/infrastructure/eventpublisher"
	"github.com/bufl/ledger/internal/infrastructure/logger"
	"github.com/bufl/ledger/internal/infrastructure/metrics"
	"github.com/bufl/ledger/internal/infrastructure/postgres"
	"github.com/bufl/ledger/internal/infrastructure/redis"
	"github.com/bufl/ledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// run connects the stores, starts the scheduler, the outbox publisher and
// the HTTP server, and blocks until ctx is cancelled or one of them fails.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	publisher, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	application := newApp(cfg, pool, redisClient, reg, log)

	eventPublisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: application.outboxRepo,
		Publisher:  publisher,
		Metrics:    application.metrics,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	if _, err := application.scheduler.Recover(ctx); err != nil {
		return fmt.Errorf("recover scheduled transfers: %w", err)
	}

	server := newHTTPServer(cfg, application.router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return application.scheduler.Run(gctx)
	})

	g.Go(func() error {
		if err := eventPublisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// app is the wired object graph behind the HTTP router.
type app struct {
	router     http.Handler
	scheduler  *usecase.SchedulerUseCase
	outboxRepo usecase.OutboxRepository
	metrics    *metrics.Metrics
}

func newApp(cfg *config.Config, pool *pgxpool.Pool, redisClient *goredis.Client, reg *prometheus.Registry, log zerolog.Logger) *app {
	m := metrics.New(reg)

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	scheduleRepo := postgresRepo.NewScheduledTransferRepository(pool)
	goalRepo := postgresRepo.NewGoalRepository(pool)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	salaryRepo := postgresRepo.NewSalaryRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier(log)
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)

	// Use cases
	engine := usecase.NewTransferUseCase(txManager, accountRepo, entryRepo, outboxRepo, idGen, retrier, m)
	scheduler := usecase.NewSchedulerUseCase(txManager, scheduleRepo, goalRepo, outboxRepo, engine, idGen, retrier, m, log,
		usecase.SchedulerConfig{
			PollInterval: cfg.SchedulerPollInterval,
			BatchSize:    cfg.SchedulerBatchSize,
			MaxLateness:  cfg.SchedulerMaxLateness,
		}).WithCache(cache)
	allocation := usecase.NewAllocationUseCase(usecase.AllocationDeps{
		TxManager:    txManager,
		AccountRepo:  accountRepo,
		SalaryRepo:   salaryRepo,
		CategoryRepo: categoryRepo,
		GoalRepo:     goalRepo,
		EntryRepo:    entryRepo,
		OutboxRepo:   outboxRepo,
		Engine:       engine,
		Scheduler:    scheduler,
		Cache:        cache,
		IDGen:        idGen,
		Retrier:      retrier,
		Metrics:      m,
		Logger:       log,
	}, usecase.AllocationConfig{
		SalarySplitDelay: cfg.SalarySplitDelay,
		ProgressTTL:      cfg.GoalProgressTTL,
	})
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, idGen, m)
	entryUC := usecase.NewEntryUseCase(entryRepo)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, ledgerRepo)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:    handler.NewAccountHandler(accountUC),
		TransferHandler:   handler.NewTransferHandler(engine, allocation, accountUC),
		EntryHandler:      handler.NewEntryHandler(entryUC, accountUC),
		ScheduleHandler:   handler.NewScheduleHandler(scheduler, accountUC),
		AllocationHandler: handler.NewAllocationHandler(allocation),
		GoalHandler:       handler.NewGoalHandler(allocation),
		LedgerHandler:     handler.NewLedgerHandler(ledgerUC, reconUC, accountUC),
		HealthHandler: handler.NewHealthHandler(map[string]handler.Checker{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return redis.Ready(ctx, redisClient)
			},
		}),
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		Gatherer:         reg,
		Logger:           log,
	})

	return &app{
		router:     router,
		scheduler:  scheduler,
		outboxRepo: outboxRepo,
		metrics:    m,
	}
}

// newPublisher publishes to AMQP when AMQP_URL is set and logs events
// otherwise.
func newPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		log.Warn().Msg("AMQP_URL not set, events will only be logged")
		return eventpublisher.NewLogPublisher(log), func() {}, nil
	}

	p, err := eventpublisher.NewAMQPPublisher(eventpublisher.AMQPConfig{
		URL:        cfg.AMQPURL,
		Exchange:   cfg.AMQPExchange,
		RoutingKey: cfg.AMQPRoutingKey,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to amqp: %w", err)
	}

	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close amqp publisher")
		}
	}, nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
