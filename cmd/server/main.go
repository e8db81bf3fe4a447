package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appevent "github.com/erp/ledger/internal/application/event"
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/storage"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			ERP Ledger API
//	@version		1.0
//	@description	Multi-tenant posting and reversal engine for double-entry vouchers, payments and invoice settlement.

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/ledger

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.App, cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry providers are no-ops when telemetry is disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize logs provider", zap.Error(err))
	}
	log = telemetry.BridgeLogger(log, logsProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	defer shutdownTelemetry(log, tracerProvider, meterProvider, logsProvider)

	log.Info("Starting ERP Ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database_driver", cfg.Database.Driver),
	)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLoggerFromConfig(log, cfg.Log, cfg.Telemetry))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database), log)
	if err := tracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Events: written to the outbox inside each posting transaction, relayed by the processor
	serializer := event.NewLedgerEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(serializer).WithMaxRetries(cfg.Event.MaxRetries)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	healthChecks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}

	var sink shared.EventSink = event.NewLogSink(log)
	if cfg.Event.Sink == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		streamSink := event.NewRedisStreamSink(client, cfg.Event.StreamName, cfg.Event.StreamMaxLen)
		defer func() {
			if err := streamSink.Close(); err != nil {
				log.Error("Error closing event stream", zap.Error(err))
			}
		}()
		healthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		sink = streamSink
		log.Info("Relaying events to Redis stream", zap.String("stream", cfg.Event.StreamName))
	}

	if cfg.Event.ProcessorEnabled {
		processorConfig := event.OutboxProcessorConfigFrom(cfg.Event)
		processor := event.NewOutboxProcessor(outboxRepo, sink, serializer, processorConfig, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Idempotency: the database mapping is authoritative, the cache shortcuts replays
	idempotencyCache, err := cache.NewIdempotencyCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx, cfg.Ledger.IdempotencyBackend)
	if err != nil {
		log.Fatal("Failed to create idempotency cache", zap.Error(err))
	}
	if idempotencyCache != nil {
		defer func() {
			_ = idempotencyCache.Close()
		}()
	}
	guard := appledger.NewIdempotencyGuard(idempotencyCache, shared.IdempotencyConfig{
		TTL:     cfg.Ledger.IdempotencyTTL,
		Enabled: idempotencyCache != nil,
	}, log)

	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:          meterProvider.Meter("ledger"),
		Logger:         log,
		OutboxProvider: outboxCounts{repo: outboxRepo},
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	ledgerMetrics.StartPeriodicCollection(ctx, time.Minute)
	defer ledgerMetrics.Stop()

	overrideActors, err := cfg.Ledger.OverrideActorIDs()
	if err != nil {
		log.Fatal("Invalid ledger configuration", zap.Error(err))
	}
	defaultCurrency, err := valueobject.ParseCurrency(cfg.Ledger.DefaultCurrency)
	if err != nil {
		log.Fatal("Invalid default currency", zap.Error(err))
	}

	deps := appledger.Dependencies{
		Scope:           scope,
		Guard:           guard,
		Authorizer:      appledger.NewStaticOverrideAuthorizer(overrideActors),
		Currencies:      valueobject.NewISOCurrencyPolicy(nil),
		DefaultCurrency: defaultCurrency,
		Numbering:       appledger.Numbering{ResetPolicy: accounting.ResetPolicy(cfg.Ledger.SequenceResetPolicy)},
		Metrics:         ledgerMetrics,
		Logger:          log,
	}

	// Application services
	voucherService := appledger.NewVoucherService(deps)
	postingService := appledger.NewPostingService(deps)
	reversalService := appledger.NewReversalService(deps)
	paymentService := appledger.NewPaymentAllocationService(deps)
	masterDataService := appledger.NewMasterDataService(deps)
	balanceService := appledger.NewBalanceService(
		persistence.NewGormLedgerBalanceRepository(db.DB),
		persistence.NewGormInvoiceRepository(db.DB),
	)
	outboxService := appevent.NewOutboxService(outboxRepo, log)

	// Period archives go to object storage; without a bucket the archive route is not mounted
	var archiveStore appledger.ArchiveStore
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create archive storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare archive bucket", zap.Error(err))
		}
		archiveStore = s3Storage
		log.Info("Period archive storage enabled", zap.String("bucket", s3Storage.Bucket()))
	}
	trialBalanceService := appledger.NewTrialBalanceService(
		persistence.NewGormAccountingPeriodRepository(db.DB),
		persistence.NewGormLedgerBalanceRepository(db.DB),
		persistence.NewGormLedgerAccountRepository(db.DB),
		archiveStore,
		log,
	)

	// Handlers
	voucherHandler := handler.NewVoucherHandler(voucherService, postingService, reversalService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	balanceHandler := handler.NewBalanceHandler(balanceService)
	masterDataHandler := handler.NewMasterDataHandler(masterDataService)
	trialBalanceHandler := handler.NewTrialBalanceHandler(trialBalanceService)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, healthChecks)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.Enabled,
		Logger:        log,
	}))

	engine.GET("/health", systemHandler.Health)

	// Ledger routes are tenant scoped; system routes are operator tooling
	ledgerScope := []gin.HandlerFunc{middleware.LedgerContext(), middleware.LedgerSpanAttributes()}
	ledgerRoutes := balanceHandler.LedgerRoutes(masterDataHandler.LedgerRoutes())
	periodRoutes := trialBalanceHandler.PeriodRoutes(masterDataHandler.PeriodRoutes())

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(
			voucherHandler.Routes().Use(ledgerScope...),
			paymentHandler.Routes().Use(ledgerScope...),
			ledgerRoutes.Use(ledgerScope...),
			balanceHandler.Routes().Use(ledgerScope...),
			periodRoutes.Use(ledgerScope...),
			trialBalanceHandler.Routes().Use(ledgerScope...),
			masterDataHandler.InvoiceRoutes().Use(ledgerScope...),
			systemHandler.Routes(outboxHandler),
		).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// outboxCounts adapts the outbox repository to the metrics collector
type outboxCounts struct {
	repo shared.OutboxRepository
}

func (o outboxCounts) OutboxCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := o.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out, nil
}

func shutdownTelemetry(log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider, lp *telemetry.LoggerProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := lp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logs provider", zap.Error(err))
	}
}
