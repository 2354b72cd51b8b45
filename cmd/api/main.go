package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voyago/internal/api"
	"voyago/internal/auth"
	"voyago/internal/config"
	"voyago/internal/database"
	"voyago/internal/domain"
	"voyago/internal/events"
	"voyago/internal/export"
	"voyago/internal/logging"
	"voyago/internal/metrics"
	"voyago/internal/notify"
	"voyago/internal/payment"
	"voyago/internal/repository"
	"voyago/internal/service"
	"voyago/internal/sheets"
	"voyago/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := buildCache(redisClient, &logger)

	ledger := initLedger(cfg, &logger)
	bus := events.NewEventBus()

	var syncWorker domain.SyncWorker
	var ledgerWorker *worker.LedgerWorker
	if ledger != nil {
		ledgerWorker = worker.NewLedgerWorker(db, ledger, redisClient, worker.RetryPolicy{}, cfg.Worker.PollInterval, cfg.Worker.BatchSize, &logger)
		syncWorker = ledgerWorker
	}

	provider := payment.NewClient(cfg.Payment, &logger)

	bookingService := service.NewBookingService(db, cache, bus, syncWorker, &logger)
	paymentService := service.NewPaymentService(db, provider, bookingService, bus, syncWorker, cfg.Payment.Currency, &logger)
	catalogService := service.NewCatalogService(db, cache, &logger)
	userService := service.NewUserService(db, &logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	initNotifier(cfg, bus, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ledgerWorker != nil {
		go ledgerWorker.Start(ctx)
	}

	reconciler := worker.NewReconciler(db, provider, paymentService, cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileAfter, &logger)
	go reconciler.Start(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	server := api.NewServer(*cfg, catalogService, bookingService, paymentService, userService, tokens, exporter, &logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// buildCache layers redis over the in-memory cache; without redis the
// in-memory cache serves alone.
func buildCache(redisClient *redis.Client, logger *zerolog.Logger) domain.Cache {
	memory := repository.NewMemoryCache()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverCache(repository.NewRedisCache(redisClient), memory, logger)
}

func initLedger(cfg *config.Config, logger *zerolog.Logger) *sheets.LedgerService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.LedgerSpreadSheetID == "" {
		return nil
	}

	ledger, err := sheets.NewLedgerService(cfg.Google.CredentialsFile, cfg.Google.LedgerSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("ledger init failed, continuing without spreadsheet mirror")
		return nil
	}

	logger.Info().Msg("ledger spreadsheet connected")
	return ledger
}

func initNotifier(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.OpsChatID == 0 {
		return
	}

	bot, err := notify.NewBot(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}

	notifier := notify.NewNotifier(bot, cfg.Telegram.OpsChatID, logger)
	notifier.Subscribe(bus)
	logger.Info().Msg("telegram notifier connected")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
