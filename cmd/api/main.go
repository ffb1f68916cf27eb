package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/appconfig"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/broadcast"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/clickredirect"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/config"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/delivery"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/gateway"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/http/handlers"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/http/router"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbound"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbox"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inboxcache"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/keywords"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/links"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/linktokenizer"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/lists"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/notifier"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/observability/metrics"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phonelock"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/subscribers"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/wiring"
	"github.com/RabowNicholas/sanctuary-sms-tool/migrations"
	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting sanctuary sms tool", "env", cfg.Env, "port", cfg.Port)

	if issues := cfg.SMSProviderIssues(); len(issues) > 0 {
		for _, issue := range issues {
			logger.Error("SMS provider misconfiguration", "issue", issue)
		}
	}

	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	pool := connectPostgresPool(appCtx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	sqlDB := connectSQLDB(pool, logger)
	if sqlDB != nil {
		defer sqlDB.Close()
		runAutoMigrate(sqlDB, logger)
	}

	redisClient := connectRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	locker := phonelock.New(redisClient)

	var gw gateway.SMSGateway
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		gw = gateway.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}

	var notify notifier.Notifier
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		notify = notifier.NewSlack(cfg.SlackBotToken, cfg.SlackChannel, logger)
	}

	subscribersRepo := subscribers.NewRepository(pool)
	listsRepo := lists.NewRepository(pool)
	keywordsRepo := keywords.NewRepository(pool)
	messagesRepo := messages.NewRepository(pool)
	appConfigRepo := appconfig.NewRepository(pool)
	linksRepo := links.NewRepository(pool)
	broadcastRepo := broadcast.NewRepository(pool)

	subscriberSvc := subscribers.NewService(subscribersRepo, pool, listsRepo)
	keywordSvc := keywords.NewService(keywordsRepo, func(ctx context.Context, id uuid.UUID) (bool, error) {
		_, err := listsRepo.GetByID(ctx, id)
		if errors.Is(err, lists.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})

	inboundProcessor := inbound.New(
		&wiring.SubscriberRepo{Repo: subscribersRepo},
		&wiring.ListEnroller{Repo: listsRepo},
		&wiring.ActiveKeywordLister{Repo: keywordsRepo},
		cfg.DefaultWelcomeMessage,
	)

	tokenizer := linktokenizer.New(&wiring.LinkCreator{Repo: linksRepo}, cfg.ShortLinkBase(), wiring.IsLinkConflict, logger)

	broadcastEngine := broadcast.New(
		&wiring.AudienceResolver{Subscribers: subscribersRepo, Lists: listsRepo},
		&wiring.BroadcastGateway{GW: gw},
		&wiring.LinkTokenizer{Tokenizer: tokenizer},
		&wiring.MessageRecorder{Repo: messagesRepo},
		broadcastRepo,
		cfg.CostPerSegment,
		cfg.BroadcastWorkerConcurrency,
		func(outcome string) { appMetrics.ObserveBroadcastRecipient(outcome) },
		logger,
	)

	reconciler := delivery.New(messagesRepo, logger)
	redirector := clickredirect.New(&wiring.ClickStore{Repo: linksRepo}, logger)
	inboxProjector := inbox.NewWithCache(&wiring.InboxStore{Subscribers: subscribersRepo, Messages: messagesRepo}, inboxcache.New(redisClient))

	h := &handlers.Handlers{
		Subscribers:   subscribersRepo,
		SubscriberSvc: subscriberSvc,
		Lists:         listsRepo,
		Keywords:      keywordsRepo,
		KeywordSvc:    keywordSvc,
		Messages:      messagesRepo,
		AppConfig:     appConfigRepo,
		Links:         linksRepo,

		Inbound:       inboundProcessor,
		Broadcast:     broadcastEngine,
		BroadcastRepo: broadcastRepo,
		Reconciler:    reconciler,
		Redirector:    redirector,
		Inbox:         inboxProjector,

		Gateway:  gw,
		Notifier: notify,
		Pool:     pool,
		Locker:   locker,

		Logger:  logger,
		Metrics: appMetrics,

		PublicBaseURL:          cfg.PublicBaseURL,
		WebhookBaseURL:         cfg.PublicBaseURL,
		AdminPhoneNumber:       cfg.AdminPhoneNumber,
		EnableSMSNotifications: cfg.EnableSMSNotifications,
		WebhookSignatureVerify: cfg.WebhookSignatureVerify,
	}

	routerCfg := &router.Config{
		Handlers:           h,
		Logger:             logger,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminAuthSecret:    cfg.AdminJWTSecret,
	}
	mux := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func connectPostgresPool(ctx context.Context, dbURL string, logger *logging.Logger) *pgxpool.Pool {
	if dbURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to postgres")
	return pool
}

func connectSQLDB(pool *pgxpool.Pool, logger *logging.Logger) *sql.DB {
	if pool == nil {
		return nil
	}
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("sql db wrapper initialized")
	return db
}

func runAutoMigrate(db *sql.DB, logger *logging.Logger) {
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logger.Error("auto-migrate: failed to open migrations source", "error", err)
		return
	}
	dbDriver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		logger.Error("auto-migrate: failed to create db driver", "error", err)
		return
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		logger.Error("auto-migrate: failed to create migrator", "error", err)
		return
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("auto-migrate: migration failed", "error", err)
		return
	}
	logger.Info("auto-migrate: database migrations applied")
}

func connectRedis(cfg *config.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, per-phone locking and unread caching disabled", "error", err)
		return nil
	}
	logger.Info("connected to redis")
	return client
}
