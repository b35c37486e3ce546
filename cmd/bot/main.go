package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"course_catalog_bot/internal/admin"
	"course_catalog_bot/internal/catalog"
	"course_catalog_bot/internal/config"
	"course_catalog_bot/internal/dispatch"
	"course_catalog_bot/internal/feature/user"
	"course_catalog_bot/internal/health"
	"course_catalog_bot/internal/logging"
	"course_catalog_bot/internal/membership"
	"course_catalog_bot/internal/metrics"
	"course_catalog_bot/internal/session"
	"course_catalog_bot/internal/store"
	"course_catalog_bot/internal/telegram"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	redisPingTimeout       = 5 * time.Second
	counterSeedTimeout     = 5 * time.Second
	shutdownTimeout        = 10 * time.Second
)

var errTelegramStopped = errors.New("telegram client stopped before shutdown signal")

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"event": "config_error", "error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"event": "logger_error", "error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":             "startup",
		"mongo_db":          cfg.MongoDB,
		"operators":         len(cfg.AdminIDs),
		"required_channels": len(cfg.RequiredChannels),
	}).Info("configuration loaded")

	if err := run(cfg, logger); err != nil {
		logger.WithField("event", "fatal").WithError(err).Error("bot stopped with error")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

func run(cfg config.Config, logger *logrus.Entry) error {
	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("mongo connection error: %w", err)
	}
	defer closeMongo(mongoManager, logger)

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	err = mongoManager.EnsureBaseIndexes(indexCtx)
	cancelIndexes()
	if err != nil {
		return fmt.Errorf("mongo index setup error: %w", err)
	}

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	counters := store.NewCounters(mongoManager.Stats())
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), counterSeedTimeout)
	err = counters.EnsureDefaults(seedCtx)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("counter bootstrap error: %w", err)
	}

	sessions, redisTable, closeSessions, err := openSessions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	tgClient, err := telegram.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("telegram client setup error: %w", err)
	}
	transport := tgClient.Transport()

	catalogStore := store.NewCatalog(
		mongoManager.Years(),
		mongoManager.Terms(),
		mongoManager.Courses(),
		mongoManager.Files(),
		store.NewSequences(mongoManager.Sequences()),
	)
	users := store.NewUserRepository(mongoManager.Users())
	registrar := user.NewRegistrar(mongoManager.Users(), counters, logger.WithField("component", "registrar"))

	navigator := catalog.NewNavigator(
		catalogStore,
		store.NewStatsProvider(counters, mongoManager.Files()),
		transport,
		cfg.StatsTopCourses,
		logger.WithField("component", "navigator"),
	)

	workflow := admin.NewWorkflow(admin.Deps{
		Catalog:    catalogStore,
		Users:      users,
		Moderator:  registrar,
		Switch:     counters,
		Sessions:   sessions,
		Messenger:  transport,
		Metrics:    recorder,
		IsOperator: cfg.IsOperator,
		Logger:     logger.WithField("component", "admin"),
	})

	dispatcher := dispatch.New(dispatch.Deps{
		Switch:       counters,
		Bans:         users,
		Registrar:    registrar,
		Gate:         membership.NewGate(transport, transport, cfg.RequiredChannels, logger.WithField("component", "membership")),
		Navigator:    navigator,
		Admin:        workflow,
		Messenger:    transport,
		Acknowledger: transport,
		Metrics:      recorder,
		Operators:    cfg.AdminIDs,
		Logger:       logger.WithField("component", "dispatcher"),
	})
	tgClient.SetHandler(dispatcher)

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	deps := health.Dependencies{Mongo: mongoManager, Gatherer: registry}
	if redisTable != nil {
		deps.Sessions = redisTable
	}
	healthServer := health.NewServer(cfg.HTTPPort, deps, logger)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(signalCtx)

	group.Go(healthServer.ListenAndServe)

	group.Go(func() error {
		tgClient.Start(groupCtx)
		if signalCtx.Err() == nil && groupCtx.Err() == nil {
			logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
			return errTelegramStopped
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.WithField("event", "shutdown_signal").Info("stopping health server and telegram polling")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithField("event", "health_shutdown_error").WithError(err).Warn("health server shutdown error")
		}
		return nil
	})

	return group.Wait()
}

// openSessions picks the pending action backend. Redis is used when configured
// so pending actions survive a restart.
func openSessions(cfg config.Config, logger *logrus.Entry) (session.Table, *session.RedisTable, func(), error) {
	if cfg.RedisURL == "" {
		logger.WithFields(logging.Fields{
			"event":       "sessions_memory",
			"pending_ttl": cfg.PendingTTL.String(),
		}).Info("keeping pending actions in memory")
		return session.NewMemoryTable(cfg.PendingTTL), nil, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	table := session.NewRedisTable(client, cfg.PendingTTL)

	pingCtx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	err = table.Ping(pingCtx)
	cancel()
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("redis connection error: %w", err)
	}

	logger.WithFields(logging.Fields{
		"event":       "sessions_redis",
		"pending_ttl": cfg.PendingTTL.String(),
	}).Info("keeping pending actions in redis")

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.WithField("event", "redis_close_error").WithError(err).Warn("redis close error")
		}
	}
	return table, table, closeFn, nil
}

func closeMongo(m *store.Manager, logger *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()

	if err := m.Close(ctx); err != nil {
		logger.WithField("event", "mongo_disconnect_error").WithError(err).Error("mongo disconnect error")
		return
	}
	logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
}
