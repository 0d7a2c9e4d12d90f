package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sla-service/internal/api"
	"sla-service/internal/config"
	"sla-service/internal/db"
	"sla-service/internal/db/sqlite"
	"sla-service/internal/definitions"
	"sla-service/internal/kafka"
	"sla-service/internal/logging"
	"sla-service/internal/metrics"
	"sla-service/internal/monitor"
	"sla-service/internal/notification"
	"sla-service/internal/providers"
	"sla-service/internal/scheduler"
	"sla-service/internal/stats"
	"sla-service/internal/store"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed: ", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatal("Logger init failed: ", err)
	}
	defer logger.Close()

	ctx := context.Background()

	// Open store
	st, locker, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Store init failed: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Errorf("Store close failed: %v", err)
		}
	}()
	logger.Infof("Using %s store", cfg.Store.Driver)

	// Load SLA definitions
	registry := definitions.Default()
	if cfg.Monitor.DefinitionsFile != "" {
		registry, err = definitions.LoadFile(cfg.Monitor.DefinitionsFile)
		if err != nil {
			logger.Fatalf("Definitions load failed: %v", err)
		}
	}
	logger.Infof("Loaded %d SLA definitions", len(registry.Categories()))

	// Metrics
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(promReg); err != nil {
		logger.Fatalf("Metrics init failed: %v", err)
	}

	// Notification sinks
	hub := notification.NewHub(logger)
	sinks := []notification.Sink{hub}
	kafkaCfg := kafka.Config{
		Broker:      cfg.Kafka.Broker,
		EventsTopic: cfg.Kafka.EventsTopic,
		NotifyTopic: cfg.Kafka.NotifyTopic,
		GroupID:     cfg.Kafka.GroupID,
	}
	var producer *kafka.Producer
	if cfg.Kafka.Enabled && cfg.Kafka.NotifyTopic != "" {
		producer = kafka.NewProducer(kafkaCfg)
		sinks = append(sinks, producer)
	}
	if cfg.Telegram.BotToken != "" {
		tg, err := providers.NewTelegram(providers.TelegramConfig{
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
			RateLimit: cfg.Telegram.RateLimit,
		}, logger)
		if err != nil {
			logger.Fatalf("Telegram init failed: %v", err)
		}
		sinks = append(sinks, tg)
	}

	var wg sync.WaitGroup
	dispatcher := notification.NewDispatcher(logger, cfg.Notification.QueueSize, cfg.Notification.MaxWorkers, cfg.Notification.Timeout, sinks...)
	dispatcher.Start(&wg)

	// Monitor
	mon := monitor.New(st, registry, dispatcher, logger)
	if n, err := mon.Restore(ctx); err != nil {
		logger.Errorf("Restore finished with errors (%d restored): %v", n, err)
	}

	// Periodic work
	aggregator := stats.New(st, registry, logger, cfg.Monitor.StatsWindow)
	sched := scheduler.NewTicker(logger)
	if locker != nil {
		sched.SetLocker(locker)
	}
	sched.Every("sweep", cfg.Monitor.SweepInterval, func(ctx context.Context, now time.Time) {
		mon.Sweep(ctx, now)
	})
	sched.Every("statistics", cfg.Monitor.StatsInterval, func(ctx context.Context, now time.Time) {
		if _, err := aggregator.Run(ctx, now); err != nil {
			logger.Errorf("Statistics run incomplete: %v", err)
		}
	})
	if err := sched.Start(); err != nil {
		logger.Fatalf("Scheduler start failed: %v", err)
	}

	// Kafka consumer
	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer = kafka.NewConsumer(kafkaCfg, mon, logger)
		consumer.Start(&wg)
		logger.Infof("Kafka consumer initialized with topic: %s", cfg.Kafka.EventsTopic)
	}

	// Start API server
	router := api.NewRouter(api.Deps{
		Monitor:  mon,
		Store:    st,
		Registry: registry,
		Hub:      hub,
		Gatherer: promReg,
		Logger:   logger,
		BasePath: cfg.API.BasePath,
	})
	srv := &http.Server{Addr: cfg.API.Port, Handler: router}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down")

	var result *multierror.Error
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	// let an in-flight sweep finish
	sched.Stop()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	// deliver notices queued by the last sweep before the workers exit
	dispatcher.Stop(cfg.Notification.Timeout + 5*time.Second)
	wg.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Errorf("Shutdown errors: %v", err)
	}
	logger.Info("Stopped")
}

// openStore opens the configured store. The PostgreSQL store also serves as
// the scheduler lock when SCHEDULER_LOCK is set.
func openStore(ctx context.Context, cfg config.Config) (store.Store, scheduler.Locker, error) {
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := db.New(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Monitor.SchedulerLock {
			return pg, pg, nil
		}
		return pg, nil, nil
	case "memory":
		return store.NewMemory(), nil, nil
	default:
		s, err := sqlite.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
}
