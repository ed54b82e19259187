package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rankfeed/rankfeed/internal/api"
	"github.com/rankfeed/rankfeed/internal/config"
	"github.com/rankfeed/rankfeed/internal/leaderboard"
	"github.com/rankfeed/rankfeed/internal/realtime"
	"github.com/rankfeed/rankfeed/internal/relay"
)

// newLogger builds the process logger at the configured level.
func newLogger(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Sugar().Fatalw("loading config", "error", err)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Sugar().Fatalw("building logger", "error", err)
	}
	defer log.Sync()

	instanceID := uuid.NewString()
	log.Infow("starting rankfeed", "instance", instanceID, "addr", cfg.Addr)

	// Backing store
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalw("parsing redis url", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatalw("connecting to redis", "error", err)
	}
	cancelPing()
	log.Infow("redis connected")

	// Core engine
	part, err := leaderboard.NewPartitioner(cfg.TimeZone)
	if err != nil {
		log.Fatalw("building partitioner", "error", err)
	}
	engine := leaderboard.NewEngine(rdb, part, log, leaderboard.Options{
		DefaultTopN: cfg.DefaultTopN,
		MaxTopN:     cfg.MaxTopN,
		CacheTTL:    cfg.TopCacheTTL(),
	})

	// Realtime transport
	hub := realtime.NewHub(log)
	go hub.Run()
	handler := realtime.NewHandler(hub, engine, cfg.PushTopN, cfg.MaxTopN, log)

	// Cross-instance relay (optional)
	producer, err := relay.NewProducer(cfg.BrokerList(), cfg.KafkaTopic, log)
	if err != nil {
		log.Fatalw("building relay producer", "error", err)
	}
	defer producer.Close()

	if producer.IsEnabled() {
		consumer, err := relay.NewConsumer(cfg.BrokerList(), cfg.KafkaTopic, instanceID, hub, log)
		if err != nil {
			log.Warnw("relay consumer not available", "error", err)
		} else {
			consumer.Start()
			defer consumer.Stop()
		}
	}

	bridge := relay.NewBridge(hub, producer, instanceID, log)

	// Fanout and rollover notifications
	broadcaster := realtime.NewBroadcaster(bridge, engine, cfg.CoalesceWindow(), cfg.PushTopN, log)
	defer broadcaster.Close()

	rolloverCtx, stopRollover := context.WithCancel(context.Background())
	defer stopRollover()
	go realtime.NewRolloverNotifier(part, bridge, log).Run(rolloverCtx)

	// HTTP router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	allowedOrigins := []string{cfg.CORSOrigin}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: cfg.CORSOrigin != "*",
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		apiHandlers := api.NewHandlers(engine, broadcaster, hub, producer.IsEnabled(), log)
		apiHandlers.RegisterRoutes(r)
	})

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		realtime.ServeWs(hub, handler, log, w, req)
	})

	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalw("forced shutdown", "error", err)
	}

	log.Infow("server exited")
}
