package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"replay-clips/internal/clips"
	"replay-clips/internal/platform/config"
	"replay-clips/internal/platform/logger"
	"replay-clips/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
)

const (
	shutdownTimeout = 10 * time.Second
	metricsPath     = "/metrics"
)

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	storeBackend := config.GetEnv("STORE_BACKEND", "memory")
	clipCfg := clips.Config{
		LeadMs:       config.GetEnvInt64("CLIP_LEAD_MS", clips.DefaultLeadMs),
		TrailMs:      config.GetEnvInt64("CLIP_TRAIL_MS", clips.DefaultTrailMs),
		FetchTimeout: config.GetEnvDuration("CLIP_FETCH_TIMEOUT", clips.DefaultFetchTimeout),
	}

	log := logger.New(logLevel, logFormat)

	store, closeStore, err := newStore(storeBackend, log)
	if err != nil {
		log.Error("store init failed", "backend", storeBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	repo := clips.NewRepositoryWithStore(store)
	svc := clips.NewService(repo, clipCfg, log)
	met := metrics.New()
	h := clips.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met, metricsPath))
	r.Get(metricsPath, func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() {
			n, err := svc.ActiveReplayCount(r.Context())
			if err != nil {
				log.Warn("active replay count failed", "error", err)
				return
			}
			met.SetActiveReplays(n)
		}).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"store_backend", storeBackend,
		"clip_lead_ms", clipCfg.LeadMs,
		"clip_trail_ms", clipCfg.TrailMs,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// newStore builds the replay Store for backend ("memory" or "redis") and a
// function releasing its resources.
func newStore(backend string, log *slog.Logger) (clips.Store, func(), error) {
	if backend != "redis" {
		return clips.NewInMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetEnvInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}

	log.Info("redis store connected", "addr", client.Options().Addr)
	return clips.NewRedisStore(client), func() { client.Close() }, nil
}
