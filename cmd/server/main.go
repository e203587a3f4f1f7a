package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/riftledger/stats-api/internal/config"
	"github.com/riftledger/stats-api/internal/handlers"
	"github.com/riftledger/stats-api/internal/logic"
	"github.com/riftledger/stats-api/internal/riot"
	"github.com/riftledger/stats-api/internal/store"
	"github.com/riftledger/stats-api/internal/syncer"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("logger: " + err.Error())
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	roster, err := config.LoadRoster(cfg.RosterPath)
	if err != nil {
		sugar.Fatalw("Failed to load roster", "path", cfg.RosterPath, "error", err)
	}
	sugar.Infow("Roster loaded", "players", len(roster.Entries()))

	st, err := openStore(ctx, cfg)
	if err != nil {
		sugar.Fatalw("Failed to open store", "error", err)
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		sugar.Fatalw("Failed to initialize schema", "error", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("Invalid REDIS_URL", "error", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			sugar.Warnw("Redis unreachable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	riotClient := riot.NewClient(riot.Config{
		APIKey:        cfg.RiotAPIKey,
		RegionHost:    cfg.RiotRegion,
		PlatformHost:  cfg.RiotPlatform,
		RatePerSecond: cfg.RiotRatePerSecond,
		RatePer2Min:   cfg.RiotRatePer2Min,
		Logger:        logger,
	})

	aggregator := logic.Aggregator{SeasonStart: cfg.SeasonStartMs}
	ranker := logic.Ranker{
		MinGames:         cfg.MinGamesForBest,
		MinChampionGames: cfg.MinChampionGames,
	}

	sync := syncer.New(syncer.Config{
		Riot:       riotClient,
		Store:      st,
		Roster:     roster,
		Aggregator: aggregator,
		QueueID:    cfg.QueueID,
		PageSize:   cfg.SyncPageSize,
		BatchSize:  cfg.SyncBatchSize,
		Logger:     logger,
	})

	h := handlers.New(handlers.Config{
		Store:      st,
		Sync:       sync,
		Roster:     roster,
		Redis:      redisClient,
		Logger:     logger,
		Aggregator: aggregator,
		Ranker:     ranker,
		CacheTTL:   cfg.DashboardCacheTTL,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/player/{gameName}", h.Player)
		r.Get("/team", h.Team)
		r.Get("/records", h.Records)
		r.Post("/sync", h.TriggerSync)
		r.Get("/sync", h.SyncStatus)
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("Server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Graceful shutdown failed", "error", err)
	}
	sugar.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return store.OpenSQLite(cfg.SQLitePath)
}
