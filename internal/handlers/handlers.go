package handlers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/riftledger/stats-api/internal/config"
	"github.com/riftledger/stats-api/internal/logic"
	"github.com/riftledger/stats-api/internal/models"
	"github.com/riftledger/stats-api/internal/store"
	"github.com/riftledger/stats-api/internal/syncer"
)

// StatsStore is the subset of the store the HTTP layer reads from.
type StatsStore interface {
	MatchesForPlayer(ctx context.Context, puuid string) ([]models.Match, error)
	PlayerStats(ctx context.Context, puuid string) (*models.PlayerAggregatedStats, error)
	RankedSnapshot(ctx context.Context, puuid string) (*store.RankedSnapshot, error)
	Stats(ctx context.Context) (store.DBStats, error)
	LastSync(ctx context.Context) (*store.SyncLog, error)
	Ping(ctx context.Context) error
}

// SyncService triggers data refreshes.
type SyncService interface {
	SyncAll(ctx context.Context) (*syncer.Result, error)
	SyncPlayer(ctx context.Context, entry config.RosterEntry) (*syncer.Result, error)
	Running() bool
}

type Config struct {
	Store      StatsStore
	Sync       SyncService
	Roster     *config.Roster
	Redis      *redis.Client // optional, nil disables caching
	Logger     *zap.Logger
	Aggregator logic.Aggregator
	Ranker     logic.Ranker
	CacheTTL   time.Duration // zero uses the default
}

type Handler struct {
	store      StatsStore
	sync       SyncService
	roster     *config.Roster
	redis      *redis.Client
	logger     *zap.SugaredLogger
	aggregator logic.Aggregator
	ranker     logic.Ranker
	cacheTTL   time.Duration
}

func New(cfg Config) *Handler {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &Handler{
		store:      cfg.Store,
		sync:       cfg.Sync,
		roster:     cfg.Roster,
		redis:      cfg.Redis,
		logger:     cfg.Logger.Sugar(),
		aggregator: cfg.Aggregator,
		ranker:     cfg.Ranker,
		cacheTTL:   cfg.CacheTTL,
	}
}
