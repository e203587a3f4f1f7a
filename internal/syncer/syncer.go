// Package syncer pulls fresh data from the Riot API into the store and
// recomputes aggregated stats. Runs are serialized: a sync triggered while
// another is in flight is rejected rather than queued, since back-to-back
// runs would fetch nothing new.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/riftledger/stats-api/internal/config"
	"github.com/riftledger/stats-api/internal/logic"
	"github.com/riftledger/stats-api/internal/models"
	"github.com/riftledger/stats-api/internal/riot"
	"github.com/riftledger/stats-api/internal/store"
)

// Prometheus metrics
var (
	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Total number of sync runs by outcome",
	}, []string{"status"})

	syncMatchesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_matches_fetched_total",
		Help: "Total number of new matches fetched from the Riot API",
	})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of full sync runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// ErrSyncInProgress is returned when a sync is requested while one is
// already running.
var ErrSyncInProgress = errors.New("sync already in progress")

// RiotAPI is the subset of the Riot client the syncer needs.
type RiotAPI interface {
	SummonerByPuuid(ctx context.Context, puuid string) (*models.Summoner, error)
	LeagueEntriesByPuuid(ctx context.Context, puuid string) ([]models.LeagueEntry, error)
	MatchIDs(ctx context.Context, puuid string, queue, start, count int, startTime int64) ([]string, error)
	Match(ctx context.Context, matchID string) (json.RawMessage, error)
}

// Config configures a Syncer.
type Config struct {
	Riot       RiotAPI
	Store      store.Store
	Roster     *config.Roster
	Aggregator logic.Aggregator
	QueueID    int
	PageSize   int
	BatchSize  int
	Logger     *zap.Logger
}

// Result summarizes a completed sync run.
type Result struct {
	RunID          string        `json:"runId"`
	PlayersSynced  int           `json:"playersSynced"`
	MatchesFetched int           `json:"matchesFetched"`
	Duration       time.Duration `json:"-"`
	DurationMs     int64         `json:"durationMs"`
}

// Syncer coordinates Riot fetches, storage and re-aggregation.
type Syncer struct {
	riot       RiotAPI
	store      store.Store
	roster     *config.Roster
	aggregator logic.Aggregator
	queueID    int
	pageSize   int
	batchSize  int
	logger     *zap.SugaredLogger
	running    atomic.Bool
}

// New creates a Syncer.
func New(cfg Config) *Syncer {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Syncer{
		riot:       cfg.Riot,
		store:      cfg.Store,
		roster:     cfg.Roster,
		aggregator: cfg.Aggregator,
		queueID:    cfg.QueueID,
		pageSize:   cfg.PageSize,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger.Sugar(),
	}
}

// Running reports whether a sync is currently in flight.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// SyncAll syncs every roster member sequentially, then records the run in
// the sync log. Only one run may be in flight at a time.
func (s *Syncer) SyncAll(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	return s.run(ctx, s.roster.Entries())
}

// SyncPlayer syncs a single roster member. Shares the in-flight guard with
// SyncAll.
func (s *Syncer) SyncPlayer(ctx context.Context, entry config.RosterEntry) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	return s.run(ctx, []config.RosterEntry{entry})
}

func (s *Syncer) run(ctx context.Context, entries []config.RosterEntry) (*Result, error) {
	started := time.Now()
	res := &Result{RunID: uuid.NewString()}

	s.logger.Infow("Sync started", "runId", res.RunID, "players", len(entries))

	var runErr error
	for _, entry := range entries {
		fetched, err := s.syncPlayer(ctx, entry)
		res.MatchesFetched += fetched
		if err != nil {
			runErr = fmt.Errorf("syncing %s: %w", entry.GameName, err)
			break
		}
		res.PlayersSynced++
	}

	res.Duration = time.Since(started)
	res.DurationMs = res.Duration.Milliseconds()
	syncDuration.Observe(res.Duration.Seconds())
	syncMatchesFetched.Add(float64(res.MatchesFetched))

	log := store.SyncLog{
		ID:             res.RunID,
		StartedAt:      started,
		FinishedAt:     time.Now(),
		Status:         store.SyncStatusOK,
		PlayersSynced:  res.PlayersSynced,
		MatchesFetched: res.MatchesFetched,
	}
	if runErr != nil {
		log.Status = store.SyncStatusFailed
		log.Error = runErr.Error()
	}
	if err := s.store.RecordSync(ctx, log); err != nil {
		s.logger.Errorw("Failed to record sync log", "runId", res.RunID, "error", err)
	}
	syncRuns.WithLabelValues(log.Status).Inc()

	if runErr != nil {
		s.logger.Errorw("Sync failed",
			"runId", res.RunID,
			"playersSynced", res.PlayersSynced,
			"error", runErr,
		)
		return res, runErr
	}

	s.logger.Infow("Sync finished",
		"runId", res.RunID,
		"playersSynced", res.PlayersSynced,
		"matchesFetched", res.MatchesFetched,
		"duration", res.Duration,
	)
	return res, nil
}

// syncPlayer refreshes one player's ranked snapshot, fetches missing
// matches and recomputes aggregated stats. Returns the number of matches
// fetched from the API.
func (s *Syncer) syncPlayer(ctx context.Context, entry config.RosterEntry) (int, error) {
	s.refreshRanked(ctx, entry)

	ids, err := s.allMatchIDs(ctx, entry.Puuid)
	if err != nil {
		return 0, fmt.Errorf("listing match ids: %w", err)
	}

	known, err := s.store.KnownMatchIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("checking known matches: %w", err)
	}
	linked, err := s.store.LinkedMatchIDs(ctx, entry.Puuid)
	if err != nil {
		return 0, fmt.Errorf("checking linked matches: %w", err)
	}

	var toFetch, toLink []string
	for _, id := range ids {
		switch {
		case !known[id]:
			toFetch = append(toFetch, id)
		case !linked[id]:
			toLink = append(toLink, id)
		}
	}

	s.logger.Infow("Player sync plan",
		"player", entry.GameName,
		"total", len(ids),
		"toFetch", len(toFetch),
		"toLink", len(toLink),
	)

	fetched, err := s.fetchMatches(ctx, entry.Puuid, toFetch)
	if err != nil {
		return fetched, err
	}

	for _, id := range toLink {
		if err := s.store.LinkPlayerMatch(ctx, entry.Puuid, id); err != nil {
			return fetched, fmt.Errorf("linking match %s: %w", id, err)
		}
	}

	matches, err := s.store.MatchesForPlayer(ctx, entry.Puuid)
	if err != nil {
		return fetched, fmt.Errorf("loading matches for aggregation: %w", err)
	}
	stats := s.aggregator.Aggregate(entry.Puuid, matches)
	if err := s.store.UpsertPlayerStats(ctx, entry.Puuid, stats); err != nil {
		return fetched, fmt.Errorf("storing aggregated stats: %w", err)
	}

	return fetched, nil
}

// refreshRanked updates the player's ranked snapshot and profile icon.
// Failures are logged and swallowed: a stale snapshot must not block the
// match sync.
func (s *Syncer) refreshRanked(ctx context.Context, entry config.RosterEntry) {
	var profileIcon int
	if summ, err := s.riot.SummonerByPuuid(ctx, entry.Puuid); err != nil {
		s.logger.Warnw("Failed to refresh summoner", "player", entry.GameName, "error", err)
	} else {
		profileIcon = summ.ProfileIconID
	}

	entries, err := s.riot.LeagueEntriesByPuuid(ctx, entry.Puuid)
	if err != nil {
		s.logger.Warnw("Failed to refresh ranked entry", "player", entry.GameName, "error", err)
		return
	}

	queueType := queueTypeForID(s.queueID)
	for _, le := range entries {
		if le.QueueType != queueType {
			continue
		}
		snap := store.RankedSnapshot{
			Puuid:         entry.Puuid,
			Tier:          le.Tier,
			Division:      le.Rank,
			LeaguePoints:  le.LeaguePoints,
			Wins:          le.Wins,
			Losses:        le.Losses,
			ProfileIconID: profileIcon,
			FetchedAt:     time.Now(),
		}
		if err := s.store.UpsertRankedSnapshot(ctx, snap); err != nil {
			s.logger.Warnw("Failed to store ranked snapshot", "player", entry.GameName, "error", err)
		}
		return
	}
	s.logger.Infow("Player has no ranked entry for queue", "player", entry.GameName, "queueType", queueType)
}

// allMatchIDs pages through the match id list until a short page.
func (s *Syncer) allMatchIDs(ctx context.Context, puuid string) ([]string, error) {
	startTime := s.aggregator.SeasonStart / 1000

	var all []string
	for start := 0; ; start += s.pageSize {
		page, err := s.riot.MatchIDs(ctx, puuid, s.queueID, start, s.pageSize, startTime)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
	}
}

// fetchMatches downloads and stores matches concurrently, bounded by the
// batch size. The rate limiter inside the Riot client provides the real
// throttle; the bound just caps in-flight requests.
func (s *Syncer) fetchMatches(ctx context.Context, puuid string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var fetched atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchSize)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			raw, err := s.riot.Match(gctx, id)
			if err != nil {
				if errors.Is(err, riot.ErrNotFound) {
					s.logger.Warnw("Match vanished from API, skipping", "matchId", id)
					return nil
				}
				return fmt.Errorf("fetching match %s: %w", id, err)
			}

			var m models.Match
			if err := json.Unmarshal(raw, &m); err != nil {
				return fmt.Errorf("decoding match %s: %w", id, err)
			}

			if err := s.store.UpsertMatch(gctx, store.StoredMatch{
				MatchID:      m.Metadata.MatchID,
				QueueID:      m.Info.QueueID,
				GameCreation: m.Info.GameCreation,
				GameStart:    m.Info.GameStartTimestamp,
				GameDuration: m.Info.GameDuration,
				Raw:          raw,
			}); err != nil {
				return fmt.Errorf("storing match %s: %w", id, err)
			}
			if err := s.store.LinkPlayerMatch(gctx, puuid, m.Metadata.MatchID); err != nil {
				return fmt.Errorf("linking match %s: %w", id, err)
			}
			fetched.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(fetched.Load()), err
}

// queueTypeForID maps a match-v5 queue id to the league-v4 queue type
// string.
func queueTypeForID(queueID int) string {
	switch queueID {
	case 420:
		return "RANKED_SOLO_5x5"
	case 440:
		return "RANKED_FLEX_SR"
	default:
		return "RANKED_FLEX_SR"
	}
}
