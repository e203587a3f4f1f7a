package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/riftledger/stats-api/internal/config"
	"github.com/riftledger/stats-api/internal/logic"
	"github.com/riftledger/stats-api/internal/models"
	"github.com/riftledger/stats-api/internal/store"
	"github.com/riftledger/stats-api/internal/syncer"
)

const (
	alicePuuid = "puuid-00000000-0000-0000-0000-00000000000a"
	bobPuuid   = "puuid-00000000-0000-0000-0000-00000000000b"
)

// mockStore implements StatsStore for testing
type mockStore struct {
	MatchesForPlayerFunc func(ctx context.Context, puuid string) ([]models.Match, error)
	PlayerStatsFunc      func(ctx context.Context, puuid string) (*models.PlayerAggregatedStats, error)
	RankedSnapshotFunc   func(ctx context.Context, puuid string) (*store.RankedSnapshot, error)
	StatsFunc            func(ctx context.Context) (store.DBStats, error)
	LastSyncFunc         func(ctx context.Context) (*store.SyncLog, error)
	PingFunc             func(ctx context.Context) error
}

func (m *mockStore) MatchesForPlayer(ctx context.Context, puuid string) ([]models.Match, error) {
	if m.MatchesForPlayerFunc != nil {
		return m.MatchesForPlayerFunc(ctx, puuid)
	}
	return []models.Match{}, nil
}

func (m *mockStore) PlayerStats(ctx context.Context, puuid string) (*models.PlayerAggregatedStats, error) {
	if m.PlayerStatsFunc != nil {
		return m.PlayerStatsFunc(ctx, puuid)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) RankedSnapshot(ctx context.Context, puuid string) (*store.RankedSnapshot, error) {
	if m.RankedSnapshotFunc != nil {
		return m.RankedSnapshotFunc(ctx, puuid)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) Stats(ctx context.Context) (store.DBStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return store.DBStats{}, nil
}

func (m *mockStore) LastSync(ctx context.Context) (*store.SyncLog, error) {
	if m.LastSyncFunc != nil {
		return m.LastSyncFunc(ctx)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// mockSync implements SyncService for testing
type mockSync struct {
	SyncAllFunc    func(ctx context.Context) (*syncer.Result, error)
	SyncPlayerFunc func(ctx context.Context, entry config.RosterEntry) (*syncer.Result, error)
	RunningFunc    func() bool
}

func (m *mockSync) SyncAll(ctx context.Context) (*syncer.Result, error) {
	if m.SyncAllFunc != nil {
		return m.SyncAllFunc(ctx)
	}
	return &syncer.Result{RunID: "run-test"}, nil
}

func (m *mockSync) SyncPlayer(ctx context.Context, entry config.RosterEntry) (*syncer.Result, error) {
	if m.SyncPlayerFunc != nil {
		return m.SyncPlayerFunc(ctx, entry)
	}
	return &syncer.Result{RunID: "run-test"}, nil
}

func (m *mockSync) Running() bool {
	if m.RunningFunc != nil {
		return m.RunningFunc()
	}
	return false
}

func testRoster(t *testing.T) *config.Roster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.json")
	data := fmt.Sprintf(`[
		{"gameName":"Alice","tagLine":"LAN","puuid":"%s"},
		{"gameName":"Bob","tagLine":"LAN","puuid":"%s"}
	]`, alicePuuid, bobPuuid)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing roster: %v", err)
	}
	roster, err := config.LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	return roster
}

func testHandler(t *testing.T, st StatsStore, sy SyncService) *Handler {
	t.Helper()
	if st == nil {
		st = &mockStore{}
	}
	if sy == nil {
		sy = &mockSync{}
	}
	return New(Config{
		Store:      st,
		Sync:       sy,
		Roster:     testRoster(t),
		Logger:     zap.NewNop(),
		Aggregator: logic.Aggregator{},
		Ranker:     logic.Ranker{MinGames: 5, MinChampionGames: 3},
	})
}

func testStats(games, wins int) *models.PlayerAggregatedStats {
	return &models.PlayerAggregatedStats{
		TotalGames:    games,
		Wins:          wins,
		Losses:        games - wins,
		Winrate:       logic.CalcWinrate(wins, games),
		NonSuppGames:  games,
		GoldLeadGames: games,
		ChampionStats: []models.ChampionStats{},
		RoleStats:     []models.RoleStats{},
	}
}

func testMatch(matchID, puuid string, win bool) models.Match {
	return models.Match{
		Metadata: models.MatchMetadata{MatchID: matchID},
		Info: models.MatchInfo{
			GameCreation:       1000,
			GameStartTimestamp: 1000,
			GameDuration:       1800,
			QueueID:            440,
			Participants: []models.MatchParticipant{
				{Puuid: puuid, ChampionName: "Jinx", TeamID: 100, Win: win, Kills: 4, Deaths: 2, Assists: 6},
			},
		},
	}
}
