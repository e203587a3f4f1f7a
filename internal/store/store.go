// Package store persists synced Riot data. Two backends implement the same
// interface: a local SQLite file for single-box deployments and Postgres for
// hosted ones. Match payloads are stored as the raw JSON received from the
// API so a schema change never loses data.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/riftledger/stats-api/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// StoredMatch is one match row. Raw holds the full match-v5 payload.
type StoredMatch struct {
	MatchID      string
	QueueID      int
	GameCreation int64
	GameStart    int64
	GameDuration int64
	Raw          json.RawMessage
}

// RankedSnapshot is the latest ranked standing fetched for a player. The
// profile icon rides along because it refreshes on the same sync cadence.
type RankedSnapshot struct {
	Puuid         string
	Tier          string
	Division      string
	LeaguePoints  int
	Wins          int
	Losses        int
	ProfileIconID int
	FetchedAt     time.Time
}

// SyncLog records one sync run.
type SyncLog struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	PlayersSynced  int
	MatchesFetched int
	Error          string
}

// Sync run statuses.
const (
	SyncStatusOK     = "ok"
	SyncStatusFailed = "failed"
)

// DBStats summarizes database contents for the sync status endpoint.
type DBStats struct {
	Matches     int       `json:"matches"`
	PlayerLinks int       `json:"playerLinks"`
	StatsRows   int       `json:"statsRows"`
	LastSyncAt  time.Time `json:"lastSyncAt"`
}

// Store is the persistence interface shared by the SQLite and Postgres
// backends.
type Store interface {
	// Init creates the schema if it does not exist.
	Init(ctx context.Context) error

	UpsertMatch(ctx context.Context, m StoredMatch) error
	LinkPlayerMatch(ctx context.Context, puuid, matchID string) error
	// KnownMatchIDs filters ids down to the set already stored.
	KnownMatchIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// LinkedMatchIDs returns every match id linked to a player.
	LinkedMatchIDs(ctx context.Context, puuid string) (map[string]bool, error)
	// MatchesForPlayer returns a player's linked matches decoded, newest
	// first by game start.
	MatchesForPlayer(ctx context.Context, puuid string) ([]models.Match, error)

	UpsertRankedSnapshot(ctx context.Context, s RankedSnapshot) error
	RankedSnapshot(ctx context.Context, puuid string) (*RankedSnapshot, error)

	UpsertPlayerStats(ctx context.Context, puuid string, stats models.PlayerAggregatedStats) error
	PlayerStats(ctx context.Context, puuid string) (*models.PlayerAggregatedStats, error)

	RecordSync(ctx context.Context, log SyncLog) error
	LastSync(ctx context.Context) (*SyncLog, error)

	Stats(ctx context.Context) (DBStats, error)
	Ping(ctx context.Context) error
	Close() error
}

// decodeMatch decodes a stored raw match payload.
func decodeMatch(raw []byte) (models.Match, error) {
	var m models.Match
	err := json.Unmarshal(raw, &m)
	return m, err
}
