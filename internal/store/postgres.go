package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riftledger/stats-api/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS matches (
	match_id      TEXT PRIMARY KEY,
	queue_id      INTEGER NOT NULL,
	game_creation BIGINT NOT NULL,
	game_start    BIGINT NOT NULL,
	game_duration BIGINT NOT NULL,
	raw           JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS player_matches (
	puuid    TEXT NOT NULL,
	match_id TEXT NOT NULL,
	PRIMARY KEY (puuid, match_id)
);

CREATE INDEX IF NOT EXISTS idx_player_matches_puuid ON player_matches(puuid);

CREATE TABLE IF NOT EXISTS ranked_snapshots (
	puuid           TEXT PRIMARY KEY,
	tier            TEXT NOT NULL,
	division        TEXT NOT NULL,
	league_points   INTEGER NOT NULL,
	wins            INTEGER NOT NULL,
	losses          INTEGER NOT NULL,
	profile_icon_id INTEGER NOT NULL DEFAULT 0,
	fetched_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS player_stats (
	puuid      TEXT PRIMARY KEY,
	stats      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_log (
	id              TEXT PRIMARY KEY,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ NOT NULL,
	status          TEXT NOT NULL,
	players_synced  INTEGER NOT NULL,
	matches_fetched INTEGER NOT NULL,
	error           TEXT NOT NULL DEFAULT ''
);
`

// PostgresStore is the hosted backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at url.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

func (s *PostgresStore) UpsertMatch(ctx context.Context, m StoredMatch) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (match_id, queue_id, game_creation, game_start, game_duration, raw)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id) DO UPDATE SET raw = excluded.raw
	`, m.MatchID, m.QueueID, m.GameCreation, m.GameStart, m.GameDuration, m.Raw)
	return err
}

func (s *PostgresStore) LinkPlayerMatch(ctx context.Context, puuid, matchID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO player_matches (puuid, match_id) VALUES ($1, $2)
		ON CONFLICT (puuid, match_id) DO NOTHING
	`, puuid, matchID)
	return err
}

func (s *PostgresStore) KnownMatchIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	known := map[string]bool{}
	if len(ids) == 0 {
		return known, nil
	}

	rows, err := s.pool.Query(ctx,
		"SELECT match_id FROM matches WHERE match_id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known[id] = true
	}
	return known, rows.Err()
}

func (s *PostgresStore) LinkedMatchIDs(ctx context.Context, puuid string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT match_id FROM player_matches WHERE puuid = $1", puuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	linked := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		linked[id] = true
	}
	return linked, rows.Err()
}

func (s *PostgresStore) MatchesForPlayer(ctx context.Context, puuid string) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.raw FROM matches m
		JOIN player_matches pm ON pm.match_id = m.match_id
		WHERE pm.puuid = $1
		ORDER BY m.game_start DESC
	`, puuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		m, err := decodeMatch(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding stored match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) UpsertRankedSnapshot(ctx context.Context, snap RankedSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ranked_snapshots (puuid, tier, division, league_points, wins, losses, profile_icon_id, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (puuid) DO UPDATE SET
			tier = excluded.tier,
			division = excluded.division,
			league_points = excluded.league_points,
			wins = excluded.wins,
			losses = excluded.losses,
			profile_icon_id = excluded.profile_icon_id,
			fetched_at = excluded.fetched_at
	`, snap.Puuid, snap.Tier, snap.Division, snap.LeaguePoints, snap.Wins, snap.Losses, snap.ProfileIconID, snap.FetchedAt)
	return err
}

func (s *PostgresStore) RankedSnapshot(ctx context.Context, puuid string) (*RankedSnapshot, error) {
	var snap RankedSnapshot
	err := s.pool.QueryRow(ctx, `
		SELECT puuid, tier, division, league_points, wins, losses, profile_icon_id, fetched_at
		FROM ranked_snapshots WHERE puuid = $1
	`, puuid).Scan(&snap.Puuid, &snap.Tier, &snap.Division, &snap.LeaguePoints, &snap.Wins, &snap.Losses, &snap.ProfileIconID, &snap.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresStore) UpsertPlayerStats(ctx context.Context, puuid string, stats models.PlayerAggregatedStats) error {
	blob, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO player_stats (puuid, stats, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (puuid) DO UPDATE SET stats = excluded.stats, updated_at = excluded.updated_at
	`, puuid, blob, time.Now())
	return err
}

func (s *PostgresStore) PlayerStats(ctx context.Context, puuid string) (*models.PlayerAggregatedStats, error) {
	var blob []byte
	err := s.pool.QueryRow(ctx,
		"SELECT stats FROM player_stats WHERE puuid = $1", puuid).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var stats models.PlayerAggregatedStats
	if err := json.Unmarshal(blob, &stats); err != nil {
		return nil, fmt.Errorf("decoding stored stats: %w", err)
	}
	return &stats, nil
}

func (s *PostgresStore) RecordSync(ctx context.Context, log SyncLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_log (id, started_at, finished_at, status, players_synced, matches_fetched, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, log.ID, log.StartedAt, log.FinishedAt, log.Status, log.PlayersSynced, log.MatchesFetched, log.Error)
	return err
}

func (s *PostgresStore) LastSync(ctx context.Context) (*SyncLog, error) {
	var log SyncLog
	err := s.pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, status, players_synced, matches_fetched, error
		FROM sync_log ORDER BY started_at DESC LIMIT 1
	`).Scan(&log.ID, &log.StartedAt, &log.FinishedAt, &log.Status, &log.PlayersSynced, &log.MatchesFetched, &log.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (DBStats, error) {
	var st DBStats
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM matches").Scan(&st.Matches); err != nil {
		return st, err
	}
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM player_matches").Scan(&st.PlayerLinks); err != nil {
		return st, err
	}
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM player_stats").Scan(&st.StatsRows); err != nil {
		return st, err
	}
	if last, err := s.LastSync(ctx); err == nil {
		st.LastSyncAt = last.FinishedAt
	} else if !errors.Is(err, ErrNotFound) {
		return st, err
	}
	return st, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
