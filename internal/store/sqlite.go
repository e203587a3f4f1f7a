package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/riftledger/stats-api/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matches (
	match_id      TEXT PRIMARY KEY,
	queue_id      INTEGER NOT NULL,
	game_creation INTEGER NOT NULL,
	game_start    INTEGER NOT NULL,
	game_duration INTEGER NOT NULL,
	raw           TEXT NOT NULL
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
	fetched_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS player_stats (
	puuid      TEXT PRIMARY KEY,
	stats      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_log (
	id              TEXT PRIMARY KEY,
	started_at      INTEGER NOT NULL,
	finished_at     INTEGER NOT NULL,
	status          TEXT NOT NULL,
	players_synced  INTEGER NOT NULL,
	matches_fetched INTEGER NOT NULL,
	error           TEXT NOT NULL DEFAULT ''
);
`

// SQLiteStore is the local single-file backend.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the database file at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent sync and request traffic.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLiteStore) UpsertMatch(ctx context.Context, m StoredMatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, queue_id, game_creation, game_start, game_duration, raw)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET raw = excluded.raw
	`, m.MatchID, m.QueueID, m.GameCreation, m.GameStart, m.GameDuration, string(m.Raw))
	return err
}

func (s *SQLiteStore) LinkPlayerMatch(ctx context.Context, puuid, matchID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_matches (puuid, match_id) VALUES (?, ?)
		ON CONFLICT (puuid, match_id) DO NOTHING
	`, puuid, matchID)
	return err
}

func (s *SQLiteStore) KnownMatchIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	known := map[string]bool{}
	if len(ids) == 0 {
		return known, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT match_id FROM matches WHERE match_id IN ("+placeholders+")", args...)
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

func (s *SQLiteStore) LinkedMatchIDs(ctx context.Context, puuid string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT match_id FROM player_matches WHERE puuid = ?", puuid)
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

func (s *SQLiteStore) MatchesForPlayer(ctx context.Context, puuid string) ([]models.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.raw FROM matches m
		JOIN player_matches pm ON pm.match_id = m.match_id
		WHERE pm.puuid = ?
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

func (s *SQLiteStore) UpsertRankedSnapshot(ctx context.Context, snap RankedSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ranked_snapshots (puuid, tier, division, league_points, wins, losses, profile_icon_id, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			tier = excluded.tier,
			division = excluded.division,
			league_points = excluded.league_points,
			wins = excluded.wins,
			losses = excluded.losses,
			profile_icon_id = excluded.profile_icon_id,
			fetched_at = excluded.fetched_at
	`, snap.Puuid, snap.Tier, snap.Division, snap.LeaguePoints, snap.Wins, snap.Losses, snap.ProfileIconID, snap.FetchedAt.UnixMilli())
	return err
}

func (s *SQLiteStore) RankedSnapshot(ctx context.Context, puuid string) (*RankedSnapshot, error) {
	var snap RankedSnapshot
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT puuid, tier, division, league_points, wins, losses, profile_icon_id, fetched_at
		FROM ranked_snapshots WHERE puuid = ?
	`, puuid).Scan(&snap.Puuid, &snap.Tier, &snap.Division, &snap.LeaguePoints, &snap.Wins, &snap.Losses, &snap.ProfileIconID, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	snap.FetchedAt = time.UnixMilli(fetchedAt)
	return &snap, nil
}

func (s *SQLiteStore) UpsertPlayerStats(ctx context.Context, puuid string, stats models.PlayerAggregatedStats) error {
	blob, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO player_stats (puuid, stats, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET stats = excluded.stats, updated_at = excluded.updated_at
	`, puuid, string(blob), time.Now().UnixMilli())
	return err
}

func (s *SQLiteStore) PlayerStats(ctx context.Context, puuid string) (*models.PlayerAggregatedStats, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT stats FROM player_stats WHERE puuid = ?", puuid).Scan(&blob)
	if err == sql.ErrNoRows {
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

func (s *SQLiteStore) RecordSync(ctx context.Context, log SyncLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_log (id, started_at, finished_at, status, players_synced, matches_fetched, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.StartedAt.UnixMilli(), log.FinishedAt.UnixMilli(), log.Status,
		log.PlayersSynced, log.MatchesFetched, log.Error)
	return err
}

func (s *SQLiteStore) LastSync(ctx context.Context) (*SyncLog, error) {
	var log SyncLog
	var started, finished int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, players_synced, matches_fetched, error
		FROM sync_log ORDER BY started_at DESC LIMIT 1
	`).Scan(&log.ID, &started, &finished, &log.Status, &log.PlayersSynced, &log.MatchesFetched, &log.Error)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	log.StartedAt = time.UnixMilli(started)
	log.FinishedAt = time.UnixMilli(finished)
	return &log, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (DBStats, error) {
	var st DBStats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches").Scan(&st.Matches); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM player_matches").Scan(&st.PlayerLinks); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM player_stats").Scan(&st.StatsRows); err != nil {
		return st, err
	}
	if last, err := s.LastSync(ctx); err == nil {
		st.LastSyncAt = last.FinishedAt
	} else if err != ErrNotFound {
		return st, err
	}
	return st, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
