package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Storage. DatabaseURL selects the Postgres backend when set,
	// otherwise the local SQLite file at SQLitePath is used.
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	// Riot API
	RiotAPIKey   string
	RiotRegion   string
	RiotPlatform string
	QueueID      int

	// Roster
	RosterPath string

	// Aggregation boundaries
	SeasonStartMs    int64
	MinGamesForBest  int
	MinChampionGames int

	// Sync
	SyncPageSize  int
	SyncBatchSize int

	// Riot rate limiting. Defaults keep margin under the dev-key
	// limits of 20/s and 100 per 2 minutes.
	RiotRatePerSecond int
	RiotRatePer2Min   int

	// Dashboard cache TTL (Redis)
	DashboardCacheTTL time.Duration
}

// Season cutoff default: noon UTC the day before the 2026 split start,
// so timezone drift can't leak late pre-season games in.
const defaultSeasonStartMs int64 = 1767787200000

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "data/stats.db"),
		RedisURL:    getEnv("REDIS_URL", ""),

		RiotRegion:   getEnv("RIOT_REGION_HOST", "https://americas.api.riotgames.com"),
		RiotPlatform: getEnv("RIOT_PLATFORM_HOST", "https://la1.api.riotgames.com"),
		QueueID:      getEnvInt("QUEUE_ID", 440),

		RosterPath: getEnv("ROSTER_PATH", "data/roster.json"),

		SeasonStartMs:    getEnvInt64("SEASON_START_MS", defaultSeasonStartMs),
		MinGamesForBest:  getEnvInt("MIN_GAMES_FOR_BEST", 5),
		MinChampionGames: getEnvInt("MIN_CHAMPION_GAMES", 3),

		SyncPageSize:  getEnvInt("SYNC_PAGE_SIZE", 100),
		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),

		RiotRatePerSecond: getEnvInt("RIOT_RATE_PER_SECOND", 15),
		RiotRatePer2Min:   getEnvInt("RIOT_RATE_PER_2MIN", 90),

		DashboardCacheTTL: getEnvDuration("DASHBOARD_CACHE_TTL", 1*time.Minute),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.RiotAPIKey, err = getEnvRequired("RIOT_API_KEY"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
