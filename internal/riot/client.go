// Package riot is a thin client for the handful of Riot API endpoints the
// service needs: summoner-v4, league-v4 and match-v5. All calls go through
// a shared dual-window rate limiter sized for a development key.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/riftledger/stats-api/internal/models"
)

// Prometheus metrics
var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riot_api_requests_total",
		Help: "Total number of Riot API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riot_api_request_duration_seconds",
		Help:    "Duration of Riot API requests by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	apiRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riot_api_rate_limit_retries_total",
		Help: "Total number of requests retried after a 429 response",
	})
)

// ErrNotFound is returned when the Riot API responds 404 for a resource.
var ErrNotFound = errors.New("riot: not found")

// StatusError is returned for unexpected non-2xx responses.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("riot: %s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

const maxRetries = 3

// Config configures a Client.
type Config struct {
	APIKey string
	// RegionHost serves match-v5 (e.g. americas).
	RegionHost string
	// PlatformHost serves summoner-v4 and league-v4 (e.g. la1).
	PlatformHost string
	// RatePerSecond and RatePer2Min bound the two request windows a dev
	// key is subject to.
	RatePerSecond int
	RatePer2Min   int
	Logger        *zap.Logger
}

// Client calls the Riot API. Safe for concurrent use.
type Client struct {
	http         *http.Client
	apiKey       string
	regionHost   string
	platformHost string
	shortWindow  *rate.Limiter
	longWindow   *rate.Limiter
	logger       *zap.SugaredLogger
}

// NewClient creates a new Riot API client.
func NewClient(cfg Config) *Client {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 15
	}
	if cfg.RatePer2Min <= 0 {
		cfg.RatePer2Min = 90
	}

	return &Client{
		http:         &http.Client{Timeout: 15 * time.Second},
		apiKey:       cfg.APIKey,
		regionHost:   cfg.RegionHost,
		platformHost: cfg.PlatformHost,
		shortWindow:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RatePerSecond),
		longWindow:   rate.NewLimiter(rate.Every(2*time.Minute/time.Duration(cfg.RatePer2Min)), cfg.RatePer2Min),
		logger:       cfg.Logger.Sugar(),
	}
}

// SummonerByPuuid fetches summoner-v4 data for a puuid.
func (c *Client) SummonerByPuuid(ctx context.Context, puuid string) (*models.Summoner, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.platformHost, url.PathEscape(puuid))
	var out models.Summoner
	if err := c.get(ctx, "summoner", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeagueEntriesByPuuid fetches every ranked queue standing for a puuid.
func (c *Client) LeagueEntriesByPuuid(ctx context.Context, puuid string) ([]models.LeagueEntry, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.platformHost, url.PathEscape(puuid))
	var out []models.LeagueEntry
	if err := c.get(ctx, "league", u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MatchIDs returns one page of match IDs for a puuid, newest first. startTime
// is an epoch in seconds; zero means no lower bound.
func (c *Client) MatchIDs(ctx context.Context, puuid string, queue, start, count int, startTime int64) ([]string, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(start))
	q.Set("count", strconv.Itoa(count))
	if queue > 0 {
		q.Set("queue", strconv.Itoa(queue))
	}
	if startTime > 0 {
		q.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?%s",
		c.regionHost, url.PathEscape(puuid), q.Encode())

	var out []string
	if err := c.get(ctx, "match_ids", u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Match fetches the full match-v5 payload as raw JSON. The caller decodes it
// into models.Match; keeping the raw bytes lets the store persist the blob
// exactly as received.
func (c *Client) Match(ctx context.Context, matchID string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionHost, url.PathEscape(matchID))
	var out json.RawMessage
	if err := c.get(ctx, "match", u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get performs a rate-limited GET with bounded retries on 429.
func (c *Client) get(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		if err := c.wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		status, body, retryHdr, err := c.doOnce(ctx, rawURL)
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			apiRequests.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("riot: %s request failed: %w", endpoint, err)
		}
		apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("riot: decoding %s response: %w", endpoint, err)
			}
			return nil

		case status == http.StatusNotFound:
			return ErrNotFound

		case status == http.StatusTooManyRequests && attempt < maxRetries:
			delay := retryAfter(retryHdr)
			apiRetries.Inc()
			c.logger.Warnw("Riot API rate limited, backing off",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"delay", delay,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			return &StatusError{Endpoint: endpoint, Code: status, Body: truncateBody(body)}
		}
	}
}

// doOnce issues a single request and returns the status, body and the
// Retry-After header value (empty when absent).
func (c *Client) doOnce(ctx context.Context, rawURL string) (int, []byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, "", err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, "", err
	}
	return resp.StatusCode, body, resp.Header.Get("Retry-After"), nil
}

// wait blocks until both request windows have room.
func (c *Client) wait(ctx context.Context) error {
	if err := c.longWindow.Wait(ctx); err != nil {
		return err
	}
	return c.shortWindow.Wait(ctx)
}

func retryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 && secs <= 120 {
		return time.Duration(secs) * time.Second
	}
	return 2 * time.Second
}

func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
