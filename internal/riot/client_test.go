package riot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func testClient(serverURL string) *Client {
	return NewClient(Config{
		APIKey:        "test-key",
		RegionHost:    serverURL,
		PlatformHost:  serverURL,
		RatePerSecond: 1000,
		RatePer2Min:   100000,
		Logger:        zap.NewNop(),
	})
}

func TestSummonerByPuuid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lol/summoner/v4/summoners/by-puuid/puuid-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Riot-Token") != "test-key" {
			t.Errorf("missing API key header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"puuid": "puuid-123", "profileIconId": 4242, "summonerLevel": 300,
		})
	}))
	defer srv.Close()

	s, err := testClient(srv.URL).SummonerByPuuid(context.Background(), "puuid-123")
	if err != nil {
		t.Fatalf("SummonerByPuuid: %v", err)
	}
	if s.Puuid != "puuid-123" || s.ProfileIconID != 4242 {
		t.Errorf("summoner = %+v", s)
	}
}

func TestMatchIDsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("queue") != "440" || q.Get("start") != "100" || q.Get("count") != "100" || q.Get("startTime") != "1736251200" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]string{"LA1_1", "LA1_2"})
	}))
	defer srv.Close()

	ids, err := testClient(srv.URL).MatchIDs(context.Background(), "p1", 440, 100, 100, 1736251200)
	if err != nil {
		t.Fatalf("MatchIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "LA1_1" {
		t.Errorf("ids = %v", ids)
	}
}

func TestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).SummonerByPuuid(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRetryOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"puuid": "p1"})
	}))
	defer srv.Close()

	s, err := testClient(srv.URL).SummonerByPuuid(context.Background(), "p1")
	if err != nil {
		t.Fatalf("SummonerByPuuid after retry: %v", err)
	}
	if s.Puuid != "p1" {
		t.Errorf("summoner = %+v", s)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limit exceeded"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).SummonerByPuuid(context.Background(), "p1")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want 429", se.Code)
	}
	// The 429 body survives into the error, not the Retry-After header.
	if se.Body != "rate limit exceeded" {
		t.Errorf("body = %q, want the response body", se.Body)
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d, want initial request plus 3 retries", calls.Load())
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).LeagueEntriesByPuuid(context.Background(), "p1")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", se.Code)
	}
}

func TestMatchReturnsRawBody(t *testing.T) {
	payload := `{"metadata":{"matchId":"LA1_42"},"info":{"gameDuration":1800}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	raw, err := testClient(srv.URL).Match(context.Background(), "LA1_42")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	var decoded struct {
		Metadata struct {
			MatchID string `json:"matchId"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("raw body not valid JSON: %v", err)
	}
	if decoded.Metadata.MatchID != "LA1_42" {
		t.Errorf("matchId = %q", decoded.Metadata.MatchID)
	}
}
