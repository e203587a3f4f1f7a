package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/riftledger/stats-api/internal/logic"
	"github.com/riftledger/stats-api/internal/models"
	"github.com/riftledger/stats-api/internal/store"
)

const dashboardCacheKey = "dashboard:v1"

type rankedView struct {
	Tier         string `json:"tier"`
	Division     string `json:"division"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Label        string `json:"label"`
	TotalLP      int    `json:"totalLp"`
}

type matchSummary struct {
	MatchID      string  `json:"matchId"`
	ChampionName string  `json:"championName"`
	TeamPosition string  `json:"teamPosition"`
	Win          bool    `json:"win"`
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Assists      int     `json:"assists"`
	DurationMin  float64 `json:"durationMin"`
	PlayedAt     int64   `json:"playedAt"`
}

type dashboardPlayer struct {
	GameName      string                        `json:"gameName"`
	TagLine       string                        `json:"tagLine"`
	Puuid         string                        `json:"puuid"`
	ProfileIconID int                           `json:"profileIconId"`
	Ranked        *rankedView                   `json:"ranked"`
	Stats         *models.PlayerAggregatedStats `json:"stats"`
	LastMatch     *matchSummary                 `json:"lastMatch"`
}

type teamElo struct {
	AvgLP int    `json:"avgLp"`
	Label string `json:"label"`
}

type dashboardResponse struct {
	Players     []dashboardPlayer      `json:"players"`
	BestOf      models.BestOfChallenge `json:"bestOf"`
	Rankings    []models.FinalRanking  `json:"rankings"`
	TeamElo     teamElo                `json:"teamElo"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// Dashboard returns the aggregate view the landing page renders: every
// roster member's stats and ranked standing, the best-of podiums, final
// rankings and the average team elo.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cached, ok := h.cachedDashboard(ctx); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		w.Write(cached)
		return
	}

	resp, err := h.buildDashboard(ctx)
	if err != nil {
		if errors.Is(err, errDBEmpty) {
			h.errorResponse(w, http.StatusServiceUnavailable, "DB_EMPTY")
			return
		}
		h.logger.Errorw("Failed to build dashboard", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}

	h.cacheDashboard(ctx, resp)
	h.jsonResponse(w, http.StatusOK, resp)
}

var errDBEmpty = errors.New("no synced data")

func (h *Handler) buildDashboard(ctx context.Context) (*dashboardResponse, error) {
	resp := &dashboardResponse{
		Players:     []dashboardPlayer{},
		GeneratedAt: time.Now().UTC(),
	}

	var ranked []logic.RankedPlayer
	var leagueEntries []*models.LeagueEntry
	haveStats := false

	for _, entry := range h.roster.Entries() {
		p := dashboardPlayer{
			GameName: entry.GameName,
			TagLine:  entry.TagLine,
			Puuid:    entry.Puuid,
		}

		stats, err := h.store.PlayerStats(ctx, entry.Puuid)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if stats != nil {
			haveStats = true
			p.Stats = stats
			ranked = append(ranked, logic.RankedPlayer{GameName: entry.GameName, Stats: *stats})
		}

		snap, err := h.store.RankedSnapshot(ctx, entry.Puuid)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if snap != nil {
			p.Ranked = rankedViewOf(snap)
			p.ProfileIconID = snap.ProfileIconID
			leagueEntries = append(leagueEntries, &models.LeagueEntry{
				Tier:         snap.Tier,
				Rank:         snap.Division,
				LeaguePoints: snap.LeaguePoints,
			})
		} else {
			leagueEntries = append(leagueEntries, nil)
		}

		matches, err := h.store.MatchesForPlayer(ctx, entry.Puuid)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			p.LastMatch = summarize(&matches[0], entry.Puuid)
		}

		resp.Players = append(resp.Players, p)
	}

	if !haveStats {
		return nil, errDBEmpty
	}

	resp.BestOf = h.ranker.ComputeBestOf(ranked)
	resp.Rankings = h.ranker.ComputeFinalRankings(ranked)
	resp.TeamElo.AvgLP, resp.TeamElo.Label = logic.AverageElo(leagueEntries)
	return resp, nil
}

func (h *Handler) cachedDashboard(ctx context.Context) ([]byte, bool) {
	if h.redis == nil {
		return nil, false
	}
	data, err := h.redis.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (h *Handler) cacheDashboard(ctx context.Context, resp *dashboardResponse) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, dashboardCacheKey, data, h.cacheTTL).Err(); err != nil {
		h.logger.Warnw("Failed to cache dashboard", "error", err)
	}
}

// InvalidateDashboard drops the cached dashboard, called after a sync.
func (h *Handler) InvalidateDashboard(ctx context.Context) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, dashboardCacheKey).Err(); err != nil {
		h.logger.Warnw("Failed to invalidate dashboard cache", "error", err)
	}
}

func rankedViewOf(snap *store.RankedSnapshot) *rankedView {
	lp := logic.RankToLP(snap.Tier, snap.Division, snap.LeaguePoints)
	return &rankedView{
		Tier:         snap.Tier,
		Division:     snap.Division,
		LeaguePoints: snap.LeaguePoints,
		Wins:         snap.Wins,
		Losses:       snap.Losses,
		Label:        logic.LPToTierLabel(lp),
		TotalLP:      lp,
	}
}

func summarize(m *models.Match, puuid string) *matchSummary {
	p := logic.Participant(m, puuid)
	if p == nil {
		return nil
	}
	return &matchSummary{
		MatchID:      m.Metadata.MatchID,
		ChampionName: p.ChampionName,
		TeamPosition: p.TeamPosition,
		Win:          p.Win,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
		Assists:      p.Assists,
		DurationMin:  float64(m.Info.GameDuration) / 60,
		PlayedAt:     m.Info.GameStartTimestamp,
	}
}
