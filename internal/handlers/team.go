package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/riftledger/stats-api/internal/logic"
	"github.com/riftledger/stats-api/internal/models"
	"github.com/riftledger/stats-api/internal/store"
)

type teamPlayer struct {
	GameName      string `json:"gameName"`
	Puuid         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
}

type teamResponse struct {
	Players      []teamPlayer          `json:"players"`
	GroupMatches []models.GroupMatch   `json:"groupMatches"`
	GroupGames   int                   `json:"groupGames"`
	GroupWins    int                   `json:"groupWins"`
	GroupWinrate float64               `json:"groupWinrate"`
	Rankings     []models.FinalRanking `json:"rankings"`
}

// Team returns the matches where two or more roster members queued
// together, the team's record in those games and the final rankings.
func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	players, ranked, err := h.loadRosterMatches(ctx)
	if err != nil {
		h.logger.Errorw("Failed to load roster matches", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load team data")
		return
	}

	groups := logic.FindGroupMatches(players)

	resp := teamResponse{
		Players:      []teamPlayer{},
		GroupMatches: groups,
		GroupGames:   len(groups),
		Rankings:     h.ranker.ComputeFinalRankings(ranked),
	}
	for _, entry := range h.roster.Entries() {
		tp := teamPlayer{GameName: entry.GameName, Puuid: entry.Puuid}
		snap, err := h.store.RankedSnapshot(ctx, entry.Puuid)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.Errorw("Failed to load ranked snapshot", "player", entry.GameName, "error", err)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to load team data")
			return
		}
		if snap != nil {
			tp.ProfileIconID = snap.ProfileIconID
		}
		resp.Players = append(resp.Players, tp)
	}
	for _, g := range groups {
		if len(g.Players) > 0 && g.Players[0].Win {
			resp.GroupWins++
		}
	}
	resp.GroupWinrate = logic.CalcWinrate(resp.GroupWins, resp.GroupGames)

	h.jsonResponse(w, http.StatusOK, resp)
}

// loadRosterMatches loads every roster member's season matches plus their
// stored aggregated stats for ranking.
func (h *Handler) loadRosterMatches(ctx context.Context) ([]logic.PlayerMatches, []logic.RankedPlayer, error) {
	var players []logic.PlayerMatches
	var ranked []logic.RankedPlayer

	for _, entry := range h.roster.Entries() {
		matches, err := h.store.MatchesForPlayer(ctx, entry.Puuid)
		if err != nil {
			return nil, nil, err
		}
		players = append(players, logic.PlayerMatches{
			Puuid:    entry.Puuid,
			GameName: entry.GameName,
			Matches:  matches,
		})

		stats, err := h.store.PlayerStats(ctx, entry.Puuid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		ranked = append(ranked, logic.RankedPlayer{GameName: entry.GameName, Stats: *stats})
	}
	return players, ranked, nil
}
