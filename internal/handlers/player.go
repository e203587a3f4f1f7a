package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/riftledger/stats-api/internal/models"
	"github.com/riftledger/stats-api/internal/store"
)

type playerResponse struct {
	GameName      string                        `json:"gameName"`
	TagLine       string                        `json:"tagLine"`
	Puuid         string                        `json:"puuid"`
	ProfileIconID int                           `json:"profileIconId"`
	Ranked        *rankedView                   `json:"ranked"`
	Stats         *models.PlayerAggregatedStats `json:"stats"`
	Matches       []matchSummary                `json:"matches"`
}

// Player returns one roster member's stats and match history. The name in
// the URL is matched case-insensitively against the roster.
func (h *Handler) Player(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	gameName := chi.URLParam(r, "gameName")
	entry, ok := h.roster.ByGameName(gameName)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Unknown player")
		return
	}

	resp := playerResponse{
		GameName: entry.GameName,
		TagLine:  entry.TagLine,
		Puuid:    entry.Puuid,
		Matches:  []matchSummary{},
	}

	stats, err := h.store.PlayerStats(ctx, entry.Puuid)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Errorw("Failed to load player stats", "player", entry.GameName, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load player")
		return
	}
	resp.Stats = stats

	snap, err := h.store.RankedSnapshot(ctx, entry.Puuid)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Errorw("Failed to load ranked snapshot", "player", entry.GameName, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load player")
		return
	}
	if snap != nil {
		resp.Ranked = rankedViewOf(snap)
		resp.ProfileIconID = snap.ProfileIconID
	}

	matches, err := h.store.MatchesForPlayer(ctx, entry.Puuid)
	if err != nil {
		h.logger.Errorw("Failed to load matches", "player", entry.GameName, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load player")
		return
	}
	for i := range matches {
		if s := summarize(&matches[i], entry.Puuid); s != nil {
			resp.Matches = append(resp.Matches, *s)
		}
	}

	h.jsonResponse(w, http.StatusOK, resp)
}
