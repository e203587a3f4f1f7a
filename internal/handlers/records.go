package handlers

import (
	"net/http"

	"github.com/riftledger/stats-api/internal/models"
)

type recordsResponse struct {
	Records    []models.MatchRecord    `json:"records"`
	Pentakills []models.PentakillEvent `json:"pentakills"`
}

// Records returns the roster-wide single-game records and pentakill log,
// computed from the cached matches on every request.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	players, _, err := h.loadRosterMatches(ctx)
	if err != nil {
		h.logger.Errorw("Failed to load roster matches", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load records")
		return
	}

	h.jsonResponse(w, http.StatusOK, recordsResponse{
		Records:    h.aggregator.MatchRecords(players),
		Pentakills: h.aggregator.Pentakills(players),
	})
}
