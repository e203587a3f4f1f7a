package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/riftledger/stats-api/internal/store"
	"github.com/riftledger/stats-api/internal/syncer"
)

type syncStatusResponse struct {
	Running  bool           `json:"running"`
	DB       store.DBStats  `json:"db"`
	LastSync *store.SyncLog `json:"lastSync"`
}

// TriggerSync starts a sync run. With ?puuid= only that roster member is
// synced. Returns 409 if a run is already in flight.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var res *syncer.Result
	var err error

	if puuid := r.URL.Query().Get("puuid"); puuid != "" {
		entry, ok := h.roster.ByPuuid(puuid)
		if !ok {
			h.errorResponse(w, http.StatusNotFound, "Unknown player")
			return
		}
		res, err = h.sync.SyncPlayer(ctx, entry)
	} else {
		res, err = h.sync.SyncAll(ctx)
	}

	if errors.Is(err, syncer.ErrSyncInProgress) {
		h.jsonResponse(w, http.StatusConflict, map[string]interface{}{
			"skipped": true,
			"reason":  "sync already in progress",
		})
		return
	}
	if err != nil {
		h.logger.Errorw("Sync failed", "error", err)
		h.errorResponse(w, http.StatusBadGateway, "Sync failed: "+err.Error())
		return
	}

	h.InvalidateDashboard(context.WithoutCancel(ctx))
	h.jsonResponse(w, http.StatusOK, res)
}

// SyncStatus reports database contents and the last sync run.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	db, err := h.store.Stats(ctx)
	if err != nil {
		h.logger.Errorw("Failed to load db stats", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load sync status")
		return
	}

	last, err := h.store.LastSync(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Errorw("Failed to load last sync", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load sync status")
		return
	}

	h.jsonResponse(w, http.StatusOK, syncStatusResponse{
		Running:  h.sync.Running(),
		DB:       db,
		LastSync: last,
	})
}
