// src/handlers/sync_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/models"
	"github.com/username/proventus/backend/src/services"
	"github.com/username/proventus/backend/src/utils"
)

type SyncHandler struct {
	syncService services.SyncService
}

func NewSyncHandler(service services.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: service,
	}
}

// userIDFromRequest reads the target user from the userId query
// parameter. Authentication is out of scope here; callers are trusted
// internal surfaces.
func userIDFromRequest(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		return 0, errors.New("missing userId query parameter")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("invalid userId %q", raw)
	}
	return userID, nil
}

// HandleTriggerSync runs a dividend sync for the user. force=true
// bypasses the once-per-day cadence gate (but never the dedup keys).
func (h *SyncHandler) HandleTriggerSync(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	force := r.URL.Query().Get("force") == "true"
	logger.L.Info("Handling TriggerSync", "userID", userID, "force", force)

	report, err := h.syncService.RunSync(r.Context(), userID, force)
	if err != nil {
		logger.L.Error("Sync run aborted", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("sync aborted for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding sync report to JSON", "userID", userID, "error", err)
	}
}

// HandleGetIncomeRecords returns the user's persisted income records,
// with ETag support so polling clients can skip unchanged payloads.
func (h *SyncHandler) HandleGetIncomeRecords(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.syncService.GetIncomeRecords(userID)
	if err != nil {
		logger.L.Error("Error retrieving income records", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("error retrieving income records for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.IncomeRecord{} // Ensure an empty array is sent if no data
	}

	if etag, err := utils.GenerateETag(records); err == nil {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		logger.L.Error("Error encoding income records to JSON", "userID", userID, "error", err)
	}
}

// HandleGetSyncState returns the user's cadence marker.
func (h *SyncHandler) HandleGetSyncState(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := h.syncService.GetSyncState(userID)
	if err != nil {
		logger.L.Error("Error retrieving sync state", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("error retrieving sync state for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		logger.L.Error("Error encoding sync state to JSON", "userID", userID, "error", err)
	}
}
