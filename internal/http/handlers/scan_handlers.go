package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/scan"
)

// CreateScanSessionHandler godoc
// @Summary Open a scan session
// @Description Creates a scanner lifecycle in count or sale mode. Sale sessions must reference an existing cart.
// @Tags scan
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body CreateScanSessionRequest true "Session mode and optional cart"
// @Success 201 {object} scan.Snapshot
// @Failure 400 {string} string "Invalid input"
// @Router /scan/sessions [post]
func CreateScanSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateScanSessionRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	session, err := scanManager.Create(req.Mode, req.CartID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, session.Snapshot())
}

// GetScanSessionHandler godoc
// @Summary Get the current state of a scan session
// @Tags scan
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} scan.Snapshot
// @Failure 404 {string} string "Not found"
// @Router /scan/sessions/{id} [get]
func GetScanSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := scanManager.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "scan session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// DecodeHandler godoc
// @Summary Feed a decoder callback into a session
// @Description Accepts either a decoded barcode or a camera/decoder error. Non-committing decodes (cooldown, repeat, locked) return the unchanged state.
// @Tags scan
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param decode body DecodeRequest true "Decoded code or error"
// @Success 200 {object} scan.Snapshot
// @Failure 400 {string} string "Invalid input"
// @Failure 404 {string} string "Not found"
// @Failure 410 {string} string "Session closed"
// @Router /scan/sessions/{id}/decode [post]
func DecodeHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := scanManager.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "scan session not found", http.StatusNotFound)
		return
	}

	var req DecodeRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	var (
		snap scan.Snapshot
		err  error
	)
	if req.Error != "" {
		snap, err = session.Fail(req.Error)
	} else {
		if req.Code == "" {
			http.Error(w, "code or error is required", http.StatusBadRequest)
			return
		}
		snap, err = session.Decode(req.Code)
	}
	if err != nil {
		if errors.Is(err, scan.ErrSessionClosed) {
			http.Error(w, "scan session is closed", http.StatusGone)
			return
		}
		zap.L().Error("decode failed", zap.Error(err))
		http.Error(w, "could not process decode", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// RetryScanHandler godoc
// @Summary Retry after a scan error
// @Description Valid only from the error state; re-arms the debouncer and returns to ready.
// @Tags scan
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} scan.Snapshot
// @Failure 404 {string} string "Not found"
// @Failure 409 {object} scan.Snapshot "Not in error state"
// @Router /scan/sessions/{id}/retry [post]
func RetryScanHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := scanManager.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "scan session not found", http.StatusNotFound)
		return
	}

	snap, err := session.Retry()
	if err != nil {
		if errors.Is(err, scan.ErrSessionClosed) {
			http.Error(w, "scan session is closed", http.StatusGone)
			return
		}
		writeJSON(w, http.StatusConflict, snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ResumeScanHandler godoc
// @Summary Resume scanning after an unknown barcode
// @Description Valid only from the not_found state; used once the add-product flow finishes or is dismissed.
// @Tags scan
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} scan.Snapshot
// @Failure 404 {string} string "Not found"
// @Failure 409 {object} scan.Snapshot "Not in not_found state"
// @Router /scan/sessions/{id}/resume [post]
func ResumeScanHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := scanManager.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "scan session not found", http.StatusNotFound)
		return
	}

	snap, err := session.Resume()
	if err != nil {
		if errors.Is(err, scan.ErrSessionClosed) {
			http.Error(w, "scan session is closed", http.StatusGone)
			return
		}
		writeJSON(w, http.StatusConflict, snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseScanSessionHandler godoc
// @Summary Close a scan session
// @Description Cancels any in-flight lookup; late settlements are discarded.
// @Tags scan
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204 "Closed"
// @Failure 404 {string} string "Not found"
// @Router /scan/sessions/{id} [delete]
func CloseScanSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !scanManager.Close(chi.URLParam(r, "id")) {
		http.Error(w, "scan session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScanHistoryHandler godoc
// @Summary Recent scans, newest first
// @Tags scan
// @Produce json
// @Param limit query int false "Max events to return"
// @Success 200 {object} ScanHistoryResult
// @Failure 500 {string} string "Internal error"
// @Router /scan/history [get]
func ScanHistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = v
	}

	if redisSvc == nil {
		writeJSON(w, http.StatusOK, ScanHistoryResult{Data: []models.ScanEvent{}})
		return
	}

	events, err := redisSvc.RecentScans(limit)
	if err != nil {
		zap.L().Error("failed to read scan history", zap.Error(err))
		http.Error(w, "could not fetch scan history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ScanHistoryResult{Data: events})
}
