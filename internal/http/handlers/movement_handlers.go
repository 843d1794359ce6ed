package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dmarchetti/scanventory/internal/http/alerts"
	"github.com/dmarchetti/scanventory/internal/metrics"
	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

// AdjustQuantityHandler godoc
// @Summary Adjust a product's stock by a delta
// @Description Applies the delta atomically; an adjustment that would take stock negative is rejected without clamping.
// @Tags movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param adjustment body QuantityAdjustmentRequest true "Delta to apply"
// @Success 200 {object} ProductResponse
// @Failure 400 {string} string "Invalid input"
// @Failure 404 {string} string "Not found"
// @Failure 409 {string} string "Would go negative"
// @Router /products/{id}/adjust-quantity [post]
func AdjustQuantityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req QuantityAdjustmentRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if req.Delta == 0 {
		http.Error(w, "delta must be non-zero", http.StatusBadRequest)
		return
	}

	updated, err := productRepo.AdjustQuantity(r.Context(), id, req.Delta)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, repo.ErrInvalidQuantityChange) {
			http.Error(w, "adjustment would make quantity negative", http.StatusConflict)
			return
		}
		http.Error(w, "could not adjust quantity", http.StatusInternalServerError)
		return
	}

	if err := movementRepo.Log(id, req.Delta, models.MovementReasonManual); err != nil {
		zap.L().Warn("failed to log stock movement",
			zap.Int("product_id", id), zap.Int("delta", req.Delta), zap.Error(err))
	}
	metrics.StockAdjustments.WithLabelValues(models.MovementReasonManual).Inc()

	if req.Delta < 0 && updated.Quantity < updated.Threshold {
		alerts.LowStockAlert(updated)
	}

	writeJSON(w, http.StatusOK, toProductResponse(updated))
}

// GetMovementsHandler godoc
// @Summary Movement history for a product
// @Tags movements
// @Produce json
// @Param id path int true "Product ID"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination (0 returns count only)"
// @Success 200 {object} MovementsSearchResult
// @Failure 400 {string} string "Invalid query"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id}/movements [get]
func GetMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	filter, err := movementFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	movements, total, err := movementRepo.GetByProductID(id, filter)
	if err != nil {
		http.Error(w, "could not fetch movements", http.StatusInternalServerError)
		return
	}

	resp := MovementsSearchResult{
		Data: make([]MovementResponse, len(movements)),
		Meta: Meta{TotalCount: total},
	}
	for i, m := range movements {
		resp.Data[i] = MovementResponse{
			ID:        m.ID,
			ProductID: m.ProductID,
			Delta:     m.Delta,
			Reason:    m.Reason,
			CreatedAt: m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportMovementsHandler godoc
// @Summary Export a product's movement ledger as CSV
// @Tags movements
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Success 200 {string} string "CSV payload"
// @Failure 400 {string} string "Invalid query"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id}/movements/export [get]
func ExportMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	filter, err := movementFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Export is unbounded unless the caller paginates.
	if filter.Limit == nil {
		noLimit := 1 << 20
		filter.Limit = &noLimit
	}

	movements, _, err := movementRepo.GetByProductID(id, filter)
	if err != nil {
		http.Error(w, "could not fetch movements", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=movements-%d.csv", id))

	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "product_id", "delta", "reason", "created_at"})
	for _, m := range movements {
		cw.Write([]string{
			strconv.Itoa(m.ID),
			strconv.Itoa(m.ProductID),
			strconv.Itoa(m.Delta),
			m.Reason,
			m.CreatedAt,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		zap.L().Error("failed to write movements export", zap.Error(err))
	}
}

func movementFilterFromQuery(r *http.Request) (repo.MovementFilter, error) {
	q := r.URL.Query()
	filter := repo.MovementFilter{
		Offset: parseIntPtr(q.Get("offset")),
		Limit:  parseIntPtr(q.Get("limit")),
	}

	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, errors.New("since must be RFC3339")
		}
		filter.Since = &t
	}
	if s := q.Get("until"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, errors.New("until must be RFC3339")
		}
		filter.Until = &t
	}
	if filter.Offset != nil && *filter.Offset < 0 {
		return filter, errors.New("offset must be zero or positive")
	}
	if filter.Limit != nil && *filter.Limit < 0 {
		return filter, errors.New("limit must be zero or positive")
	}
	return filter, nil
}
