package handlers

import (
	"net/http"
)

// DashboardMetricsHandler godoc
// @Summary Dashboard metrics
// @Description Catalog and ledger aggregates plus the Redis-backed scans-today counter.
// @Tags metrics
// @Produce json
// @Success 200 {object} DashboardMetricsResponse
// @Failure 500 {string} string "Internal error"
// @Router /dashboard/metrics [get]
func DashboardMetricsHandler(w http.ResponseWriter, r *http.Request) {
	m, err := metricsRepo.GetDashboardMetrics()
	if err != nil {
		http.Error(w, "could not fetch metrics", http.StatusInternalServerError)
		return
	}

	resp := DashboardMetricsResponse{
		TotalProducts:    m.TotalProducts,
		TotalMovements:   m.TotalMovements,
		LowStockCount:    m.LowStockCount,
		MostMovedProduct: m.MostMovedProduct,
	}
	if redisSvc != nil {
		resp.ScansToday = redisSvc.ScansToday()
	}
	writeJSON(w, http.StatusOK, resp)
}
