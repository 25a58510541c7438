package reporting

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator, logger *slog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     logger,
	}
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.aggregator.DashboardStats(r.Context())

	h.logger.Info("dashboard stats served", "orders", stats.OrdersCount, "products", stats.ProductsCount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
