// Package gateway is the single public entry point. Checkout and admin
// order traffic goes to the orders service; the admin dashboard is served by
// the reporting service.
package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

const statsPath = "/stats"

type Handler struct {
	ordersProxy    *ServiceProxy
	reportingProxy *ServiceProxy
	logger         *slog.Logger
}

func NewHandler(ordersProxy, reportingProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		ordersProxy:    ordersProxy,
		reportingProxy: reportingProxy,
		logger:         logger,
	}
}

func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.ordersProxy, r.URL.Path)
}

// HandleDashboard serves GET /admin/dashboard from the reporting /stats endpoint.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.reportingProxy, statsPath)
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Success: false, Error: message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
