package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createOrderRequest struct {
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Comment      string          `json:"comment"`
	CartItems    []any           `json:"cartItems"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

type createOrderResponse struct {
	Success bool  `json:"success"`
	OrderID int64 `json:"orderId"`
}

type orderResponse struct {
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order"`
}

type listOrdersResponse struct {
	Success    bool           `json:"success"`
	Orders     []domain.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Comment:      req.Comment,
		CartItems:    req.CartItems,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, createOrderResponse{Success: true, OrderID: order.ID})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := queryInt(query.Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(query.Get("offset"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	page, err := h.service.ListOrders(r.Context(), ListOrdersInput{
		Status: query.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("orders listed", "count", len(page.Orders), "total", page.Pagination.Total)
	h.writeJSON(w, http.StatusOK, listOrdersResponse{
		Success:    true,
		Orders:     page.Orders,
		Pagination: page.Pagination,
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: order})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.SetOrderStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: order})
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// writeServiceError maps the error taxonomy onto status codes. Storage
// details stay in the logs.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, validationErr.Error())
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, "order not found")
	default:
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Success: false, Error: message})
}
