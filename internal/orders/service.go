package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// OrderStore is the persistence contract the service runs on.
type OrderStore interface {
	StatusStore
	Create(ctx context.Context, order *domain.Order) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]domain.Order, int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// TotalValidator can reject an order whose client-supplied total does not
// fit its items. No validator is installed by default: totals are trusted.
type TotalValidator func(total decimal.Decimal, items []domain.OrderItem) error

type CreateOrderInput struct {
	CustomerName string
	Email        string
	Phone        string
	Address      string
	Comment      string
	CartItems    []any
	TotalAmount  decimal.Decimal
}

type ListOrdersInput struct {
	Status string
	Limit  int
	Offset int
}

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type OrderPage struct {
	Orders     []domain.Order
	Pagination Pagination
}

type Service struct {
	store         OrderStore
	normalizer    *Normalizer
	statuses      *StatusManager
	publisher     EventPublisher
	validateTotal TotalValidator
	logger        *slog.Logger
}

type ServiceOption func(*Service)

func WithOrderEvents(publisher EventPublisher) ServiceOption {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithTotalValidator(validate TotalValidator) ServiceOption {
	return func(s *Service) {
		s.validateTotal = validate
	}
}

func NewService(store OrderStore, normalizer *Normalizer, statuses *StatusManager, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		normalizer: normalizer,
		statuses:   statuses,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "orders.CreateOrder",
		trace.WithAttributes(attribute.Int("cart.entries", len(in.CartItems))),
	)
	defer func() { endSpan(span, err) }()

	customer, err := validateCustomer(in)
	if err != nil {
		s.logger.Warn("order rejected", "error", err)
		return nil, err
	}

	items, err := s.normalizer.Normalize(ctx, in.CartItems)
	if err != nil {
		s.logger.Warn("order rejected", "error", err, "entries", len(in.CartItems))
		return nil, err
	}

	if s.validateTotal != nil {
		if err := s.validateTotal(in.TotalAmount, items); err != nil {
			s.logger.Warn("order total rejected", "error", err, "total", in.TotalAmount)
			return nil, err
		}
	}

	order := &domain.Order{
		CustomerName: customer.CustomerName,
		Email:        customer.Email,
		Phone:        customer.Phone,
		Address:      customer.Address,
		Comment:      customer.Comment,
		TotalAmount:  in.TotalAmount,
		Status:       domain.OrderStatusCreated,
		Items:        items,
	}

	if err := s.store.Create(ctx, order); err != nil {
		s.logger.Error("failed to create order", "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID))
	ordersCreated.Add(ctx, 1)

	if s.publisher != nil {
		event := domain.OrderCreatedEvent{
			EventID:      uuid.NewString(),
			OrderID:      order.ID,
			CustomerName: order.CustomerName,
			Email:        order.Email,
			TotalAmount:  order.TotalAmount,
			Items:        order.Items,
			Timestamp:    order.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, domain.TopicOrderCreated, orderKey(order.ID), event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	s.logger.Info("order created", "order_id", order.ID, "items", len(order.Items), "total", order.TotalAmount)
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, in ListOrdersInput) (*OrderPage, error) {
	var filter ListFilter
	if strings.TrimSpace(in.Status) != "" {
		status, err := domain.ParseOrderStatus(in.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	limit, offset, err := pageBounds(in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}

	orders, total, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list orders", "error", err)
		return nil, err
	}

	return &OrderPage{
		Orders:     orders,
		Pagination: Pagination{Total: total, Limit: limit, Offset: offset},
	}, nil
}

func (s *Service) GetOrder(ctx context.Context, rawID string) (*domain.Order, error) {
	id, err := ParseOrderID(rawID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.Error("failed to get order", "error", err, "order_id", id)
		}
		return nil, err
	}

	return order.WithDisplayProducts(), nil
}

func (s *Service) SetOrderStatus(ctx context.Context, rawID, rawStatus string) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "orders.SetOrderStatus",
		trace.WithAttributes(attribute.String("order.status", rawStatus)),
	)
	defer func() { endSpan(span, err) }()

	id, err := ParseOrderID(rawID)
	if err != nil {
		return nil, err
	}

	order, err := s.statuses.SetStatus(ctx, id, rawStatus)
	if err != nil {
		if domain.IsPersistence(err) {
			s.logger.Error("failed to set order status", "error", err, "order_id", id)
		}
		return nil, err
	}

	return order, nil
}

// ParseOrderID accepts decimal order ids >= 1.
func ParseOrderID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, &domain.ValidationError{Field: "orderId", Err: domain.ErrInvalidOrderID}
	}
	return id, nil
}

func pageBounds(limit, offset int) (int, int, error) {
	if limit < 0 || offset < 0 {
		return 0, 0, &domain.ValidationError{Field: "pagination", Err: domain.ErrInvalidPage}
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return limit, offset, nil
}

func validateCustomer(in CreateOrderInput) (CreateOrderInput, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Comment = strings.TrimSpace(in.Comment)

	// Limits follow the column widths of the orders table.
	required := []struct {
		field string
		value string
		limit int
	}{
		{"customerName", in.CustomerName, 255},
		{"email", in.Email, 255},
		{"phone", in.Phone, 64},
	}
	for _, r := range required {
		if r.value == "" {
			return in, &domain.ValidationError{Field: r.field, Err: domain.ErrRequiredField}
		}
		if utf8.RuneCountInString(r.value) > r.limit {
			return in, &domain.ValidationError{Field: r.field, Err: fmt.Errorf("%w: at most %d characters", domain.ErrFieldTooLong, r.limit)}
		}
	}
	return in, nil
}

func orderKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// MatchLineTotals is a TotalValidator that requires the client total to
// equal the sum of price * quantity over the normalized items.
func MatchLineTotals(total decimal.Decimal, items []domain.OrderItem) error {
	order := domain.Order{Items: items}
	if sum := order.SumLineTotals(); !sum.Equal(total) {
		return &domain.ValidationError{
			Field: "totalAmount",
			Err:   &totalMismatchError{want: sum, got: total},
		}
	}
	return nil
}

type totalMismatchError struct {
	want, got decimal.Decimal
}

func (e *totalMismatchError) Error() string {
	return "total " + e.got.String() + " does not match items " + e.want.String()
}
