package orders

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

// TransitionPolicy decides whether an order may move from one status to
// another. Both statuses are already known to be valid.
type TransitionPolicy interface {
	Allow(from, to domain.OrderStatus) error
}

// PermissiveTransitions allows every change between valid statuses.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Allow(_, _ domain.OrderStatus) error { return nil }

// TransitionTable allows a change only when the target is listed for the
// current status. Re-applying the current status is always allowed.
type TransitionTable map[domain.OrderStatus][]domain.OrderStatus

func (t TransitionTable) Allow(from, to domain.OrderStatus) error {
	if from == to || slices.Contains(t[from], to) {
		return nil
	}
	return &domain.ValidationError{
		Field: "status",
		Err:   fmt.Errorf("%w: %s -> %s", domain.ErrTransitionDenied, from, to),
	}
}

// LifecycleTransitions is CREATED -> VIEWED -> COMPLETED with CANCELED
// reachable from every non-terminal status.
var LifecycleTransitions = forwardTransitions(domain.OrderStatuses)

// forwardTransitions lets every non-terminal status move to any status
// listed after it. Terminal statuses get no entry.
func forwardTransitions(lifecycle []domain.OrderStatus) TransitionTable {
	table := TransitionTable{}
	for i, status := range lifecycle {
		if status.Terminal() {
			continue
		}
		table[status] = slices.Clone(lifecycle[i+1:])
	}
	return table
}

// StatusStore is the part of the order store status changes go through.
type StatusStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}

type StatusManager struct {
	store     StatusStore
	policy    TransitionPolicy
	publisher EventPublisher
	logger    *slog.Logger
}

type StatusOption func(*StatusManager)

func WithTransitionPolicy(policy TransitionPolicy) StatusOption {
	return func(m *StatusManager) {
		if policy != nil {
			m.policy = policy
		}
	}
}

func WithStatusEvents(publisher EventPublisher) StatusOption {
	return func(m *StatusManager) {
		m.publisher = publisher
	}
}

func NewStatusManager(store StatusStore, logger *slog.Logger, opts ...StatusOption) *StatusManager {
	m := &StatusManager{
		store:  store,
		policy: PermissiveTransitions{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetStatus validates rawStatus, checks the transition against the policy
// and writes it. The returned order carries the display projection of its
// items. Concurrent updates of the same order are last-write-wins.
func (m *StatusManager) SetStatus(ctx context.Context, id int64, rawStatus string) (*domain.Order, error) {
	status, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	current, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.policy.Allow(current.Status, status); err != nil {
		m.logger.Warn("status transition rejected", "order_id", id, "from", current.Status, "to", status)
		return nil, err
	}

	updated, err := m.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	m.logger.Info("order status changed", "order_id", id, "from", current.Status, "to", status)

	if m.publisher != nil {
		event := domain.OrderStatusChangedEvent{
			EventID:   uuid.NewString(),
			OrderID:   id,
			From:      current.Status,
			To:        status,
			Timestamp: time.Now().UTC(),
		}
		if err := m.publisher.Publish(ctx, domain.TopicOrderStatusChanged, orderKey(id), event); err != nil {
			m.logger.Error("failed to publish order status changed event", "error", err, "order_id", id)
		}
	}

	return updated.WithDisplayProducts(), nil
}
