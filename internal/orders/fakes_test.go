package orders

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Irine7/securetech-sub001/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	product *domain.Product
	err     error
	calls   int
}

func (c *fakeCatalog) FindFirst(context.Context) (*domain.Product, error) {
	c.calls++
	return c.product, c.err
}

type fakeStore struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order
	nextID int64
	clock  time.Time

	createErr error
	listErr   error
	updateErr error

	createCalls int
	updateCalls int
	lastFilter  ListFilter
	lastLimit   int
	lastOffset  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: make(map[int64]*domain.Order),
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}

	s.nextID++
	order.ID = s.nextID
	order.CreatedAt = s.clock
	order.UpdatedAt = s.clock
	for i := range order.Items {
		order.Items[i].ID = s.nextID*100 + int64(i)
		order.Items[i].OrderID = order.ID
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, &domain.NotFoundError{OrderID: id}
	}
	return cloneOrder(order), nil
}

func (s *fakeStore) List(_ context.Context, filter ListFilter, limit, offset int) ([]domain.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastFilter, s.lastLimit, s.lastOffset = filter, limit, offset
	if s.listErr != nil {
		return nil, 0, s.listErr
	}

	var matched []domain.Order
	for id := s.nextID; id >= 1; id-- {
		order, ok := s.orders[id]
		if !ok || (filter.Status != nil && order.Status != *filter.Status) {
			continue
		}
		matched = append(matched, *cloneOrder(order))
	}

	total := len(matched)
	if offset >= total {
		return []domain.Order{}, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateCalls++
	if s.updateErr != nil {
		return nil, s.updateErr
	}

	order, ok := s.orders[id]
	if !ok {
		return nil, &domain.NotFoundError{OrderID: id}
	}

	s.clock = s.clock.Add(time.Second)
	order.Status = status
	order.UpdatedAt = s.clock
	return cloneOrder(order), nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	return &clone
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return p.err
}
