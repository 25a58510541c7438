// Package worker records order events into the order journal and keeps the
// dashboard cache fresh.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Irine7/securetech-sub001/internal/domain"
	"github.com/Irine7/securetech-sub001/internal/messaging"
)

var (
	meter = otel.Meter("worker")

	eventsRecorded, _ = meter.Int64Counter("worker.events_recorded",
		metric.WithDescription("Order events appended to the journal, by topic."),
	)
	eventsSkipped, _ = meter.Int64Counter("worker.events_skipped",
		metric.WithDescription("Order events dropped as duplicates or undecodable, by reason."),
	)
)

type JournalStore interface {
	Record(ctx context.Context, event *domain.OrderEvent) (bool, error)
}

// CacheInvalidator drops cached dashboard statistics.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type JournalHandler struct {
	store  JournalStore
	cache  CacheInvalidator
	logger *slog.Logger
}

func NewJournalHandler(store JournalStore, cache CacheInvalidator, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// envelope holds the fields shared by every order event.
type envelope struct {
	EventID   string    `json:"eventId"`
	OrderID   int64     `json:"orderId"`
	Timestamp time.Time `json:"timestamp"`
}

// Handle journals one delivery. Undecodable payloads are logged and skipped
// so they do not block the partition; storage failures are returned and the
// message is redelivered.
func (h *JournalHandler) Handle(ctx context.Context, d messaging.Delivery) error {
	var env envelope
	if err := json.Unmarshal(d.Payload, &env); err != nil {
		h.logger.Error("skipping undecodable order event", "topic", d.Topic, "key", d.Key, "error", err)
		eventsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "decode")))
		return nil
	}

	if env.OrderID == 0 {
		if id, err := strconv.ParseInt(d.Key, 10, 64); err == nil {
			env.OrderID = id
		}
	}
	if env.OrderID < 1 {
		h.logger.Error("skipping order event without order id", "topic", d.Topic, "key", d.Key)
		eventsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "order_id")))
		return nil
	}

	event := &domain.OrderEvent{
		EventID:    eventID(env.EventID, d),
		OrderID:    env.OrderID,
		Type:       d.Topic,
		Payload:    d.Payload,
		OccurredAt: occurredAt(env.Timestamp, d.Time),
	}

	inserted, err := h.store.Record(ctx, event)
	if err != nil {
		h.logger.Error("failed to record order event", "error", err, "event_id", event.EventID, "order_id", event.OrderID)
		return fmt.Errorf("record %s event: %w", d.Topic, err)
	}

	if !inserted {
		h.logger.Info("order event already recorded", "event_id", event.EventID, "order_id", event.OrderID)
		eventsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "duplicate")))
		return nil
	}

	eventsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", d.Topic)))
	h.logger.Info("order event recorded", "event_id", event.EventID, "order_id", event.OrderID, "type", event.Type)

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("failed to invalidate stats cache", "error", err, "order_id", event.OrderID)
		}
	}

	return nil
}

// eventID keeps the producer-assigned id. Events without one get a name-based
// id derived from the message, so a redelivery maps to the same journal row.
func eventID(raw string, d messaging.Delivery) string {
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	name := append([]byte(d.Topic+"\x00"+d.Key+"\x00"), d.Payload...)
	return uuid.NewSHA1(uuid.NameSpaceOID, name).String()
}

func occurredAt(event, message time.Time) time.Time {
	switch {
	case !event.IsZero():
		return event
	case !message.IsZero():
		return message
	default:
		return time.Now().UTC()
	}
}
