package worker

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Irine7/securetech-sub001/internal/domain"
	"github.com/Irine7/securetech-sub001/internal/storage"
)

type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Record appends event to the journal. It reports false when an event with
// the same id was already recorded.
func (r *JournalRepository) Record(ctx context.Context, event *domain.OrderEvent) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO order_events (event_id, order_id, type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING recorded_at
	`, event.EventID, event.OrderID, event.Type, event.Payload, event.OccurredAt,
	).Scan(&event.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storage.Wrap("journal.record", err)
	}
	return true, nil
}

// ListByOrder returns the journal of one order, oldest first.
func (r *JournalRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, order_id, type, payload, occurred_at, recorded_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY occurred_at, recorded_at
	`, orderID)
	if err != nil {
		return nil, storage.Wrap("journal.list", err)
	}
	defer func() { _ = rows.Close() }()

	var events []domain.OrderEvent
	for rows.Next() {
		var e domain.OrderEvent
		if err := rows.Scan(&e.EventID, &e.OrderID, &e.Type, &e.Payload, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, storage.Wrap("journal.list", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("journal.list", err)
	}

	return events, nil
}
