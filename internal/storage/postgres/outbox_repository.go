package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

const defaultOutboxPullLimit = 100

const (
	insertOutboxSQL = `
INSERT INTO outbox_messages (id, aggregate_type, aggregate_id, event_type, payload, status)
VALUES ($1, $2, $3, $4, $5::jsonb, 'pending')`

	selectPendingOutboxSQL = `
SELECT id, aggregate_type, aggregate_id, event_type, payload::text
FROM outbox_messages
WHERE status = 'pending'
ORDER BY created_at, id
LIMIT $1`

	pendingOutboxStatsSQL = `
SELECT COUNT(*), MIN(created_at)
FROM outbox_messages
WHERE status = 'pending'`

	// Переход разрешён только из pending: повторная отметка не меняет attempt_count.
	markOutboxSQL = `
UPDATE outbox_messages
SET status = $2, attempt_count = attempt_count + 1, updated_at = $3
WHERE id = $1 AND status = 'pending'`
)

// OutboxRepository — outbox событий заказов в таблице outbox_messages.
// Запись в outbox идёт отдельным запросом после коммита заказа.
type OutboxRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewOutboxRepository создаёт outbox поверх пула Store.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{db: store.DB(), now: time.Now}
}

// Enqueue сохраняет событие как pending; пустой ID заменяется UUID.
func (r *OutboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx, insertOutboxSQL,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, string(msg.Body()),
	); err != nil {
		return domain.OutboxMessage{}, wrapStoreError("enqueue outbox message", err)
	}
	return msg, nil
}

// PullPending возвращает до limit самых старых pending-событий, не меняя их статус.
func (r *OutboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	if limit <= 0 {
		limit = defaultOutboxPullLimit
	}
	rows, err := r.db.QueryContext(ctx, selectPendingOutboxSQL, limit)
	if err != nil {
		return nil, wrapStoreError("pull pending outbox messages", err)
	}
	defer rows.Close()

	return scanOutboxMessages(rows, limit)
}

// Stats считает backlog по частичному индексу pending-событий.
func (r *OutboxRepository) Stats() (domain.OutboxStats, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	var (
		count  int
		oldest sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, pendingOutboxStatsSQL).Scan(&count, &oldest); err != nil {
		return domain.OutboxStats{}, wrapStoreError("outbox stats", err)
	}

	stats := domain.OutboxStats{PendingCount: count}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

// MarkSent отмечает событие доставленным.
func (r *OutboxRepository) MarkSent(id string) error {
	return r.mark(id, domain.OutboxStatusSent)
}

// MarkFailed отмечает событие недоставленным.
func (r *OutboxRepository) MarkFailed(id string) error {
	return r.mark(id, domain.OutboxStatusFailed)
}

func (r *OutboxRepository) mark(id string, status domain.OutboxStatus) error {
	ctx, cancel := r.opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx, markOutboxSQL, id, string(status), r.now().UTC())
	if err != nil {
		return wrapStoreError(fmt.Sprintf("mark outbox message %s", status), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapStoreError(fmt.Sprintf("mark outbox message %s", status), err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: outbox message %q is not pending", domain.ErrOutboxPublish, id)
	}
	return nil
}

// opContext ограничивает запрос opTimeout: интерфейс outbox не принимает ctx.
func (r *OutboxRepository) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func scanOutboxMessages(rows *sql.Rows, capacity int) ([]domain.OutboxMessage, error) {
	messages := make([]domain.OutboxMessage, 0, capacity)
	for rows.Next() {
		var (
			msg     domain.OutboxMessage
			payload string
		)
		if err := rows.Scan(&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &payload); err != nil {
			return nil, wrapStoreError("scan outbox message", err)
		}
		msg.Payload = []byte(payload)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("iterate outbox rows", err)
	}
	return messages, nil
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
