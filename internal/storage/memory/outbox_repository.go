package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

const defaultPullLimit = 100

type outboxEntry struct {
	msg      domain.OutboxMessage
	status   domain.OutboxStatus
	attempts int
	queuedAt time.Time
}

// OutboxRepository хранит события заказов в памяти в порядке постановки.
type OutboxRepository struct {
	mu    sync.RWMutex
	queue []*outboxEntry
	byID  map[string]*outboxEntry
	now   func() time.Time
}

// OutboxOption настраивает OutboxRepository.
type OutboxOption func(*OutboxRepository)

// WithOutboxClock подменяет время постановки событий.
func WithOutboxClock(now func() time.Time) OutboxOption {
	return func(r *OutboxRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewOutboxRepository создаёт пустой in-memory outbox.
func NewOutboxRepository(opts ...OutboxOption) *OutboxRepository {
	r := &OutboxRepository{
		byID: make(map[string]*outboxEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enqueue ставит событие в очередь со статусом pending. Повтор ID отклоняется, как первичный ключ в PostgreSQL.
func (r *OutboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if _, exists := r.byID[msg.ID]; exists {
		return domain.OutboxMessage{}, domain.NewPersistenceError("enqueue outbox message",
			fmt.Errorf("duplicate outbox id %q", msg.ID))
	}

	entry := &outboxEntry{
		msg:      msg,
		status:   domain.OutboxStatusPending,
		queuedAt: r.now().UTC(),
	}
	r.queue = append(r.queue, entry)
	r.byID[msg.ID] = entry
	return msg, nil
}

// PullPending возвращает до limit самых старых pending-событий.
func (r *OutboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultPullLimit
	}
	return r.pending(limit), nil
}

// Stats возвращает размер backlog и время постановки самого старого pending-события.
func (r *OutboxRepository) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, entry := range r.queue {
		if entry.status != domain.OutboxStatusPending {
			continue
		}
		if stats.PendingCount == 0 {
			stats.OldestPendingAt = entry.queuedAt
		}
		stats.PendingCount++
	}
	return stats, nil
}

// MarkSent фиксирует успешную публикацию.
func (r *OutboxRepository) MarkSent(id string) error {
	return r.transition(id, domain.OutboxStatusSent)
}

// MarkFailed фиксирует, что событие ушло в DLQ или не может быть опубликовано.
func (r *OutboxRepository) MarkFailed(id string) error {
	return r.transition(id, domain.OutboxStatusFailed)
}

// Status возвращает состояние события и число отметок; ok=false, если события нет.
func (r *OutboxRepository) Status(id string) (status domain.OutboxStatus, attempts int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byID[id]
	if !ok {
		return "", 0, false
	}
	return entry.status, entry.attempts, true
}

// AllPending возвращает все pending-события в порядке постановки.
func (r *OutboxRepository) AllPending() []domain.OutboxMessage {
	return r.pending(0)
}

func (r *OutboxRepository) pending(limit int) []domain.OutboxMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OutboxMessage, 0)
	for _, entry := range r.queue {
		if entry.status != domain.OutboxStatusPending {
			continue
		}
		result = append(result, entry.msg)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

func (r *OutboxRepository) transition(id string, status domain.OutboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok || entry.status != domain.OutboxStatusPending {
		return domain.ErrOutboxPublish
	}
	entry.status = status
	entry.attempts++
	return nil
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
