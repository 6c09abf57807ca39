package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	"github.com/vladislavdragonenkov/breaktime/internal/storage/memory"
)

func orderCreated(t *testing.T, orderID int64) domain.OutboxMessage {
	t.Helper()

	msg, err := domain.NewOrderCreatedMessage(domain.OrderSummary{
		Order: domain.Order{ID: orderID, TotalItems: 2},
		Items: []domain.OrderLineItem{{ID: orderID, OrderID: orderID, ItemName: domain.ItemKindTea, Quantity: 2}},
	}, time.Now())
	if err != nil {
		t.Fatalf("build order.created: %v", err)
	}
	return msg
}

func TestOutboxRepository_EnqueueAssignsID(t *testing.T) {
	repo := memory.NewOutboxRepository()

	saved, err := repo.Enqueue(orderCreated(t, 1))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}
	if saved.AggregateID != "1" || saved.EventType != domain.EventTypeOrderCreated {
		t.Fatalf("unexpected saved message: %+v", saved)
	}

	status, attempts, ok := repo.Status(saved.ID)
	if !ok || status != domain.OutboxStatusPending || attempts != 0 {
		t.Fatalf("unexpected status: %s %d %v", status, attempts, ok)
	}
}

func TestOutboxRepository_DuplicateIDRejected(t *testing.T) {
	repo := memory.NewOutboxRepository()

	msg := orderCreated(t, 1)
	msg.ID = "order-1-created"
	if _, err := repo.Enqueue(msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := repo.Enqueue(msg); !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error for duplicate id, got %v", err)
	}
	if got := len(repo.AllPending()); got != 1 {
		t.Fatalf("duplicate must not be queued, pending=%d", got)
	}
}

func TestOutboxRepository_PullPendingInQueueOrder(t *testing.T) {
	repo := memory.NewOutboxRepository()

	var ids []string
	for orderID := int64(1); orderID <= 3; orderID++ {
		saved, err := repo.Enqueue(orderCreated(t, orderID))
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		ids = append(ids, saved.ID)
	}

	batch, err := repo.PullPending(2)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(batch) != 2 || batch[0].ID != ids[0] || batch[1].ID != ids[1] {
		t.Fatalf("unexpected batch: %+v", batch)
	}

	all, err := repo.PullPending(0)
	if err != nil {
		t.Fatalf("pull pending default: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("default limit must return all 3, got %d", len(all))
	}
}

func TestOutboxRepository_TransitionsOnlyFromPending(t *testing.T) {
	repo := memory.NewOutboxRepository()

	sent, _ := repo.Enqueue(orderCreated(t, 1))
	failed, _ := repo.Enqueue(orderCreated(t, 2))

	if err := repo.MarkSent(sent.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := repo.MarkFailed(failed.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if len(repo.AllPending()) != 0 {
		t.Fatal("marked messages must leave the pending set")
	}

	if err := repo.MarkFailed(sent.ID); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("sent message must not become failed, got %v", err)
	}
	if err := repo.MarkSent("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish for missing id, got %v", err)
	}

	status, attempts, _ := repo.Status(sent.ID)
	if status != domain.OutboxStatusSent || attempts != 1 {
		t.Fatalf("unexpected sent status: %s %d", status, attempts)
	}
	status, _, _ = repo.Status(failed.ID)
	if status != domain.OutboxStatusFailed {
		t.Fatalf("unexpected failed status: %s", status)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	base := time.Date(2024, 9, 17, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo := memory.NewOutboxRepository(memory.WithOutboxClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	first, _ := repo.Enqueue(orderCreated(t, 1))
	_, _ = repo.Enqueue(orderCreated(t, 2))

	stats, _ = repo.Stats()
	if stats.PendingCount != 2 || !stats.OldestPendingAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	stats, _ = repo.Stats()
	if stats.PendingCount != 1 || !stats.OldestPendingAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("oldest pending must move to the second message: %+v", stats)
	}
}
