package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

func enqueueOrderCreated(t *testing.T, orders domain.OrderRepository, outbox domain.OutboxRepository) domain.OutboxMessage {
	t.Helper()

	summary, err := orders.Create(context.Background(), sampleCreateInput())
	require.NoError(t, err)
	msg, err := domain.NewOrderCreatedMessage(summary, time.Now())
	require.NoError(t, err)
	stored, err := outbox.Enqueue(msg)
	require.NoError(t, err)
	return stored
}

func TestOutboxRepository_PostgresOrderCreatedRoundTrip(t *testing.T) {
	store := orderTestStore(t)
	outbox := NewOutboxRepository(store)

	stored := enqueueOrderCreated(t, NewOrderRepository(store), outbox)
	require.NotEmpty(t, stored.ID, "outbox id must be generated")

	pending, err := outbox.PullPending(0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	got := pending[0]
	require.Equal(t, stored.ID, got.ID)
	require.Equal(t, domain.AggregateTypeOrder, got.AggregateType)
	require.Equal(t, domain.EventTypeOrderCreated, got.EventType)
	require.Equal(t, "1", got.AggregateID)
	// jsonb нормализует пробелы и порядок ключей, поэтому сравниваем как JSON.
	require.JSONEq(t, string(stored.Payload), string(got.Payload))
}

func TestOutboxRepository_PostgresPendingOrderAndStatus(t *testing.T) {
	store := orderTestStore(t)
	orders := NewOrderRepository(store)
	outbox := NewOutboxRepository(store)

	first := enqueueOrderCreated(t, orders, outbox)
	time.Sleep(5 * time.Millisecond)
	second := enqueueOrderCreated(t, orders, outbox)
	time.Sleep(5 * time.Millisecond)
	third := enqueueOrderCreated(t, orders, outbox)

	batch, err := outbox.PullPending(2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	require.Equal(t, []string{first.ID, second.ID}, []string{batch[0].ID, batch[1].ID})

	stats, err := outbox.Stats()
	require.NoError(t, err)
	require.Equal(t, 3, stats.PendingCount)
	require.False(t, stats.OldestPendingAt.IsZero())
	oldest := stats.OldestPendingAt

	require.NoError(t, outbox.MarkSent(first.ID))
	require.NoError(t, outbox.MarkFailed(second.ID))

	pending, err := outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, third.ID, pending[0].ID)

	stats, err = outbox.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.After(oldest), "oldest pending must move forward after marks")

	var status string
	var attempts int
	require.NoError(t, store.DB().QueryRowContext(context.Background(),
		`SELECT status, attempt_count FROM outbox_messages WHERE id = $1`, second.ID,
	).Scan(&status, &attempts))
	require.Equal(t, "failed", status)
	require.Equal(t, 1, attempts)
}

func TestOutboxRepository_PostgresEmptyPayloadAndFixedID(t *testing.T) {
	store := orderTestStore(t)
	outbox := NewOutboxRepository(store)

	stored, err := outbox.Enqueue(domain.OutboxMessage{
		ID:            "order-7-created",
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   "7",
		EventType:     domain.EventTypeOrderCreated,
	})
	require.NoError(t, err)
	require.Equal(t, "order-7-created", stored.ID)

	pending, err := outbox.PullPending(1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.JSONEq(t, `{}`, string(pending[0].Payload))

	_, err = outbox.Enqueue(domain.OutboxMessage{ID: "order-7-created", AggregateType: domain.AggregateTypeOrder, AggregateID: "7"})
	require.Error(t, err, "duplicate outbox id must be rejected")
	require.True(t, domain.IsPersistence(err))
}

func TestOutboxRepository_PostgresMarkMissing(t *testing.T) {
	outbox := NewOutboxRepository(orderTestStore(t))

	if err := outbox.MarkSent("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
	if err := outbox.MarkFailed("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}
