package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

// SQLSTATE-коды нарушений ограничений, которые различаем в ошибках хранилища.
const (
	pgCodeForeignKeyViolation = "23503"
	pgCodeUniqueViolation     = "23505"
	pgCodeCheckViolation      = "23514"
	pgCodeNotNullViolation    = "23502"
	pgCodeInvalidTextRepr     = "22P02"
)

const selectSummaryColumns = `
	SELECT o.id, o.created_at, o.total_items,
	       oi.id, oi.order_id, oi.item_name::text, oi.quantity, oi.created_at
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.id
`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(ctx context.Context, input domain.CreateOrderInput) (summary domain.OrderSummary, err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.OrderSummary{}, wrapStoreError("begin tx", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var order domain.Order
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (total_items)
		VALUES ($1)
		RETURNING id, created_at, total_items
	`, input.TotalItems()).Scan(&order.ID, &order.CreatedAt, &order.TotalItems)
	if err != nil {
		return domain.OrderSummary{}, wrapStoreError("insert order", err)
	}

	items := make([]domain.OrderLineItem, 0, len(input.Items))
	for _, in := range input.Items {
		var item domain.OrderLineItem
		if err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, item_name, quantity)
			VALUES ($1, $2::text::break_time_item, $3)
			RETURNING id, order_id, item_name::text, quantity, created_at
		`,
			order.ID, in.ItemName.String(), in.Quantity,
		).Scan(&item.ID, &item.OrderID, &item.ItemName, &item.Quantity, &item.CreatedAt); err != nil {
			return domain.OrderSummary{}, wrapStoreError("insert order item", err)
		}
		items = append(items, item)
	}

	if err = tx.Commit(); err != nil {
		return domain.OrderSummary{}, wrapStoreError("commit create order", err)
	}

	order.CreatedAt = order.CreatedAt.UTC()
	for i := range items {
		items[i].CreatedAt = items[i].CreatedAt.UTC()
	}

	return domain.OrderSummary{Order: order, Items: items}, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.OrderSummary, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectSummaryColumns+`
		WHERE o.id = $1
		ORDER BY oi.id ASC
	`, id)
	if err != nil {
		return domain.OrderSummary{}, false, wrapStoreError("select order", err)
	}
	defer rows.Close()

	summaries, err := collectSummaries(rows)
	if err != nil {
		return domain.OrderSummary{}, false, err
	}
	if len(summaries) == 0 {
		return domain.OrderSummary{}, false, nil
	}

	return summaries[0], true, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.OrderSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectSummaryColumns+`
		ORDER BY o.created_at DESC, o.id DESC, oi.id ASC
	`)
	if err != nil {
		return nil, wrapStoreError("list orders", err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

// collectSummaries группирует строки LEFT JOIN по заказам, сохраняя порядок выборки.
// Заказ без позиций даёт одну строку с NULL в колонках order_items.
func collectSummaries(rows *sql.Rows) ([]domain.OrderSummary, error) {
	summaries := make([]domain.OrderSummary, 0)
	index := make(map[int64]int)

	for rows.Next() {
		var (
			order         domain.Order
			itemID        sql.NullInt64
			itemOrderID   sql.NullInt64
			itemName      sql.NullString
			itemQuantity  sql.NullInt64
			itemCreatedAt sql.NullTime
		)
		if err := rows.Scan(
			&order.ID, &order.CreatedAt, &order.TotalItems,
			&itemID, &itemOrderID, &itemName, &itemQuantity, &itemCreatedAt,
		); err != nil {
			return nil, wrapStoreError("scan order row", err)
		}

		pos, ok := index[order.ID]
		if !ok {
			order.CreatedAt = order.CreatedAt.UTC()
			summaries = append(summaries, domain.OrderSummary{
				Order: order,
				Items: make([]domain.OrderLineItem, 0),
			})
			pos = len(summaries) - 1
			index[order.ID] = pos
		}

		if !itemID.Valid {
			continue
		}

		kind, err := domain.ParseItemKind(itemName.String)
		if err != nil {
			return nil, wrapStoreError("decode order item", err)
		}
		summaries[pos].Items = append(summaries[pos].Items, domain.OrderLineItem{
			ID:        itemID.Int64,
			OrderID:   itemOrderID.Int64,
			ItemName:  kind,
			Quantity:  int(itemQuantity.Int64),
			CreatedAt: itemCreatedAt.Time.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("iterate order rows", err)
	}

	return summaries, nil
}

// wrapStoreError превращает ошибку драйвера в PersistenceError, помечая нарушения ограничений.
func wrapStoreError(op string, err error) error {
	if code := pgErrorCode(err); isConstraintCode(code) {
		op = fmt.Sprintf("%s: constraint violation %s", op, code)
	}
	return domain.NewPersistenceError(op, err)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isConstraintCode(code string) bool {
	switch code {
	case pgCodeForeignKeyViolation, pgCodeUniqueViolation, pgCodeCheckViolation,
		pgCodeNotNullViolation, pgCodeInvalidTextRepr:
		return true
	default:
		return false
	}
}

var _ domain.OrderRepository = (*orderRepository)(nil)
