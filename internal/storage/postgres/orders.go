package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.storage.pool.QueryRow(ctx,
		`SELECT id, user_id, total, shipping_address, status, created_at FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.Total, &order.ShippingAddress, &order.Status, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.storage.pool.Query(ctx,
		`SELECT oi.id, oi.product_id, oi.quantity, oi.price, p.name, p.image_url, p.description
         FROM order_items oi
         JOIN products p ON p.id = oi.product_id
         WHERE oi.order_id = $1
         ORDER BY oi.id`, id)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	order.Items = make([]model.OrderItem, 0)
	for rows.Next() {
		item := model.OrderItem{OrderID: order.ID}
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Price, &item.ProductName, &item.ImageURL, &item.Description); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]model.OrderSummary, error) {
	rows, err := r.storage.pool.Query(ctx,
		`SELECT o.id, o.user_id, o.total, o.shipping_address, o.status, o.created_at, COUNT(oi.id)
         FROM orders o
         LEFT JOIN order_items oi ON oi.order_id = o.id
         GROUP BY o.id
         ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.OrderSummary, 0)
	for rows.Next() {
		var s model.OrderSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.Total, &s.ShippingAddress, &s.Status, &s.CreatedAt, &s.ItemCount); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, s)
	}
	return orders, rows.Err()
}

// WithinOrderTx runs fn in one database transaction. Any error from fn rolls
// back the order header, its items and every stock change made so far.
func (s *Storage) WithinOrderTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	return s.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, order *model.Order) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, total, shipping_address, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		order.UserID, order.Total, order.ShippingAddress, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgForeignKeyViolation:
			return domainErrors.Invalid("user_id", "does not reference an existing user")
		case pgNumericOutOfRange:
			return domainErrors.Invalid("total", "is out of range")
		}
		return domainErrors.TransactionFailure(fmt.Errorf("insert order: %w", err))
	}
	return nil
}

func (t *orderTx) LockStock(ctx context.Context, productID int64) (repository.StockLevel, error) {
	var level repository.StockLevel
	err := t.tx.QueryRow(ctx,
		`SELECT stock_quantity, price FROM products WHERE id = $1 FOR UPDATE`, productID,
	).Scan(&level.Quantity, &level.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return level, &domainErrors.ProductNotFoundError{ProductID: productID}
		}
		return level, domainErrors.TransactionFailure(fmt.Errorf("lock product %d: %w", productID, err))
	}
	return level, nil
}

func (t *orderTx) InsertItem(ctx context.Context, item *model.OrderItem) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id`,
		item.OrderID, item.ProductID, item.Quantity, item.Price,
	).Scan(&item.ID)
	if err != nil {
		if pgErrorCode(err) == pgNumericOutOfRange {
			return domainErrors.Invalid("items", fmt.Sprintf("quantity or price of product %d is out of range", item.ProductID))
		}
		return domainErrors.TransactionFailure(fmt.Errorf("insert order item: %w", err))
	}
	return nil
}

func (t *orderTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW() WHERE id = $1 AND stock_quantity >= $2`,
		productID, quantity)
	if err != nil {
		if pgErrorCode(err) == pgCheckViolation {
			return false, nil
		}
		return false, domainErrors.TransactionFailure(fmt.Errorf("decrement stock for product %d: %w", productID, err))
	}
	return tag.RowsAffected() == 1, nil
}

func (t *orderTx) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, orderID)
	if err != nil {
		return domainErrors.TransactionFailure(fmt.Errorf("update order status: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (t *orderTx) AppendEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO outbox (aggregate_id, event_type, payload) VALUES ($1, $2, $3) RETURNING id, created_at`,
		event.AggregateID, event.Type, event.Payload,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return domainErrors.TransactionFailure(fmt.Errorf("append outbox event: %w", err))
	}
	return nil
}
