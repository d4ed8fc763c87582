package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderRepository describes order reads outside of placement.
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context) ([]model.OrderSummary, error)
}

// StockLevel is a product row locked for the rest of the transaction.
type StockLevel struct {
	Quantity int
	Price    decimal.Decimal
}

// OrderTx is the set of statements available inside an order transaction.
type OrderTx interface {
	InsertOrder(ctx context.Context, order *model.Order) error
	// LockStock re-reads the product row and holds it until the transaction ends.
	LockStock(ctx context.Context, productID int64) (StockLevel, error)
	InsertItem(ctx context.Context, item *model.OrderItem) error
	// DecrementStock returns false when the row no longer holds enough stock.
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	AppendEvent(ctx context.Context, event *model.OutboxEvent) error
}

// TxManager runs fn inside a single all-or-nothing transaction.
// Returning an error from fn rolls back every statement it issued.
type TxManager interface {
	WithinOrderTx(ctx context.Context, fn func(tx OrderTx) error) error
}
