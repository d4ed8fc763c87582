package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OrderSettings tunes order placement.
type OrderSettings struct {
	PriceMode   model.PriceMode
	VerifyBuyer bool
}

// OrderUseCase places orders and moves them through their lifecycle.
type OrderUseCase struct {
	tx       repository.TxManager
	orders   repository.OrderRepository
	users    repository.UserRepository
	keys     repository.IdempotencyStore
	settings OrderSettings
	logger   *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase. keys may be nil when idempotency is disabled.
func NewOrderUseCase(
	tx repository.TxManager,
	orders repository.OrderRepository,
	users repository.UserRepository,
	keys repository.IdempotencyStore,
	settings OrderSettings,
	logger *slog.Logger,
) *OrderUseCase {
	if settings.PriceMode == "" {
		settings.PriceMode = model.PriceModeCatalog
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUseCase{tx: tx, orders: orders, users: users, keys: keys, settings: settings, logger: logger}
}

// PlaceOrder atomically reserves stock for every line and records the order.
// Either all lines are stored with their stock decremented or nothing changes.
// replayed is true when an earlier placement with the same idempotency key is
// returned. Keys are scoped to the buyer.
func (u *OrderUseCase) PlaceOrder(ctx context.Context, in model.PlaceOrderInput) (order *model.Order, replayed bool, err error) {
	if err := validateStruct(in); err != nil {
		return nil, false, err
	}

	if u.settings.VerifyBuyer {
		if err := u.checkBuyer(ctx, in.BuyerID); err != nil {
			return nil, false, err
		}
	}

	if in.IdempotencyKey != "" && u.keys != nil {
		key := fmt.Sprintf("%d:%s", in.BuyerID, in.IdempotencyKey)
		existing, reserved, err := u.keys.Reserve(ctx, key)
		if err != nil {
			return nil, false, domainErrors.TransactionFailure(fmt.Errorf("reserve idempotency key: %w", err))
		}
		if !reserved {
			if existing == 0 {
				return nil, false, fmt.Errorf("%w: order with this idempotency key is in progress", domainErrors.ErrAlreadyExists)
			}
			order, err := u.orders.GetByID(ctx, existing)
			if err != nil {
				return nil, false, err
			}
			return order, true, nil
		}
		defer u.settleKey(ctx, key, &order, &err)
	}

	order, err = u.place(ctx, in)
	if err != nil {
		return nil, false, err
	}

	u.logger.Info("order placed",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", order.UserID),
		slog.Int("items", len(order.Items)),
		slog.String("total", order.Total.StringFixed(2)),
	)
	return order, false, nil
}

func (u *OrderUseCase) checkBuyer(ctx context.Context, buyerID int64) error {
	if _, err := u.users.GetByID(ctx, buyerID); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return domainErrors.Invalid("user_id", "does not reference an existing user")
		}
		return domainErrors.TransactionFailure(fmt.Errorf("check buyer: %w", err))
	}
	return nil
}

// settleKey records the outcome of a placement under its idempotency key.
func (u *OrderUseCase) settleKey(ctx context.Context, key string, order **model.Order, err *error) {
	ctx = context.WithoutCancel(ctx)
	if *err != nil || *order == nil {
		if relErr := u.keys.Release(ctx, key); relErr != nil {
			u.logger.Warn("release idempotency key", slog.String("op", "PlaceOrder"), slog.String("error", relErr.Error()))
		}
		return
	}
	if compErr := u.keys.Complete(ctx, key, (*order).ID); compErr != nil {
		u.logger.Warn("complete idempotency key",
			slog.String("op", "PlaceOrder"),
			slog.Int64("order_id", (*order).ID),
			slog.String("error", compErr.Error()),
		)
	}
}

func (u *OrderUseCase) place(ctx context.Context, in model.PlaceOrderInput) (*model.Order, error) {
	var order *model.Order
	err := u.tx.WithinOrderTx(ctx, func(tx repository.OrderTx) error {
		order = &model.Order{
			UserID:          in.BuyerID,
			Total:           in.Total.Round(2),
			ShippingAddress: in.ShippingAddress,
			Status:          model.OrderStatusPending,
			Items:           make([]model.OrderItem, 0, len(in.Items)),
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		sum := decimal.Zero
		for _, line := range in.Items {
			item, err := u.reserveLine(ctx, tx, order.ID, line)
			if err != nil {
				return err
			}
			sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			order.Items = append(order.Items, item)
		}

		if u.settings.PriceMode == model.PriceModeCatalog && !sum.Equal(order.Total) {
			return fmt.Errorf("%w: declared %s, items add up to %s",
				domainErrors.ErrTotalMismatch, order.Total.StringFixed(2), sum.StringFixed(2))
		}

		payload, err := json.Marshal(newOrderPlacedPayload(order))
		if err != nil {
			return fmt.Errorf("encode order event: %w", err)
		}
		return tx.AppendEvent(ctx, &model.OutboxEvent{AggregateID: order.ID, Type: model.EventOrderPlaced, Payload: payload})
	})
	if err != nil {
		return nil, classifyTxError(err)
	}
	return order, nil
}

// reserveLine locks the product row, checks stock, stores the line and
// decrements stock, in that order.
func (u *OrderUseCase) reserveLine(ctx context.Context, tx repository.OrderTx, orderID int64, line model.OrderLine) (model.OrderItem, error) {
	level, err := tx.LockStock(ctx, line.ProductID)
	if err != nil {
		return model.OrderItem{}, err
	}
	outOfStock := &domainErrors.OutOfStockError{ProductID: line.ProductID, Available: level.Quantity, Requested: line.Quantity}
	if level.Quantity < line.Quantity {
		return model.OrderItem{}, outOfStock
	}

	price := line.Price.Round(2)
	if u.settings.PriceMode == model.PriceModeCatalog {
		price = level.Price
	}

	item := model.OrderItem{OrderID: orderID, ProductID: line.ProductID, Quantity: line.Quantity, Price: price}
	if err := tx.InsertItem(ctx, &item); err != nil {
		return model.OrderItem{}, err
	}

	ok, err := tx.DecrementStock(ctx, line.ProductID, line.Quantity)
	if err != nil {
		return model.OrderItem{}, err
	}
	if !ok {
		return model.OrderItem{}, outOfStock
	}
	return item, nil
}

// UpdateStatus moves order to status and records an event for the change.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if orderID <= 0 {
		return domainErrors.Invalid("order_id", "must be greater than 0")
	}
	if !status.Valid() {
		return domainErrors.Invalid("status", "must be one of pending, shipped, delivered")
	}

	err := u.tx.WithinOrderTx(ctx, func(tx repository.OrderTx) error {
		if err := tx.UpdateOrderStatus(ctx, orderID, status); err != nil {
			return err
		}
		payload, err := json.Marshal(statusChangedPayload{OrderID: orderID, Status: status})
		if err != nil {
			return fmt.Errorf("encode status event: %w", err)
		}
		return tx.AppendEvent(ctx, &model.OutboxEvent{AggregateID: orderID, Type: model.EventOrderStatusChanged, Payload: payload})
	})
	if err != nil {
		return classifyTxError(err)
	}

	u.logger.Info("order status updated", slog.Int64("order_id", orderID), slog.String("status", string(status)))
	return nil
}

// Get returns order with its items.
func (u *OrderUseCase) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	if orderID <= 0 {
		return nil, domainErrors.Invalid("order_id", "must be greater than 0")
	}
	return u.orders.GetByID(ctx, orderID)
}

// List returns order headers, newest first.
func (u *OrderUseCase) List(ctx context.Context) ([]model.OrderSummary, error) {
	return u.orders.List(ctx)
}

// classifyTxError keeps business outcomes as they are and marks everything
// else coming out of a transaction as retryable.
func classifyTxError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domainErrors.ErrValidation),
		errors.Is(err, domainErrors.ErrNotFound),
		errors.Is(err, domainErrors.ErrProductNotFound),
		errors.Is(err, domainErrors.ErrOutOfStock),
		errors.Is(err, domainErrors.ErrTotalMismatch):
		return err
	}
	return domainErrors.TransactionFailure(err)
}

type orderEventItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderPlacedPayload struct {
	OrderID int64             `json:"order_id"`
	UserID  int64             `json:"user_id"`
	Total   decimal.Decimal   `json:"total"`
	Status  model.OrderStatus `json:"status"`
	Items   []orderEventItem  `json:"items"`
}

func newOrderPlacedPayload(order *model.Order) orderPlacedPayload {
	items := make([]orderEventItem, len(order.Items))
	for i, it := range order.Items {
		items[i] = orderEventItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
	}
	return orderPlacedPayload{OrderID: order.ID, UserID: order.UserID, Total: order.Total, Status: order.Status, Items: items}
}

type statusChangedPayload struct {
	OrderID int64             `json:"order_id"`
	Status  model.OrderStatus `json:"status"`
}
