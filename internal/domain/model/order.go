package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Order describes a checkout placed by a user.
type Order struct {
	ID              int64
	UserID          int64
	Total           decimal.Decimal
	ShippingAddress string
	Status          OrderStatus
	CreatedAt       time.Time
	Items           []OrderItem
}

// OrderItem is one line of an order. Price is captured at purchase time.
// ProductName, ImageURL and Description are filled on reads from the current catalog.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	Quantity    int
	Price       decimal.Decimal
	ProductName string
	ImageURL    string
	Description string
}

// OrderSummary is an order header with the number of its lines.
type OrderSummary struct {
	Order
	ItemCount int
}

// OrderLine is a requested line of a new order.
type OrderLine struct {
	ProductID int64           `validate:"gt=0"`
	Quantity  int             `validate:"gt=0,lte=2147483647"`
	Price     decimal.Decimal `validate:"money"`
}

// PlaceOrderInput is the proposal handed to order placement.
type PlaceOrderInput struct {
	BuyerID         int64           `validate:"gt=0"`
	Total           decimal.Decimal `validate:"money"`
	ShippingAddress string          `validate:"max=1000"`
	Items           []OrderLine     `validate:"required,min=1,dive"`
	IdempotencyKey  string          `validate:"max=255"`
}

// PriceMode selects where order line prices come from.
type PriceMode string

const (
	// PriceModeCatalog stores the product price read inside the order transaction.
	PriceModeCatalog PriceMode = "catalog"
	// PriceModeTrusted stores the price supplied by the caller.
	PriceModeTrusted PriceMode = "trusted"
)
