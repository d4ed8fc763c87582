package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceOrderRequest is the body of POST /api/orders. UserID is optional and
// must match the authenticated user when given.
type PlaceOrderRequest struct {
	UserID          *int64             `json:"user_id"`
	Total           decimal.Decimal    `json:"total"`
	ShippingAddress string             `json:"shipping_address"`
	Items           []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// PlaceOrderResponse confirms a placed order.
type PlaceOrderResponse struct {
	OrderID int64  `json:"order_id"`
	Total   string `json:"total"`
	Status  string `json:"status"`
}

type OrderItemResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

// OrderResponse is an order with its lines.
type OrderResponse struct {
	ID              int64               `json:"id"`
	UserID          int64               `json:"user_id"`
	Total           string              `json:"total"`
	ShippingAddress string              `json:"shipping_address"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []OrderItemResponse `json:"items"`
}

// OrderSummaryResponse is a list entry of GET /api/orders.
type OrderSummaryResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Total           string    `json:"total"`
	ShippingAddress string    `json:"shipping_address"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	ItemCount       int       `json:"item_count"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type StatusResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}
