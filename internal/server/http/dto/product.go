package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRequest describes a new catalog entry.
type ProductRequest struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
}

// ProductPatchRequest carries the fields to change; absent fields stay untouched.
type ProductPatchRequest struct {
	Name          *string          `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	Description   *string          `json:"description"`
	ImageURL      *string          `json:"image_url"`
	StockQuantity *int             `json:"stock_quantity"`
}

type ProductResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
