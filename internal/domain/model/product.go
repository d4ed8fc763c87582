package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry.
type Product struct {
	ID            int64
	Name          string          `validate:"required,max=255"`
	Price         decimal.Decimal `validate:"money"`
	Description   string
	ImageURL      string `validate:"max=2048"`
	StockQuantity int    `validate:"gte=0,lte=2147483647"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductPatch carries the fields of a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name          *string          `validate:"omitempty,min=1,max=255"`
	Price         *decimal.Decimal `validate:"omitempty,money"`
	Description   *string
	ImageURL      *string `validate:"omitempty,max=2048"`
	StockQuantity *int    `validate:"omitempty,gte=0,lte=2147483647"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil && p.ImageURL == nil && p.StockQuantity == nil
}
