package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, in model.Registration) (*model.User, string, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, string, error)
	ParseToken(token string) (int64, error)
	Profile(ctx context.Context, userID int64) (*model.User, error)
}

// ProductFacade encapsulates catalog operations exposed via HTTP.
type ProductFacade interface {
	Products(ctx context.Context) ([]model.Product, error)
	Product(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, in model.PlaceOrderInput) (*model.Order, bool, error)
	Order(ctx context.Context, id int64) (*model.Order, error)
	Orders(ctx context.Context) ([]model.OrderSummary, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error
}

// ImageFacade stores uploaded images.
type ImageFacade interface {
	UploadImage(ctx context.Context, in model.ImageUpload) (*model.Image, error)
	MaxImageSize() int64
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// StoreFacade aggregates the full set of operations used across handlers.
type StoreFacade interface {
	AuthFacade
	ProductFacade
	OrderFacade
	ImageFacade
	HealthFacade
}
