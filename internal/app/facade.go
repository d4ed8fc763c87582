package app

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/usecase"
)

// HealthChecker reports whether the database answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StoreFacade exposes the use cases to the HTTP layer.
type StoreFacade struct {
	auth     *usecase.AuthUseCase
	products *usecase.ProductUseCase
	orders   *usecase.OrderUseCase
	images   *usecase.ImageUseCase
	health   HealthChecker
}

func NewStoreFacade(
	auth *usecase.AuthUseCase,
	products *usecase.ProductUseCase,
	orders *usecase.OrderUseCase,
	images *usecase.ImageUseCase,
	health HealthChecker,
) *StoreFacade {
	return &StoreFacade{auth: auth, products: products, orders: orders, images: images, health: health}
}

func (f *StoreFacade) Register(ctx context.Context, in model.Registration) (*model.User, string, error) {
	return f.auth.Register(ctx, in)
}

func (f *StoreFacade) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	return f.auth.Authenticate(ctx, email, password)
}

func (f *StoreFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *StoreFacade) Profile(ctx context.Context, userID int64) (*model.User, error) {
	return f.auth.Profile(ctx, userID)
}

func (f *StoreFacade) Products(ctx context.Context) ([]model.Product, error) {
	return f.products.List(ctx)
}

func (f *StoreFacade) Product(ctx context.Context, id int64) (*model.Product, error) {
	return f.products.Get(ctx, id)
}

func (f *StoreFacade) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	return f.products.Create(ctx, p)
}

func (f *StoreFacade) UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	return f.products.Update(ctx, id, patch)
}

func (f *StoreFacade) DeleteProduct(ctx context.Context, id int64) error {
	return f.products.Delete(ctx, id)
}

func (f *StoreFacade) PlaceOrder(ctx context.Context, in model.PlaceOrderInput) (*model.Order, bool, error) {
	return f.orders.PlaceOrder(ctx, in)
}

func (f *StoreFacade) Order(ctx context.Context, id int64) (*model.Order, error) {
	return f.orders.Get(ctx, id)
}

func (f *StoreFacade) Orders(ctx context.Context) ([]model.OrderSummary, error) {
	return f.orders.List(ctx)
}

func (f *StoreFacade) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	return f.orders.UpdateStatus(ctx, id, status)
}

func (f *StoreFacade) UploadImage(ctx context.Context, in model.ImageUpload) (*model.Image, error) {
	return f.images.Upload(ctx, in)
}

func (f *StoreFacade) MaxImageSize() int64 {
	return f.images.MaxSize()
}

func (f *StoreFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
