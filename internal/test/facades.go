package test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// AuthFacadeStub simulates registration, login and token parsing.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, model.Registration) (*model.User, string, error)
	AuthenticateFn func(context.Context, string, string) (*model.User, string, error)
	ParseFn        func(string) (int64, error)
	ProfileFn      func(context.Context, int64) (*model.User, error)
}

// Register delegates to RegisterFn or echoes the registration.
func (s AuthFacadeStub) Register(ctx context.Context, in model.Registration) (*model.User, string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, in)
	}
	return &model.User{ID: 1, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}, "token", nil
}

// Authenticate delegates to AuthenticateFn or accepts any credentials.
func (s AuthFacadeStub) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, email, password)
	}
	return &model.User{ID: 1, Email: email}, "token", nil
}

// ParseToken accepts "token" as user 1 unless ParseFn is set.
func (s AuthFacadeStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	if token != "token" {
		return 0, pkgAuth.ErrInvalidToken
	}
	return 1, nil
}

// Profile delegates to ProfileFn or returns a fixed user.
func (s AuthFacadeStub) Profile(ctx context.Context, userID int64) (*model.User, error) {
	if s.ProfileFn != nil {
		return s.ProfileFn(ctx, userID)
	}
	return &model.User{ID: userID, Email: "user@example.com"}, nil
}

// ProductFacadeStub provides controllable catalog behaviour.
type ProductFacadeStub struct {
	ListFn   func(context.Context) ([]model.Product, error)
	GetFn    func(context.Context, int64) (*model.Product, error)
	CreateFn func(context.Context, model.Product) (*model.Product, error)
	UpdateFn func(context.Context, int64, model.ProductPatch) (*model.Product, error)
	DeleteFn func(context.Context, int64) error
}

func (s ProductFacadeStub) Products(ctx context.Context) ([]model.Product, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	return []model.Product{{ID: 1, Name: "Tea", Price: decimal.RequireFromString("4.5"), StockQuantity: 3}}, nil
}

func (s ProductFacadeStub) Product(ctx context.Context, id int64) (*model.Product, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	return &model.Product{ID: id, Name: "Tea", Price: decimal.RequireFromString("4.5"), StockQuantity: 3}, nil
}

func (s ProductFacadeStub) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, p)
	}
	p.ID = 1
	return &p, nil
}

func (s ProductFacadeStub) UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, patch)
	}
	p := model.Product{ID: id, Name: "Tea", Price: decimal.RequireFromString("4.5")}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	return &p, nil
}

func (s ProductFacadeStub) DeleteProduct(ctx context.Context, id int64) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	return nil
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	PlaceFn  func(context.Context, model.PlaceOrderInput) (*model.Order, bool, error)
	GetFn    func(context.Context, int64) (*model.Order, error)
	ListFn   func(context.Context) ([]model.OrderSummary, error)
	StatusFn func(context.Context, int64, model.OrderStatus) error
}

// PlaceOrder delegates to PlaceFn or accepts the order as id 1.
func (s OrderFacadeStub) PlaceOrder(ctx context.Context, in model.PlaceOrderInput) (*model.Order, bool, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, in)
	}
	return &model.Order{ID: 1, UserID: in.BuyerID, Total: in.Total, Status: model.OrderStatusPending}, false, nil
}

func (s OrderFacadeStub) Order(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	return &model.Order{
		ID:        id,
		UserID:    1,
		Total:     decimal.RequireFromString("9"),
		Status:    model.OrderStatusPending,
		CreatedAt: time.Unix(0, 0).UTC(),
		Items: []model.OrderItem{
			{ID: 1, OrderID: id, ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("4.5"), ProductName: "Tea"},
		},
	}, nil
}

func (s OrderFacadeStub) Orders(ctx context.Context) ([]model.OrderSummary, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	return []model.OrderSummary{{
		Order:     model.Order{ID: 1, UserID: 1, Total: decimal.RequireFromString("9"), Status: model.OrderStatusPending},
		ItemCount: 1,
	}}, nil
}

func (s OrderFacadeStub) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, id, status)
	}
	if !status.Valid() {
		return domainErrors.Invalid("status", "must be one of pending, shipped, delivered")
	}
	return nil
}

// ImageFacadeStub records uploads.
type ImageFacadeStub struct {
	UploadFn func(context.Context, model.ImageUpload) (*model.Image, error)
	Max      int64
}

func (s ImageFacadeStub) UploadImage(ctx context.Context, in model.ImageUpload) (*model.Image, error) {
	if s.UploadFn != nil {
		return s.UploadFn(ctx, in)
	}
	return &model.Image{Name: in.FileName, URL: "https://blob.example/" + in.FileName, Size: int64(len(in.Data))}, nil
}

// MaxImageSize defaults to 1 MiB.
func (s ImageFacadeStub) MaxImageSize() int64 {
	if s.Max > 0 {
		return s.Max
	}
	return 1 << 20
}

// HealthFacadeStub returns Err from HealthCheck.
type HealthFacadeStub struct {
	Err error
}

func (s HealthFacadeStub) HealthCheck(context.Context) error { return s.Err }

// StoreFacadeStub combines every facade stub.
type StoreFacadeStub struct {
	AuthFacadeStub
	ProductFacadeStub
	OrderFacadeStub
	ImageFacadeStub
	HealthFacadeStub
}
