package usecase

import (
	"context"
	"log/slog"
	"strings"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// ProductUseCase manages the catalog.
type ProductUseCase struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewProductUseCase constructs ProductUseCase.
func NewProductUseCase(products repository.ProductRepository, logger *slog.Logger) *ProductUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductUseCase{products: products, logger: logger}
}

func (u *ProductUseCase) List(ctx context.Context) ([]model.Product, error) {
	return u.products.List(ctx)
}

func (u *ProductUseCase) Get(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, domainErrors.Invalid("id", "must be greater than 0")
	}
	return u.products.GetByID(ctx, id)
}

func (u *ProductUseCase) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	p.Price = p.Price.Round(2)

	created, err := u.products.Create(ctx, &p)
	if err != nil {
		return nil, err
	}
	u.logger.Info("product created", slog.Int64("product_id", created.ID))
	return created, nil
}

// Update applies the fields set in patch.
func (u *ProductUseCase) Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	if id <= 0 {
		return nil, domainErrors.Invalid("id", "must be greater than 0")
	}
	if patch.Empty() {
		return nil, domainErrors.Invalid("", "no fields to update")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if patch.Price != nil {
		price := patch.Price.Round(2)
		patch.Price = &price
	}
	return u.products.Update(ctx, id, patch)
}

func (u *ProductUseCase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domainErrors.Invalid("id", "must be greater than 0")
	}
	if err := u.products.Delete(ctx, id); err != nil {
		return err
	}
	u.logger.Info("product deleted", slog.Int64("product_id", id))
	return nil
}
