package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewOrderUseCase,
		NewProductUseCase,
		newOrderSettings,
		newImageUseCase,
	),
)

func newOrderSettings(cfg *config.Config) OrderSettings {
	return OrderSettings{PriceMode: model.PriceMode(cfg.PriceMode), VerifyBuyer: cfg.VerifyBuyer}
}

func newImageUseCase(store ImageStore, cfg *config.Config) *ImageUseCase {
	return NewImageUseCase(store, cfg.MaxUploadSize)
}
