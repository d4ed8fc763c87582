package blob

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/usecase"
)

// Module exposes the image store to fx graph.
var Module = fx.Provide(newImageStore)

type storeParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newImageStore(p storeParams) (usecase.ImageStore, error) {
	if p.Config.AzureConnectionString == "" {
		p.Logger.Warn("image uploads disabled: AZURE_STORAGE_CONNECTION_STRING is empty")
		return Disabled{}, nil
	}
	return NewStoreFromConnectionString(p.Config.AzureConnectionString, p.Config.AzureContainer)
}
