package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StoreFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	resp := handlers.NewResponder(logger, cfg.Debug)
	authHandler := handlers.NewAuthHandler(facade, resp)
	productHandler := handlers.NewProductHandler(facade, resp)
	orderHandler := handlers.NewOrderHandler(facade, resp)
	imageHandler := handlers.NewImageHandler(facade, resp)
	healthHandler := handlers.NewHealthHandler(facade, resp)

	engine.GET("/health", healthHandler.Check)

	api := engine.Group("/api")
	requireAuth := middleware.AuthRequired(facade)

	users := api.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.GET("/profile", requireAuth, authHandler.Profile)

	products := api.Group("/products")
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", requireAuth, productHandler.Create)
	products.PUT("/:id", requireAuth, productHandler.Update)
	products.DELETE("/:id", requireAuth, productHandler.Delete)

	orders := api.Group("/orders")
	orders.Use(requireAuth)
	orders.POST("", orderHandler.Place)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.PUT("/:id/status", orderHandler.UpdateStatus)

	api.POST("/upload", requireAuth, imageHandler.Upload)

	return engine
}
