package handler

import (
	"net/http"

	"restaurantgo/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRouter builds the engine. cfg.Mode is a gin mode: debug, release or test.
func SetupRouter(h *Handler, logger *logrus.Logger, cfg config.ServerConfig) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	// the webhook IP allow-list depends on ClientIP not being spoofable
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(RecoveryMiddleware(logger))
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	api := r.Group("/api/v1")
	{
		wallet := api.Group("/wallet")
		{
			wallet.GET("/balance", h.GetBalance)
			wallet.GET("/summaries", h.ListSummaries)
			wallet.POST("/fund", h.InitiateFunding)
			wallet.POST("/fund/card", h.ChargeCard)
			wallet.POST("/fund/transfer", h.PayWithTransfer)
		}

		catalog := api.Group("/catalog")
		{
			catalog.GET("/meals", h.ListMeals)
			catalog.GET("/packages", h.ListPackages)
		}

		tray := api.Group("/tray")
		{
			tray.POST("/add", h.AddToTray)
			tray.GET("/items", h.ListTray)
			tray.POST("/items/:item_id/increase", h.IncreaseQuantity)
			tray.POST("/items/:item_id/decrease", h.DecreaseQuantity)
			tray.POST("/checkout", h.Checkout)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.ListOrders)
			orders.GET("/:order_id", h.GetOrder)
			orders.POST("/:order_id/cancel", h.CancelOrder)
			orders.PUT("/:order_id/status", h.UpdateOrderStatus)
		}

		api.POST("/webhooks/monnify", h.GatewayWebhook)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r, nil
}
