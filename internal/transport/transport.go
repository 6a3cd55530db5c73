package transport

import (
	"net/http"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/transport/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Campaign *CampaignHandler
	Webhook  *WebhookHandler
	Proof    *ProofHandler
	Order    *OrderHandler
	Admin    *AdminHandler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	SweeperToken   string
	AppVersion     string

	// HealthChecks are run by /health, keyed by dependency name.
	HealthChecks map[string]func() error
}

func InitRoutes(h *Handlers, cfg RouterConfig) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	// API routes
	api := router.Group("/api/v1")
	{
		// Campaign routes
		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("", h.Campaign.CreateCampaign)
			campaigns.GET("/:id", h.Campaign.GetCampaign)
			campaigns.POST("/:id/reservations", h.Campaign.Reserve)
		}

		api.POST("/webhooks/:provider", h.Webhook.Receive)
		api.POST("/proofs", h.Proof.UploadProof)

		// Organizer routes
		organizer := api.Group("/organizer", middleware.Organizer())
		{
			organizer.POST("/campaigns/:id/publish", h.Campaign.PublishCampaign)

			orders := organizer.Group("/campaigns/:id/orders")
			{
				orders.GET("", h.Order.ListOrders)
				orders.GET("/:order_id", h.Order.GetOrder)
				orders.PATCH("/:order_id", h.Order.UpdateContact)
				orders.POST("/:order_id/release", h.Order.ReleaseOrder)
			}

			organizer.POST("/proofs/:id/approve", h.Proof.Approve)
			organizer.POST("/proofs/:id/reject", h.Proof.Reject)
		}

		// Admin routes
		admin := api.Group("/admin", middleware.SweeperToken(cfg.SweeperToken))
		{
			admin.POST("/sweep", h.Admin.Sweep)
			admin.GET("/operations", h.Admin.ListOperations)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		checks := make(gin.H, len(cfg.HealthChecks))
		for name, check := range cfg.HealthChecks {
			if err := check(); err != nil {
				checks[name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.AppVersion,
			"checks":  checks,
			"time":    time.Now().UTC(),
		})
	})

	return router
}
