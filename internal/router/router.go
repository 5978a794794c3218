package router

import (
	"github.com/shouyin-pos/internal/config"
	poshandlers "github.com/shouyin-pos/internal/http/handlers/pos"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := poshandlers.New(c)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		checkout := apiV1.Group("/checkout")
		{
			checkout.POST("/preview", handler.PreviewSale)
			checkout.POST("/commit", handler.CommitSale)
		}

		transactions := apiV1.Group("/transactions")
		{
			transactions.GET("", handler.ListTransactions)
			transactions.GET("/:local_id", handler.GetTransaction)
		}

		apiV1.POST("/payments", handler.AddPayment)

		returns := apiV1.Group("/returns")
		{
			returns.POST("/preview", handler.PreviewReturn)
			returns.POST("", handler.CreateReturn)
		}
		apiV1.POST("/exchanges", handler.CreateExchange)

		credits := apiV1.Group("/credits")
		{
			credits.POST("/issue", handler.IssueCredit)
			credits.POST("/redeem", handler.RedeemCredit)
		}

		apiV1.GET("/coupons/:code", handler.PreviewCoupon)

		catalog := apiV1.Group("/catalog")
		{
			catalog.GET("", handler.ListCatalog)
			catalog.GET("/status", handler.CatalogStatus)
			catalog.GET("/lookup/:code", handler.LookupCatalogItem)
		}

		outbox := apiV1.Group("/outbox")
		{
			outbox.GET("", handler.ListOutbox)
			outbox.GET("/status", handler.OutboxStatus)
			outbox.POST("/:local_id/requeue", handler.RequeueOutboxItem)
			outbox.POST("/:local_id/void", handler.VoidOutboxItem)
		}

		sync := apiV1.Group("/sync")
		{
			sync.POST("/kick", handler.KickSync)
			sync.POST("/refresh/catalog", handler.RefreshSnapshot)
			sync.POST("/refresh/rules", handler.RefreshRules)
		}
	}

	return r
}
