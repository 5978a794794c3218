package provider

import (
	"time"

	"github.com/shouyin-pos/internal/cache"
	"github.com/shouyin-pos/internal/config"
	"github.com/shouyin-pos/internal/gateway"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/queue"
	"github.com/shouyin-pos/internal/repository"
	"github.com/shouyin-pos/internal/service"
	"github.com/shouyin-pos/internal/syncer"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Gateway     gateway.RemoteGateway

	// Repositories
	CatalogRepo   repository.CatalogItemRepository
	PromotionRepo repository.PromotionRepository
	CouponRepo    repository.CouponRepository
	DraftRepo     repository.DraftRepository
	OutboxRepo    repository.OutboxRepository
	SyncLogRepo   repository.SyncLogRepository
	SettingRepo   repository.SettingRepository

	// Services
	SettingService  *service.SettingService
	CouponService   *service.CouponService
	CheckoutService *service.CheckoutService
	PaymentService  *service.PaymentService
	RefundService   *service.RefundService
	CreditService   *service.CreditService
	RefreshService  *service.RefreshService
	OutboxService   *service.OutboxService

	// Sync
	SyncProcessor *syncer.Processor
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initGateway()
	c.initRepositories()
	c.initServices()
	c.initSyncer()

	return c
}

func (c *Container) initGateway() {
	gw, err := gateway.NewHTTPGateway(gateway.Config{
		BaseURL:  c.Config.Sync.GatewayBaseURL,
		DeviceID: c.Config.Sync.DeviceID,
		Timeout:  time.Duration(c.Config.Sync.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		// 网关未配置时照常启动：结算与发件箱仍然工作，同步会持续失败重试
		logger.Warnw("provider_gateway_unconfigured", "error", err)
		return
	}
	c.Gateway = gw
}

func (c *Container) initRepositories() {
	db := models.DB
	c.CatalogRepo = repository.NewCatalogItemRepository(db)
	c.PromotionRepo = repository.NewPromotionRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.DraftRepo = repository.NewDraftRepository(db)
	c.OutboxRepo = repository.NewOutboxRepository(db)
	c.SyncLogRepo = repository.NewSyncLogRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	db := models.DB
	currency := c.Config.Currency.Code

	c.SettingService = service.NewSettingService(c.SettingRepo, c.Config.Tax)
	c.CouponService = service.NewCouponService(c.CouponRepo)
	c.CheckoutService = service.NewCheckoutService(
		db,
		c.CatalogRepo,
		c.PromotionRepo,
		c.CouponRepo,
		c.DraftRepo,
		c.OutboxRepo,
		c.SettingService,
		c.Config.Checkout,
		currency,
	)
	c.PaymentService = service.NewPaymentService(db, c.DraftRepo, c.OutboxRepo, c.SettingService, currency)
	c.RefundService = service.NewRefundService(db, c.DraftRepo, c.OutboxRepo, c.CheckoutService, currency)
	c.CreditService = service.NewCreditService(db, c.OutboxRepo, c.DraftRepo, c.Gateway, currency)
	c.OutboxService = service.NewOutboxService(db, c.OutboxRepo, c.DraftRepo)

	if c.Gateway != nil {
		c.RefreshService = service.NewRefreshService(
			c.Gateway,
			c.CatalogRepo,
			c.PromotionRepo,
			c.CouponRepo,
			c.SettingService,
		)
	}
}

func (c *Container) initSyncer() {
	if c.Gateway == nil {
		return
	}
	c.SyncProcessor = syncer.NewProcessor(
		models.DB,
		c.OutboxRepo,
		c.DraftRepo,
		c.SyncLogRepo,
		c.Gateway,
		syncer.Options{
			Interval:   time.Duration(c.Config.Sync.IntervalSeconds) * time.Second,
			BatchLimit: c.Config.Sync.BatchLimit,
		},
	)
}
