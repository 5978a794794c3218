package service

import (
	"context"
	"time"

	"github.com/shouyin-pos/internal/gateway"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/repository"
)

// RefreshService 快照刷新服务：在线时机会性地拉取服务端下发的
// 商品目录、折扣规则与配置，整体替换本地缓存。拉取失败只记日志，
// 本地已有快照继续服务。
type RefreshService struct {
	gw            gateway.RemoteGateway
	catalogRepo   repository.CatalogItemRepository
	promotionRepo repository.PromotionRepository
	couponRepo    repository.CouponRepository
	settings      *SettingService
}

// NewRefreshService 创建快照刷新服务
func NewRefreshService(
	gw gateway.RemoteGateway,
	catalogRepo repository.CatalogItemRepository,
	promotionRepo repository.PromotionRepository,
	couponRepo repository.CouponRepository,
	settings *SettingService,
) *RefreshService {
	return &RefreshService{
		gw:            gw,
		catalogRepo:   catalogRepo,
		promotionRepo: promotionRepo,
		couponRepo:    couponRepo,
		settings:      settings,
	}
}

// RefreshCatalog 拉取并整体替换商品目录快照
func (s *RefreshService) RefreshCatalog(ctx context.Context) error {
	items, err := s.gw.FetchCatalog(ctx)
	if err != nil {
		logger.Warnw("catalog_refresh_failed", "error", err)
		return err
	}
	if err := s.catalogRepo.ReplaceAll(items, time.Now()); err != nil {
		return err
	}
	logger.Infow("catalog_refreshed", "items", len(items))
	return nil
}

// RefreshRules 拉取并整体替换促销与优惠券规则
func (s *RefreshService) RefreshRules(ctx context.Context) error {
	promotions, err := s.gw.FetchPromotions(ctx)
	if err != nil {
		logger.Warnw("promotion_refresh_failed", "error", err)
		return err
	}
	if err := s.promotionRepo.ReplaceAll(promotions); err != nil {
		return err
	}

	coupons, err := s.gw.FetchCoupons(ctx)
	if err != nil {
		logger.Warnw("coupon_refresh_failed", "error", err)
		return err
	}
	if err := s.couponRepo.ReplaceAll(coupons); err != nil {
		return err
	}

	logger.Infow("rules_refreshed", "promotions", len(promotions), "coupons", len(coupons))
	return nil
}

// RefreshSettings 拉取并保存服务端下发的配置（税率表、币种等）
func (s *RefreshService) RefreshSettings(ctx context.Context) error {
	settings, err := s.gw.FetchSettings(ctx)
	if err != nil {
		logger.Warnw("settings_refresh_failed", "error", err)
		return err
	}
	if err := s.settings.StoreAll(settings); err != nil {
		return err
	}
	logger.Infow("settings_refreshed", "keys", len(settings))
	return nil
}

// RefreshAll 依次刷新目录、规则与配置，任一失败继续后续刷新
func (s *RefreshService) RefreshAll(ctx context.Context) {
	_ = s.RefreshCatalog(ctx)
	_ = s.RefreshRules(ctx)
	_ = s.RefreshSettings(ctx)
}
