package service

import (
	"strings"
	"time"

	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"
)

// CouponPreview 优惠码校验结果。用量上限只在提交时拦截，
// 预览阶段如实报告剩余次数即可。
type CouponPreview struct {
	Coupon        *models.Coupon `json:"coupon"`
	Usable        bool           `json:"usable"`
	Reason        string         `json:"reason,omitempty"`
	UsesRemaining int            `json:"uses_remaining"` // -1 表示不限次数
}

// CouponService 优惠券查询服务
type CouponService struct {
	couponRepo repository.CouponRepository
}

// NewCouponService 创建优惠券查询服务
func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Preview 按券码校验优惠券，不产生任何副作用
func (s *CouponService) Preview(code string) (*CouponPreview, error) {
	coupon, err := s.couponRepo.GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	preview := &CouponPreview{
		Coupon:        coupon,
		Usable:        true,
		UsesRemaining: usesRemaining(coupon),
	}
	switch {
	case !coupon.IsActive:
		preview.Usable = false
		preview.Reason = "inactive"
	case coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()):
		preview.Usable = false
		preview.Reason = "expired"
	case preview.UsesRemaining == 0:
		// 本地计数打满只是提示，提交时再做硬校验
		preview.Reason = "usage limit reached locally"
	}
	return preview, nil
}

func usesRemaining(coupon *models.Coupon) int {
	limit := coupon.PerCodeLimit
	if coupon.GlobalLimit > 0 && (limit == 0 || coupon.GlobalLimit < limit) {
		limit = coupon.GlobalLimit
	}
	if limit == 0 {
		return -1
	}
	remaining := limit - coupon.LocalUsedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
