package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券规则（按唯一券码索引，本地缓存供离线评估）
type Coupon struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Code              string         `gorm:"uniqueIndex;not null" json:"code"`                          // 优惠码
	Type              string         `gorm:"not null" json:"type"`                                      // 类型（percent/amount/bogo/threshold）
	Level             string         `gorm:"not null" json:"level"`                                     // 层级（order/line）
	Value             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`        // 数值
	BogoX             int            `gorm:"not null;default:0" json:"bogo_x"`                          // 买 X
	BogoY             int            `gorm:"not null;default:0" json:"bogo_y"`                          // 赠 Y
	YDiscountPct      int            `gorm:"not null;default:100" json:"y_discount_pct"`                // Y 件/满额折扣百分比
	ThresholdValue    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"threshold"`    // 满额门槛
	IncludeCategories StringArray    `gorm:"type:text" json:"include_categories,omitempty"`             // 包含品类
	IncludeBrands     StringArray    `gorm:"type:text" json:"include_brands,omitempty"`                 // 包含品牌
	IncludeSKUs       StringArray    `gorm:"type:text" json:"include_skus,omitempty"`                   // 包含商品
	ExcludeCategories StringArray    `gorm:"type:text" json:"exclude_categories,omitempty"`             // 排除品类
	ExcludeBrands     StringArray    `gorm:"type:text" json:"exclude_brands,omitempty"`                 // 排除品牌
	ExcludeSKUs       StringArray    `gorm:"type:text" json:"exclude_skus,omitempty"`                   // 排除商品
	Channels          StringArray    `gorm:"type:text" json:"channels,omitempty"`                       // 适用渠道
	MinSubtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_subtotal"` // 使用门槛
	MaxDiscount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"` // 最大优惠金额（0 不限制）
	PerCodeLimit      int            `gorm:"not null;default:0" json:"per_code_limit"`                  // 单码使用上限（0 不限制）
	GlobalLimit       int            `gorm:"not null;default:0" json:"global_limit"`                    // 全局使用上限（0 不限制）
	LocalUsedCount    int            `gorm:"not null;default:0" json:"local_used_count"`                // 本地已登记使用次数
	ExpiresAt         *time.Time     `gorm:"index" json:"expires_at"`                                   // 失效时间
	Priority          int            `gorm:"not null;default:0" json:"priority"`                        // 优先级
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`                    // 是否启用
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
