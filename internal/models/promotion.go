package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion 促销规则（服务端下发，本地缓存供离线评估）
type Promotion struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Name              string         `gorm:"not null" json:"name"`                                      // 名称
	Type              string         `gorm:"not null" json:"type"`                                      // 类型（percent/amount/bogo/threshold）
	Level             string         `gorm:"not null" json:"level"`                                     // 层级（order/line）
	Value             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`        // 数值（百分比或固定金额）
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
	Channels          StringArray    `gorm:"type:text" json:"channels,omitempty"`                       // 适用渠道（空为全部）
	MinSubtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_subtotal"` // 使用门槛
	MaxDiscount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"` // 最大优惠金额（0 不限制）
	FirstPurchaseOnly bool           `gorm:"not null;default:false" json:"first_purchase_only"`         // 仅限首单
	StartsAt          *time.Time     `gorm:"index" json:"starts_at"`                                    // 生效时间
	EndsAt            *time.Time     `gorm:"index" json:"ends_at"`                                      // 失效时间
	DaysOfWeek        StringArray    `gorm:"type:text" json:"days_of_week,omitempty"`                   // 生效星期（空为全部）
	StartTime         string         `gorm:"type:varchar(8)" json:"start_time,omitempty"`               // 每日开始时刻 HH:MM
	EndTime           string         `gorm:"type:varchar(8)" json:"end_time,omitempty"`                 // 每日结束时刻 HH:MM
	Priority          int            `gorm:"not null;default:0" json:"priority"`                        // 优先级（小者先评估）
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`                    // 是否启用
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Promotion) TableName() string {
	return "promotions"
}
