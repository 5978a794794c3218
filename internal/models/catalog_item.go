package models

import (
	"time"
)

// CatalogItem 商品目录快照（服务端批量下发，本地只读）
type CatalogItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                     // 主键
	SKU         string    `gorm:"uniqueIndex;not null" json:"sku"`          // 商品编码
	Name        string    `gorm:"not null" json:"name"`                     // 名称
	Price       Money     `gorm:"type:decimal(20,2);not null" json:"price"` // 单价
	Barcode     string    `gorm:"index" json:"barcode,omitempty"`           // 条码
	Category    string    `gorm:"index" json:"category,omitempty"`          // 品类
	Brand       string    `gorm:"index" json:"brand,omitempty"`             // 品牌
	Size        string    `json:"size,omitempty"`                           // 规格
	Color       string    `json:"color,omitempty"`                          // 颜色
	TaxExempt   bool      `gorm:"not null;default:false" json:"tax_exempt"` // 免税
	ZeroRated   bool      `gorm:"not null;default:false" json:"zero_rated"` // 零税率
	RefreshedAt time.Time `gorm:"index" json:"refreshed_at"`                // 快照刷新时间
	CreatedAt   time.Time `json:"created_at"`                               // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (CatalogItem) TableName() string {
	return "catalog_items"
}
