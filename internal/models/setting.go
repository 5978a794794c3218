package models

import (
	"time"
)

// Setting 本地设置缓存（服务端下发的 last-known-good 配置）
type Setting struct {
	ID        uint      `gorm:"primarykey" json:"id"`            // 主键
	Key       string    `gorm:"uniqueIndex;not null" json:"key"` // 设置键
	Value     string    `gorm:"type:text" json:"value"`          // JSON 内容
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`         // 更新时间
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}
