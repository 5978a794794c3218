package models

import (
	"time"
)

// SyncLogEntry 本地标识到服务端标识的映射日志（追加写，每实体一条）
type SyncLogEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`            // 主键
	Key       string    `gorm:"uniqueIndex;not null" json:"key"` // 映射键，例如 sale:<localId>
	ServerID  string    `gorm:"not null" json:"server_id"`       // 服务端标识
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`         // 写入时间
}

// TableName 指定表名
func (SyncLogEntry) TableName() string {
	return "sync_log_entries"
}
