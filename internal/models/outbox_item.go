package models

import (
	"time"
)

// OutboxItem 发件箱条目（与其描述的本地单据同事务创建，确认后删除）
type OutboxItem struct {
	ID             uint       `gorm:"primarykey" json:"id"`                        // 主键
	LocalID        string     `gorm:"uniqueIndex;not null" json:"local_id"`        // 本地标识
	Kind           string     `gorm:"index;not null" json:"kind"`                  // 操作类型（封闭集合）
	Payload        JSON       `gorm:"type:text" json:"payload"`                    // 请求载荷
	IdempotencyKey string     `gorm:"uniqueIndex;not null" json:"idempotency_key"` // 幂等键（重试间不变）
	Status         string     `gorm:"index;not null" json:"status"`                // 状态（queued/rejected/voided）
	RetryCount     int        `gorm:"not null;default:0" json:"retry_count"`       // 重试次数
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`       // 最近失败原因
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`                   // 最近尝试时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                     // 创建时间（排空顺序依据）
	UpdatedAt      time.Time  `json:"updated_at"`                                  // 更新时间
}

// TableName 指定表名
func (OutboxItem) TableName() string {
	return "outbox_items"
}
