package models

import (
	"time"
)

// DraftTransaction 本地单据（入队后不可变，服务端确认前的唯一凭证）
type DraftTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                     // 主键
	LocalID       string    `gorm:"uniqueIndex;not null" json:"local_id"`                     // 本地标识
	Kind          string    `gorm:"index;not null" json:"kind"`                               // 单据类型（sale/return/exchange）
	Status        string    `gorm:"index;not null" json:"status"`                             // 状态（committed/synced/rejected/voided）
	RefLocalID    string    `gorm:"index" json:"ref_local_id,omitempty"`                      // 关联原单本地标识（退货/换货）
	CartSnapshot  JSON      `gorm:"type:text" json:"cart_snapshot"`                           // 购物车快照
	Discounts     JSON      `gorm:"type:text" json:"discounts"`                               // 已应用折扣审计记录
	Totals        JSON      `gorm:"type:text" json:"totals"`                                  // 金额合计
	Currency      string    `gorm:"not null" json:"currency"`                                 // 币种
	PaymentMethod string    `json:"payment_method,omitempty"`                                 // 结算方式
	GrandTotal    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"grand_total"` // 应收金额
	CouponCode    string    `gorm:"index" json:"coupon_code,omitempty"`                       // 使用的优惠码
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`                                  // 更新时间
}

// TableName 指定表名
func (DraftTransaction) TableName() string {
	return "draft_transactions"
}
