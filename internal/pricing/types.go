package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine 购物车行（评估时取的不可变快照）
type CartLine struct {
	SKU       string
	Qty       int
	UnitPrice decimal.Decimal
	Category  string
	Brand     string
	TaxExempt bool
	ZeroRated bool
}

// Base 返回行基础金额（数量 × 单价）
func (l CartLine) Base() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart 购物车快照
type Cart struct {
	Lines []CartLine
}

// Subtotal 计算购物车小计
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		if line.Qty <= 0 || line.UnitPrice.IsNegative() {
			continue
		}
		total = total.Add(line.Base())
	}
	return total
}

// Rule 折扣规则（促销与优惠券的统一评估视图）
type Rule struct {
	ID                string
	Source            string // promotion/coupon
	Label             string
	Type              string // percent/amount/bogo/threshold
	Level             string // order/line
	Value             decimal.Decimal
	BogoX             int
	BogoY             int
	YDiscountPct      int // bogo 的 Y 件折扣、threshold 的满额折扣
	Threshold         decimal.Decimal
	IncludeCategories []string
	IncludeBrands     []string
	IncludeSKUs       []string
	ExcludeCategories []string
	ExcludeBrands     []string
	ExcludeSKUs       []string
	Channels          []string
	MinSubtotal       decimal.Decimal
	MaxDiscount       decimal.Decimal
	FirstPurchaseOnly bool
	StartsAt          *time.Time
	EndsAt            *time.Time
	DaysOfWeek        []string
	StartTime         string // HH:MM，空为全天
	EndTime           string
	Priority          int
	Active            bool

	// 优惠券附加字段
	Code      string
	ExpiresAt *time.Time
}

// LineDiscount 单行折扣明细
type LineDiscount struct {
	SKU      string          `json:"sku"`
	Qty      int             `json:"qty"`
	Discount decimal.Decimal `json:"discount"`
}

// AppliedDiscount 折扣审计记录（可由规则集与购物车快照重放复现）
type AppliedDiscount struct {
	RuleID  string          `json:"rule_id"`
	Source  string          `json:"source"`
	Level   string          `json:"level"`
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
	Lines   []LineDiscount  `json:"lines,omitempty"`
	TraceID string          `json:"trace_id"`
}

// ManualDiscount 收银员手动折扣
type ManualDiscount struct {
	Type  string // percent/amount
	Value decimal.Decimal
	Label string
}

// Context 评估上下文
type Context struct {
	Channel       string
	Now           time.Time
	FirstPurchase bool
}

// Result 评估结果
type Result struct {
	Applied    []AppliedDiscount
	Subtotal   decimal.Decimal
	Discounts  decimal.Decimal
	GrandTotal decimal.Decimal
}
