package tax

import (
	"github.com/shopspring/decimal"
)

// Rule 税率规则（按 SKU > 品类 > 品牌 的顺序匹配，命中即止）
type Rule struct {
	SKUs       []string        `json:"skus,omitempty"`
	Categories []string        `json:"categories,omitempty"`
	Brands     []string        `json:"brands,omitempty"`
	Rate       decimal.Decimal `json:"rate"`
	Exempt     bool            `json:"exempt"`
	ZeroRated  bool            `json:"zero_rated"`
}

// CashRounding 现金取整配置
type CashRounding struct {
	Enabled   bool            `json:"enabled"`
	Increment decimal.Decimal `json:"increment"`
}

// Config 税费与取整配置
type Config struct {
	PriceMode        string          `json:"price_mode"`       // tax_inclusive/tax_exclusive
	DefaultRate      decimal.Decimal `json:"default_rate"`     // 兜底税率
	Rules            []Rule          `json:"rules,omitempty"`  // 按序匹配的税率规则
	Precision        int32           `json:"precision"`        // 金额小数位
	RoundingStrategy string          `json:"rounding"`         // half_up/bankers
	ReceiptRounding  string          `json:"receipt_rounding"` // none/half_up/bankers
	CashRounding     CashRounding    `json:"cash_rounding"`
}

// LineTax 单行税费明细
type LineTax struct {
	SKU      string          `json:"sku"`
	Qty      int             `json:"qty"`
	Discount decimal.Decimal `json:"discount"`
	Rate     decimal.Decimal `json:"rate"`
	Exempt   bool            `json:"exempt"`
	Net      decimal.Decimal `json:"net"`
	Tax      decimal.Decimal `json:"tax"`
	Gross    decimal.Decimal `json:"gross"`
}

// RateSummary 按税率归集的报表行
type RateSummary struct {
	Rate    decimal.Decimal `json:"rate"`
	Taxable decimal.Decimal `json:"taxable"`
	Tax     decimal.Decimal `json:"tax"`
}

// Totals 小票合计。派生数据：始终可由行数据重算，不作为权威状态存储。
// SubtotalExclTax 为折后不含税基数，与 TaxByRate 的 taxable 合计严格相等。
type Totals struct {
	PriceMode       string          `json:"price_mode"`
	SubtotalExclTax decimal.Decimal `json:"subtotal_excl_tax"`
	Discounts       decimal.Decimal `json:"discounts"`
	Tax             decimal.Decimal `json:"tax"`
	RoundingAdj     decimal.Decimal `json:"rounding_adj"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Lines           []LineTax       `json:"lines"`
	TaxByRate       []RateSummary   `json:"tax_by_rate"`
}
