package tax

import (
	"github.com/shouyin-pos/internal/pricing"

	"github.com/shopspring/decimal"
)

// AllocateOrderDiscount 把整单折扣按各行基础金额占比分摊到行。
// 前 n-1 行按占比取到 precision 位，余数全部计入最后一个有金额的行，
// 保证分摊合计与整单折扣严格相等。
func AllocateOrderDiscount(lines []pricing.CartLine, orderDiscount decimal.Decimal, precision int32) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(lines))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if orderDiscount.LessThanOrEqual(decimal.Zero) {
		return shares
	}

	total := decimal.Zero
	lastEligible := -1
	for i, line := range lines {
		if line.Qty <= 0 || line.UnitPrice.IsNegative() {
			continue
		}
		base := line.Base()
		if base.IsPositive() {
			total = total.Add(base)
			lastEligible = i
		}
	}
	if lastEligible < 0 || !total.IsPositive() {
		return shares
	}
	if orderDiscount.GreaterThan(total) {
		orderDiscount = total
	}

	allocated := decimal.Zero
	for i, line := range lines {
		if i == lastEligible {
			break
		}
		base := line.Base()
		if !base.IsPositive() {
			continue
		}
		share := orderDiscount.Mul(base).Div(total).Round(precision)
		shares[i] = share
		allocated = allocated.Add(share)
	}
	shares[lastEligible] = orderDiscount.Sub(allocated)
	return shares
}
