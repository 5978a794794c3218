package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

type bogoUnit struct {
	sku   string
	price decimal.Decimal
}

// bogoDiscount 计算买X赠Y折扣。
// 把作用范围内的行展开为单件，凑满 x+y 的完整组后，
// 对展开集中最便宜的 组数×y 件按 YDiscountPct 打折。
func bogoDiscount(scoped []CartLine, rule Rule) (decimal.Decimal, []LineDiscount) {
	x, y := rule.BogoX, rule.BogoY
	if x <= 0 || y <= 0 {
		return decimal.Zero, nil
	}
	// YDiscountPct 未设置（<=0）按整件赠送处理
	pct := oneHundred
	if rule.YDiscountPct > 0 {
		pct = clampDecimal(decimal.NewFromInt(int64(rule.YDiscountPct)), decimal.Zero, oneHundred)
	}

	units := make([]bogoUnit, 0)
	for _, line := range scoped {
		for i := 0; i < line.Qty; i++ {
			units = append(units, bogoUnit{sku: line.SKU, price: line.UnitPrice})
		}
	}
	groups := len(units) / (x + y)
	if groups == 0 {
		return decimal.Zero, nil
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].price.LessThan(units[j].price)
	})

	discountedCount := groups * y
	total := decimal.Zero
	perSKUQty := make(map[string]int)
	perSKUAmount := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for _, unit := range units[:discountedCount] {
		unitDiscount := unit.price.Mul(pct).Div(oneHundred)
		total = total.Add(unitDiscount)
		if _, seen := perSKUQty[unit.sku]; !seen {
			order = append(order, unit.sku)
			perSKUAmount[unit.sku] = decimal.Zero
		}
		perSKUQty[unit.sku]++
		perSKUAmount[unit.sku] = perSKUAmount[unit.sku].Add(unitDiscount)
	}

	lines := make([]LineDiscount, 0, len(order))
	for _, sku := range order {
		lines = append(lines, LineDiscount{
			SKU:      sku,
			Qty:      perSKUQty[sku],
			Discount: perSKUAmount[sku],
		})
	}
	return total, lines
}
