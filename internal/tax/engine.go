package tax

import (
	"sort"
	"strings"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/pricing"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Compute 计算整张小票的税费与合计。
// 整单折扣先经 AllocateOrderDiscount 分摊到行，行级折扣直接挂行，
// 再按计价模式逐行计税，最后按小票取整策略与现金取整收口。
func Compute(lines []pricing.CartLine, discounts []pricing.AppliedDiscount, cfg Config, paymentMethod string) Totals {
	cfg = normalizeConfig(cfg)

	orderDiscount, lineDiscounts := splitDiscounts(lines, discounts)
	orderShares := AllocateOrderDiscount(lines, orderDiscount, cfg.Precision)

	discountTotal := decimal.Zero
	rawLines := make([]LineTax, 0, len(lines))
	for i, line := range lines {
		if line.Qty <= 0 || line.UnitPrice.IsNegative() {
			continue
		}
		base := line.Base()
		discount := lineDiscounts[i].Add(orderShares[i])
		if discount.GreaterThan(base) {
			discount = base
		}
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		discountTotal = discountTotal.Add(discount)

		rate, exempt := resolveRate(line, cfg)
		discounted := base.Sub(discount)

		var net, taxAmount, gross decimal.Decimal
		switch {
		case exempt || rate.IsZero():
			net = discounted
			taxAmount = decimal.Zero
			gross = discounted
		case cfg.PriceMode == constants.PriceModeTaxInclusive:
			net = discounted.Div(one.Add(rate))
			taxAmount = discounted.Sub(net)
			gross = discounted
		default: // tax_exclusive
			net = discounted
			taxAmount = net.Mul(rate)
			gross = net.Add(taxAmount)
		}

		rawLines = append(rawLines, LineTax{
			SKU:      line.SKU,
			Qty:      line.Qty,
			Discount: discount,
			Rate:     rate,
			Exempt:   exempt,
			Net:      net,
			Tax:      taxAmount,
			Gross:    gross,
		})
	}

	var finalLines []LineTax
	if cfg.ReceiptRounding == constants.RoundingNone {
		finalLines = roundPerLine(rawLines, cfg.Precision, cfg.RoundingStrategy)
	} else {
		finalLines = roundPerReceipt(rawLines, cfg.Precision, cfg.ReceiptRounding)
	}

	totals := Totals{
		PriceMode: cfg.PriceMode,
		Discounts: discountTotal.Round(cfg.Precision),
		Lines:     finalLines,
	}
	totals.SubtotalExclTax = decimal.Zero
	totals.Tax = decimal.Zero
	totals.GrandTotal = decimal.Zero
	for _, line := range finalLines {
		totals.SubtotalExclTax = totals.SubtotalExclTax.Add(line.Net)
		totals.Tax = totals.Tax.Add(line.Tax)
		totals.GrandTotal = totals.GrandTotal.Add(line.Gross)
	}
	totals.TaxByRate = summarizeByRate(finalLines)
	totals.RoundingAdj = decimal.Zero

	// 现金取整只调整应收金额，调整值单独入账，不回摊到税费或折扣。
	if strings.EqualFold(paymentMethod, constants.PaymentMethodCash) &&
		cfg.CashRounding.Enabled && cfg.CashRounding.Increment.IsPositive() {
		rounded := roundToIncrement(totals.GrandTotal, cfg.CashRounding.Increment)
		totals.RoundingAdj = rounded.Sub(totals.GrandTotal)
		totals.GrandTotal = rounded
	}
	if totals.GrandTotal.IsNegative() {
		totals.GrandTotal = decimal.Zero
	}
	return totals
}

// splitDiscounts 把折扣集合拆成整单部分与行级（按行索引）部分。
func splitDiscounts(lines []pricing.CartLine, discounts []pricing.AppliedDiscount) (decimal.Decimal, []decimal.Decimal) {
	orderTotal := decimal.Zero
	perLine := make([]decimal.Decimal, len(lines))
	for i := range perLine {
		perLine[i] = decimal.Zero
	}
	perSKU := make(map[string]decimal.Decimal)
	for _, applied := range discounts {
		if applied.Level == constants.DiscountLevelOrder || len(applied.Lines) == 0 {
			orderTotal = orderTotal.Add(applied.Amount)
			continue
		}
		for _, detail := range applied.Lines {
			perSKU[detail.SKU] = perSKU[detail.SKU].Add(detail.Discount)
		}
	}

	// 同一 SKU 可能拆成多行，按行基础金额占比分摊，余数归该 SKU 的最后一行。
	for sku, amount := range perSKU {
		indexes := make([]int, 0, 2)
		total := decimal.Zero
		for i, line := range lines {
			if line.SKU == sku && line.Qty > 0 {
				indexes = append(indexes, i)
				total = total.Add(line.Base())
			}
		}
		if len(indexes) == 0 || !total.IsPositive() {
			// 行级折扣指向的 SKU 不在购物车时按整单折扣处理，金额不丢失。
			orderTotal = orderTotal.Add(amount)
			continue
		}
		allocated := decimal.Zero
		for n, i := range indexes {
			if n == len(indexes)-1 {
				perLine[i] = perLine[i].Add(amount.Sub(allocated))
				break
			}
			share := amount.Mul(lines[i].Base()).Div(total)
			perLine[i] = perLine[i].Add(share)
			allocated = allocated.Add(share)
		}
	}
	return orderTotal, perLine
}

// resolveRate 逐行解析有效税率：行免税标记 > 行零税率标记 > 规则表 > 默认税率。
func resolveRate(line pricing.CartLine, cfg Config) (decimal.Decimal, bool) {
	if line.TaxExempt {
		return decimal.Zero, true
	}
	if line.ZeroRated {
		return decimal.Zero, false
	}
	for _, rule := range cfg.Rules {
		if !ruleMatches(rule, line) {
			continue
		}
		if rule.Exempt {
			return decimal.Zero, true
		}
		if rule.ZeroRated {
			return decimal.Zero, false
		}
		return rule.Rate, false
	}
	return cfg.DefaultRate, false
}

// ruleMatches 按 SKU > 品类 > 品牌 的顺序检查单条规则的作用域。
func ruleMatches(rule Rule, line pricing.CartLine) bool {
	if len(rule.SKUs) > 0 {
		return containsFold(rule.SKUs, line.SKU)
	}
	if len(rule.Categories) > 0 {
		return containsFold(rule.Categories, line.Category)
	}
	if len(rule.Brands) > 0 {
		return containsFold(rule.Brands, line.Brand)
	}
	return false
}

func containsFold(set []string, value string) bool {
	if value == "" {
		return false
	}
	for _, candidate := range set {
		if strings.EqualFold(strings.TrimSpace(candidate), value) {
			return true
		}
	}
	return false
}

// roundPerLine 行级取整：每行独立取整，合计为取整后行值之和。
func roundPerLine(rawLines []LineTax, precision int32, strategy string) []LineTax {
	result := make([]LineTax, len(rawLines))
	for i, line := range rawLines {
		line.Net = roundWith(line.Net, precision, strategy)
		line.Tax = roundWith(line.Tax, precision, strategy)
		line.Gross = line.Net.Add(line.Tax)
		line.Discount = roundWith(line.Discount, precision, strategy)
		result[i] = line
	}
	return result
}

// roundPerReceipt 小票级取整：行值按原始精度求和后取整，
// 取整差额整体计入小数余数最大的那一行（最大余数法），
// 保证展示的行税合计与展示的总税严格相等。
func roundPerReceipt(rawLines []LineTax, precision int32, strategy string) []LineTax {
	nets := make([]decimal.Decimal, len(rawLines))
	taxes := make([]decimal.Decimal, len(rawLines))
	for i, line := range rawLines {
		nets[i] = line.Net
		taxes[i] = line.Tax
	}
	roundedNets := largestRemainderRound(nets, precision, strategy)
	roundedTaxes := largestRemainderRound(taxes, precision, strategy)

	result := make([]LineTax, len(rawLines))
	for i, line := range rawLines {
		line.Net = roundedNets[i]
		line.Tax = roundedTaxes[i]
		line.Gross = line.Net.Add(line.Tax)
		line.Discount = roundWith(line.Discount, precision, strategy)
		result[i] = line
	}
	return result
}

// largestRemainderRound 按精度取整每个值，并把「总和先取整」与
// 「逐值取整后求和」之间的差额指派给小数余数最大的一个值。
func largestRemainderRound(values []decimal.Decimal, precision int32, strategy string) []decimal.Decimal {
	if len(values) == 0 {
		return nil
	}
	rawTotal := decimal.Zero
	rounded := make([]decimal.Decimal, len(values))
	roundedTotal := decimal.Zero
	for i, value := range values {
		rawTotal = rawTotal.Add(value)
		rounded[i] = roundWith(value, precision, strategy)
		roundedTotal = roundedTotal.Add(rounded[i])
	}
	delta := roundWith(rawTotal, precision, strategy).Sub(roundedTotal)
	if delta.IsZero() {
		return rounded
	}

	target := 0
	largest := decimal.NewFromInt(-1)
	for i, value := range values {
		remainder := value.Sub(value.Truncate(precision)).Abs()
		if remainder.GreaterThan(largest) {
			largest = remainder
			target = i
		}
	}
	rounded[target] = rounded[target].Add(delta)
	return rounded
}

// roundToIncrement 把金额取整到最近的现金最小单位。
func roundToIncrement(value, increment decimal.Decimal) decimal.Decimal {
	steps := value.Div(increment).Round(0)
	return steps.Mul(increment)
}

// RoundCash 按现金最小单位取整一笔现金金额。未启用或单位非法时原样返回。
func RoundCash(value decimal.Decimal, cfg CashRounding) decimal.Decimal {
	if !cfg.Enabled || !cfg.Increment.IsPositive() {
		return value
	}
	return roundToIncrement(value, cfg.Increment)
}

func roundWith(value decimal.Decimal, precision int32, strategy string) decimal.Decimal {
	if strings.EqualFold(strategy, constants.RoundingBankers) {
		return value.RoundBank(precision)
	}
	return value.Round(precision)
}

// summarizeByRate 按有效税率归集计税基数与税额，升序输出。
func summarizeByRate(lines []LineTax) []RateSummary {
	byRate := make(map[string]*RateSummary)
	keys := make([]decimal.Decimal, 0)
	for _, line := range lines {
		key := line.Rate.String()
		summary, ok := byRate[key]
		if !ok {
			summary = &RateSummary{Rate: line.Rate, Taxable: decimal.Zero, Tax: decimal.Zero}
			byRate[key] = summary
			keys = append(keys, line.Rate)
		}
		summary.Taxable = summary.Taxable.Add(line.Net)
		summary.Tax = summary.Tax.Add(line.Tax)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].LessThan(keys[j]) })

	result := make([]RateSummary, 0, len(keys))
	for _, rate := range keys {
		result = append(result, *byRate[rate.String()])
	}
	return result
}

func normalizeConfig(cfg Config) Config {
	if cfg.Precision <= 0 {
		cfg.Precision = 2
	}
	if cfg.PriceMode == "" {
		cfg.PriceMode = constants.PriceModeTaxExclusive
	}
	if cfg.RoundingStrategy == "" {
		cfg.RoundingStrategy = constants.RoundingHalfUp
	}
	if cfg.ReceiptRounding == "" {
		cfg.ReceiptRounding = constants.RoundingNone
	}
	return cfg
}
