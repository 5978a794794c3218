package pricing

import (
	"sort"
	"strings"

	"github.com/shouyin-pos/internal/constants"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Evaluate 评估购物车可用折扣。纯函数：相同输入必得相同折扣集合。
// 非法输入一律钳制而非报错，未命中的优惠码只产生零折扣，不阻断收银。
func Evaluate(cart Cart, promotions []Rule, coupon *Rule, policy string, ctx Context) Result {
	subtotal := cart.Subtotal()
	result := Result{
		Subtotal:   subtotal,
		GrandTotal: subtotal,
		Discounts:  decimal.Zero,
	}
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return result
	}

	ordered := make([]Rule, len(promotions))
	copy(ordered, promotions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	candidates := make([]AppliedDiscount, 0, len(ordered)+1)
	for _, rule := range ordered {
		rule.Source = constants.DiscountSourcePromotion
		if candidate, ok := buildCandidate(cart, subtotal, rule, ctx); ok {
			candidates = append(candidates, candidate)
		}
	}
	if coupon != nil {
		rule := *coupon
		rule.Source = constants.DiscountSourceCoupon
		// 使用次数上限在兑换时由服务端校验，评估阶段只看有效期，
		// 避免过期的本地缓存把有效券误判为不可用。
		if rule.ExpiresAt == nil || !ctx.Now.After(*rule.ExpiresAt) {
			if candidate, ok := buildCandidate(cart, subtotal, rule, ctx); ok {
				candidates = append(candidates, candidate)
			}
		}
	}

	applied := selectByPolicy(candidates, policy)
	return recompute(subtotal, applied)
}

// ApplyManual 在策略选择之后追加手动折扣，并按同样的规则钳制后重算合计。
func ApplyManual(result Result, manual ManualDiscount, capPercent int) Result {
	if capPercent <= 0 || capPercent > 100 {
		capPercent = 100
	}
	amount := decimal.Zero
	switch strings.ToLower(strings.TrimSpace(manual.Type)) {
	case constants.DiscountTypePercent:
		pct := clampDecimal(manual.Value, decimal.Zero, decimal.NewFromInt(int64(capPercent)))
		amount = result.Subtotal.Mul(pct).Div(oneHundred)
	case constants.DiscountTypeAmount:
		amount = clampDecimal(manual.Value, decimal.Zero, result.Subtotal)
	default:
		return result
	}

	remaining := result.Subtotal.Sub(result.Discounts)
	if amount.GreaterThan(remaining) {
		amount = remaining
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return result
	}

	label := manual.Label
	if label == "" {
		label = "manual discount"
	}
	applied := append(result.Applied, AppliedDiscount{
		RuleID:  constants.DiscountSourceManual,
		Source:  constants.DiscountSourceManual,
		Level:   constants.DiscountLevelOrder,
		Label:   label,
		Amount:  amount,
		TraceID: uuid.NewString(),
	})
	return recompute(result.Subtotal, applied)
}

// buildCandidate 计算单条规则的候选折扣，返回 false 表示规则不适用。
func buildCandidate(cart Cart, subtotal decimal.Decimal, rule Rule, ctx Context) (AppliedDiscount, bool) {
	if !rule.Active {
		return AppliedDiscount{}, false
	}
	if !inSchedule(rule, ctx.Now) {
		return AppliedDiscount{}, false
	}
	if !inChannel(rule, ctx.Channel) {
		return AppliedDiscount{}, false
	}
	if rule.FirstPurchaseOnly && !ctx.FirstPurchase {
		return AppliedDiscount{}, false
	}
	if rule.MinSubtotal.IsPositive() && subtotal.LessThan(rule.MinSubtotal) {
		return AppliedDiscount{}, false
	}

	scoped := eligibleLines(cart.Lines, rule)
	if len(scoped) == 0 {
		return AppliedDiscount{}, false
	}
	eligibleSubtotal := decimal.Zero
	for _, line := range scoped {
		eligibleSubtotal = eligibleSubtotal.Add(line.Base())
	}

	amount := decimal.Zero
	var lines []LineDiscount
	switch strings.ToLower(strings.TrimSpace(rule.Type)) {
	case constants.DiscountTypePercent:
		pct := clampDecimal(rule.Value, decimal.Zero, oneHundred)
		if rule.Level == constants.DiscountLevelOrder {
			amount = subtotal.Mul(pct).Div(oneHundred)
		} else {
			amount = eligibleSubtotal.Mul(pct).Div(oneHundred)
			lines = percentLines(scoped, pct)
		}
	case constants.DiscountTypeAmount:
		if rule.Level == constants.DiscountLevelOrder {
			amount = clampDecimal(rule.Value, decimal.Zero, subtotal)
		} else {
			amount = clampDecimal(rule.Value, decimal.Zero, eligibleSubtotal)
			lines = proportionalLines(scoped, eligibleSubtotal, amount)
		}
	case constants.DiscountTypeThreshold:
		if rule.Threshold.IsPositive() && subtotal.LessThan(rule.Threshold) {
			return AppliedDiscount{}, false
		}
		pct := thresholdPercent(rule)
		amount = eligibleSubtotal.Mul(pct).Div(oneHundred)
	case constants.DiscountTypeBogo:
		amount, lines = bogoDiscount(scoped, rule)
	default:
		return AppliedDiscount{}, false
	}

	if rule.MaxDiscount.IsPositive() && amount.GreaterThan(rule.MaxDiscount) {
		amount = rule.MaxDiscount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return AppliedDiscount{}, false
	}

	return AppliedDiscount{
		RuleID:  rule.ID,
		Source:  rule.Source,
		Level:   rule.Level,
		Label:   rule.Label,
		Amount:  amount,
		Lines:   lines,
		TraceID: uuid.NewString(),
	}, true
}

// selectByPolicy 按叠加策略从候选集选出最终折扣。
func selectByPolicy(candidates []AppliedDiscount, policy string) []AppliedDiscount {
	if len(candidates) == 0 {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case constants.StackingPolicyPromosOnly:
		return bestOf(filterBySource(candidates, constants.DiscountSourcePromotion))
	case constants.StackingPolicyCouponsOnly:
		return bestOf(filterBySource(candidates, constants.DiscountSourceCoupon))
	case constants.StackingPolicyAllowBoth:
		// 最优整单折扣 + 全部行级折扣；各规则作用域独立评估，无重复计算。
		var selected []AppliedDiscount
		var bestOrder *AppliedDiscount
		for i := range candidates {
			candidate := candidates[i]
			if candidate.Level == constants.DiscountLevelOrder {
				if bestOrder == nil || candidate.Amount.GreaterThan(bestOrder.Amount) {
					bestOrder = &candidates[i]
				}
				continue
			}
			selected = append(selected, candidate)
		}
		if bestOrder != nil {
			selected = append([]AppliedDiscount{*bestOrder}, selected...)
		}
		return selected
	default: // none
		return bestOf(candidates)
	}
}

func bestOf(candidates []AppliedDiscount) []AppliedDiscount {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Amount.GreaterThan(best.Amount) {
			best = candidate
		}
	}
	return []AppliedDiscount{best}
}

func filterBySource(candidates []AppliedDiscount, source string) []AppliedDiscount {
	result := make([]AppliedDiscount, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Source == source {
			result = append(result, candidate)
		}
	}
	return result
}

// recompute 重算合计并保证 0 ≤ 折扣 ≤ 小计、应收 ≥ 0。
func recompute(subtotal decimal.Decimal, applied []AppliedDiscount) Result {
	discounts := decimal.Zero
	for _, d := range applied {
		discounts = discounts.Add(d.Amount)
	}
	if discounts.GreaterThan(subtotal) {
		discounts = subtotal
	}
	if discounts.IsNegative() {
		discounts = decimal.Zero
	}
	return Result{
		Applied:    applied,
		Subtotal:   subtotal,
		Discounts:  discounts,
		GrandTotal: subtotal.Sub(discounts),
	}
}

func percentLines(scoped []CartLine, pct decimal.Decimal) []LineDiscount {
	lines := make([]LineDiscount, 0, len(scoped))
	for _, line := range scoped {
		lines = append(lines, LineDiscount{
			SKU:      line.SKU,
			Qty:      line.Qty,
			Discount: line.Base().Mul(pct).Div(oneHundred),
		})
	}
	return lines
}

// proportionalLines 把固定金额按行基础金额占比拆分到作用范围内的行，余数归最后一行。
func proportionalLines(scoped []CartLine, eligibleSubtotal, amount decimal.Decimal) []LineDiscount {
	if eligibleSubtotal.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	lines := make([]LineDiscount, 0, len(scoped))
	allocated := decimal.Zero
	for i, line := range scoped {
		var share decimal.Decimal
		if i == len(scoped)-1 {
			share = amount.Sub(allocated)
		} else {
			share = amount.Mul(line.Base()).Div(eligibleSubtotal)
			allocated = allocated.Add(share)
		}
		lines = append(lines, LineDiscount{SKU: line.SKU, Qty: line.Qty, Discount: share})
	}
	return lines
}

func thresholdPercent(rule Rule) decimal.Decimal {
	pct := decimal.NewFromInt(int64(rule.YDiscountPct))
	return clampDecimal(pct, decimal.Zero, oneHundred)
}

func clampDecimal(value, min, max decimal.Decimal) decimal.Decimal {
	if value.LessThan(min) {
		return min
	}
	if value.GreaterThan(max) {
		return max
	}
	return value
}
