package pricing

import (
	"testing"
	"time"

	"github.com/shouyin-pos/internal/constants"

	"github.com/shopspring/decimal"
)

func testContext() Context {
	return Context{Channel: constants.ChannelStore, Now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func singleLineCart(price float64, qty int) Cart {
	return Cart{Lines: []CartLine{
		{SKU: "A-1", Qty: qty, UnitPrice: decimal.NewFromFloat(price)},
	}}
}

func TestEvaluateOrderPercentPromotion(t *testing.T) {
	cart := singleLineCart(100, 1)
	promo := Rule{
		ID: "p1", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(10), Active: true,
	}
	result := Evaluate(cart, []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	if !result.Discounts.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected discounts 10, got %s", result.Discounts)
	}
	if !result.GrandTotal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected grand total 90, got %s", result.GrandTotal)
	}
	if len(result.Applied) != 1 || result.Applied[0].TraceID == "" {
		t.Fatalf("expected one applied discount with trace id, got %+v", result.Applied)
	}
}

func TestEvaluateStackingNoneKeepsSingleMax(t *testing.T) {
	cart := singleLineCart(100, 1)
	promos := []Rule{
		{ID: "small", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder, Value: decimal.NewFromInt(5), Active: true, Priority: 1},
		{ID: "big", Type: constants.DiscountTypeAmount, Level: constants.DiscountLevelOrder, Value: decimal.NewFromInt(20), Active: true, Priority: 2},
	}
	result := Evaluate(cart, promos, nil, constants.StackingPolicyNone, testContext())
	if len(result.Applied) != 1 {
		t.Fatalf("expected exactly one discount, got %d", len(result.Applied))
	}
	if result.Applied[0].RuleID != "big" {
		t.Fatalf("expected the max candidate to win, got %s", result.Applied[0].RuleID)
	}
	if !result.Discounts.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected discounts 20, got %s", result.Discounts)
	}
}

func TestEvaluateAllowBothKeepsBestOrderAndAllLineLevel(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{SKU: "A-1", Qty: 1, UnitPrice: decimal.NewFromInt(100), Category: "shoes"},
		{SKU: "B-1", Qty: 1, UnitPrice: decimal.NewFromInt(50), Category: "hats"},
	}}
	promos := []Rule{
		{ID: "order5", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder, Value: decimal.NewFromInt(5), Active: true, Priority: 1},
		{ID: "order10", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder, Value: decimal.NewFromInt(10), Active: true, Priority: 2},
		{ID: "shoes20", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelLine, Value: decimal.NewFromInt(20), IncludeCategories: []string{"shoes"}, Active: true, Priority: 3},
	}
	result := Evaluate(cart, promos, nil, constants.StackingPolicyAllowBoth, testContext())
	if len(result.Applied) != 2 {
		t.Fatalf("expected two applied discounts, got %+v", result.Applied)
	}
	if result.Applied[0].RuleID != "order10" {
		t.Fatalf("expected best order-level first, got %s", result.Applied[0].RuleID)
	}
	// 15 (order) + 20 (line on 100)
	if !result.Discounts.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected discounts 35, got %s", result.Discounts)
	}
}

func TestEvaluateBogoDiscountsCheapestUnits(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{SKU: "A-1", Qty: 3, UnitPrice: decimal.NewFromInt(20)},
	}}
	promo := Rule{
		ID: "bogo", Type: constants.DiscountTypeBogo, Level: constants.DiscountLevelLine,
		BogoX: 1, BogoY: 1, YDiscountPct: 100, Active: true,
	}
	result := Evaluate(cart, []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	if !result.Discounts.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected one free unit worth 20, got %s", result.Discounts)
	}
	if len(result.Applied) != 1 || len(result.Applied[0].Lines) != 1 {
		t.Fatalf("expected per-line bogo detail, got %+v", result.Applied)
	}
	if result.Applied[0].Lines[0].Qty != 1 {
		t.Fatalf("expected exactly 1 discounted unit, got %d", result.Applied[0].Lines[0].Qty)
	}
}

func TestEvaluateBogoDefaultsToFullDiscount(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{SKU: "A-1", Qty: 3, UnitPrice: decimal.NewFromInt(20)},
	}}
	promo := Rule{
		ID: "bogo", Type: constants.DiscountTypeBogo, Level: constants.DiscountLevelLine,
		BogoX: 1, BogoY: 1, Active: true,
	}
	result := Evaluate(cart, []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	// 未设置 YDiscountPct 时按 100% 整件赠送
	if !result.Discounts.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected unset y-discount to mean a free unit (20), got %s", result.Discounts)
	}
}

func TestEvaluateBogoPicksCheapestAcrossLines(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{SKU: "expensive", Qty: 2, UnitPrice: decimal.NewFromInt(30)},
		{SKU: "cheap", Qty: 2, UnitPrice: decimal.NewFromInt(10)},
	}}
	promo := Rule{
		ID: "bogo", Type: constants.DiscountTypeBogo, Level: constants.DiscountLevelLine,
		BogoX: 1, BogoY: 1, YDiscountPct: 100, Active: true,
	}
	result := Evaluate(cart, []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	// 4 units, 2 complete groups, 2 cheapest units free => 2 * 10
	if !result.Discounts.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected cheapest units discounted (20), got %s", result.Discounts)
	}
	if result.Applied[0].Lines[0].SKU != "cheap" {
		t.Fatalf("expected cheap sku discounted, got %+v", result.Applied[0].Lines)
	}
}

func TestEvaluateThresholdActivatesOnSubtotal(t *testing.T) {
	promo := Rule{
		ID: "spend200", Type: constants.DiscountTypeThreshold, Level: constants.DiscountLevelOrder,
		Threshold: decimal.NewFromInt(200), YDiscountPct: 10, Active: true,
	}
	below := Evaluate(singleLineCart(100, 1), []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	if !below.Discounts.IsZero() {
		t.Fatalf("expected no discount below threshold, got %s", below.Discounts)
	}
	above := Evaluate(singleLineCart(100, 2), []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	if !above.Discounts.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected 10%% of 200, got %s", above.Discounts)
	}
}

func TestEvaluateScheduleAndChannelGates(t *testing.T) {
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	promoExpired := Rule{
		ID: "expired", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(10), Active: true, EndsAt: &past,
	}
	promoOnline := Rule{
		ID: "online", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(10), Active: true, Channels: []string{constants.ChannelOnline},
	}
	result := Evaluate(singleLineCart(100, 1), []Rule{promoExpired, promoOnline}, nil, constants.StackingPolicyAllowBoth, testContext())
	if len(result.Applied) != 0 {
		t.Fatalf("expected no applicable promotion, got %+v", result.Applied)
	}
}

func TestEvaluateExcludeVetoesInclude(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{SKU: "A-1", Qty: 1, UnitPrice: decimal.NewFromInt(100), Category: "shoes", Brand: "acme"},
	}}
	promo := Rule{
		ID: "p", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelLine,
		Value: decimal.NewFromInt(10), Active: true,
		IncludeCategories: []string{"shoes"},
		ExcludeBrands:     []string{"acme"},
	}
	result := Evaluate(cart, []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	if len(result.Applied) != 0 {
		t.Fatalf("expected exclude to veto, got %+v", result.Applied)
	}
}

func TestEvaluateMaxDiscountClamp(t *testing.T) {
	promo := Rule{
		ID: "p", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(50), MaxDiscount: decimal.NewFromInt(30), Active: true,
	}
	result := Evaluate(singleLineCart(100, 1), []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	if !result.Discounts.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected max discount clamp to 30, got %s", result.Discounts)
	}
}

func TestEvaluatePercentClampNeverNegativeTotal(t *testing.T) {
	promo := Rule{
		ID: "p", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(500), Active: true,
	}
	result := Evaluate(singleLineCart(40, 1), []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	if !result.Discounts.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected percent clamped to 100, got %s", result.Discounts)
	}
	if result.GrandTotal.IsNegative() {
		t.Fatalf("grand total must never be negative, got %s", result.GrandTotal)
	}
}

func TestEvaluateExpiredCouponYieldsNoDiscount(t *testing.T) {
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	coupon := &Rule{
		ID: "c", Code: "SAVE10", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(10), Active: true, ExpiresAt: &past,
	}
	result := Evaluate(singleLineCart(100, 1), nil, coupon, constants.StackingPolicyAllowBoth, testContext())
	if len(result.Applied) != 0 {
		t.Fatalf("expected expired coupon to be ignored, got %+v", result.Applied)
	}
}

func TestEvaluateCouponsOnlyRestrictsPool(t *testing.T) {
	promo := Rule{
		ID: "p", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(50), Active: true,
	}
	coupon := &Rule{
		ID: "c", Code: "SAVE10", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(10), Active: true,
	}
	result := Evaluate(singleLineCart(100, 1), []Rule{promo}, coupon, constants.StackingPolicyCouponsOnly, testContext())
	if len(result.Applied) != 1 || result.Applied[0].Source != constants.DiscountSourceCoupon {
		t.Fatalf("expected only the coupon candidate, got %+v", result.Applied)
	}
}

func TestApplyManualPercentRespectsCap(t *testing.T) {
	base := Evaluate(singleLineCart(100, 1), nil, nil, constants.StackingPolicyAllowBoth, testContext())
	manual := ManualDiscount{Type: constants.DiscountTypePercent, Value: decimal.NewFromInt(50)}
	result := ApplyManual(base, manual, 20)
	if !result.Discounts.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected manual percent capped at 20%%, got %s", result.Discounts)
	}
	if result.Applied[len(result.Applied)-1].Source != constants.DiscountSourceManual {
		t.Fatalf("expected manual discount recorded in audit trail")
	}
}

func TestApplyManualAmountClampedToRemaining(t *testing.T) {
	promo := Rule{
		ID: "p", Type: constants.DiscountTypeAmount, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(80), Active: true,
	}
	base := Evaluate(singleLineCart(100, 1), []Rule{promo}, nil, constants.StackingPolicyAllowBoth, testContext())
	manual := ManualDiscount{Type: constants.DiscountTypeAmount, Value: decimal.NewFromInt(50)}
	result := ApplyManual(base, manual, 0)
	if !result.Discounts.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected discounts clamped to subtotal, got %s", result.Discounts)
	}
	if !result.GrandTotal.IsZero() {
		t.Fatalf("expected zero grand total, got %s", result.GrandTotal)
	}
}

func TestEvaluateReproducibleAmounts(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{SKU: "A-1", Qty: 2, UnitPrice: decimal.NewFromFloat(19.99)},
		{SKU: "B-2", Qty: 1, UnitPrice: decimal.NewFromFloat(5.45)},
	}}
	promo := Rule{
		ID: "p", Type: constants.DiscountTypePercent, Level: constants.DiscountLevelOrder,
		Value: decimal.NewFromInt(15), Active: true,
	}
	first := Evaluate(cart, []Rule{promo}, nil, constants.StackingPolicyNone, testContext())
	second := Evaluate(cart, []Rule{promo}, nil, constants.StackingPolicyNone, testContext())
	if !first.Discounts.Equal(second.Discounts) || !first.GrandTotal.Equal(second.GrandTotal) {
		t.Fatalf("expected deterministic evaluation: %s vs %s", first.Discounts, second.Discounts)
	}
}
