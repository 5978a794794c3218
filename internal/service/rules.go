package service

import (
	"encoding/json"
	"fmt"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/pricing"
)

// promotionToRule 把促销模型转换为评估引擎的统一规则视图
func promotionToRule(p models.Promotion) pricing.Rule {
	return pricing.Rule{
		ID:                fmt.Sprintf("promo-%d", p.ID),
		Source:            constants.DiscountSourcePromotion,
		Label:             p.Name,
		Type:              p.Type,
		Level:             p.Level,
		Value:             p.Value.Decimal,
		BogoX:             p.BogoX,
		BogoY:             p.BogoY,
		YDiscountPct:      p.YDiscountPct,
		Threshold:         p.ThresholdValue.Decimal,
		IncludeCategories: p.IncludeCategories,
		IncludeBrands:     p.IncludeBrands,
		IncludeSKUs:       p.IncludeSKUs,
		ExcludeCategories: p.ExcludeCategories,
		ExcludeBrands:     p.ExcludeBrands,
		ExcludeSKUs:       p.ExcludeSKUs,
		Channels:          p.Channels,
		MinSubtotal:       p.MinSubtotal.Decimal,
		MaxDiscount:       p.MaxDiscount.Decimal,
		FirstPurchaseOnly: p.FirstPurchaseOnly,
		StartsAt:          p.StartsAt,
		EndsAt:            p.EndsAt,
		DaysOfWeek:        p.DaysOfWeek,
		StartTime:         p.StartTime,
		EndTime:           p.EndTime,
		Priority:          p.Priority,
		Active:            p.IsActive,
	}
}

// couponToRule 把优惠券模型转换为评估引擎的统一规则视图
func couponToRule(c models.Coupon) pricing.Rule {
	return pricing.Rule{
		ID:                fmt.Sprintf("coupon-%d", c.ID),
		Source:            constants.DiscountSourceCoupon,
		Label:             c.Code,
		Type:              c.Type,
		Level:             c.Level,
		Value:             c.Value.Decimal,
		BogoX:             c.BogoX,
		BogoY:             c.BogoY,
		YDiscountPct:      c.YDiscountPct,
		Threshold:         c.ThresholdValue.Decimal,
		IncludeCategories: c.IncludeCategories,
		IncludeBrands:     c.IncludeBrands,
		IncludeSKUs:       c.IncludeSKUs,
		ExcludeCategories: c.ExcludeCategories,
		ExcludeBrands:     c.ExcludeBrands,
		ExcludeSKUs:       c.ExcludeSKUs,
		Channels:          c.Channels,
		MinSubtotal:       c.MinSubtotal.Decimal,
		MaxDiscount:       c.MaxDiscount.Decimal,
		Priority:          c.Priority,
		Active:            c.IsActive,
		Code:              c.Code,
		ExpiresAt:         c.ExpiresAt,
	}
}

// promotionsToRules 批量转换促销规则
func promotionsToRules(promotions []models.Promotion) []pricing.Rule {
	rules := make([]pricing.Rule, 0, len(promotions))
	for _, p := range promotions {
		rules = append(rules, promotionToRule(p))
	}
	return rules
}

// toJSONDoc 把任意可序列化结构转换为 models.JSON 存储形式
func toJSONDoc(v interface{}) (models.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc models.JSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// toJSONArray 把切片序列化为 JSON 数组存储形式
func toJSONArray(v interface{}) ([]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var arr []interface{}
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}

// fromJSONDoc 把 models.JSON 反序列化回结构体
func fromJSONDoc(doc models.JSON, out interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
