package service

import (
	"strings"
	"time"

	"github.com/shouyin-pos/internal/config"
	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/pricing"
	"github.com/shouyin-pos/internal/repository"
	"github.com/shouyin-pos/internal/tax"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 快照超过该时长未刷新即视为过期
const snapshotStaleAfter = 24 * time.Hour

// CheckoutLineInput 结算行输入（数量与商品编码，单价以本地目录快照为准）
type CheckoutLineInput struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// ManualDiscountInput 收银员手动折扣输入
type ManualDiscountInput struct {
	Type  string          `json:"type"` // percent/amount
	Value decimal.Decimal `json:"value"`
	Label string          `json:"label"`
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	LocalID       string               `json:"local_id"` // 客户端生成的本地标识，缺省自动生成
	Lines         []CheckoutLineInput  `json:"lines"`
	CouponCode    string               `json:"coupon_code"`
	Manual        *ManualDiscountInput `json:"manual"`
	PaymentMethod string               `json:"payment_method"`
	FirstPurchase bool                 `json:"first_purchase"`
}

// Quote 结算报价（预览与提交共用同一条计算路径）。
// CouponIgnored 仅预览路径使用：填入忽略原因，空值表示优惠券有效或未传。
type Quote struct {
	Cart          pricing.Cart              `json:"cart"`
	Pricing       pricing.Result            `json:"pricing"`
	Totals        tax.Totals                `json:"totals"`
	Currency      string                    `json:"currency"`
	Coupon        *models.Coupon            `json:"-"`
	CouponIgnored string                    `json:"coupon_ignored,omitempty"`
	Applied       []pricing.AppliedDiscount `json:"applied"`
}

// CheckoutService 结算服务：报价、落本地单据、写发件箱
type CheckoutService struct {
	db            *gorm.DB
	catalogRepo   repository.CatalogItemRepository
	promotionRepo repository.PromotionRepository
	couponRepo    repository.CouponRepository
	draftRepo     repository.DraftRepository
	outboxRepo    repository.OutboxRepository
	settings      *SettingService
	checkoutCfg   config.CheckoutConfig
	currency      string
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(
	db *gorm.DB,
	catalogRepo repository.CatalogItemRepository,
	promotionRepo repository.PromotionRepository,
	couponRepo repository.CouponRepository,
	draftRepo repository.DraftRepository,
	outboxRepo repository.OutboxRepository,
	settings *SettingService,
	checkoutCfg config.CheckoutConfig,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		db:            db,
		catalogRepo:   catalogRepo,
		promotionRepo: promotionRepo,
		couponRepo:    couponRepo,
		draftRepo:     draftRepo,
		outboxRepo:    outboxRepo,
		settings:      settings,
		checkoutCfg:   checkoutCfg,
		currency:      currency,
	}
}

// PreviewSale 计算一次结算报价，不产生任何持久化副作用。
// 无效的优惠券码不阻塞预览：按无折扣计价并在报价里标注忽略原因。
func (s *CheckoutService) PreviewSale(input CheckoutInput) (*Quote, error) {
	return s.buildQuote(input, false)
}

// CommitSale 提交一次销售：本地单据与发件箱条目在同一事务内落库，
// 入队后单据内容不可变。使用了优惠券时本地使用次数同事务登记，
// 并追加一条 redeem_coupon 发件箱条目。
func (s *CheckoutService) CommitSale(input CheckoutInput) (*models.DraftTransaction, error) {
	quote, err := s.buildQuote(input, true)
	if err != nil {
		return nil, err
	}
	if quote.Coupon != nil {
		if err := s.checkCouponCaps(quote.Coupon); err != nil {
			return nil, err
		}
	}

	localID := strings.TrimSpace(input.LocalID)
	if localID == "" {
		localID = uuid.NewString()
	}

	cartDoc, err := toJSONDoc(quote.Cart)
	if err != nil {
		return nil, err
	}
	appliedArr, err := toJSONArray(quote.Pricing.Applied)
	if err != nil {
		return nil, err
	}
	totalsDoc, err := toJSONDoc(quote.Totals)
	if err != nil {
		return nil, err
	}

	draft := &models.DraftTransaction{
		LocalID:       localID,
		Kind:          constants.DraftKindSale,
		Status:        constants.DraftStatusCommitted,
		CartSnapshot:  cartDoc,
		Discounts:     models.JSON{"applied": appliedArr},
		Totals:        totalsDoc,
		Currency:      quote.Currency,
		PaymentMethod: input.PaymentMethod,
		GrandTotal:    models.NewMoneyFromDecimal(quote.Totals.GrandTotal),
		CouponCode:    strings.TrimSpace(input.CouponCode),
	}

	payload := models.JSON{
		"local_id":       localID,
		"kind":           constants.DraftKindSale,
		"currency":       quote.Currency,
		"payment_method": input.PaymentMethod,
		"cart":           map[string]interface{}(cartDoc),
		"discounts":      appliedArr,
		"totals":         map[string]interface{}(totalsDoc),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.draftRepo.WithTx(tx).Create(draft); err != nil {
			return err
		}
		item := &models.OutboxItem{
			LocalID:        localID,
			Kind:           constants.OpKindCreateSale,
			Payload:        payload,
			IdempotencyKey: uuid.NewString(),
			Status:         constants.OutboxStatusQueued,
		}
		if err := s.outboxRepo.WithTx(tx).Create(item); err != nil {
			return err
		}

		if quote.Coupon != nil {
			if err := s.couponRepo.WithTx(tx).IncrementLocalUsedCount(quote.Coupon.ID, 1); err != nil {
				return err
			}
			redeemItem := &models.OutboxItem{
				LocalID: uuid.NewString(),
				Kind:    constants.OpKindRedeemCoupon,
				Payload: models.JSON{
					"code":          quote.Coupon.Code,
					"sale_local_id": localID,
				},
				IdempotencyKey: uuid.NewString(),
				Status:         constants.OutboxStatusQueued,
			}
			if err := s.outboxRepo.WithTx(tx).Create(redeemItem); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("sale_committed",
		"local_id", localID,
		"grand_total", quote.Totals.GrandTotal.String(),
		"coupon_code", draft.CouponCode,
	)
	return draft, nil
}

// buildQuote 报价主路径：目录取价、折扣评估、税费计算。
// strictCoupon 为真时无效优惠券直接报错（提交），否则忽略继续（预览）。
func (s *CheckoutService) buildQuote(input CheckoutInput, strictCoupon bool) (*Quote, error) {
	if len(input.Lines) == 0 {
		return nil, ErrCartEmpty
	}

	if err := s.checkSnapshotFreshness(); err != nil {
		return nil, err
	}

	cart, err := s.buildCart(input.Lines)
	if err != nil {
		return nil, err
	}

	promotions, err := s.promotionRepo.ListActive()
	if err != nil {
		return nil, err
	}

	var couponRule *pricing.Rule
	var coupon *models.Coupon
	couponIgnored := ""
	code := strings.TrimSpace(input.CouponCode)
	if code != "" {
		coupon, err = s.couponRepo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		switch {
		case coupon == nil:
			if strictCoupon {
				return nil, ErrCouponNotFound
			}
			couponIgnored = "not_found"
		case !coupon.IsActive:
			if strictCoupon {
				return nil, ErrCouponInactive
			}
			coupon = nil
			couponIgnored = "inactive"
		default:
			rule := couponToRule(*coupon)
			couponRule = &rule
		}
	}

	ctx := pricing.Context{
		Channel:       s.checkoutCfg.Channel,
		Now:           time.Now(),
		FirstPurchase: input.FirstPurchase,
	}
	result := pricing.Evaluate(cart, promotionsToRules(promotions), couponRule, s.checkoutCfg.StackingPolicy, ctx)

	if input.Manual != nil {
		result = pricing.ApplyManual(result, pricing.ManualDiscount{
			Type:  input.Manual.Type,
			Value: input.Manual.Value,
			Label: input.Manual.Label,
		}, s.checkoutCfg.ManualDiscountCapPct)
	}

	taxCfg := s.settings.TaxConfig()
	totals := tax.Compute(cart.Lines, result.Applied, taxCfg, input.PaymentMethod)

	return &Quote{
		Cart:          cart,
		Pricing:       result,
		Totals:        totals,
		Currency:      s.currency,
		Coupon:        coupon,
		CouponIgnored: couponIgnored,
		Applied:       result.Applied,
	}, nil
}

// buildCart 从本地目录快照取价构建购物车
func (s *CheckoutService) buildCart(inputs []CheckoutLineInput) (pricing.Cart, error) {
	skus := make([]string, 0, len(inputs))
	for _, line := range inputs {
		if line.Qty <= 0 {
			return pricing.Cart{}, ErrInvalidQuantity
		}
		skus = append(skus, line.SKU)
	}

	items, err := s.catalogRepo.ListBySKUs(skus)
	if err != nil {
		return pricing.Cart{}, err
	}
	bySKU := make(map[string]models.CatalogItem, len(items))
	for _, item := range items {
		bySKU[item.SKU] = item
	}

	cart := pricing.Cart{Lines: make([]pricing.CartLine, 0, len(inputs))}
	for _, line := range inputs {
		item, ok := bySKU[line.SKU]
		if !ok {
			return pricing.Cart{}, ErrItemNotFound
		}
		cart.Lines = append(cart.Lines, pricing.CartLine{
			SKU:       item.SKU,
			Qty:       line.Qty,
			UnitPrice: item.Price.Decimal,
			Category:  item.Category,
			Brand:     item.Brand,
			TaxExempt: item.TaxExempt,
			ZeroRated: item.ZeroRated,
		})
	}
	return cart, nil
}

// checkSnapshotFreshness 快照过期时按配置决定拦截还是降级继续
func (s *CheckoutService) checkSnapshotFreshness() error {
	refreshedAt, err := s.catalogRepo.LastRefreshedAt()
	if err != nil {
		return err
	}
	if refreshedAt == nil || time.Since(*refreshedAt) > snapshotStaleAfter {
		if s.checkoutCfg.SnapshotStaleTolerated {
			logger.Warnw("checkout_with_stale_snapshot")
			return nil
		}
		return ErrSnapshotStale
	}
	return nil
}

// checkCouponCaps 提交时校验使用上限（预览阶段不拦截，上限以本地登记数为准）
func (s *CheckoutService) checkCouponCaps(coupon *models.Coupon) error {
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return ErrCouponExpired
	}
	if coupon.PerCodeLimit > 0 && coupon.LocalUsedCount >= coupon.PerCodeLimit {
		return ErrCouponUsageLimit
	}
	if coupon.GlobalLimit > 0 && coupon.LocalUsedCount >= coupon.GlobalLimit {
		return ErrCouponUsageLimit
	}
	return nil
}
