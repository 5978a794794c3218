package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shouyin-pos/internal/config"
	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type checkoutFixture struct {
	db       *gorm.DB
	checkout *CheckoutService
	drafts   *repository.GormDraftRepository
	outbox   *repository.GormOutboxRepository
	coupons  *repository.GormCouponRepository
}

func setupCheckoutTest(t *testing.T) *checkoutFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:checkout_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.CatalogItem{},
		&models.Promotion{},
		&models.Coupon{},
		&models.DraftTransaction{},
		&models.OutboxItem{},
		&models.SyncLogEntry{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	catalogRepo := repository.NewCatalogItemRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	settings := NewSettingService(settingRepo, config.TaxConfig{
		PriceMode:   constants.PriceModeTaxExclusive,
		DefaultRate: "0.10",
		Precision:   2,
	})

	checkout := NewCheckoutService(
		db,
		catalogRepo,
		promotionRepo,
		couponRepo,
		draftRepo,
		outboxRepo,
		settings,
		config.CheckoutConfig{
			StackingPolicy:       constants.StackingPolicyNone,
			ManualDiscountCapPct: 20,
			Channel:              constants.ChannelStore,
		},
		"USD",
	)

	return &checkoutFixture{
		db:       db,
		checkout: checkout,
		drafts:   draftRepo,
		outbox:   outboxRepo,
		coupons:  couponRepo,
	}
}

func seedCatalogItem(t *testing.T, db *gorm.DB, sku string, price string) {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price failed: %v", err)
	}
	item := models.CatalogItem{
		SKU:         sku,
		Name:        "item " + sku,
		Price:       models.NewMoneyFromDecimal(amount),
		RefreshedAt: time.Now(),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed catalog item failed: %v", err)
	}
}

func TestPreviewSaleHasNoSideEffects(t *testing.T) {
	f := setupCheckoutTest(t)
	seedCatalogItem(t, f.db, "SHIRT-1", "100")

	quote, err := f.checkout.PreviewSale(CheckoutInput{
		Lines:         []CheckoutLineInput{{SKU: "SHIRT-1", Qty: 1}},
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !quote.Totals.GrandTotal.Equal(decimal.RequireFromString("110")) {
		t.Fatalf("grand total want 110 got %s", quote.Totals.GrandTotal)
	}

	var draftCount, outboxCount int64
	f.db.Model(&models.DraftTransaction{}).Count(&draftCount)
	f.db.Model(&models.OutboxItem{}).Count(&outboxCount)
	if draftCount != 0 || outboxCount != 0 {
		t.Fatalf("preview must not persist anything, drafts=%d outbox=%d", draftCount, outboxCount)
	}
}

func TestPreviewSaleIgnoresUnknownCoupon(t *testing.T) {
	f := setupCheckoutTest(t)
	seedCatalogItem(t, f.db, "SHIRT-1", "100")

	// 输错的券码不阻塞预览：按无折扣计价并标注忽略原因
	quote, err := f.checkout.PreviewSale(CheckoutInput{
		Lines:         []CheckoutLineInput{{SKU: "SHIRT-1", Qty: 1}},
		CouponCode:    "NO-SUCH-CODE",
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("preview with unknown coupon must not fail: %v", err)
	}
	if quote.CouponIgnored != "not_found" {
		t.Fatalf("coupon_ignored want not_found got %q", quote.CouponIgnored)
	}
	if !quote.Pricing.Discounts.IsZero() {
		t.Fatalf("ignored coupon must yield no discount, got %s", quote.Pricing.Discounts)
	}

	// 提交路径保持严格：同一券码直接报错
	_, err = f.checkout.CommitSale(CheckoutInput{
		Lines:         []CheckoutLineInput{{SKU: "SHIRT-1", Qty: 1}},
		CouponCode:    "NO-SUCH-CODE",
		PaymentMethod: constants.PaymentMethodCard,
	})
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("commit want ErrCouponNotFound got %v", err)
	}
}

func TestCommitSaleWritesDraftAndOutboxAtomically(t *testing.T) {
	f := setupCheckoutTest(t)
	seedCatalogItem(t, f.db, "SHIRT-1", "100")

	draft, err := f.checkout.CommitSale(CheckoutInput{
		LocalID:       "sale-local-1",
		Lines:         []CheckoutLineInput{{SKU: "SHIRT-1", Qty: 2}},
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if draft.Status != constants.DraftStatusCommitted {
		t.Fatalf("draft status want committed got %s", draft.Status)
	}
	if !draft.GrandTotal.Decimal.Equal(decimal.RequireFromString("220")) {
		t.Fatalf("grand total want 220 got %s", draft.GrandTotal.Decimal)
	}

	item, err := f.outbox.GetByLocalID("sale-local-1")
	if err != nil {
		t.Fatalf("get outbox item failed: %v", err)
	}
	if item == nil {
		t.Fatalf("outbox item missing for committed sale")
	}
	if item.Kind != constants.OpKindCreateSale {
		t.Fatalf("outbox kind want create_sale got %s", item.Kind)
	}
	if item.Status != constants.OutboxStatusQueued {
		t.Fatalf("outbox status want queued got %s", item.Status)
	}
	if item.IdempotencyKey == "" {
		t.Fatalf("outbox item must carry an idempotency key")
	}
	if item.Payload["local_id"] != "sale-local-1" {
		t.Fatalf("payload local_id want sale-local-1 got %v", item.Payload["local_id"])
	}
}

func TestCommitSaleWithCouponRegistersUsage(t *testing.T) {
	f := setupCheckoutTest(t)
	seedCatalogItem(t, f.db, "SHIRT-1", "100")

	coupon := models.Coupon{
		Code:         "WELCOME10",
		Type:         constants.DiscountTypePercent,
		Level:        constants.DiscountLevelOrder,
		Value:        models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		PerCodeLimit: 5,
		IsActive:     true,
	}
	if err := f.db.Create(&coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	draft, err := f.checkout.CommitSale(CheckoutInput{
		LocalID:       "sale-local-1",
		Lines:         []CheckoutLineInput{{SKU: "SHIRT-1", Qty: 1}},
		CouponCode:    "WELCOME10",
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	// 100 - 10% = 90，税 10% = 9
	if !draft.GrandTotal.Decimal.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("grand total want 99 got %s", draft.GrandTotal.Decimal)
	}

	stored, err := f.coupons.GetByCode("WELCOME10")
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if stored.LocalUsedCount != 1 {
		t.Fatalf("local used count want 1 got %d", stored.LocalUsedCount)
	}

	items, _, err := f.outbox.List(repository.OutboxListFilter{Kind: constants.OpKindRedeemCoupon})
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("redeem_coupon items want 1 got %d", len(items))
	}
	if items[0].Payload["sale_local_id"] != "sale-local-1" {
		t.Fatalf("redeem_coupon payload must reference the sale")
	}
}

func TestCommitSaleCouponUsageLimitReached(t *testing.T) {
	f := setupCheckoutTest(t)
	seedCatalogItem(t, f.db, "SHIRT-1", "100")

	coupon := models.Coupon{
		Code:           "ONECHANCE",
		Type:           constants.DiscountTypePercent,
		Level:          constants.DiscountLevelOrder,
		Value:          models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		PerCodeLimit:   1,
		LocalUsedCount: 1,
		IsActive:       true,
	}
	if err := f.db.Create(&coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	_, err := f.checkout.CommitSale(CheckoutInput{
		Lines:      []CheckoutLineInput{{SKU: "SHIRT-1", Qty: 1}},
		CouponCode: "ONECHANCE",
	})
	if !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("want ErrCouponUsageLimit got %v", err)
	}
}

func TestCheckoutRejectsUnknownItem(t *testing.T) {
	f := setupCheckoutTest(t)
	seedCatalogItem(t, f.db, "SHIRT-1", "100")

	_, err := f.checkout.PreviewSale(CheckoutInput{
		Lines: []CheckoutLineInput{{SKU: "NOPE", Qty: 1}},
	})
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("want ErrItemNotFound got %v", err)
	}
}

func TestCheckoutRejectsStaleSnapshot(t *testing.T) {
	f := setupCheckoutTest(t)

	stale := models.CatalogItem{
		SKU:         "OLD-1",
		Name:        "old item",
		Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		RefreshedAt: time.Now().Add(-48 * time.Hour),
	}
	if err := f.db.Create(&stale).Error; err != nil {
		t.Fatalf("seed stale item failed: %v", err)
	}

	_, err := f.checkout.PreviewSale(CheckoutInput{
		Lines: []CheckoutLineInput{{SKU: "OLD-1", Qty: 1}},
	})
	if !errors.Is(err, ErrSnapshotStale) {
		t.Fatalf("want ErrSnapshotStale got %v", err)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := setupCheckoutTest(t)

	_, err := f.checkout.PreviewSale(CheckoutInput{})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("want ErrCartEmpty got %v", err)
	}
}
