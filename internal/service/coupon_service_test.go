package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCouponTest(t *testing.T) (*CouponService, *repository.GormCouponRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	couponRepo := repository.NewCouponRepository(db)
	return NewCouponService(couponRepo), couponRepo
}

func TestCouponPreviewUsable(t *testing.T) {
	svc, repo := setupCouponTest(t)
	if err := repo.Upsert(&models.Coupon{
		Code:     "SPRING15",
		Type:     "percent",
		Level:    "order",
		Value:    models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
		IsActive: true,
	}); err != nil {
		t.Fatalf("upsert coupon failed: %v", err)
	}

	preview, err := svc.Preview("SPRING15")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !preview.Usable {
		t.Fatalf("expected usable, got reason %q", preview.Reason)
	}
	if preview.UsesRemaining != -1 {
		t.Fatalf("expected unlimited uses, got %d", preview.UsesRemaining)
	}
}

func TestCouponPreviewNotFound(t *testing.T) {
	svc, _ := setupCouponTest(t)
	if _, err := svc.Preview("NOPE"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestCouponPreviewExpired(t *testing.T) {
	svc, repo := setupCouponTest(t)
	expired := time.Now().Add(-time.Hour)
	if err := repo.Upsert(&models.Coupon{
		Code:      "OLD",
		Type:      "amount",
		Level:     "order",
		Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		IsActive:  true,
		ExpiresAt: &expired,
	}); err != nil {
		t.Fatalf("upsert coupon failed: %v", err)
	}

	preview, err := svc.Preview("OLD")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Usable || preview.Reason != "expired" {
		t.Fatalf("expected expired preview, got usable=%v reason=%q", preview.Usable, preview.Reason)
	}
}

func TestCouponPreviewExhaustedStillPreviews(t *testing.T) {
	svc, repo := setupCouponTest(t)
	if err := repo.Upsert(&models.Coupon{
		Code:           "ONCE",
		Type:           "amount",
		Level:          "order",
		Value:          models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		IsActive:       true,
		PerCodeLimit:   1,
		LocalUsedCount: 1,
	}); err != nil {
		t.Fatalf("upsert coupon failed: %v", err)
	}

	preview, err := svc.Preview("ONCE")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !preview.Usable {
		t.Fatalf("exhausted coupon must still preview, got reason %q", preview.Reason)
	}
	if preview.UsesRemaining != 0 {
		t.Fatalf("expected 0 uses remaining, got %d", preview.UsesRemaining)
	}
	if preview.Reason == "" {
		t.Fatalf("expected a local usage hint in reason")
	}
}
