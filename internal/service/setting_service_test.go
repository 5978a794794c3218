package service

import (
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

func setupSettingTest(t *testing.T) *SettingService {
	t.Helper()
	dsn := fmt.Sprintf("file:setting_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewSettingService(repository.NewSettingRepository(db), config.TaxConfig{
		PriceMode:   constants.PriceModeTaxExclusive,
		DefaultRate: "0.10",
		Precision:   2,
	})
}

func TestTaxConfigPrefersStoredValue(t *testing.T) {
	svc := setupSettingTest(t)
	stored := `{"price_mode":"tax_inclusive","default_rate":"0.08","precision":2}`
	if err := svc.StoreSetting(constants.SettingKeyTaxConfig, stored); err != nil {
		t.Fatalf("store setting failed: %v", err)
	}

	cfg := svc.TaxConfig()
	if cfg.PriceMode != constants.PriceModeTaxInclusive {
		t.Fatalf("price mode want tax_inclusive got %s", cfg.PriceMode)
	}
	if !cfg.DefaultRate.Equal(decimal.RequireFromString("0.08")) {
		t.Fatalf("default rate want 0.08 got %s", cfg.DefaultRate)
	}
}

func TestTaxConfigFallsBackOnInvalidStoredValue(t *testing.T) {
	svc := setupSettingTest(t)
	if err := svc.StoreSetting(constants.SettingKeyTaxConfig, "{not json"); err != nil {
		t.Fatalf("store setting failed: %v", err)
	}

	// 解析失败必须回退到文件配置
	cfg := svc.TaxConfig()
	if cfg.PriceMode != constants.PriceModeTaxExclusive {
		t.Fatalf("price mode want file fallback tax_exclusive got %s", cfg.PriceMode)
	}
	if !cfg.DefaultRate.Equal(decimal.RequireFromString("0.10")) {
		t.Fatalf("default rate want file fallback 0.10 got %s", cfg.DefaultRate)
	}
}

func TestTaxConfigFileFallbackWhenUnset(t *testing.T) {
	svc := setupSettingTest(t)
	cfg := svc.TaxConfig()
	if !cfg.DefaultRate.Equal(decimal.RequireFromString("0.10")) {
		t.Fatalf("default rate want 0.10 got %s", cfg.DefaultRate)
	}
}
