package main

import (
	"time"

	"github.com/shouyin-pos/internal/config"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/models"

	"github.com/shopspring/decimal"
)

// 本地开发数据：一份小目录快照、两条促销和一张券，
// 方便不连服务端也能走通结算与退换货流程。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()

	items := []models.CatalogItem{
		{SKU: "TSHIRT-RED-M", Name: "红色T恤 M", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(89)), Barcode: "6900000000017", Category: "apparel", Brand: "basics", RefreshedAt: now},
		{SKU: "TSHIRT-BLU-L", Name: "蓝色T恤 L", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(89)), Barcode: "6900000000024", Category: "apparel", Brand: "basics", RefreshedAt: now},
		{SKU: "JEANS-BLK-32", Name: "黑色牛仔裤 32", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(219)), Barcode: "6900000000031", Category: "apparel", Brand: "denimco", RefreshedAt: now},
		{SKU: "SOCKS-3PK", Name: "袜子三件装", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(29)), Barcode: "6900000000048", Category: "accessories", Brand: "basics", RefreshedAt: now},
		{SKU: "WATER-500ML", Name: "瓶装水 500ml", Price: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.5)), Barcode: "6900000000055", Category: "grocery", Brand: "aqua", ZeroRated: true, RefreshedAt: now},
		{SKU: "GIFTCARD-100", Name: "礼品卡 100", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(100)), Barcode: "6900000000062", Category: "giftcard", Brand: "", TaxExempt: true, RefreshedAt: now},
	}
	for _, item := range items {
		record := item
		var existing models.CatalogItem
		if err := models.DB.Where("sku = ?", record.SKU).First(&existing).Error; err != nil {
			if err := models.DB.Create(&record).Error; err != nil {
				stdLog.Printf("Failed to create item %s: %v", record.SKU, err)
			} else {
				stdLog.Printf("Created item: %s", record.SKU)
			}
		} else {
			stdLog.Printf("Item already exists: %s", record.SKU)
		}
	}

	endsAt := now.AddDate(0, 1, 0)
	promotions := []models.Promotion{
		{
			Name:              "T恤第二件半价",
			Type:              "bogo",
			Level:             "line",
			BogoX:             1,
			BogoY:             1,
			YDiscountPct:      50,
			IncludeCategories: models.StringArray{"apparel"},
			IncludeBrands:     models.StringArray{"basics"},
			EndsAt:            &endsAt,
			Priority:          10,
			IsActive:          true,
		},
		{
			Name:           "满300减30",
			Type:           "threshold",
			Level:          "order",
			Value:          models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
			ThresholdValue: models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
			EndsAt:         &endsAt,
			Priority:       20,
			IsActive:       true,
		},
	}
	for _, promo := range promotions {
		record := promo
		var existing models.Promotion
		if err := models.DB.Where("name = ?", record.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&record).Error; err != nil {
				stdLog.Printf("Failed to create promotion %s: %v", record.Name, err)
			} else {
				stdLog.Printf("Created promotion: %s", record.Name)
			}
		} else {
			stdLog.Printf("Promotion already exists: %s", record.Name)
		}
	}

	couponExpires := now.AddDate(0, 3, 0)
	coupons := []models.Coupon{
		{
			Code:         "WELCOME10",
			Type:         "percent",
			Level:        "order",
			Value:        models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MinSubtotal:  models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
			PerCodeLimit: 1,
			ExpiresAt:    &couponExpires,
			IsActive:     true,
		},
	}
	for _, coupon := range coupons {
		record := coupon
		var existing models.Coupon
		if err := models.DB.Where("code = ?", record.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&record).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", record.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", record.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", record.Code)
		}
	}

	stdLog.Printf("Seed finished")
}
