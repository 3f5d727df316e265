package main

import (
	"time"

	"github.com/fastkart-next/internal/config"
	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/logger"
	"github.com/fastkart-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
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

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Slug: "electronics", Name: "Electronics", Description: "Phones, audio and smart devices", SortOrder: 1},
		{Slug: "fashion", Name: "Fashion", Description: "Clothing and footwear", SortOrder: 2},
		{Slug: "home-kitchen", Name: "Home & Kitchen", Description: "Appliances and cookware", SortOrder: 3},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	// 获取分类ID
	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"electronics", "fashion", "home-kitchen"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	// 添加商品
	products := []models.Product{
		{
			CategoryID:    categoryIDs["electronics"],
			Slug:          "wireless-earbuds",
			SKU:           "FK-EL-0001",
			Name:          "Wireless Earbuds Pro",
			Description:   "Active noise cancelling, 30h battery with case",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(1299)),
			OriginalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(1599)),
			Stock:         120,
			IsActive:      true,
			SortOrder:     1,
		},
		{
			CategoryID:    categoryIDs["electronics"],
			Slug:          "smart-watch-s2",
			SKU:           "FK-EL-0002",
			Name:          "Smart Watch S2",
			Description:   "AMOLED display, heart rate and sleep tracking",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(899)),
			OriginalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(999)),
			Stock:         80,
			IsActive:      true,
			SortOrder:     2,
		},
		{
			CategoryID:    categoryIDs["fashion"],
			Slug:          "classic-sneakers",
			SKU:           "FK-FA-0001",
			Name:          "Classic Sneakers",
			Description:   "Canvas upper, rubber sole",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(499)),
			OriginalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(599)),
			Stock:         200,
			IsActive:      true,
			SortOrder:     3,
		},
		{
			CategoryID:    categoryIDs["home-kitchen"],
			Slug:          "electric-kettle",
			SKU:           "FK-HK-0001",
			Name:          "Electric Kettle 1.7L",
			Description:   "Stainless steel, auto shut-off",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(349)),
			OriginalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(449)),
			Stock:         150,
			IsActive:      true,
			SortOrder:     4,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 添加优惠券
	now := time.Now()
	endsAt := now.AddDate(0, 3, 0)
	coupons := []models.Coupon{
		{
			Code:        "SAVE10",
			Type:        constants.CouponTypePercentage,
			Value:       models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MinAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
			MaxDiscount: models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
			UsageLimit:  1000,
			StartsAt:    &now,
			EndsAt:      &endsAt,
			IsActive:    true,
		},
		{
			Code:       "FLAT200",
			Type:       constants.CouponTypeFixed,
			Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
			MinAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(1000)),
			UsageLimit: 500,
			StartsAt:   &now,
			EndsAt:     &endsAt,
			IsActive:   true,
		},
	}

	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	// 初始化默认管理员
	if err := models.InitDefaultAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	stdLog.Printf("Seed finished")
}
