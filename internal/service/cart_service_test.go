package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/pricing"
	"github.com/fastkart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Coupon{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	couponSvc := NewCouponService(repository.NewCouponRepository(db))
	svc := NewCartService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		couponSvc,
		pricing.NewCalculator(pricing.DefaultConfig()),
	)
	return svc, db
}

func createCartTestProduct(t *testing.T, db *gorm.DB, slug string, price int64, stock int, active bool) models.Product {
	t.Helper()

	product := models.Product{
		CategoryID:  1,
		Slug:        slug,
		Name:        slug,
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		Stock:       stock,
		IsActive:    active,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	// IsActive 字段带 default:true，零值在 INSERT 时会被忽略，需显式写回
	if err := db.Model(&product).Update("is_active", active).Error; err != nil {
		t.Fatalf("set product active flag failed: %v", err)
	}
	return product
}

func createCartTestCoupon(t *testing.T, db *gorm.DB, code, couponType string, value, minAmount int64) models.Coupon {
	t.Helper()

	coupon := models.Coupon{
		Code:      code,
		Type:      couponType,
		Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(value)),
		MinAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(minAmount)),
		IsActive:  true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func TestAddItemMergesSameVariant(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-merge", 100, 10, true)

	if _, err := svc.AddItem(1, product.ID, 2, "color", "red"); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	summary, err := svc.AddItem(1, product.ID, 3, "color", "red")
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(summary.Cart.Items) != 1 {
		t.Fatalf("expected single merged line, got %d", len(summary.Cart.Items))
	}
	if summary.Cart.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", summary.Cart.Items[0].Quantity)
	}
	if summary.ItemCount != 5 {
		t.Fatalf("expected item count 5, got %d", summary.ItemCount)
	}
}

func TestAddItemKeepsVariantLinesSeparate(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-variants", 100, 10, true)

	if _, err := svc.AddItem(1, product.ID, 1, "color", "red"); err != nil {
		t.Fatalf("red add failed: %v", err)
	}
	summary, err := svc.AddItem(1, product.ID, 1, "color", "blue")
	if err != nil {
		t.Fatalf("blue add failed: %v", err)
	}
	if len(summary.Cart.Items) != 2 {
		t.Fatalf("expected two lines, got %d", len(summary.Cart.Items))
	}
}

func TestAddItemCapsAtAvailableStock(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-stock-cap", 100, 3, true)

	if _, err := svc.AddItem(1, product.ID, 2, "", ""); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if _, err := svc.AddItem(1, product.ID, 2, "", ""); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-inactive", 100, 10, false)

	if _, err := svc.AddItem(1, product.ID, 1, "", ""); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected product unavailable, got: %v", err)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-update", 100, 5, true)

	summary, err := svc.AddItem(1, product.ID, 1, "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	itemID := summary.Cart.Items[0].ID

	summary, err = svc.UpdateItemQuantity(1, itemID, 4)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if summary.Cart.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", summary.Cart.Items[0].Quantity)
	}

	if _, err := svc.UpdateItemQuantity(1, itemID, 6); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if _, err := svc.UpdateItemQuantity(1, itemID+100, 2); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected cart item not found, got: %v", err)
	}
}

func TestCartSummaryTotals(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-totals", 400, 10, true)

	// 小计 800，不超过免邮门槛，收固定运费
	summary, err := svc.AddItem(1, product.ID, 2, "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if summary.Subtotal.String() != "800.00" {
		t.Fatalf("subtotal = %s, want 800.00", summary.Subtotal.String())
	}
	if summary.ShippingCost.String() != "100.00" {
		t.Fatalf("shipping = %s, want 100.00", summary.ShippingCost.String())
	}
	if summary.Total.String() != "900.00" {
		t.Fatalf("total = %s, want 900.00", summary.Total.String())
	}

	// 小计 1200，严格大于门槛后免运费
	summary, err = svc.AddItem(1, product.ID, 1, "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if summary.ShippingCost.String() != "0.00" {
		t.Fatalf("shipping = %s, want 0.00", summary.ShippingCost.String())
	}
	if summary.Total.String() != "1200.00" {
		t.Fatalf("total = %s, want 1200.00", summary.Total.String())
	}
}

func TestApplyCouponStoresSnapshot(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-coupon", 400, 10, true)
	createCartTestCoupon(t, db, "SAVE10", constants.CouponTypePercentage, 10, 500)

	if _, err := svc.AddItem(1, product.ID, 2, "", ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	summary, err := svc.ApplyCoupon(1, "SAVE10")
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if summary.Cart.CouponCode != "SAVE10" || summary.Cart.CouponType != constants.CouponTypePercentage {
		t.Fatalf("unexpected coupon snapshot: %s / %s", summary.Cart.CouponCode, summary.Cart.CouponType)
	}
	if summary.Discount.String() != "80.00" {
		t.Fatalf("discount = %s, want 80.00", summary.Discount.String())
	}
	if summary.Total.String() != "820.00" {
		t.Fatalf("total = %s, want 820.00", summary.Total.String())
	}
}

func TestApplyCouponBelowMinAmount(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-coupon-min", 100, 10, true)
	createCartTestCoupon(t, db, "FLAT200", constants.CouponTypeFixed, 200, 1000)

	if _, err := svc.AddItem(1, product.ID, 2, "", ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.ApplyCoupon(1, "FLAT200"); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected coupon invalid, got: %v", err)
	}
}

func TestApplyCouponUnknownCode(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-coupon-unknown", 100, 10, true)

	if _, err := svc.AddItem(1, product.ID, 1, "", ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.ApplyCoupon(1, "NOPE"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected coupon not found, got: %v", err)
	}
}

func TestClearDropsItemsAndCoupon(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-clear", 400, 10, true)
	createCartTestCoupon(t, db, "SAVE10", constants.CouponTypePercentage, 10, 500)

	if _, err := svc.AddItem(1, product.ID, 2, "", ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.ApplyCoupon(1, "SAVE10"); err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if err := svc.Clear(1); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	summary, err := svc.GetCart(1)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(summary.Cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(summary.Cart.Items))
	}
	if summary.Cart.HasCoupon() {
		t.Fatalf("expected coupon to be cleared, got: %s", summary.Cart.CouponCode)
	}
	if summary.Total.String() != "100.00" {
		// 空购物车小计为 0，仅剩固定运费
		t.Fatalf("total = %s, want 100.00", summary.Total.String())
	}
}

func TestGetCartEvictsInactiveProducts(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	active := createCartTestProduct(t, db, "cart-evict-active", 100, 10, true)
	toDisable := createCartTestProduct(t, db, "cart-evict-disabled", 100, 10, true)

	if _, err := svc.AddItem(1, active.ID, 1, "", ""); err != nil {
		t.Fatalf("add active failed: %v", err)
	}
	if _, err := svc.AddItem(1, toDisable.ID, 1, "", ""); err != nil {
		t.Fatalf("add disabled failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", toDisable.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable product failed: %v", err)
	}

	summary, err := svc.GetCart(1)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(summary.Cart.Items) != 1 {
		t.Fatalf("expected one surviving item, got %d", len(summary.Cart.Items))
	}
	if summary.Cart.Items[0].ProductID != active.ID {
		t.Fatalf("unexpected surviving product: %d", summary.Cart.Items[0].ProductID)
	}
}

func TestRemoveItem(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := createCartTestProduct(t, db, "cart-remove", 100, 10, true)

	summary, err := svc.AddItem(1, product.ID, 1, "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	summary, err = svc.RemoveItem(1, summary.Cart.Items[0].ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(summary.Cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(summary.Cart.Items))
	}
	if _, err := svc.RemoveItem(1, 9999); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected cart item not found, got: %v", err)
	}
}
