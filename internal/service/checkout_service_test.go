package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

func setupCheckoutServiceTest(t *testing.T) (*CheckoutService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:checkout_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.OrderCounter{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	svc := NewCheckoutService(
		repository.NewCartRepository(db),
		productRepo,
		orderRepo,
		couponRepo,
		NewCouponService(couponRepo),
		NewStockLedger(productRepo),
		NewOrderNumberAllocator(repository.NewOrderCounterRepository(db), orderRepo, 3),
		pricing.NewCalculator(pricing.DefaultConfig()),
		nil,
	)
	return svc, db
}

func createCheckoutTestProduct(t *testing.T, db *gorm.DB, slug string, price int64, stock int) models.Product {
	t.Helper()

	product := models.Product{
		CategoryID:  1,
		Slug:        slug,
		Name:        slug,
		SKU:         "SKU-" + strings.ToUpper(slug),
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		Stock:       stock,
		IsActive:    true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createCheckoutTestCart(t *testing.T, db *gorm.DB, userID uint, items []models.CartItem) models.Cart {
	t.Helper()

	cart := models.Cart{UserID: userID, LastModified: time.Now()}
	if err := db.Create(&cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	for i := range items {
		items[i].CartID = cart.ID
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("create cart item failed: %v", err)
		}
	}
	return cart
}

func checkoutTestInput(userID uint) CheckoutInput {
	return CheckoutInput{
		UserID:        userID,
		PaymentMethod: constants.PaymentMethodCOD,
		Shipping: models.ShippingAddress{
			Name:        "Asha Rao",
			Phone:       "9876543210",
			AddressLine: "42 MG Road",
			City:        "Bengaluru",
			State:       "Karnataka",
			Pincode:     "560001",
		},
		Notes: "leave at the door",
	}
}

func TestCheckoutCreatesOrderFromCart(t *testing.T) {
	svc, db := setupCheckoutServiceTest(t)
	productA := createCheckoutTestProduct(t, db, "checkout-a", 400, 10)
	productB := createCheckoutTestProduct(t, db, "checkout-b", 100, 5)

	cart := createCheckoutTestCart(t, db, 1, []models.CartItem{
		{ProductID: productA.ID, VariantName: "color", VariantValue: "red", Quantity: 1, UnitPrice: productA.PriceAmount},
		{ProductID: productA.ID, VariantName: "color", VariantValue: "blue", Quantity: 2, UnitPrice: productA.PriceAmount},
		{ProductID: productB.ID, Quantity: 1, UnitPrice: productB.PriceAmount},
	})

	coupon := models.Coupon{
		Code:      "SAVE10",
		Type:      constants.CouponTypePercentage,
		Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		MinAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
		IsActive:  true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(map[string]interface{}{
		"coupon_code":     coupon.Code,
		"coupon_type":     coupon.Type,
		"coupon_discount": models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	}).Error; err != nil {
		t.Fatalf("attach coupon failed: %v", err)
	}

	order, err := svc.Checkout(context.Background(), checkoutTestInput(1))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	wantPrefix := constants.OrderNoPrefix + time.Now().Format(constants.OrderNoDayLayout)
	if !strings.HasPrefix(order.OrderNo, wantPrefix) || !strings.HasSuffix(order.OrderNo, "0001") {
		t.Fatalf("unexpected order number: %s", order.OrderNo)
	}
	if order.Status != constants.OrderStatusPending || order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("unexpected initial state: %s / %s", order.Status, order.PaymentStatus)
	}

	// 小计 1300 免运费，九折券优惠 130
	if order.Subtotal.String() != "1300.00" {
		t.Fatalf("subtotal = %s, want 1300.00", order.Subtotal.String())
	}
	if order.ShippingCost.String() != "0.00" {
		t.Fatalf("shipping = %s, want 0.00", order.ShippingCost.String())
	}
	if order.DiscountAmount.String() != "130.00" {
		t.Fatalf("discount = %s, want 130.00", order.DiscountAmount.String())
	}
	if order.TotalAmount.String() != "1170.00" {
		t.Fatalf("total = %s, want 1170.00", order.TotalAmount.String())
	}
	if len(order.Items) != 3 {
		t.Fatalf("expected 3 order items, got %d", len(order.Items))
	}
	if order.CouponCode != "SAVE10" {
		t.Fatalf("expected coupon snapshot, got: %s", order.CouponCode)
	}
	if order.Shipping.Pincode != "560001" {
		t.Fatalf("shipping address not persisted: %+v", order.Shipping)
	}
	if order.EstimatedDelivery == nil {
		t.Fatalf("expected estimated delivery to be set")
	}

	var reloadedA, reloadedB models.Product
	if err := db.First(&reloadedA, productA.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if err := db.First(&reloadedB, productB.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloadedA.Stock != 7 || reloadedA.Sales != 3 {
		t.Fatalf("product A stock/sales = %d/%d, want 7/3", reloadedA.Stock, reloadedA.Sales)
	}
	if reloadedB.Stock != 4 || reloadedB.Sales != 1 {
		t.Fatalf("product B stock/sales = %d/%d, want 4/1", reloadedB.Stock, reloadedB.Sales)
	}

	var reloadedCoupon models.Coupon
	if err := db.First(&reloadedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloadedCoupon.UsedCount != 1 {
		t.Fatalf("expected coupon used count 1, got %d", reloadedCoupon.UsedCount)
	}

	var reloadedCart models.Cart
	if err := db.Preload("Items").First(&reloadedCart, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if len(reloadedCart.Items) != 0 || reloadedCart.HasCoupon() {
		t.Fatalf("expected cart to be emptied, items %d coupon %q", len(reloadedCart.Items), reloadedCart.CouponCode)
	}

	var historyCount int64
	if err := db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount).Error; err != nil {
		t.Fatalf("count history failed: %v", err)
	}
	if historyCount != 1 {
		t.Fatalf("expected single history entry, got %d", historyCount)
	}
	var history models.OrderStatusHistory
	if err := db.Where("order_id = ?", order.ID).First(&history).Error; err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if history.Status != constants.OrderStatusPending || history.ChangedBy != constants.ActorUser || history.Notes != "Order created" {
		t.Fatalf("unexpected history entry: %+v", history)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, db := setupCheckoutServiceTest(t)
	createCheckoutTestCart(t, db, 1, nil)

	if _, err := svc.Checkout(context.Background(), checkoutTestInput(1)); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart, got: %v", err)
	}
	// 从未创建过购物车的用户视为空车
	if _, err := svc.Checkout(context.Background(), checkoutTestInput(2)); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart for missing cart, got: %v", err)
	}
}

func TestCheckoutInvalidPaymentMethod(t *testing.T) {
	svc, _ := setupCheckoutServiceTest(t)

	input := checkoutTestInput(1)
	input.PaymentMethod = "cheque"
	if _, err := svc.Checkout(context.Background(), input); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected invalid payment method, got: %v", err)
	}
}

func TestCheckoutInsufficientStockLeavesStockUnchanged(t *testing.T) {
	svc, db := setupCheckoutServiceTest(t)
	scarce := createCheckoutTestProduct(t, db, "checkout-scarce", 200, 1)
	plenty := createCheckoutTestProduct(t, db, "checkout-plenty", 100, 10)

	createCheckoutTestCart(t, db, 1, []models.CartItem{
		{ProductID: plenty.ID, Quantity: 2, UnitPrice: plenty.PriceAmount},
		{ProductID: scarce.ID, Quantity: 3, UnitPrice: scarce.PriceAmount},
	})

	if _, err := svc.Checkout(context.Background(), checkoutTestInput(1)); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}

	var reloadedScarce, reloadedPlenty models.Product
	if err := db.First(&reloadedScarce, scarce.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if err := db.First(&reloadedPlenty, plenty.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloadedScarce.Stock != 1 || reloadedPlenty.Stock != 10 {
		t.Fatalf("stock changed after failed checkout: %d / %d", reloadedScarce.Stock, reloadedPlenty.Stock)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no order to be created, got %d", orderCount)
	}
}

func TestCheckoutRejectsInactiveProduct(t *testing.T) {
	svc, db := setupCheckoutServiceTest(t)
	product := createCheckoutTestProduct(t, db, "checkout-inactive", 100, 10)
	createCheckoutTestCart(t, db, 1, []models.CartItem{
		{ProductID: product.ID, Quantity: 1, UnitPrice: product.PriceAmount},
	})
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable product failed: %v", err)
	}

	if _, err := svc.Checkout(context.Background(), checkoutTestInput(1)); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected product unavailable, got: %v", err)
	}
}

func TestCheckoutReleasesStockWhenOrderCreateFails(t *testing.T) {
	svc, db := setupCheckoutServiceTest(t)
	product := createCheckoutTestProduct(t, db, "checkout-compensate", 200, 5)
	createCheckoutTestCart(t, db, 1, []models.CartItem{
		{ProductID: product.ID, Quantity: 2, UnitPrice: product.PriceAmount},
	})

	// 编号分配指向一个没有计数器表的库，占用库存之后下单必然失败
	brokenDSN := fmt.Sprintf("file:checkout_broken_counter_%d?mode=memory&cache=shared", time.Now().UnixNano())
	brokenDB, err := gorm.Open(sqlite.Open(brokenDSN), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc.allocator = NewOrderNumberAllocator(repository.NewOrderCounterRepository(brokenDB), nil, 1)

	_, err = svc.Checkout(context.Background(), checkoutTestInput(1))
	if err == nil {
		t.Fatalf("expected checkout to fail")
	}
	if errors.Is(err, ErrCompensationFailed) {
		t.Fatalf("release succeeded, error must be the original cause: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 5 {
		t.Fatalf("stock = %d, want 5 after compensating release", reloaded.Stock)
	}
	if reloaded.Sales != 0 {
		t.Fatalf("sales = %d, want 0", reloaded.Sales)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no order to be created, got %d", orderCount)
	}

	var itemCount int64
	if err := db.Model(&models.CartItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("count cart items failed: %v", err)
	}
	if itemCount != 1 {
		t.Fatalf("expected cart to be kept, got %d items", itemCount)
	}
}

func TestCompensateWrapsReleaseFailure(t *testing.T) {
	// 归还走一个没有商品表的库，补偿必然失败
	brokenDSN := fmt.Sprintf("file:compensate_broken_%d?mode=memory&cache=shared", time.Now().UnixNano())
	brokenDB, err := gorm.Open(sqlite.Open(brokenDSN), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc := &CheckoutService{ledger: NewStockLedger(repository.NewProductRepository(brokenDB))}

	cause := errors.New("create order failed")
	got := svc.compensate([]Reservation{{ProductID: 1, Quantity: 1}}, cause)
	if !errors.Is(got, ErrCompensationFailed) {
		t.Fatalf("expected compensation failure, got: %v", got)
	}
}

func TestCheckoutRevalidatesCoupon(t *testing.T) {
	svc, db := setupCheckoutServiceTest(t)
	product := createCheckoutTestProduct(t, db, "checkout-coupon-stale", 400, 10)
	cart := createCheckoutTestCart(t, db, 1, []models.CartItem{
		{ProductID: product.ID, Quantity: 2, UnitPrice: product.PriceAmount},
	})

	// 附加时有效、下单前用完的券，结算时按最新状态拒绝
	coupon := models.Coupon{
		Code:       "SAVE10",
		Type:       constants.CouponTypePercentage,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		UsageLimit: 1,
		UsedCount:  1,
		IsActive:   true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(map[string]interface{}{
		"coupon_code": coupon.Code,
		"coupon_type": coupon.Type,
	}).Error; err != nil {
		t.Fatalf("attach coupon failed: %v", err)
	}

	if _, err := svc.Checkout(context.Background(), checkoutTestInput(1)); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected coupon invalid, got: %v", err)
	}
}
