package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupStockLedgerTest(t *testing.T) (*StockLedger, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:stock_ledger_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewStockLedger(repository.NewProductRepository(db)), db
}

func createStockTestProduct(t *testing.T, db *gorm.DB, slug string, stock int) models.Product {
	t.Helper()

	product := models.Product{
		CategoryID:  1,
		Slug:        slug,
		Name:        "test product",
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Stock:       stock,
		IsActive:    true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func productStock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return product.Stock
}

func TestReserveInsufficientStockKeepsStock(t *testing.T) {
	ledger, db := setupStockLedgerTest(t)
	product := createStockTestProduct(t, db, "ledger-insufficient", 3)

	if err := ledger.Reserve(product.ID, 5); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 3 {
		t.Fatalf("stock changed after failed reserve: %d", got)
	}
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	ledger, db := setupStockLedgerTest(t)
	product := createStockTestProduct(t, db, "ledger-round-trip", 10)

	if err := ledger.Reserve(product.ID, 4); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 6 {
		t.Fatalf("expected stock 6 after reserve, got %d", got)
	}
	if err := ledger.Release(product.ID, 4); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := productStock(t, db, product.ID); got != 10 {
		t.Fatalf("expected stock 10 after release, got %d", got)
	}
}

func TestReserveInvalidQuantity(t *testing.T) {
	ledger, db := setupStockLedgerTest(t)
	product := createStockTestProduct(t, db, "ledger-invalid-quantity", 5)

	if err := ledger.Reserve(product.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got: %v", err)
	}
	if err := ledger.Release(product.ID, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity on release, got: %v", err)
	}
}

func TestReserveManyRollsBackOnPartialFailure(t *testing.T) {
	ledger, db := setupStockLedgerTest(t)
	first := createStockTestProduct(t, db, "ledger-many-first", 10)
	second := createStockTestProduct(t, db, "ledger-many-second", 1)

	err := ledger.ReserveMany([]Reservation{
		{ProductID: first.ID, Quantity: 3},
		{ProductID: second.ID, Quantity: 2},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if got := productStock(t, db, first.ID); got != 10 {
		t.Fatalf("first product not rolled back, stock: %d", got)
	}
	if got := productStock(t, db, second.ID); got != 1 {
		t.Fatalf("second product stock changed: %d", got)
	}
}

func TestReserveManyAllSucceed(t *testing.T) {
	ledger, db := setupStockLedgerTest(t)
	first := createStockTestProduct(t, db, "ledger-many-ok-first", 5)
	second := createStockTestProduct(t, db, "ledger-many-ok-second", 5)

	err := ledger.ReserveMany([]Reservation{
		{ProductID: first.ID, Quantity: 2},
		{ProductID: second.ID, Quantity: 5},
	})
	if err != nil {
		t.Fatalf("reserve many failed: %v", err)
	}
	if got := productStock(t, db, first.ID); got != 3 {
		t.Fatalf("expected first stock 3, got %d", got)
	}
	if got := productStock(t, db, second.ID); got != 0 {
		t.Fatalf("expected second stock 0, got %d", got)
	}
}

func TestReserveLastUnitConcurrently(t *testing.T) {
	// 高并发下 sqlite 写锁争抢用 busy_timeout 兜住
	dsn := fmt.Sprintf("file:stock_ledger_concurrent_%d?mode=memory&cache=shared&_pragma=busy_timeout(10000)", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	ledger := NewStockLedger(repository.NewProductRepository(db))
	product := createStockTestProduct(t, db, "last-unit", 1)

	start := make(chan struct{})
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- ledger.Reserve(product.ID, 1)
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected reserve error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("succeeded = %d, rejected = %d, want exactly one of each", succeeded, rejected)
	}
	if got := productStock(t, db, product.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
}
