package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/fastkart-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductRepositoryTest(t *testing.T) (*GormProductRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:product_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewProductRepository(db), db
}

func createRepoTestProduct(t *testing.T, db *gorm.DB, slug, sku string, stock, sales int) models.Product {
	t.Helper()

	product := models.Product{
		CategoryID:  1,
		Slug:        slug,
		SKU:         sku,
		Name:        slug,
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Stock:       stock,
		Sales:       sales,
		IsActive:    true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func reloadRepoTestProduct(t *testing.T, db *gorm.DB, id uint) models.Product {
	t.Helper()

	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return product
}

func TestReserveStockConditionalUpdate(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)
	product := createRepoTestProduct(t, db, "reserve-cond", "SKU-1", 5, 0)

	affected, err := repo.ReserveStock(product.ID, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}
	if got := reloadRepoTestProduct(t, db, product.ID).Stock; got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}

	// 余量不足时零行生效，库存不动
	affected, err = repo.ReserveStock(product.ID, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 affected rows, got %d", affected)
	}
	if got := reloadRepoTestProduct(t, db, product.ID).Stock; got != 2 {
		t.Fatalf("stock changed on failed reserve: %d", got)
	}

	affected, err = repo.ReserveStock(9999, 1)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 affected rows for missing product, got %d", affected)
	}
}

func TestReleaseStockAddsBack(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)
	product := createRepoTestProduct(t, db, "release-add", "SKU-2", 2, 0)

	if err := repo.ReleaseStock(product.ID, 3); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := reloadRepoTestProduct(t, db, product.ID).Stock; got != 5 {
		t.Fatalf("stock = %d, want 5", got)
	}
}

func TestSalesCounters(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)
	product := createRepoTestProduct(t, db, "sales-counter", "SKU-3", 10, 2)

	if err := repo.IncrementSales(product.ID, 3); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if got := reloadRepoTestProduct(t, db, product.ID).Sales; got != 5 {
		t.Fatalf("sales = %d, want 5", got)
	}

	if err := repo.DecrementSales(product.ID, 5); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if got := reloadRepoTestProduct(t, db, product.ID).Sales; got != 0 {
		t.Fatalf("sales = %d, want 0", got)
	}

	// 回退不把销量打成负数
	if err := repo.DecrementSales(product.ID, 3); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if got := reloadRepoTestProduct(t, db, product.ID).Sales; got != 0 {
		t.Fatalf("sales went negative path: %d", got)
	}
}

func TestProductListFilters(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)
	createRepoTestProduct(t, db, "wireless-earbuds", "FK-EL-0001", 10, 0)
	createRepoTestProduct(t, db, "smart-watch", "FK-EL-0002", 10, 0)
	inactive := createRepoTestProduct(t, db, "hidden-item", "FK-EL-0003", 10, 0)
	if err := db.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable product failed: %v", err)
	}

	products, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, ActiveOnly: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("active-only list: total %d, rows %d", total, len(products))
	}

	products, total, err = repo.List(ProductListFilter{Page: 1, PageSize: 10, Keyword: "earbuds"})
	if err != nil {
		t.Fatalf("keyword list failed: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].Slug != "wireless-earbuds" {
		t.Fatalf("keyword list: total %d, rows %+v", total, products)
	}
}
