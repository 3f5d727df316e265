package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderNumberTest(t *testing.T) (*OrderNumberAllocator, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:order_number_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.OrderCounter{}, &models.Order{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	allocator := NewOrderNumberAllocator(
		repository.NewOrderCounterRepository(db),
		repository.NewOrderRepository(db),
		3,
	)
	return allocator, db
}

func TestOrderNumberFormat(t *testing.T) {
	allocator, _ := setupOrderNumberTest(t)
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	orderNo, err := allocator.Next(context.Background(), at)
	if err != nil {
		t.Fatalf("allocate order number failed: %v", err)
	}
	if orderNo != "FK2603150001" {
		t.Fatalf("unexpected order number: %s", orderNo)
	}
}

func TestOrderNumberSequentialSameDay(t *testing.T) {
	allocator, _ := setupOrderNumberTest(t)
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	first, err := allocator.Next(context.Background(), at)
	if err != nil {
		t.Fatalf("first allocation failed: %v", err)
	}
	second, err := allocator.Next(context.Background(), at)
	if err != nil {
		t.Fatalf("second allocation failed: %v", err)
	}
	if first != "FK2603150001" || second != "FK2603150002" {
		t.Fatalf("unexpected sequence: %s, %s", first, second)
	}
}

func TestOrderNumberResetsPerDay(t *testing.T) {
	allocator, _ := setupOrderNumberTest(t)
	dayOne := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	dayTwo := time.Date(2026, 3, 16, 0, 1, 0, 0, time.UTC)

	if _, err := allocator.Next(context.Background(), dayOne); err != nil {
		t.Fatalf("day one allocation failed: %v", err)
	}
	orderNo, err := allocator.Next(context.Background(), dayTwo)
	if err != nil {
		t.Fatalf("day two allocation failed: %v", err)
	}
	if orderNo != "FK2603160001" {
		t.Fatalf("expected day two sequence to restart, got: %s", orderNo)
	}
}

func TestOrderNumberSkipsSequencesAlreadyIssued(t *testing.T) {
	allocator, db := setupOrderNumberTest(t)
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	// 当日已有编号（比如 Redis 路径发出的），数据库计数器必须越过它们
	order := models.Order{
		OrderNo:       "FK2603150003",
		UserID:        1,
		Status:        constants.OrderStatusPending,
		PaymentMethod: constants.PaymentMethodCOD,
		PaymentStatus: constants.PaymentStatusPending,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	orderNo, err := allocator.Next(context.Background(), at)
	if err != nil {
		t.Fatalf("allocate order number failed: %v", err)
	}
	if orderNo != "FK2603150004" {
		t.Fatalf("expected allocation to skip issued sequences, got: %s", orderNo)
	}
}

func TestEnsureAtLeastDoesNotLowerCounter(t *testing.T) {
	allocator, db := setupOrderNumberTest(t)
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := allocator.Next(context.Background(), at); err != nil {
			t.Fatalf("allocation %d failed: %v", i+1, err)
		}
	}
	// 订单表里只有更小的编号时，计数器保持原位
	order := models.Order{
		OrderNo:       "FK2603150002",
		UserID:        1,
		Status:        constants.OrderStatusPending,
		PaymentMethod: constants.PaymentMethodCOD,
		PaymentStatus: constants.PaymentStatusPending,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	orderNo, err := allocator.Next(context.Background(), at)
	if err != nil {
		t.Fatalf("allocate order number failed: %v", err)
	}
	if orderNo != "FK2603150006" {
		t.Fatalf("expected counter to keep advancing, got: %s", orderNo)
	}
}
