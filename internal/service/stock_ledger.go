package service

import (
	"github.com/fastkart-next/internal/logger"
	"github.com/fastkart-next/internal/repository"

	"gorm.io/gorm"
)

// Reservation 一次库存占用
type Reservation struct {
	ProductID uint
	Quantity  int
}

// StockLedger 库存台账
// 扣减通过条件 UPDATE 完成，不足时零行生效，天然支持并发
type StockLedger struct {
	productRepo repository.ProductRepository
}

// NewStockLedger 创建库存台账
func NewStockLedger(productRepo repository.ProductRepository) *StockLedger {
	return &StockLedger{productRepo: productRepo}
}

// WithTx 绑定事务
func (l *StockLedger) WithTx(tx *gorm.DB) *StockLedger {
	if tx == nil {
		return l
	}
	return &StockLedger{productRepo: l.productRepo.WithTx(tx)}
}

// Reserve 占用单个商品库存
func (l *StockLedger) Reserve(productID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	affected, err := l.productRepo.ReserveStock(productID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Release 归还单个商品库存
func (l *StockLedger) Release(productID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return l.productRepo.ReleaseStock(productID, quantity)
}

// ReserveMany 批量占用库存，全部成功或全部回滚
// 任意一行不足时，归还此前已占用的行后返回 ErrInsufficientStock
func (l *StockLedger) ReserveMany(lines []Reservation) error {
	reserved := make([]Reservation, 0, len(lines))
	for _, line := range lines {
		if err := l.Reserve(line.ProductID, line.Quantity); err != nil {
			l.rollback(reserved)
			return err
		}
		reserved = append(reserved, line)
	}
	return nil
}

// ReleaseMany 批量归还库存，返回第一个失败的错误
func (l *StockLedger) ReleaseMany(lines []Reservation) error {
	var firstErr error
	for _, line := range lines {
		if err := l.Release(line.ProductID, line.Quantity); err != nil {
			logger.Errorw("stock_release_failed",
				"product_id", line.ProductID,
				"quantity", line.Quantity,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (l *StockLedger) rollback(reserved []Reservation) {
	for _, line := range reserved {
		if err := l.productRepo.ReleaseStock(line.ProductID, line.Quantity); err != nil {
			logger.Errorw("stock_reserve_rollback_failed",
				"product_id", line.ProductID,
				"quantity", line.Quantity,
				"error", err,
			)
		}
	}
}
