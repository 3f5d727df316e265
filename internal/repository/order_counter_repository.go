package repository

import (
	"errors"

	"github.com/fastkart-next/internal/models"

	"gorm.io/gorm"
)

// OrderCounterRepository 订单编号日计数器数据访问接口
type OrderCounterRepository interface {
	Next(day string) (int64, error)
	EnsureAtLeast(day string, seq int64) error
}

// GormOrderCounterRepository GORM 实现
type GormOrderCounterRepository struct {
	db *gorm.DB
}

// NewOrderCounterRepository 创建计数器仓库
func NewOrderCounterRepository(db *gorm.DB) *GormOrderCounterRepository {
	return &GormOrderCounterRepository{db: db}
}

// Next 分配当日下一个序号
// 在事务内先 UPDATE 占行锁再读回，首次分配时 INSERT；
// 并发 INSERT 撞唯一键时返回错误，由调用方重试
func (r *GormOrderCounterRepository) Next(day string) (int64, error) {
	var seq int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderCounter{}).
			Where("day = ?", day).
			Update("seq", gorm.Expr("seq + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			counter := models.OrderCounter{Day: day, Seq: 1}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
			seq = 1
			return nil
		}
		var counter models.OrderCounter
		if err := tx.Where("day = ?", day).First(&counter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}
		seq = counter.Seq
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// EnsureAtLeast 将当日计数器抬升到不小于 seq
// 用于 Redis 分配中途失效后回退数据库时，避免重发已占用的序号
func (r *GormOrderCounterRepository) EnsureAtLeast(day string, seq int64) error {
	if seq <= 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderCounter{}).
			Where("day = ? AND seq < ?", day, seq).
			Update("seq", seq)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		var count int64
		if err := tx.Model(&models.OrderCounter{}).Where("day = ?", day).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		counter := models.OrderCounter{Day: day, Seq: seq}
		return tx.Create(&counter).Error
	})
}
