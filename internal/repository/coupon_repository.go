package repository

import (
	"errors"
	"strings"

	"github.com/fastkart-next/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	List(page, pageSize int) ([]models.Coupon, int64, error)
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	IncrementUsedCount(id uint, delta int) error
	DecrementUsedCount(id uint, delta int) error
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// List 分页获取优惠券列表
func (r *GormCouponRepository) List(page, pageSize int) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	var total int64

	query := r.db.Model(&models.Coupon{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)
	if err := query.Order("id DESC").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取优惠券（大小写不敏感）
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	var coupon models.Coupon
	if err := r.db.Where("code = ?", normalized).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// Update 更新优惠券
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Save(coupon).Error
}

// IncrementUsedCount 累加使用次数
func (r *GormCouponRepository) IncrementUsedCount(id uint, delta int) error {
	if delta <= 0 {
		return nil
	}
	return r.db.Model(&models.Coupon{}).Where("id = ?", id).
		Update("used_count", gorm.Expr("used_count + ?", delta)).Error
}

// DecrementUsedCount 回退使用次数
func (r *GormCouponRepository) DecrementUsedCount(id uint, delta int) error {
	if delta <= 0 {
		return nil
	}
	return r.db.Model(&models.Coupon{}).Where("id = ? AND used_count >= ?", id, delta).
		Update("used_count", gorm.Expr("used_count - ?", delta)).Error
}
