package repository

import (
	"errors"
	"time"

	"github.com/fastkart-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByUser(userID uint) (*models.Cart, error)
	GetOrCreateByUser(userID uint) (*models.Cart, error)
	GetItem(cartID, itemID uint) (*models.CartItem, error)
	FindItem(cartID, productID uint, variantName, variantValue string) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int) error
	DeleteItem(itemID uint) error
	ClearItems(cartID uint) error
	UpdateCoupon(cartID uint, code, couponType string, discount models.Money) error
	ClearCoupon(cartID uint) error
	Touch(cartID uint, at time.Time) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetByUser 获取用户购物车（含购物车项，按加入顺序）
func (r *GormCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id asc")
	}).Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateByUser 获取用户购物车，不存在则创建空车
func (r *GormCartRepository) GetOrCreateByUser(userID uint) (*models.Cart, error) {
	cart, err := r.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	cart = &models.Cart{UserID: userID, LastModified: time.Now()}
	if err := r.db.Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// GetItem 获取购物车项（校验归属）
func (r *GormCartRepository) GetItem(cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItem 按（商品, 规格）查找购物车项，用于合并加购
func (r *GormCartRepository) FindItem(cartID, productID uint, variantName, variantValue string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where(
		"cart_id = ? AND product_id = ? AND variant_name = ? AND variant_value = ?",
		cartID, productID, variantName, variantValue,
	).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem 新增购物车项
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Create(item).Error
}

// UpdateItemQuantity 更新购物车项数量
func (r *GormCartRepository) UpdateItemQuantity(itemID uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
}

// DeleteItem 删除购物车项
func (r *GormCartRepository) DeleteItem(itemID uint) error {
	return r.db.Delete(&models.CartItem{}, itemID).Error
}

// ClearItems 清空购物车项
func (r *GormCartRepository) ClearItems(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// UpdateCoupon 附加优惠券快照
func (r *GormCartRepository) UpdateCoupon(cartID uint, code, couponType string, discount models.Money) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"coupon_code":     code,
		"coupon_type":     couponType,
		"coupon_discount": discount,
	}).Error
}

// ClearCoupon 移除优惠券
func (r *GormCartRepository) ClearCoupon(cartID uint) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"coupon_code":     "",
		"coupon_type":     "",
		"coupon_discount": models.Money{},
	}).Error
}

// Touch 更新购物车内容变更时间
func (r *GormCartRepository) Touch(cartID uint, at time.Time) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("last_modified", at).Error
}
