package models

import (
	"time"
)

// Cart 购物车（每个用户一个）
type Cart struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`                          // 用户ID
	CouponCode     string    `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`                // 已附加的优惠码
	CouponType     string    `gorm:"type:varchar(20)" json:"coupon_type,omitempty"`                // 优惠券类型快照
	CouponDiscount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"coupon_discount"` // 优惠券面值快照
	LastModified   time.Time `gorm:"index" json:"last_modified"`                                   // 最近一次内容变更时间
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                   // 更新时间

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"` // 购物车项
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// HasCoupon 是否附加了优惠券
func (c *Cart) HasCoupon() bool {
	return c.CouponCode != ""
}
