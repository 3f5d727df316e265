package models

import (
	"time"
)

// CartItem 购物车项（同商品同规格合并为一条）
type CartItem struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                                                  // 主键
	CartID       uint      `gorm:"not null;uniqueIndex:idx_cart_product_variant" json:"cart_id"`                          // 购物车ID
	ProductID    uint      `gorm:"not null;uniqueIndex:idx_cart_product_variant" json:"product_id"`                       // 商品ID
	VariantName  string    `gorm:"type:varchar(50);default:'';uniqueIndex:idx_cart_product_variant" json:"variant_name"`  // 规格名（如 color）
	VariantValue string    `gorm:"type:varchar(50);default:'';uniqueIndex:idx_cart_product_variant" json:"variant_value"` // 规格值（如 red）
	Quantity     int       `gorm:"not null" json:"quantity"`                                                              // 数量
	UnitPrice    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`                               // 加入时的单价快照
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                                                               // 创建时间
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`                                                               // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
