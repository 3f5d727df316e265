package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// StringArray 字符串数组类型，用于存储images等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Product 商品表
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                        // 主键
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`                           // 分类ID
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`                            // 唯一标识
	SKU           string         `gorm:"type:varchar(100);index" json:"sku"`                          // 商品编码
	Name          string         `gorm:"not null" json:"name"`                                        // 商品名称
	Description   string         `gorm:"type:text" json:"description"`                                // 商品描述
	PriceAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`   // 销售价
	OriginalPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_price"` // 划线价
	Images        StringArray    `gorm:"type:json" json:"images"`                                     // 图片数组
	Stock         int            `gorm:"not null;default:0" json:"stock"`                             // 可售库存
	Sales         int            `gorm:"not null;default:0" json:"sales"`                             // 累计销量
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                         // 是否上架
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                           // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                  // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	// 关联
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
