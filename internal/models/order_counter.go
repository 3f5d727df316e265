package models

import (
	"time"
)

// OrderCounter 订单编号日计数器（Redis 不可用时的数据库回退）
type OrderCounter struct {
	Day       string    `gorm:"primarykey;type:varchar(8)" json:"day"` // 日期（yyyymmdd）
	Seq       int64     `gorm:"not null;default:0" json:"seq"`         // 当日已分配序号
	UpdatedAt time.Time `json:"updated_at"`                            // 更新时间
}

// TableName 指定表名
func (OrderCounter) TableName() string {
	return "order_counters"
}
