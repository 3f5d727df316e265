package models

import (
	"time"

	"gorm.io/gorm"
)

// ShippingAddress 收货地址（随订单内嵌存储）
type ShippingAddress struct {
	Name        string `gorm:"type:varchar(100)" json:"name"`         // 收件人
	Phone       string `gorm:"type:varchar(20)" json:"phone"`         // 联系电话
	AddressLine string `gorm:"type:varchar(500)" json:"address_line"` // 详细地址
	City        string `gorm:"type:varchar(100)" json:"city"`         // 城市
	State       string `gorm:"type:varchar(100)" json:"state"`        // 省/州
	Pincode     string `gorm:"type:varchar(20)" json:"pincode"`       // 邮编
}

// Order 订单表（下单后商品信息全部为快照，不随商品变动）
type Order struct {
	ID                 uint            `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo            string          `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID             uint            `gorm:"index;not null" json:"user_id"`                                // 用户ID
	Status             string          `gorm:"index;not null" json:"status"`                                 // 订单状态
	PaymentMethod      string          `gorm:"not null" json:"payment_method"`                               // 支付方式
	PaymentStatus      string          `gorm:"not null;default:'pending'" json:"payment_status"`             // 支付状态
	Subtotal           Money           `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	ShippingCost       Money           `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`   // 运费
	DiscountAmount     Money           `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	CouponCode         string          `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`                // 使用的优惠码
	Shipping           ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`            // 收货地址
	TrackingNumber     string          `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`           // 物流单号
	Notes              string          `gorm:"type:text" json:"notes,omitempty"`                             // 订单备注
	EstimatedDelivery  *time.Time      `json:"estimated_delivery"`                                           // 预计送达时间
	DeliveredAt        *time.Time      `gorm:"index" json:"delivered_at"`                                    // 实际送达时间
	CancelledAt        *time.Time      `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	CancelledBy        string          `gorm:"type:varchar(20)" json:"cancelled_by,omitempty"`               // 取消操作人（user/admin）
	CancellationReason string          `gorm:"type:varchar(500)" json:"cancellation_reason,omitempty"`       // 取消原因
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt          time.Time       `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`                                               // 软删除时间

	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`          // 订单项
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"` // 状态历史（仅追加）
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
