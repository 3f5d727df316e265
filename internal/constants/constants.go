package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// 支付方式常量
const (
	PaymentMethodCOD        = "cod"
	PaymentMethodCard       = "card"
	PaymentMethodUPI        = "upi"
	PaymentMethodNetBanking = "netbanking"
)

// 优惠券类型常量
const (
	CouponTypeFixed      = "fixed"
	CouponTypePercentage = "percentage"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 状态变更操作方常量
const (
	ActorUser   = "user"
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

// 订单编号常量
const (
	OrderNoPrefix      = "FK"
	OrderNoDayLayout   = "060102"
	OrderCounterLayout = "20060102"
)

// 队列常量
const (
	QueueDefault               = "default"
	TaskOrderStatusNotify      = "order:status_notify"
	TaskOrderConfirmationEmail = "order:confirmation_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "fk"
)
