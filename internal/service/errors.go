package service

import "errors"

// 业务错误定义，handler 层据此映射 HTTP 状态码
var (
	ErrEmptyCart               = errors.New("购物车为空")
	ErrProductNotFound         = errors.New("商品不存在")
	ErrProductUnavailable      = errors.New("商品已下架")
	ErrInsufficientStock       = errors.New("库存不足")
	ErrInvalidQuantity         = errors.New("数量不合法")
	ErrCartItemNotFound        = errors.New("购物车项不存在")
	ErrOrderNotFound           = errors.New("订单不存在")
	ErrInvalidStatusTransition = errors.New("订单状态不允许该变更")
	ErrCouponNotFound          = errors.New("优惠券不存在")
	ErrCouponInvalid           = errors.New("优惠券不可用")
	ErrConcurrencyConflict     = errors.New("并发冲突，请重试")
	ErrCompensationFailed      = errors.New("库存补偿失败，需人工介入")
	ErrInvalidCredentials      = errors.New("邮箱或密码错误")
	ErrEmailTaken              = errors.New("邮箱已注册")
	ErrUserDisabled            = errors.New("账号已被禁用")
	ErrWeakPassword            = errors.New("密码强度不足")
)

// ErrInvalidPaymentMethod 不支持的支付方式
var ErrInvalidPaymentMethod = errors.New("不支持的支付方式")
