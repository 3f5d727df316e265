package pricing

import (
	"errors"

	"github.com/fastkart-next/internal/constants"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput 输入不合法（数量不为正、单价为负等）
var ErrInvalidInput = errors.New("pricing: invalid input")

// LineItem 计价输入行
type LineItem struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Coupon 计价用优惠券（已解析）
type Coupon struct {
	Type  string // fixed / percentage
	Value decimal.Decimal
}

// Totals 计价结果（全部保留 2 位小数）
type Totals struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

// Config 计价规则
type Config struct {
	FreeShippingThreshold decimal.Decimal // 小计严格大于该值时免运费
	ShippingFlatRate      decimal.Decimal // 否则收取固定运费
	PercentDiscountCap    decimal.Decimal // 百分比优惠券的优惠上限
}

// DefaultConfig 默认计价规则
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(1000),
		ShippingFlatRate:      decimal.NewFromInt(100),
		PercentDiscountCap:    decimal.NewFromInt(500),
	}
}

// Calculator 订单金额计算器（纯计算，不做任何 IO）
type Calculator struct {
	cfg Config
}

// NewCalculator 创建计算器
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// ComputeTotals 计算订单金额
// 运费按优惠前小计判定；固定券优惠不超过小计；总额不为负
func (c *Calculator) ComputeTotals(items []LineItem, coupon *Coupon) (Totals, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return Totals{}, ErrInvalidInput
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = subtotal.Round(2)

	shipping := c.cfg.ShippingFlatRate
	if subtotal.GreaterThan(c.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	discount, err := c.computeDiscount(subtotal, coupon)
	if err != nil {
		return Totals{}, err
	}

	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping.Round(2),
		Discount:     discount.Round(2),
		Total:        total.Round(2),
	}, nil
}

func (c *Calculator) computeDiscount(subtotal decimal.Decimal, coupon *Coupon) (decimal.Decimal, error) {
	if coupon == nil {
		return decimal.Zero, nil
	}
	if coupon.Value.IsNegative() {
		return decimal.Zero, ErrInvalidInput
	}
	switch coupon.Type {
	case constants.CouponTypePercentage:
		discount := subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(2)
		if discount.GreaterThan(c.cfg.PercentDiscountCap) {
			discount = c.cfg.PercentDiscountCap
		}
		return discount, nil
	case constants.CouponTypeFixed:
		discount := coupon.Value
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
		return discount, nil
	default:
		return decimal.Zero, ErrInvalidInput
	}
}
