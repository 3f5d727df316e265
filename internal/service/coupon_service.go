package service

import (
	"strings"
	"time"

	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/pricing"
	"github.com/fastkart-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo repository.CouponRepository
}

// NewCouponService 创建优惠券服务实例
func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Resolve 按优惠码解析可用的优惠券
// 检查启用状态、时间窗口、使用次数上限
func (s *CouponService) Resolve(code string, subtotal decimal.Decimal) (*models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if err := s.validate(coupon, subtotal, time.Now()); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) validate(coupon *models.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !coupon.IsActive {
		return ErrCouponInvalid
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return ErrCouponInvalid
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return ErrCouponInvalid
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return ErrCouponInvalid
	}
	if coupon.MinAmount.IsPositive() && subtotal.LessThan(coupon.MinAmount.Decimal) {
		return ErrCouponInvalid
	}
	switch coupon.Type {
	case constants.CouponTypeFixed, constants.CouponTypePercentage:
		return nil
	default:
		return ErrCouponInvalid
	}
}

// ToPricingCoupon 转换为计价输入
func ToPricingCoupon(coupon *models.Coupon) *pricing.Coupon {
	if coupon == nil {
		return nil
	}
	return &pricing.Coupon{
		Type:  coupon.Type,
		Value: coupon.Value.Decimal,
	}
}
