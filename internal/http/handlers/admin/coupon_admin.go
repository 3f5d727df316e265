package admin

import (
	"strconv"
	"strings"

	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/http/response"
	"github.com/fastkart-next/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CouponRequest 优惠券创建/更新请求
type CouponRequest struct {
	Code        string  `json:"code" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	Value       float64 `json:"value" binding:"required"`
	MinAmount   float64 `json:"min_amount"`
	MaxDiscount float64 `json:"max_discount"`
	UsageLimit  int     `json:"usage_limit"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	IsActive    *bool   `json:"is_active"`
}

func couponTypeValid(t string) bool {
	return t == constants.CouponTypeFixed || t == constants.CouponTypePercentage
}

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, pageSize := parsePagination(c)

	coupons, total, err := h.CouponRepo.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "fetch coupons failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"items": coupons}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	if !couponTypeValid(req.Type) {
		respondError(c, response.CodeBadRequest, "invalid coupon type", nil)
		return
	}
	if req.Value <= 0 {
		respondError(c, response.CodeBadRequest, "invalid coupon value", nil)
		return
	}

	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid starts_at", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid ends_at", err)
		return
	}

	coupon := &models.Coupon{
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Type:        req.Type,
		Value:       models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Value)),
		MinAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MinAmount)),
		MaxDiscount: models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MaxDiscount)),
		UsageLimit:  req.UsageLimit,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		IsActive:    true,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.CouponRepo.Create(coupon); err != nil {
		respondError(c, response.CodeInternal, "create coupon failed", err)
		return
	}
	response.Success(c, gin.H{"coupon": coupon})
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid coupon id", nil)
		return
	}

	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	if !couponTypeValid(req.Type) {
		respondError(c, response.CodeBadRequest, "invalid coupon type", nil)
		return
	}

	coupon, err := h.CouponRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "fetch coupon failed", err)
		return
	}
	if coupon == nil {
		respondError(c, response.CodeNotFound, "coupon not found", nil)
		return
	}

	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid starts_at", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid ends_at", err)
		return
	}

	coupon.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	coupon.Type = req.Type
	coupon.Value = models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Value))
	coupon.MinAmount = models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MinAmount))
	coupon.MaxDiscount = models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MaxDiscount))
	coupon.UsageLimit = req.UsageLimit
	coupon.StartsAt = startsAt
	coupon.EndsAt = endsAt
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.CouponRepo.Update(coupon); err != nil {
		respondError(c, response.CodeInternal, "update coupon failed", err)
		return
	}
	response.Success(c, gin.H{"coupon": coupon})
}
