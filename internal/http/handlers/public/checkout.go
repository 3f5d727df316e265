package public

import (
	"github.com/fastkart-next/internal/http/response"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算下单请求
type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	Notes         string `json:"notes"`
	Shipping      struct {
		Name        string `json:"name" binding:"required"`
		Phone       string `json:"phone" binding:"required"`
		AddressLine string `json:"address_line" binding:"required"`
		City        string `json:"city" binding:"required"`
		State       string `json:"state" binding:"required"`
		Pincode     string `json:"pincode" binding:"required"`
	} `json:"shipping" binding:"required"`
}

// Checkout 结算：校验购物车、计算价格、锁定库存并创建订单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}

	order, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:        uid,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Shipping: models.ShippingAddress{
			Name:        req.Shipping.Name,
			Phone:       req.Shipping.Phone,
			AddressLine: req.Shipping.AddressLine,
			City:        req.Shipping.City,
			State:       req.Shipping.State,
			Pincode:     req.Shipping.Pincode,
		},
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, gin.H{"order": order})
}
