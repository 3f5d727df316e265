package public

import (
	"strconv"

	"github.com/fastkart-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID    uint   `json:"product_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required"`
	VariantName  string `json:"variant_name"`
	VariantValue string `json:"variant_value"`
}

// UpdateCartItemRequest 修改购物车项数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// ApplyCouponRequest 应用优惠码请求
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.CartService.GetCart(uid)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}

// AddCartItem 加入购物车（同商品同规格合并数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}

	summary, err := h.CartService.AddItem(uid, req.ProductID, req.Quantity, req.VariantName, req.VariantValue)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}

// UpdateCartItem 修改购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}

	summary, err := h.CartService.UpdateItemQuantity(uid, uint(itemID), req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}

// RemoveCartItem 移除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}

	summary, err := h.CartService.RemoveItem(uid, uint(itemID))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.CartService.Clear(uid); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, nil)
}

// ApplyCoupon 应用优惠码
func (h *Handler) ApplyCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}

	summary, err := h.CartService.ApplyCoupon(uid, req.Code)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}

// RemoveCoupon 移除优惠码
func (h *Handler) RemoveCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.CartService.RemoveCoupon(uid)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}
