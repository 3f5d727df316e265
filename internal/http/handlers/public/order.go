package public

import (
	"strconv"

	handlershared "github.com/fastkart-next/internal/http/handlers/shared"
	"github.com/fastkart-next/internal/http/response"
	"github.com/fastkart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// ListOrders 我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListUserOrders(uid, repository.OrderListFilter{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "fetch orders failed", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, gin.H{"items": orders}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetOrder 订单详情（仅本人可见）
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetOrderForUser(uint(orderID), uid)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"order": order})
}

// CancelOrder 取消订单（仅 pending/confirmed 可取消）
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	// 取消原因可选，请求体允许为空
	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.OrderService.CancelOrderForUser(uint(orderID), uid, req.Reason)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"order": order})
}
