package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/http/response"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/repository"
	"github.com/fastkart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOrderListItem 管理端订单列表返回
type AdminOrderListItem struct {
	models.Order
	UserEmail       string `json:"user_email,omitempty"`
	UserDisplayName string `json:"user_display_name,omitempty"`
}

// UpdateOrderStatusRequest 更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := parsePagination(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_from", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid created_to", err)
		return
	}
	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		UserID:      userID,
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "fetch orders failed", err)
		return
	}

	items, err := h.decorateOrders(orders)
	if err != nil {
		respondError(c, response.CodeInternal, "fetch orders failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"items": items}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// decorateOrders 批量补充下单用户信息
func (h *Handler) decorateOrders(orders []models.Order) ([]AdminOrderListItem, error) {
	userIDs := make([]uint, 0, len(orders))
	seen := map[uint]struct{}{}
	for _, order := range orders {
		if _, ok := seen[order.UserID]; ok {
			continue
		}
		seen[order.UserID] = struct{}{}
		userIDs = append(userIDs, order.UserID)
	}

	userMap := map[uint]models.User{}
	if len(userIDs) > 0 {
		users, err := h.UserRepo.ListByIDs(userIDs)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			userMap[user.ID] = user
		}
	}

	items := make([]AdminOrderListItem, 0, len(orders))
	for _, order := range orders {
		item := AdminOrderListItem{Order: order}
		if user, ok := userMap[order.UserID]; ok {
			item.UserEmail = user.Email
			item.UserDisplayName = user.DisplayName
		}
		items = append(items, item)
	}
	return items, nil
}

// GetOrder 管理端订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetOrder(uint(orderID))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, gin.H{"order": order})
}

// UpdateOrderStatus 更新订单状态（按状态机推进）
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}

	var order *models.Order
	if req.Status == constants.OrderStatusShipped {
		order, err = h.OrderService.MarkShipped(uint(orderID), req.TrackingNumber, constants.ActorAdmin, req.Notes)
	} else {
		order, err = h.OrderService.AdvanceStatus(uint(orderID), req.Status, constants.ActorAdmin, req.Notes)
	}
	if err != nil {
		respondOrderError(c, err)
		return
	}

	requestLog(c).Infow("admin_order_status_updated",
		"admin_id", adminID,
		"order_id", order.ID,
		"status", order.Status,
	)
	response.Success(c, gin.H{"order": order})
}

func respondOrderError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, response.CodeNotFound, "order not found", nil)
	case errors.Is(err, service.ErrInvalidStatusTransition):
		respondError(c, response.CodeBadRequest, "invalid status transition", nil)
	case errors.Is(err, service.ErrConcurrencyConflict):
		respondError(c, response.CodeBadRequest, "order changed concurrently, please retry", nil)
	default:
		respondError(c, response.CodeInternal, "order operation failed", err)
	}
}
