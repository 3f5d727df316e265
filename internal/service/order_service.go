package service

import (
	"time"

	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/logger"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/queue"
	"github.com/fastkart-next/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	queueClient *queue.Client
}

// NewOrderService 创建订单服务实例
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		queueClient: queueClient,
	}
}

// EstimateDelivery 按状态计算预计送达时间
func EstimateDelivery(status string, from time.Time) time.Time {
	days := estimatedDeliveryDays[normalizeStatus(status)]
	return from.AddDate(0, 0, days)
}

// GetOrder 获取订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderForUser 获取用户自己的订单详情
func (s *OrderService) GetOrderForUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNo 按订单编号获取订单
func (s *OrderService) GetOrderByNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListUserOrders 获取用户订单列表
func (s *OrderService) ListUserOrders(userID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.UserID = userID
	return s.orderRepo.ListByUser(filter)
}

// ListOrders 获取后台订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// AdvanceStatus 推进订单状态
// 更新以当前状态为条件，并发下只有一次变更生效；
// 取消订单时在同一事务内归还库存、回退销量与优惠券次数
func (s *OrderService) AdvanceStatus(orderID uint, target, changedBy, notes string) (*models.Order, error) {
	return s.advanceStatus(orderID, target, changedBy, notes, nil)
}

// MarkShipped 标记发货并记录物流单号
func (s *OrderService) MarkShipped(orderID uint, trackingNumber, changedBy, notes string) (*models.Order, error) {
	extra := map[string]interface{}{}
	if trackingNumber != "" {
		extra["tracking_number"] = trackingNumber
	}
	return s.advanceStatus(orderID, constants.OrderStatusShipped, changedBy, notes, extra)
}

func (s *OrderService) advanceStatus(orderID uint, target, changedBy, notes string, extra map[string]interface{}) (*models.Order, error) {
	if !isValidStatus(target) {
		return nil, ErrInvalidStatusTransition
	}
	target = normalizeStatus(target)

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrInvalidStatusTransition
	}

	now := time.Now()
	estimated := EstimateDelivery(target, now)
	updates := map[string]interface{}{
		"updated_at":         now,
		"estimated_delivery": estimated,
	}
	switch target {
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
		updates["cancelled_by"] = changedBy
		if notes != "" {
			updates["cancellation_reason"] = notes
		}
	}
	for k, v := range extra {
		updates[k] = v
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		affected, err := orderRepo.UpdateStatusIf(orderID, order.Status, target, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrConcurrencyConflict
		}
		history := &models.OrderStatusHistory{
			OrderID:   orderID,
			Status:    target,
			ChangedBy: changedBy,
			Notes:     notes,
			CreatedAt: now,
		}
		if err := orderRepo.AppendStatusHistory(history); err != nil {
			return err
		}
		if target == constants.OrderStatusCancelled {
			return s.restoreStock(tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueStatusNotify(orderID, target)
	return s.GetOrder(orderID)
}

// CancelOrder 取消订单（仅 pending / confirmed 可取消）
func (s *OrderService) CancelOrder(orderID uint, cancelledBy, reason string) (*models.Order, error) {
	return s.AdvanceStatus(orderID, constants.OrderStatusCancelled, cancelledBy, reason)
}

// CancelOrderForUser 用户取消自己的订单
func (s *OrderService) CancelOrderForUser(orderID, userID uint, reason string) (*models.Order, error) {
	if _, err := s.GetOrderForUser(orderID, userID); err != nil {
		return nil, err
	}
	return s.CancelOrder(orderID, constants.ActorUser, reason)
}

// restoreStock 取消订单时归还库存并回退销量、优惠券使用次数
func (s *OrderService) restoreStock(tx *gorm.DB, order *models.Order) error {
	productRepo := s.productRepo.WithTx(tx)
	for _, item := range order.Items {
		if err := productRepo.ReleaseStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := productRepo.DecrementSales(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	if order.CouponCode != "" {
		couponRepo := s.couponRepo.WithTx(tx)
		coupon, err := couponRepo.GetByCode(order.CouponCode)
		if err != nil {
			return err
		}
		if coupon != nil {
			if err := couponRepo.DecrementUsedCount(coupon.ID, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *OrderService) enqueueStatusNotify(orderID uint, status string) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusNotify(orderID, status); err != nil {
		logger.Errorw("order_status_notify_enqueue_failed",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
	}
}
