package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/logger"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/pricing"
	"github.com/fastkart-next/internal/queue"
	"github.com/fastkart-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService 下单服务
// 库存占用在订单事务之前以条件扣减完成；
// 订单事务失败时归还已占用库存，归还失败视为需要人工介入的补偿失败
type CheckoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	couponRepo  repository.CouponRepository
	couponSvc   *CouponService
	ledger      *StockLedger
	allocator   *OrderNumberAllocator
	calculator  *pricing.Calculator
	queueClient *queue.Client
}

// NewCheckoutService 创建下单服务实例
func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	couponRepo repository.CouponRepository,
	couponSvc *CouponService,
	ledger *StockLedger,
	allocator *OrderNumberAllocator,
	calculator *pricing.Calculator,
	queueClient *queue.Client,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		couponRepo:  couponRepo,
		couponSvc:   couponSvc,
		ledger:      ledger,
		allocator:   allocator,
		calculator:  calculator,
		queueClient: queueClient,
	}
}

// CheckoutInput 下单入参
type CheckoutInput struct {
	UserID        uint
	PaymentMethod string
	Shipping      models.ShippingAddress
	Notes         string
}

var validPaymentMethods = map[string]bool{
	constants.PaymentMethodCOD:        true,
	constants.PaymentMethodCard:       true,
	constants.PaymentMethodUPI:        true,
	constants.PaymentMethodNetBanking: true,
}

// Checkout 从购物车创建订单
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if !validPaymentMethods[input.PaymentMethod] {
		return nil, ErrInvalidPaymentMethod
	}

	cart, err := s.cartRepo.GetByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	products, err := s.loadProducts(cart.Items)
	if err != nil {
		return nil, err
	}

	// 以当前商品价格计价，订单内保存快照
	lines := make([]pricing.LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		product := products[item.ProductID]
		lines = append(lines, pricing.LineItem{
			Quantity:  item.Quantity,
			UnitPrice: product.PriceAmount.Decimal,
		})
	}

	var coupon *models.Coupon
	if cart.HasCoupon() {
		subtotal := cartSubtotal(cart.Items)
		coupon, err = s.couponSvc.Resolve(cart.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
	}

	totals, err := s.calculator.ComputeTotals(lines, ToPricingCoupon(coupon))
	if err != nil {
		return nil, err
	}

	// 同商品多规格共用库存，按商品合并占用
	reservations := mergeReservations(cart.Items)
	if err := s.ledger.ReserveMany(reservations); err != nil {
		return nil, err
	}

	order, err := s.createOrder(ctx, cart, products, coupon, totals, input)
	if err != nil {
		return nil, s.compensate(reservations, err)
	}

	s.notifyCreated(order)
	return order, nil
}

func (s *CheckoutService) loadProducts(items []models.CartItem) (map[uint]*models.Product, error) {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, id := range ids {
		product, ok := byID[id]
		if !ok {
			return nil, ErrProductUnavailable
		}
		if !product.IsActive {
			return nil, ErrProductUnavailable
		}
	}
	return byID, nil
}

func mergeReservations(items []models.CartItem) []Reservation {
	merged := make(map[uint]int, len(items))
	order := make([]uint, 0, len(items))
	for _, item := range items {
		if _, ok := merged[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		merged[item.ProductID] += item.Quantity
	}
	reservations := make([]Reservation, 0, len(order))
	for _, id := range order {
		reservations = append(reservations, Reservation{ProductID: id, Quantity: merged[id]})
	}
	return reservations
}

func (s *CheckoutService) createOrder(
	ctx context.Context,
	cart *models.Cart,
	products map[uint]*models.Product,
	coupon *models.Coupon,
	totals pricing.Totals,
	input CheckoutInput,
) (*models.Order, error) {
	orderNo, err := s.allocator.Next(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	estimated := EstimateDelivery(constants.OrderStatusPending, now)
	order := &models.Order{
		OrderNo:           orderNo,
		UserID:            input.UserID,
		Status:            constants.OrderStatusPending,
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     constants.PaymentStatusPending,
		Subtotal:          models.NewMoneyFromDecimal(totals.Subtotal),
		ShippingCost:      models.NewMoneyFromDecimal(totals.ShippingCost),
		DiscountAmount:    models.NewMoneyFromDecimal(totals.Discount),
		TotalAmount:       models.NewMoneyFromDecimal(totals.Total),
		Shipping:          input.Shipping,
		Notes:             input.Notes,
		EstimatedDelivery: &estimated,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		product := products[cartItem.ProductID]
		unitPrice := product.PriceAmount
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			Name:         product.Name,
			SKU:          product.SKU,
			VariantName:  cartItem.VariantName,
			VariantValue: cartItem.VariantValue,
			UnitPrice:    unitPrice,
			Quantity:     cartItem.Quantity,
			TotalPrice:   models.NewMoneyFromDecimal(unitPrice.Mul(decimal.NewFromInt(int64(cartItem.Quantity)))),
		})
	}

	history := &models.OrderStatusHistory{
		Status:    constants.OrderStatusPending,
		ChangedBy: constants.ActorUser,
		Notes:     "Order created",
		CreatedAt: now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Create(order, items, history); err != nil {
			return err
		}

		productRepo := s.productRepo.WithTx(tx)
		for _, item := range items {
			if err := productRepo.IncrementSales(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if coupon != nil {
			if err := s.couponRepo.WithTx(tx).IncrementUsedCount(coupon.ID, 1); err != nil {
				return err
			}
		}

		cartRepo := s.cartRepo.WithTx(tx)
		if err := cartRepo.ClearItems(cart.ID); err != nil {
			return err
		}
		if err := cartRepo.ClearCoupon(cart.ID); err != nil {
			return err
		}
		return cartRepo.Touch(cart.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// compensate 订单创建失败后归还已占用库存
func (s *CheckoutService) compensate(reservations []Reservation, cause error) error {
	if releaseErr := s.ledger.ReleaseMany(reservations); releaseErr != nil {
		logger.Errorw("checkout_compensation_failed",
			"cause", cause,
			"release_error", releaseErr,
		)
		return fmt.Errorf("%w: %v (original: %v)", ErrCompensationFailed, releaseErr, cause)
	}
	return cause
}

func (s *CheckoutService) notifyCreated(order *models.Order) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueOrderConfirmationEmail(order.ID); err != nil {
		logger.Errorw("order_confirmation_enqueue_failed", "order_id", order.ID, "error", err)
	}
	if err := s.queueClient.EnqueueOrderStatusNotify(order.ID, order.Status); err != nil {
		logger.Errorw("order_status_notify_enqueue_failed", "order_id", order.ID, "error", err)
	}
}
