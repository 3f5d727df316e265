package service

import (
	"time"

	"github.com/fastkart-next/internal/logger"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/pricing"
	"github.com/fastkart-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponSvc   *CouponService
	calculator  *pricing.Calculator
}

// NewCartService 创建购物车服务实例
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponSvc *CouponService,
	calculator *pricing.Calculator,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponSvc:   couponSvc,
		calculator:  calculator,
	}
}

// CartSummary 购物车汇总（含计价结果）
type CartSummary struct {
	Cart         *models.Cart `json:"cart"`
	ItemCount    int          `json:"item_count"`
	Subtotal     models.Money `json:"subtotal"`
	ShippingCost models.Money `json:"shipping_cost"`
	Discount     models.Money `json:"discount"`
	Total        models.Money `json:"total"`
}

// GetCart 获取用户购物车汇总
// 已下架或已删除的商品会在读取时被移出购物车
func (s *CartService) GetCart(userID uint) (*CartSummary, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.evictUnavailable(cart); err != nil {
		return nil, err
	}
	return s.summarize(cart)
}

// AddItem 加入购物车，同商品同规格合并数量
func (s *CartService) AddItem(userID, productID uint, quantity int, variantName, variantValue string) (*CartSummary, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItem(cart.ID, productID, variantName, variantValue)
	if err != nil {
		return nil, err
	}

	targetQuantity := quantity
	if existing != nil {
		targetQuantity += existing.Quantity
	}
	if product.Stock < targetQuantity {
		return nil, ErrInsufficientStock
	}

	if existing != nil {
		if err := s.cartRepo.UpdateItemQuantity(existing.ID, targetQuantity); err != nil {
			return nil, err
		}
	} else {
		item := &models.CartItem{
			CartID:       cart.ID,
			ProductID:    productID,
			VariantName:  variantName,
			VariantValue: variantValue,
			Quantity:     quantity,
			UnitPrice:    product.PriceAmount,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	}

	if err := s.cartRepo.Touch(cart.ID, time.Now()); err != nil {
		logger.Warnw("cart_touch_failed", "cart_id", cart.ID, "error", err)
	}
	return s.GetCart(userID)
}

// UpdateItemQuantity 修改购物车项数量
func (s *CartService) UpdateItemQuantity(userID, itemID uint, quantity int) (*CartSummary, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return nil, err
	}
	if product != nil && product.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	if err := s.cartRepo.UpdateItemQuantity(item.ID, quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Touch(cart.ID, time.Now()); err != nil {
		logger.Warnw("cart_touch_failed", "cart_id", cart.ID, "error", err)
	}
	return s.GetCart(userID)
}

// RemoveItem 移除购物车项
func (s *CartService) RemoveItem(userID, itemID uint) (*CartSummary, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Touch(cart.ID, time.Now()); err != nil {
		logger.Warnw("cart_touch_failed", "cart_id", cart.ID, "error", err)
	}
	return s.GetCart(userID)
}

// Clear 清空购物车（购物车项与优惠券一并清除）
func (s *CartService) Clear(userID uint) error {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return err
	}
	if err := s.cartRepo.ClearItems(cart.ID); err != nil {
		return err
	}
	if err := s.cartRepo.ClearCoupon(cart.ID); err != nil {
		return err
	}
	return s.cartRepo.Touch(cart.ID, time.Now())
}

// ApplyCoupon 附加优惠券（保存解析后的快照）
func (s *CartService) ApplyCoupon(userID uint, code string) (*CartSummary, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	subtotal := cartSubtotal(cart.Items)
	coupon, err := s.couponSvc.Resolve(code, subtotal)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.UpdateCoupon(cart.ID, coupon.Code, coupon.Type, coupon.Value); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// RemoveCoupon 移除优惠券
func (s *CartService) RemoveCoupon(userID uint) (*CartSummary, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.ClearCoupon(cart.ID); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// evictUnavailable 将已下架/已删除的商品移出购物车
func (s *CartService) evictUnavailable(cart *models.Cart) error {
	if cart == nil || len(cart.Items) == 0 {
		return nil
	}
	kept := cart.Items[:0]
	evicted := false
	for _, item := range cart.Items {
		if item.Product == nil || !item.Product.IsActive {
			if err := s.cartRepo.DeleteItem(item.ID); err != nil {
				return err
			}
			evicted = true
			continue
		}
		kept = append(kept, item)
	}
	cart.Items = kept
	if evicted {
		if err := s.cartRepo.Touch(cart.ID, time.Now()); err != nil {
			logger.Warnw("cart_touch_failed", "cart_id", cart.ID, "error", err)
		}
	}
	return nil
}

func cartSubtotal(items []models.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal.Round(2)
}

func cartLineItems(items []models.CartItem) []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.LineItem{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Decimal,
		})
	}
	return lines
}

func (s *CartService) summarize(cart *models.Cart) (*CartSummary, error) {
	var coupon *pricing.Coupon
	if cart.HasCoupon() && len(cart.Items) > 0 {
		coupon = &pricing.Coupon{Type: cart.CouponType, Value: cart.CouponDiscount.Decimal}
	}
	totals, err := s.calculator.ComputeTotals(cartLineItems(cart.Items), coupon)
	if err != nil {
		return nil, err
	}
	itemCount := 0
	for _, item := range cart.Items {
		itemCount += item.Quantity
	}
	summary := &CartSummary{
		Cart:         cart,
		ItemCount:    itemCount,
		Subtotal:     models.NewMoneyFromDecimal(totals.Subtotal),
		ShippingCost: models.NewMoneyFromDecimal(totals.ShippingCost),
		Discount:     models.NewMoneyFromDecimal(totals.Discount),
		Total:        models.NewMoneyFromDecimal(totals.Total),
	}
	return summary, nil
}
