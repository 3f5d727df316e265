package provider

import (
	"github.com/fastkart-next/internal/cache"
	"github.com/fastkart-next/internal/config"
	"github.com/fastkart-next/internal/logger"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/pricing"
	"github.com/fastkart-next/internal/queue"
	"github.com/fastkart-next/internal/repository"
	"github.com/fastkart-next/internal/service"

	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	CategoryRepo     repository.CategoryRepository
	ProductRepo      repository.ProductRepository
	CartRepo         repository.CartRepository
	CouponRepo       repository.CouponRepository
	OrderRepo        repository.OrderRepository
	OrderCounterRepo repository.OrderCounterRepository

	// Services
	Calculator      *pricing.Calculator
	StockLedger     *service.StockLedger
	OrderNumbers    *service.OrderNumberAllocator
	UserAuthService *service.UserAuthService
	ProductService  *service.ProductService
	CouponService   *service.CouponService
	CartService     *service.CartService
	OrderService    *service.OrderService
	CheckoutService *service.CheckoutService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderCounterRepo = repository.NewOrderCounterRepository(db)
}

func (c *Container) initServices() {
	c.Calculator = pricing.NewCalculator(buildPricingConfig(c.Config.Pricing))
	c.StockLedger = service.NewStockLedger(c.ProductRepo)
	c.OrderNumbers = service.NewOrderNumberAllocator(c.OrderCounterRepo, c.OrderRepo, c.Config.Order.CounterMaxRetries)

	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.CouponService, c.Calculator)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.CouponRepo, c.QueueClient)
	c.CheckoutService = service.NewCheckoutService(
		c.CartRepo,
		c.ProductRepo,
		c.OrderRepo,
		c.CouponRepo,
		c.CouponService,
		c.StockLedger,
		c.OrderNumbers,
		c.Calculator,
		c.QueueClient,
	)
}

// buildPricingConfig 解析配置中的金额串，非法值回退到默认规则
func buildPricingConfig(cfg config.PricingConfig) pricing.Config {
	parsed := pricing.DefaultConfig()
	if v, err := decimal.NewFromString(cfg.FreeShippingThreshold); err == nil {
		parsed.FreeShippingThreshold = v
	} else {
		logger.Warnw("pricing_config_invalid_threshold", "value", cfg.FreeShippingThreshold, "error", err)
	}
	if v, err := decimal.NewFromString(cfg.ShippingFlatRate); err == nil {
		parsed.ShippingFlatRate = v
	} else {
		logger.Warnw("pricing_config_invalid_flat_rate", "value", cfg.ShippingFlatRate, "error", err)
	}
	if v, err := decimal.NewFromString(cfg.PercentDiscountCap); err == nil {
		parsed.PercentDiscountCap = v
	} else {
		logger.Warnw("pricing_config_invalid_discount_cap", "value", cfg.PercentDiscountCap, "error", err)
	}
	return parsed
}
