package provider

import (
	"errors"
	"time"

	"github.com/checkout-next/internal/authz"
	"github.com/checkout-next/internal/cache"
	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/queue"
	"github.com/checkout-next/internal/repository"
	"github.com/checkout-next/internal/service"
	"github.com/checkout-next/internal/shipping"

	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config         *config.Config
	QueueClient    *queue.Client
	ShippingClient *shipping.Client
	CartLocker     service.CartLocker

	// Repositories
	Transactor       repository.Transactor
	UserRepo         repository.UserRepository
	AddressRepo      repository.AddressRepository
	ProductRepo      repository.ProductRepository
	ProductSKURepo   repository.ProductSKURepository
	CartRepo         repository.CartRepository
	CouponRepo       repository.CouponRepository
	OrderRepo        repository.OrderRepository
	NotificationRepo repository.NotificationRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	EmailService        *service.EmailService
	CartService         *service.CartService
	OrderService        *service.OrderService
	CouponAdminService  *service.CouponAdminService
	NotificationService *service.NotificationService
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

	// 2. 初始化外部依赖
	c.initInfra()

	// 3. 初始化 Services
	c.initServices()

	return c
}

// Close 释放外部连接：运费客户端、队列客户端、Redis
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.ShippingClient != nil {
		if err := c.ShippingClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Container) initRepositories() {
	db := models.DB
	c.Transactor = repository.NewTransactor(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.ProductSKURepo = repository.NewProductSKURepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
}

func (c *Container) initInfra() {
	if endpoint := c.Config.Shipping.Endpoint; endpoint != "" {
		client, err := shipping.NewClient(shipping.Options{
			Endpoint: endpoint,
			Token:    c.Config.Shipping.Token,
			Timeout:  time.Duration(c.Config.Shipping.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			logger.Errorw("provider_init_shipping_client_failed", "endpoint", endpoint, "error", err)
		} else {
			c.ShippingClient = client
		}
	} else {
		logger.Warnw("provider_shipping_endpoint_missing")
	}

	// 多实例部署依赖 Redis 锁，未启用 Redis 时退化为进程内锁
	if cache.Enabled() {
		c.CartLocker = service.NewRedisCartLocker(cache.NewLocker(cache.Client(), 0), 0)
	} else {
		c.CartLocker = service.NewLocalCartLocker()
	}
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.NotificationService = service.NewNotificationService(
		c.NotificationRepo,
		c.UserRepo,
		c.Config.Notify.PublishChannelPrefix,
		c.Config.Notify.AdminFanoutConcurrency,
	)
	c.CartService = service.NewCartService(c.Transactor, c.CartRepo, c.ProductSKURepo, c.CouponRepo, c.UserRepo, c.CartLocker)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo)

	deps := service.OrderServiceDeps{
		Transactor:  c.Transactor,
		OrderRepo:   c.OrderRepo,
		CartRepo:    c.CartRepo,
		SKURepo:     c.ProductSKURepo,
		ProductRepo: c.ProductRepo,
		CouponRepo:  c.CouponRepo,
		UserRepo:    c.UserRepo,
		AddressRepo: c.AddressRepo,
		Notifier:    c.NotificationService,
		Locker:      c.CartLocker,
	}
	// 接口字段不能装入 nil 指针
	if c.ShippingClient != nil {
		deps.Shipping = c.ShippingClient
	}
	if c.QueueClient != nil {
		deps.Jobs = c.QueueClient
	}
	c.OrderService = service.NewOrderService(deps, service.OrderOptions{
		FreeShippingThreshold: decimal.NewFromFloat(c.Config.Order.FreeShippingThreshold),
		UnitWeightGrams:       c.Config.Order.UnitWeightGrams,
		PickProvince:          c.Config.Order.PickProvince,
		PickDistrict:          c.Config.Order.PickDistrict,
	})
}
