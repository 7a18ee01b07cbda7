package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/checkout-next/internal/authz"
	"github.com/checkout-next/internal/cache"
	"github.com/checkout-next/internal/config"
	adminhandlers "github.com/checkout-next/internal/http/handlers/admin"
	publichandlers "github.com/checkout-next/internal/http/handlers/public"
	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按用户侧/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	loginRule, orderCreateRule := buildRateLimitRules(cfg)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/cart", publicHandler.GetCart)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PATCH("/cart/items/:id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			user.POST("/cart/coupon", publicHandler.ApplyCoupon)
			user.DELETE("/cart/coupon", publicHandler.RemoveCoupon)

			user.POST("/orders", RateLimitMiddleware(redisClient, orderCreateRule, KeyByUserID), publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:code", publicHandler.GetOrder)

			user.GET("/notifications", publicHandler.ListNotifications)
			user.POST("/notifications/read-all", publicHandler.MarkNotificationsRead)
			user.PUT("/notifications/:id/read", publicHandler.MarkNotificationRead)

			user.GET("/shipping/fee", publicHandler.GetShippingFee)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), AdminRBACMiddleware(c.AuthzService))
		{
			// 订单管理
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:code", adminHandler.AdminGetOrder)
			admin.PATCH("/orders/:code", adminHandler.AdminUpdateOrderStatus)
			admin.DELETE("/orders/:code", adminHandler.AdminDeleteOrder)

			// 优惠券管理
			admin.GET("/coupons", adminHandler.GetAdminCoupons)
			admin.POST("/coupons", adminHandler.CreateCoupon)
			admin.GET("/coupons/:code", adminHandler.GetAdminCoupon)
			admin.PATCH("/coupons/:code", adminHandler.UpdateCouponStatus)
			admin.DELETE("/coupons/:code", adminHandler.DeleteCoupon)

			// 后台角色与策略
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.POST("/authz/reload", adminHandler.ReloadAuthzPolicy)
			admin.GET("/users/:id/roles", adminHandler.GetUserRoles)
			admin.PUT("/users/:id/roles", adminHandler.SetUserRoles)

			// 权限目录
			admin.GET("/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

// buildRateLimitRules 登录按 邮箱+IP 限流，下单按用户限流
func buildRateLimitRules(cfg *config.Config) (login RateLimitRule, orderCreate RateLimitRule) {
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "co"
	}
	login = RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.JWT.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.JWT.LoginRateLimit.MaxRequests,
		Message:       "too many login attempts, retry in %d seconds",
	}
	orderCreate = RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order_create", redisPrefix),
		WindowSeconds: cfg.Order.CreateRateLimit.WindowSeconds,
		MaxRequests:   cfg.Order.CreateRateLimit.MaxRequests,
		Message:       "too many orders, retry in %d seconds",
	}
	return login, orderCreate
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
