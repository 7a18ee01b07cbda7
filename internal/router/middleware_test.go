package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/checkout-next/internal/authz"
	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/repository"
	"github.com/checkout-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

const testJWTSecret = "router-test-secret-0123456789abcdef"

type authFixture struct {
	db       *gorm.DB
	userRepo *repository.GormUserRepository
	auth     *service.AuthService
	authz    *authz.Service
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := models.Open("sqlite", dsn, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	authzService, err := authz.NewService(db)
	require.NoError(t, err)
	require.NoError(t, authzService.BootstrapBuiltinRoles())

	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: testJWTSecret, ExpireHours: 1}}
	userRepo := repository.NewUserRepository(db)
	return &authFixture{
		db:       db,
		userRepo: userRepo,
		auth:     service.NewAuthService(cfg, userRepo),
		authz:    authzService,
	}
}

func (f *authFixture) createUser(t *testing.T, email, role, status string) (*models.User, string) {
	t.Helper()
	user := &models.User{Email: email, Role: role, Status: status}
	require.NoError(t, f.db.Create(user).Error)
	token, _, err := f.auth.GenerateJWT(user)
	require.NoError(t, err)
	return user, token
}

func (f *authFixture) adminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := r.Group("/api/v1/admin")
	admin.Use(UserJWTAuthMiddleware(testJWTSecret, f.userRepo), AdminRBACMiddleware(f.authz))
	admin.GET("/orders/:code", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": c.GetUint(userIDContextKey)})
	})
	admin.PATCH("/orders/:code", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	admin.POST("/coupons", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	return r
}

func performWithToken(r http.Handler, method, path, token string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		return -1
	}
	return resp.StatusCode
}

func TestUserJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(UserJWTAuthMiddleware("", nil))
	r.GET("/cart", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	f := setupAuthFixture(t)
	_, activeToken := f.createUser(t, "buyer@example.com", constants.UserRoleUser, constants.UserStatusActive)
	_, disabledToken := f.createUser(t, "gone@example.com", constants.UserRoleUser, constants.UserStatusDisabled)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UserJWTAuthMiddleware(testJWTSecret, f.userRepo))
	r.GET("/cart", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	require.Equal(t, 0, performWithToken(r, http.MethodGet, "/cart", activeToken))
	require.Equal(t, 401, performWithToken(r, http.MethodGet, "/cart", ""))
	require.Equal(t, 401, performWithToken(r, http.MethodGet, "/cart", "not-a-jwt"))
	require.Equal(t, 401, performWithToken(r, http.MethodGet, "/cart", disabledToken))

	other := service.NewAuthService(&config.Config{JWT: config.JWTConfig{SecretKey: "another-secret-0123456789abcdef"}}, f.userRepo)
	forged, _, err := other.GenerateJWT(&models.User{ID: 1, Email: "buyer@example.com", Role: constants.UserRoleAdmin})
	require.NoError(t, err)
	require.Equal(t, 401, performWithToken(r, http.MethodGet, "/cart", forged))
}

func TestAdminRBACMiddleware(t *testing.T) {
	f := setupAuthFixture(t)
	_, adminToken := f.createUser(t, "admin@example.com", constants.UserRoleAdmin, constants.UserStatusActive)
	_, userToken := f.createUser(t, "buyer@example.com", constants.UserRoleUser, constants.UserStatusActive)
	support, supportToken := f.createUser(t, "support@example.com", constants.UserRoleUser, constants.UserStatusActive)
	require.NoError(t, f.authz.SetUserRoles(support.ID, []string{"support"}))

	r := f.adminRouter()
	path := "/api/v1/admin/orders/ORD-1700000000000-001"

	require.Equal(t, 0, performWithToken(r, http.MethodGet, path, adminToken))
	require.Equal(t, 0, performWithToken(r, http.MethodPatch, path, adminToken))
	require.Equal(t, 0, performWithToken(r, http.MethodPost, "/api/v1/admin/coupons", adminToken))

	require.Equal(t, 403, performWithToken(r, http.MethodGet, path, userToken))
	require.Equal(t, 401, performWithToken(r, http.MethodGet, path, ""))

	require.Equal(t, 0, performWithToken(r, http.MethodPatch, path, supportToken))
	require.Equal(t, 403, performWithToken(r, http.MethodPost, "/api/v1/admin/coupons", supportToken))
}

func TestAdminRBACMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDContextKey, uint(1))
		c.Next()
	})
	r.Use(AdminRBACMiddleware(nil))
	r.GET("/api/v1/admin/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	require.Equal(t, 401, performWithToken(r, http.MethodGet, "/api/v1/admin/orders", ""))
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	require.Equal(t, "orders", deriveAdminPermissionModule("/admin/orders/:code"))
	require.Equal(t, "coupons", deriveAdminPermissionModule("/admin/coupons"))
	require.Equal(t, "system", deriveAdminPermissionModule(""))
}
