package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestLoginKeyUsesNormalizedEmailAndIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":" Shopper@Example.com ","password":"secret"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "10.0.0.7:5678"

	key := KeyByIPAndJSONField("email")(c)
	if key != "shopper@example.com|10.0.0.7" {
		t.Fatalf("key want shopper@example.com|10.0.0.7 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), `"password":"secret"`) {
		t.Fatalf("login body must be restored for the handler, got %s", body)
	}
}

func TestOrderCreateKeyPrefersUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	c.Request.RemoteAddr = "10.0.0.8:1234"

	if key := KeyByUserID(c); key != "10.0.0.8" {
		t.Fatalf("anonymous request should fall back to ip, got %s", key)
	}
	c.Set(userIDContextKey, uint(42))
	if key := KeyByUserID(c); key != "user:42" {
		t.Fatalf("authenticated request should key by user, got %s", key)
	}
}

func TestBuildRateLimitRules(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.LoginRateLimit = config.RateLimitConfig{WindowSeconds: 300, MaxRequests: 10}
	cfg.Order.CreateRateLimit = config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 3}

	login, orderCreate := buildRateLimitRules(cfg)
	if login.Prefix != "co:rate:login" || login.MaxRequests != 10 {
		t.Fatalf("unexpected login rule %+v", login)
	}
	if orderCreate.Prefix != "co:rate:order_create" || orderCreate.WindowSeconds != 60 || orderCreate.MaxRequests != 3 {
		t.Fatalf("unexpected order create rule %+v", orderCreate)
	}

	cfg.Redis.Prefix = " shop "
	_, orderCreate = buildRateLimitRules(cfg)
	if orderCreate.Prefix != "shop:rate:order_create" {
		t.Fatalf("expected configured redis prefix, got %s", orderCreate.Prefix)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByUserID))
	r.POST("/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d should pass without redis, got %d %s", i, w.Code, w.Body.String())
		}
	}
}

// Redis 不可达时拒绝下单而不是放行
func TestOrderCreateRuleFailsClosedWhenRedisUnreachable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cfg := &config.Config{}
	cfg.Order.CreateRateLimit = config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 3}
	_, rule := buildRateLimitRules(cfg)

	reached := false
	r := gin.New()
	r.POST("/orders", RateLimitMiddleware(client, rule, KeyByUserID), func(c *gin.Context) {
		reached = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))

	var body response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if reached {
		t.Fatalf("handler must not run when the limiter cannot count")
	}
	if body.StatusCode != response.CodeInternal || body.Msg != "rate limiter unavailable" {
		t.Fatalf("unexpected response %+v", body)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "redis integer", input: int64(4), want: 4, ok: true},
		{name: "ttl int", input: int(59), want: 59, ok: true},
		{name: "uint32", input: uint32(7), want: 7, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "4", want: 0, ok: false},
		{name: "nil", input: nil, want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
