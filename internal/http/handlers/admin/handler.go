package admin

import (
	"strconv"
	"strings"

	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 后台接口处理器：订单流转、优惠券、角色授权
// 所有路由都经过 JWT 与 Casbin 校验后才会进入
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// lookupUserParam 解析 :id 并确认用户存在
func (h *Handler) lookupUserParam(c *gin.Context) (uint, bool) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || parsed == 0 {
		respondError(c, response.CodeBadRequest, "id is invalid", nil)
		return 0, false
	}
	user, err := h.UserRepo.GetByID(uint(parsed))
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return 0, false
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "user not found", nil)
		return 0, false
	}
	return user.ID, true
}

// orderCodeParam 订单号统一大写去空格
func orderCodeParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("code")))
}
