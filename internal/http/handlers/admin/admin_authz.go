package admin

import (
	"net/url"
	"strings"

	"github.com/checkout-next/internal/authz"
	handlershared "github.com/checkout-next/internal/http/handlers/shared"
	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/logger"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzSetUserRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 当前后台用户的权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	userID, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetUserRoles(userID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user_id":      userID,
		"account_role": c.GetString("user_role"),
		"roles":        roles,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(decodeRoleParam(c.Param("role")))
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	logger.Infow("admin_authz_policy_granted",
		"operator_user_id", c.GetUint("user_id"),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	logger.Infow("admin_authz_policy_revoked",
		"operator_user_id", c.GetUint("user_id"),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, nil)
}

// ReloadAuthzPolicy 从数据库重新加载策略
func (h *Handler) ReloadAuthzPolicy(c *gin.Context) {
	if err := h.AuthzService.ReloadPolicy(); err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetUserRoles 查询用户的附加后台角色
func (h *Handler) GetUserRoles(c *gin.Context) {
	userID, ok := h.lookupUserParam(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetUserRoles(userID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": userID, "roles": roles})
}

// SetUserRoles 覆盖设置用户的附加后台角色
func (h *Handler) SetUserRoles(c *gin.Context) {
	userID, ok := h.lookupUserParam(c)
	if !ok {
		return
	}
	var req authzSetUserRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthzService.SetUserRoles(userID, req.Roles); err != nil {
		respondAuthzError(c, err)
		return
	}
	roles, err := h.AuthzService.GetUserRoles(userID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	logger.Infow("admin_authz_user_roles_updated",
		"operator_user_id", c.GetUint("user_id"),
		"target_user_id", userID,
		"roles", roles,
	)
	response.Success(c, gin.H{"user_id": userID, "roles": roles})
}

func respondAuthzError(c *gin.Context, err error) {
	if authz.IsClientError(err) {
		respondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	respondError(c, response.CodeInternal, "authz operation failed", err)
}

// decodeRoleParam 角色名可能包含 role: 前缀，路由中以转义形式出现
func decodeRoleParam(raw string) string {
	decoded, err := url.PathUnescape(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(decoded)
}
