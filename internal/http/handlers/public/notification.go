package public

import (
	"strconv"

	handlershared "github.com/checkout-next/internal/http/handlers/shared"
	"github.com/checkout-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListNotifications 最近的站内通知
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, err := h.NotificationService.ListForUser(uid, limit)
	if err != nil {
		respondError(c, response.CodeInternal, "notification fetch failed", err)
		return
	}
	response.Success(c, items)
}

// MarkNotificationsRead 全部标记为已读
func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.NotificationService.MarkAllRead(uid); err != nil {
		respondError(c, response.CodeInternal, "notification update failed", err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// MarkNotificationRead 单条标记为已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(uid, id); err != nil {
		handlershared.RespondServiceError(c, err, "notification update failed")
		return
	}
	response.Success(c, gin.H{"id": id, "is_read": true})
}
