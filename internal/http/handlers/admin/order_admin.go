package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/checkout-next/internal/http/handlers/shared"
	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOrderListItem 管理端订单列表返回
type AdminOrderListItem struct {
	models.Order
	UserEmail    string `json:"user_email,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

// UpdateOrderStatusRequest 订单状态流转请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "user_id is invalid", nil)
			return
		}
		userID = uint(parsed)
	}

	orders, total, err := h.OrderService.ListAdminOrders(service.OrderListInput{
		UserID:   userID,
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}

	items := make([]AdminOrderListItem, 0, len(orders))
	for _, order := range orders {
		item := AdminOrderListItem{Order: order}
		if order.User != nil {
			item.UserEmail = order.User.Email
			item.CustomerName = order.User.FullName()
			item.Order.User = nil
		}
		items = append(items, item)
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	order, err := h.OrderService.GetOrder(orderCodeParam(c))
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.Success(c, order)
}

// AdminUpdateOrderStatus 订单状态流转
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.UpdateOrderStatus(c.Request.Context(), orderCodeParam(c), req.Status)
	if err != nil {
		respondServiceError(c, err, "order update failed")
		return
	}
	response.Success(c, order)
}

// AdminDeleteOrder 删除已结束的订单
func (h *Handler) AdminDeleteOrder(c *gin.Context) {
	code := orderCodeParam(c)
	if err := h.OrderService.DeleteOrder(c.Request.Context(), code); err != nil {
		respondServiceError(c, err, "order delete failed")
		return
	}
	response.Success(c, gin.H{"code": code, "deleted": true})
}
