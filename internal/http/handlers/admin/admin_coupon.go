package admin

import (
	"time"

	handlershared "github.com/checkout-next/internal/http/handlers/shared"
	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateCouponRequest 创建优惠券请求，金额可传数字或字符串
type CreateCouponRequest struct {
	Code              string           `json:"code" binding:"required"`
	Description       string           `json:"description"`
	Type              string           `json:"type" binding:"required"`
	Value             decimal.Decimal  `json:"value"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	StartDate         string           `json:"start_date" binding:"required"`
	EndDate           string           `json:"end_date" binding:"required"`
	UsageLimit        int              `json:"usage_limit"`
	Status            string           `json:"status"`
}

// UpdateCouponStatusRequest 启用/停用优惠券请求
type UpdateCouponStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "start_date must be RFC3339", nil)
		return
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "end_date must be RFC3339", nil)
		return
	}

	coupon, err := h.CouponAdminService.Create(service.CreateCouponInput{
		Code:              req.Code,
		Description:       req.Description,
		Type:              req.Type,
		Value:             req.Value,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		StartDate:         startDate,
		EndDate:           endDate,
		UsageLimit:        req.UsageLimit,
		Status:            req.Status,
	})
	if err != nil {
		respondServiceError(c, err, "coupon create failed")
		return
	}
	response.Success(c, coupon)
}

// GetAdminCoupons 获取优惠券列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	coupons, total, err := h.CouponAdminService.List(service.CouponListInput{
		Code:     c.Query("code"),
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "coupon fetch failed")
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}

// GetAdminCoupon 优惠券详情
func (h *Handler) GetAdminCoupon(c *gin.Context) {
	coupon, err := h.CouponAdminService.GetByCode(c.Param("code"))
	if err != nil {
		respondServiceError(c, err, "coupon fetch failed")
		return
	}
	response.Success(c, coupon)
}

// UpdateCouponStatus 启用或停用优惠券
func (h *Handler) UpdateCouponStatus(c *gin.Context) {
	var req UpdateCouponStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := h.CouponAdminService.UpdateStatus(c.Param("code"), req.Status)
	if err != nil {
		respondServiceError(c, err, "coupon update failed")
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	if err := h.CouponAdminService.Delete(c.Param("code")); err != nil {
		respondServiceError(c, err, "coupon delete failed")
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}
