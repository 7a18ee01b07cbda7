package public

import (
	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加购请求
type AddCartItemRequest struct {
	SKUID    uint `json:"sku_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest 修改购物车项请求，字段均可选
type UpdateCartItemRequest struct {
	Quantity *int  `json:"quantity"`
	SKUID    *uint `json:"sku_id"`
}

// ApplyCouponRequest 使用优惠券请求
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.GetOrCreateCart(c.Request.Context(), uid)
	if err != nil {
		respondWithMappedError(c, err, sessionErrorRules, "cart fetch failed")
		return
	}
	response.Success(c, cart)
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	cart, err := h.CartService.AddItem(c.Request.Context(), uid, req.SKUID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, sessionErrorRules, "cart update failed")
		return
	}
	response.Success(c, cart)
}

// UpdateCartItem 修改购物车项数量或 SKU
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	cart, err := h.CartService.UpdateItem(c.Request.Context(), uid, service.UpdateCartItemInput{
		CartItemID: itemID,
		Quantity:   req.Quantity,
		SKUID:      req.SKUID,
	})
	if err != nil {
		respondWithMappedError(c, err, sessionErrorRules, "cart update failed")
		return
	}
	response.Success(c, cart)
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	cart, err := h.CartService.RemoveItem(c.Request.Context(), uid, itemID)
	if err != nil {
		respondWithMappedError(c, err, sessionErrorRules, "cart update failed")
		return
	}
	response.Success(c, cart)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.ClearCart(c.Request.Context(), uid); err != nil {
		respondWithMappedError(c, err, sessionErrorRules, "cart update failed")
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

// ApplyCoupon 使用优惠券
func (h *Handler) ApplyCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	cart, err := h.CartService.ApplyCoupon(c.Request.Context(), uid, req.Code)
	if err != nil {
		respondWithMappedError(c, err, sessionErrorRules, "cart update failed")
		return
	}
	response.Success(c, cart)
}

// RemoveCoupon 取消优惠券
func (h *Handler) RemoveCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.RemoveCoupon(c.Request.Context(), uid)
	if err != nil {
		respondWithMappedError(c, err, sessionErrorRules, "cart update failed")
		return
	}
	response.Success(c, cart)
}
