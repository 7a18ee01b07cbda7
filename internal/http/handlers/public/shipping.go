package public

import (
	"strconv"
	"strings"

	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetShippingFee 结算前运费预估
// 传 address_id 使用已保存地址，否则需要 province 与 district；weight 缺省时按购物车件数估算
func (h *Handler) GetShippingFee(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseOptionalUintQuery(c, "address_id")
	if !ok {
		return
	}
	weight := 0
	if raw := strings.TrimSpace(c.Query("weight")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(c, response.CodeBadRequest, "weight is invalid", nil)
			return
		}
		weight = parsed
	}

	preview, err := h.OrderService.PreviewShipping(c.Request.Context(), service.ShippingPreviewInput{
		UserID:    uid,
		AddressID: addressID,
		Destination: service.ShippingDestination{
			Province: c.Query("province"),
			District: c.Query("district"),
			Ward:     c.Query("ward"),
			Address:  c.Query("address"),
		},
		WeightGrams: weight,
	})
	if err != nil {
		respondWithMappedError(c, err, nil, "shipping fee quote failed")
		return
	}
	response.Success(c, preview)
}
