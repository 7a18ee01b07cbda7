package service

import (
	"strings"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectivePrice 计算商品折后单价
// 不做下限截断，金额下限只在购物车/订单的应付金额上保证
func EffectivePrice(base decimal.Decimal, discountType string, discountValue decimal.Decimal) decimal.Decimal {
	switch strings.ToLower(strings.TrimSpace(discountType)) {
	case constants.DiscountTypePercentage:
		return base.Sub(base.Mul(discountValue).Div(hundred)).Round(2)
	case constants.DiscountTypeFixed:
		return base.Sub(discountValue).Round(2)
	default:
		return base.Round(2)
	}
}

// ProductUnitPrice 按商品当前标价与折扣计算单价
func ProductUnitPrice(product *models.Product) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	return EffectivePrice(product.Price.Decimal, product.DiscountType, product.DiscountValue.Decimal)
}

// CouponDiscount 计算优惠券抵扣金额
// 百分比券按小计折算并受封顶限制，满减券为固定金额
func CouponDiscount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	switch strings.ToLower(strings.TrimSpace(coupon.Type)) {
	case constants.CouponTypePercentage:
		discount := subtotal.Mul(coupon.Value.Decimal).Div(hundred)
		if coupon.MaxDiscountAmount != nil && discount.GreaterThan(coupon.MaxDiscountAmount.Decimal) {
			discount = coupon.MaxDiscountAmount.Decimal
		}
		return discount.Round(2)
	case constants.CouponTypeFixed:
		return coupon.Value.Decimal.Round(2)
	default:
		return decimal.Zero
	}
}

// payable 应付金额，下限为 0
func payable(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}
