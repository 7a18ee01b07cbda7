package service

import (
	"strings"
	"time"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateCoupon 校验优惠券对给定小计是否可用，不修改任何状态
// 有效期为左闭右开区间 [StartDate, EndDate)
func ValidateCoupon(coupon *models.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if coupon == nil {
		return ErrInvalidCoupon.WithDetail("coupon not found")
	}
	if strings.ToLower(strings.TrimSpace(coupon.Status)) != constants.CouponStatusActive {
		return ErrInvalidCoupon.WithDetail("coupon %s is not active", coupon.Code)
	}
	if now.Before(coupon.StartDate) {
		return ErrInvalidCoupon.WithDetail("coupon %s is not yet valid", coupon.Code)
	}
	if !now.Before(coupon.EndDate) {
		return ErrInvalidCoupon.WithDetail("coupon %s has expired", coupon.Code)
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return ErrInvalidCoupon.WithDetail("coupon %s usage limit reached", coupon.Code)
	}
	if coupon.MinOrderAmount != nil && subtotal.LessThan(coupon.MinOrderAmount.Decimal) {
		return ErrInvalidCoupon.WithDetail("order amount must be at least %s", coupon.MinOrderAmount.String())
	}
	return nil
}
