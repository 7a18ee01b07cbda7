package service

import (
	"errors"
	"strings"
	"time"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo repository.CouponRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo}
}

// CreateCouponInput 创建优惠券输入
type CreateCouponInput struct {
	Code              string
	Description       string
	Type              string
	Value             decimal.Decimal
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	UsageLimit        int
	Status            string
}

// CouponListInput 优惠券列表查询
type CouponListInput struct {
	Code     string
	Search   string
	Status   string
	Page     int
	PageSize int
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrInvalidCouponRule.WithDetail("code is required")
	}
	couponType := strings.ToLower(strings.TrimSpace(input.Type))
	if couponType != constants.CouponTypeFixed && couponType != constants.CouponTypePercentage {
		return nil, ErrInvalidCouponRule.WithDetail("unsupported type %q", input.Type)
	}
	if !input.Value.IsPositive() {
		return nil, ErrInvalidCouponRule.WithDetail("value must be positive")
	}
	if couponType == constants.CouponTypePercentage && input.Value.GreaterThan(hundred) {
		return nil, ErrInvalidCouponRule.WithDetail("percentage must not exceed 100")
	}
	if !input.StartDate.Before(input.EndDate) {
		return nil, ErrInvalidCouponRule.WithDetail("start date must be before end date")
	}
	if input.UsageLimit < 0 {
		return nil, ErrInvalidCouponRule.WithDetail("usage limit must not be negative")
	}
	if input.MinOrderAmount != nil && input.MinOrderAmount.IsNegative() {
		return nil, ErrInvalidCouponRule.WithDetail("minimum order amount must not be negative")
	}
	var maxDiscount *models.Money
	if input.MaxDiscountAmount != nil {
		if couponType != constants.CouponTypePercentage {
			return nil, ErrInvalidCouponRule.WithDetail("discount cap only applies to percentage coupons")
		}
		if !input.MaxDiscountAmount.IsPositive() {
			return nil, ErrInvalidCouponRule.WithDetail("discount cap must be positive")
		}
		maxDiscount = models.MoneyPtr(*input.MaxDiscountAmount)
	}
	var minOrder *models.Money
	if input.MinOrderAmount != nil {
		minOrder = models.MoneyPtr(*input.MinOrderAmount)
	}
	status, err := normalizeCouponStatus(input.Status)
	if err != nil {
		return nil, err
	}

	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists.WithDetail("%s", code)
	}

	coupon := &models.Coupon{
		Code:              code,
		Description:       strings.TrimSpace(input.Description),
		Type:              couponType,
		Value:             models.NewMoneyFromDecimal(input.Value),
		MinOrderAmount:    minOrder,
		MaxDiscountAmount: maxDiscount,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		UsageLimit:        input.UsageLimit,
		Status:            status,
	}
	if err := s.repo.Create(coupon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponCodeExists.WithDetail("%s", code)
		}
		return nil, err
	}
	return coupon, nil
}

// List 优惠券列表
func (s *CouponAdminService) List(input CouponListInput) ([]models.Coupon, int64, error) {
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != "" {
		if _, err := normalizeCouponStatus(status); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.List(repository.CouponListFilter{
		Code:     input.Code,
		Search:   input.Search,
		Status:   status,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

// GetByCode 按优惠码获取
func (s *CouponAdminService) GetByCode(code string) (*models.Coupon, error) {
	coupon, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// UpdateStatus 启用或停用优惠券
func (s *CouponAdminService) UpdateStatus(code, status string) (*models.Coupon, error) {
	if strings.TrimSpace(status) == "" {
		return nil, ErrInvalidCouponRule.WithDetail("status is required")
	}
	normalized, err := normalizeCouponStatus(status)
	if err != nil {
		return nil, err
	}
	coupon, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(coupon.ID, normalized); err != nil {
		return nil, err
	}
	coupon.Status = normalized
	return coupon, nil
}

// Delete 删除优惠券，已被使用过的优惠券只能停用
func (s *CouponAdminService) Delete(code string) error {
	coupon, err := s.GetByCode(code)
	if err != nil {
		return err
	}
	if coupon.UsedCount > 0 {
		return ErrInvalidCouponRule.WithDetail("coupon %s has been used, deactivate it instead", coupon.Code)
	}
	return s.repo.Delete(coupon.ID)
}

func normalizeCouponStatus(raw string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	switch status {
	case "":
		return constants.CouponStatusActive, nil
	case constants.CouponStatusActive, constants.CouponStatusInactive:
		return status, nil
	default:
		return "", ErrInvalidCouponRule.WithDetail("unsupported status %q", raw)
	}
}
