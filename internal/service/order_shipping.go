package service

import (
	"context"
	"strings"

	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/shipping"

	"github.com/shopspring/decimal"
)

// ShippingDestination 收货地区
type ShippingDestination struct {
	Province string
	District string
	Ward     string
	Address  string
}

// ShippingPreviewInput 运费预估参数
// AddressID 优先；WeightGrams 为 0 时按购物车件数估算
type ShippingPreviewInput struct {
	UserID      uint
	AddressID   uint
	Destination ShippingDestination
	WeightGrams int
}

// ShippingPreview 运费预估结果
type ShippingPreview struct {
	ShippingFee           models.Money `json:"shipping_fee"`
	FreeShipping          bool         `json:"free_shipping"`
	Subtotal              models.Money `json:"subtotal"`
	FreeShippingThreshold models.Money `json:"free_shipping_threshold"`
	WeightGrams           int          `json:"weight_grams"`
}

// PreviewShipping 结算前预估运费，与下单使用同一套免运费规则
func (s *OrderService) PreviewShipping(ctx context.Context, input ShippingPreviewInput) (*ShippingPreview, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	destination := input.Destination
	if input.AddressID != 0 {
		address, err := s.addressRepo.GetByIDAndUser(input.AddressID, input.UserID)
		if err != nil {
			return nil, ErrShippingQuoteFailed.Wrap(err)
		}
		if address == nil {
			return nil, ErrAddressNotFound
		}
		destination = destinationOf(address)
	}
	destination = destination.normalized()
	if destination.Province == "" || destination.District == "" {
		return nil, ErrInvalidDestination
	}

	cart, err := s.cartRepo.GetByUser(input.UserID)
	if err != nil {
		return nil, ErrShippingQuoteFailed.Wrap(err)
	}
	subtotal := decimal.Zero
	quantity := 0
	if cart != nil {
		for _, line := range cart.Items {
			if line.SKU == nil {
				continue
			}
			subtotal = subtotal.Add(ProductUnitPrice(line.SKU.Product).Mul(decimal.NewFromInt(int64(line.Quantity))))
			quantity += line.Quantity
		}
	}
	weight := input.WeightGrams
	if weight <= 0 {
		weight = quantity * s.opts.UnitWeightGrams
	}
	if weight <= 0 {
		return nil, ErrCartEmpty
	}

	fee, err := s.quoteShipping(ctx, destination, subtotal, weight)
	if err != nil {
		return nil, err
	}
	return &ShippingPreview{
		ShippingFee:           models.NewMoneyFromDecimal(fee),
		FreeShipping:          fee.IsZero() && s.freeShipping(subtotal),
		Subtotal:              models.NewMoneyFromDecimal(subtotal),
		FreeShippingThreshold: models.NewMoneyFromDecimal(s.opts.FreeShippingThreshold),
		WeightGrams:           weight,
	}, nil
}

func (s *OrderService) freeShipping(subtotal decimal.Decimal) bool {
	threshold := s.opts.FreeShippingThreshold
	return threshold.IsPositive() && subtotal.GreaterThanOrEqual(threshold)
}

// quoteShipping 达到免运费门槛时不询价
func (s *OrderService) quoteShipping(ctx context.Context, destination ShippingDestination, subtotal decimal.Decimal, weightGrams int) (decimal.Decimal, error) {
	if s.freeShipping(subtotal) {
		return decimal.Zero, nil
	}
	if s.shipping == nil {
		return decimal.Zero, ErrShippingQuoteFailed.WithDetail("shipping provider not configured")
	}
	fee, err := s.shipping.Quote(ctx, shipping.QuoteRequest{
		PickProvince: s.opts.PickProvince,
		PickDistrict: s.opts.PickDistrict,
		Province:     destination.Province,
		District:     destination.District,
		Ward:         destination.Ward,
		Address:      destination.Address,
		WeightGrams:  weightGrams,
	})
	if err != nil {
		logger.Warnw("order_shipping_quote_failed", "province", destination.Province, "district", destination.District, "error", err)
		return decimal.Zero, ErrShippingQuoteFailed.Wrap(err)
	}
	return fee, nil
}

func destinationOf(address *models.Address) ShippingDestination {
	if address == nil {
		return ShippingDestination{}
	}
	return ShippingDestination{
		Province: address.Province,
		District: address.District,
		Ward:     address.Ward,
		Address:  address.Detail,
	}
}

func (d ShippingDestination) normalized() ShippingDestination {
	return ShippingDestination{
		Province: strings.TrimSpace(d.Province),
		District: strings.TrimSpace(d.District),
		Ward:     strings.TrimSpace(d.Ward),
		Address:  strings.TrimSpace(d.Address),
	}
}
