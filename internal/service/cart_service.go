package service

import (
	"context"
	"time"

	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UpdateCartItemInput 购物车项更新输入，Quantity 与 SKUID 均可选
type UpdateCartItemInput struct {
	CartItemID uint
	Quantity   *int
	SKUID      *uint
}

// CartService 购物车服务
// 每次变更都在单个事务内完成并立即重算汇总，读到的购物车始终自洽
type CartService struct {
	txm        repository.Transactor
	cartRepo   repository.CartRepository
	skuRepo    repository.ProductSKURepository
	couponRepo repository.CouponRepository
	userRepo   repository.UserRepository
	locker     CartLocker
	now        func() time.Time
}

// NewCartService 创建购物车服务
func NewCartService(txm repository.Transactor, cartRepo repository.CartRepository, skuRepo repository.ProductSKURepository, couponRepo repository.CouponRepository, userRepo repository.UserRepository, locker CartLocker) *CartService {
	return &CartService{
		txm:        txm,
		cartRepo:   cartRepo,
		skuRepo:    skuRepo,
		couponRepo: couponRepo,
		userRepo:   userRepo,
		locker:     locker,
		now:        time.Now,
	}
}

// GetOrCreateCart 获取用户购物车，不存在时创建空购物车
func (s *CartService) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	err = withCartLock(ctx, s.locker, userID, func() error {
		return s.ensureCart(userID)
	})
	if err != nil {
		return nil, err
	}
	return s.cartRepo.GetByUser(userID)
}

// AddItem 加入购物车，已有同 SKU 的行时合并数量
func (s *CartService) AddItem(ctx context.Context, userID, skuID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		cartRepo := s.cartRepo.WithTx(tx)
		sku, err := s.skuRepo.WithTx(tx).GetByID(skuID)
		if err != nil {
			return err
		}
		if sku == nil {
			return ErrSKUNotFound
		}

		existing := cart.FindItemBySKU(sku.ID, 0)
		wanted := quantity
		if existing != nil {
			wanted += existing.Quantity
		}
		if wanted > sku.Quantity {
			return ErrInsufficientStock.WithDetail("%s has %d left", sku.ProductName(), sku.Quantity)
		}

		lineTotal := models.NewMoneyFromDecimal(lineAmount(sku, wanted))
		if existing != nil {
			existing.Quantity = wanted
			existing.Total = lineTotal
			existing.SKU = sku
			return cartRepo.UpdateItem(existing)
		}
		item := models.CartItem{
			CartID:   cart.ID,
			SKUID:    sku.ID,
			Quantity: wanted,
			Total:    lineTotal,
		}
		if err := cartRepo.CreateItem(&item); err != nil {
			return err
		}
		item.SKU = sku
		cart.Items = append(cart.Items, item)
		return nil
	})
}

// UpdateItem 修改购物车项数量或切换 SKU
// 切换到购物车中已有的 SKU 时合并为一行并删除原行
func (s *CartService) UpdateItem(ctx context.Context, userID uint, input UpdateCartItemInput) (*models.Cart, error) {
	if input.Quantity != nil && *input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		cartRepo := s.cartRepo.WithTx(tx)
		skuRepo := s.skuRepo.WithTx(tx)

		item := cart.FindItem(input.CartItemID)
		if item == nil {
			return ErrCartItemNotFound
		}
		quantity := item.Quantity
		if input.Quantity != nil {
			quantity = *input.Quantity
		}
		targetSKUID := item.SKUID
		if input.SKUID != nil {
			targetSKUID = *input.SKUID
		}

		sku, err := skuRepo.GetByID(targetSKUID)
		if err != nil {
			return err
		}
		if sku == nil {
			return ErrSKUNotFound
		}

		if targetSKUID != item.SKUID {
			if target := cart.FindItemBySKU(targetSKUID, item.ID); target != nil {
				merged := target.Quantity + quantity
				if merged > sku.Quantity {
					return ErrInsufficientStock.WithDetail("%s has %d left", sku.ProductName(), sku.Quantity)
				}
				target.Quantity = merged
				target.Total = models.NewMoneyFromDecimal(lineAmount(sku, merged))
				target.SKU = sku
				if err := cartRepo.UpdateItem(target); err != nil {
					return err
				}
				if err := cartRepo.DeleteItem(cart.ID, item.ID); err != nil {
					return err
				}
				cart.Items = withoutItem(cart.Items, item.ID)
				return nil
			}
		}

		if quantity > sku.Quantity {
			return ErrInsufficientStock.WithDetail("%s has %d left", sku.ProductName(), sku.Quantity)
		}
		item.SKUID = sku.ID
		item.SKU = sku
		item.Quantity = quantity
		item.Total = models.NewMoneyFromDecimal(lineAmount(sku, quantity))
		return cartRepo.UpdateItem(item)
	})
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(ctx context.Context, userID, cartItemID uint) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		if cart.FindItem(cartItemID) == nil {
			return ErrCartItemNotFound
		}
		if err := s.cartRepo.WithTx(tx).DeleteItem(cart.ID, cartItemID); err != nil {
			return err
		}
		cart.Items = withoutItem(cart.Items, cartItemID)
		return nil
	})
}

// ClearCart 清空购物车并解绑优惠券
func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	_, err := s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		if err := s.cartRepo.WithTx(tx).ClearItems(cart.ID); err != nil {
			return err
		}
		cart.Items = nil
		detachCoupon(cart)
		return nil
	})
	return err
}

// ApplyCoupon 应用优惠券，校验失败直接返回错误且购物车保持不变
func (s *CartService) ApplyCoupon(ctx context.Context, userID uint, code string) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		coupon, err := s.couponRepo.WithTx(tx).GetByCode(code)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrInvalidCoupon.WithDetail("coupon %s not found", code)
		}
		if err := ValidateCoupon(coupon, sumItems(cart.Items), s.now()); err != nil {
			return err
		}
		cart.CouponID = &coupon.ID
		cart.Coupon = coupon
		return nil
	})
}

// RemoveCoupon 移除已应用的优惠券
func (s *CartService) RemoveCoupon(ctx context.Context, userID uint) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		detachCoupon(cart)
		return nil
	})
}

// mutate 加用户锁，在事务内加载购物车、执行变更、重算并写回汇总
func (s *CartService) mutate(ctx context.Context, userID uint, fn func(tx *gorm.DB, cart *models.Cart) error) (*models.Cart, error) {
	err := withCartLock(ctx, s.locker, userID, func() error {
		if err := s.ensureCart(userID); err != nil {
			return err
		}
		return s.txm.Transaction(ctx, func(tx *gorm.DB) error {
			cartRepo := s.cartRepo.WithTx(tx)
			cart, err := cartRepo.GetByUser(userID)
			if err != nil {
				return err
			}
			if cart == nil {
				return ErrCartUpdateFailed
			}
			if err := fn(tx, cart); err != nil {
				return err
			}
			recalculateCart(cart, s.now())
			return cartRepo.SaveSummary(cart)
		})
	})
	if err != nil {
		if !isServiceError(err) {
			logger.Errorw("cart_mutate_failed", "user_id", userID, "error", err)
			return nil, ErrCartUpdateFailed.Wrap(err)
		}
		return nil, err
	}
	return s.cartRepo.GetByUser(userID)
}

// ensureCart 购物车懒创建，调用方需持有用户锁
func (s *CartService) ensureCart(userID uint) error {
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return err
	}
	if cart != nil {
		return nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.cartRepo.Create(&models.Cart{UserID: userID})
}

// recalculateCart 重算购物车汇总
// 已绑定的优惠券若不再满足条件则静默解绑
func recalculateCart(cart *models.Cart, now time.Time) {
	total := sumItems(cart.Items)
	discount := decimal.Zero
	if cart.CouponID != nil {
		if cart.Coupon == nil {
			detachCoupon(cart)
		} else if err := ValidateCoupon(cart.Coupon, total, now); err != nil {
			logger.Debugw("cart_coupon_detached", "cart_id", cart.ID, "coupon_id", cart.Coupon.ID, "reason", err.Error())
			detachCoupon(cart)
		} else {
			discount = CouponDiscount(cart.Coupon, total)
		}
	}
	cart.Total = models.NewMoneyFromDecimal(total)
	cart.DiscountAmount = models.NewMoneyFromDecimal(discount)
	cart.FinalAmount = models.NewMoneyFromDecimal(payable(total.Sub(discount)))
}

func detachCoupon(cart *models.Cart) {
	cart.CouponID = nil
	cart.Coupon = nil
	cart.DiscountAmount = models.Money{}
}

func sumItems(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total.Decimal)
	}
	return total
}

func lineAmount(sku *models.ProductSKU, quantity int) decimal.Decimal {
	return ProductUnitPrice(sku.Product).Mul(decimal.NewFromInt(int64(quantity)))
}

func withoutItem(items []models.CartItem, itemID uint) []models.CartItem {
	kept := items[:0]
	for _, item := range items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	return kept
}
