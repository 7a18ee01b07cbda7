package repository

import (
	"errors"

	"github.com/checkout-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByUser(userID uint) (*models.Cart, error)
	Create(cart *models.Cart) error
	SaveSummary(cart *models.Cart) error
	CreateItem(item *models.CartItem) error
	UpdateItem(item *models.CartItem) error
	DeleteItem(cartID, itemID uint) error
	ClearItems(cartID uint) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetByUser 获取用户购物车，显式加载购物车项、SKU、商品与优惠券
func (r *GormCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.SKU").
		Preload("Items.SKU.Product").
		Preload("Coupon").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create 创建空购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Create(cart).Error
}

// SaveSummary 写回购物车汇总字段（含优惠券解绑）
func (r *GormCartRepository) SaveSummary(cart *models.Cart) error {
	if cart == nil || cart.ID == 0 {
		return nil
	}
	return r.db.Model(&models.Cart{ID: cart.ID}).
		Select("coupon_id", "discount_amount", "total", "final_amount").
		Updates(map[string]interface{}{
			"coupon_id":       cart.CouponID,
			"discount_amount": cart.DiscountAmount,
			"total":           cart.Total,
			"final_amount":    cart.FinalAmount,
		}).Error
}

// CreateItem 新增购物车项
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Omit("SKU").Create(item).Error
}

// UpdateItem 更新购物车项的 SKU、数量与小计
func (r *GormCartRepository) UpdateItem(item *models.CartItem) error {
	if item == nil || item.ID == 0 {
		return nil
	}
	return r.db.Model(&models.CartItem{ID: item.ID}).
		Updates(map[string]interface{}{
			"sku_id":   item.SKUID,
			"quantity": item.Quantity,
			"total":    item.Total,
		}).Error
}

// DeleteItem 删除购物车项
func (r *GormCartRepository) DeleteItem(cartID, itemID uint) error {
	return r.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{}).Error
}

// ClearItems 清空购物车项
func (r *GormCartRepository) ClearItems(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
