package repository

import (
	"github.com/checkout-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品计数数据访问接口
type ProductRepository interface {
	Create(product *models.Product) error
	RecordSale(productID uint, quantity int) error
	RevertSale(productID uint, quantity int) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// RecordSale 下单成功：已售数量增加，汇总库存减少（不低于 0）
func (r *GormProductRepository) RecordSale(productID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"sold_count": gorm.Expr("sold_count + ?", quantity),
			"stock":      gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", quantity, quantity),
		}).Error
}

// RevertSale 取消或退货：已售数量回退（不低于 0），汇总库存恢复
func (r *GormProductRepository) RevertSale(productID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"sold_count": gorm.Expr("CASE WHEN sold_count > ? THEN sold_count - ? ELSE 0 END", quantity, quantity),
			"stock":      gorm.Expr("stock + ?", quantity),
		}).Error
}
