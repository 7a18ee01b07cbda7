package repository

import (
	"errors"

	"github.com/checkout-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductSKURepository 商品 SKU 数据访问接口
type ProductSKURepository interface {
	GetByID(id uint) (*models.ProductSKU, error)
	GetForUpdate(id uint) (*models.ProductSKU, error)
	Create(item *models.ProductSKU) error
	DecrementQuantity(id uint, quantity int) (int64, error)
	IncrementQuantity(id uint, quantity int) error
	WithTx(tx *gorm.DB) ProductSKURepository
}

// GormProductSKURepository GORM 实现
type GormProductSKURepository struct {
	db *gorm.DB
}

// NewProductSKURepository 创建 SKU 仓库
func NewProductSKURepository(db *gorm.DB) *GormProductSKURepository {
	return &GormProductSKURepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductSKURepository) WithTx(tx *gorm.DB) ProductSKURepository {
	if tx == nil {
		return r
	}
	return &GormProductSKURepository{db: tx}
}

// GetByID 根据 ID 获取 SKU（含商品）
func (r *GormProductSKURepository) GetByID(id uint) (*models.ProductSKU, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.ProductSKU
	if err := r.db.Preload("Product").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetForUpdate 以排他行锁读取 SKU，锁持有到事务结束
// SQLite 方言会忽略 FOR UPDATE，由 DecrementQuantity 的条件更新兜底
func (r *GormProductSKURepository) GetForUpdate(id uint) (*models.ProductSKU, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.ProductSKU
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Product").
		First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建 SKU
func (r *GormProductSKURepository) Create(item *models.ProductSKU) error {
	return r.db.Create(item).Error
}

// DecrementQuantity 扣减可售数量，数量不足时影响行数为 0
func (r *GormProductSKURepository) DecrementQuantity(id uint, quantity int) (int64, error) {
	if id == 0 || quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.ProductSKU{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementQuantity 回补可售数量
func (r *GormProductSKURepository) IncrementQuantity(id uint, quantity int) error {
	if id == 0 || quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.ProductSKU{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).Error
}
