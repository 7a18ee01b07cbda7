package repository

import (
	"errors"
	"strings"

	"github.com/checkout-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	CreateHeader(order *models.Order) error
	CreateItems(items []models.OrderItem) error
	SaveTotals(order *models.Order) error
	AppendHistory(orderID uint, statuses ...string) error
	GetByCode(code string) (*models.Order, error)
	GetByCodeAndUser(code string, userID uint) (*models.Order, error)
	GetByCodeForUpdate(code string) (*models.Order, error)
	GetByID(id uint) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.SKU").
		Preload("Items.SKU.Product").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }).
		Preload("Coupon")
}

// CreateHeader 创建订单头
func (r *GormOrderRepository) CreateHeader(order *models.Order) error {
	return r.db.Omit(clause.Associations).Create(order).Error
}

// CreateItems 批量创建订单项
func (r *GormOrderRepository) CreateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Omit("SKU").Create(&items).Error
}

// SaveTotals 写入订单金额与优惠券
func (r *GormOrderRepository) SaveTotals(order *models.Order) error {
	if order == nil || order.ID == 0 {
		return nil
	}
	return r.db.Model(&models.Order{ID: order.ID}).
		Select("total", "shipping_fee", "discount", "final_amount", "coupon_id").
		Updates(map[string]interface{}{
			"total":        order.Total,
			"shipping_fee": order.ShippingFee,
			"discount":     order.Discount,
			"final_amount": order.FinalAmount,
			"coupon_id":    order.CouponID,
		}).Error
}

// AppendHistory 追加状态流水
func (r *GormOrderRepository) AppendHistory(orderID uint, statuses ...string) error {
	if orderID == 0 || len(statuses) == 0 {
		return nil
	}
	rows := make([]models.OrderStatusHistory, 0, len(statuses))
	for _, status := range statuses {
		rows = append(rows, models.OrderStatusHistory{OrderID: orderID, Status: status})
	}
	return r.db.Create(&rows).Error
}

// GetByCode 根据订单编号获取订单详情
func (r *GormOrderRepository) GetByCode(code string) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).Where("code = ?", strings.TrimSpace(code)).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByCodeAndUser 获取用户自己的订单详情
func (r *GormOrderRepository) GetByCodeAndUser(code string, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).
		Where("code = ? AND user_id = ?", strings.TrimSpace(code), userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByCodeForUpdate 以行锁读取订单及订单项，用于状态流转
func (r *GormOrderRepository) GetByCodeForUpdate(code string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("code = ?", strings.TrimSpace(code)).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByID 根据 ID 获取订单详情
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 获取用户订单列表（新订单在前）
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	return r.list(query, filter, false)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	query = applyKeywordSearch(query, filter.Search, "code", "address")
	return r.list(query, filter, true)
}

func (r *GormOrderRepository) list(query *gorm.DB, filter OrderListFilter, withUser bool) ([]models.Order, int64, error) {
	return findPage[models.Order](query, filter.Page, filter.PageSize, func(db *gorm.DB) *gorm.DB {
		db = db.Preload("Items", func(items *gorm.DB) *gorm.DB { return items.Order("id asc") })
		if withUser {
			db = db.Preload("User")
		}
		return db
	})
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

// Delete 软删除订单，订单项与状态流水保留用于对账
func (r *GormOrderRepository) Delete(id uint) error {
	return r.db.Delete(&models.Order{}, id).Error
}
