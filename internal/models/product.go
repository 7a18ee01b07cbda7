package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Name          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`            // 商品名称
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`            // 标价
	DiscountType  string         `gorm:"type:varchar(20);not null;default:'none'" json:"discount_type"` // 折扣类型（none/percentage/fixed）
	DiscountValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"`   // 折扣值
	Stock         int            `gorm:"not null;default:0" json:"stock"`                               // 汇总库存
	SoldCount     int            `gorm:"not null;default:0" json:"sold_count"`                          // 已售数量
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                           // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	SKUs []ProductSKU `gorm:"foreignKey:ProductID" json:"skus,omitempty"` // SKU 列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
