package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductSKU 商品 SKU（尺码/颜色维度），quantity 为可售数量的唯一来源
type ProductSKU struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                         // 主键
	ProductID uint           `gorm:"not null;index" json:"product_id"`                             // 商品ID
	SKUCode   string         `gorm:"column:sku_code;type:varchar(64);uniqueIndex" json:"sku_code"` // SKU编码
	Size      string         `gorm:"type:varchar(32)" json:"size"`                                 // 尺码
	Color     string         `gorm:"type:varchar(32)" json:"color"`                                // 颜色
	Quantity  int            `gorm:"not null;default:0" json:"quantity"`                           // 可售数量
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductSKU) TableName() string {
	return "product_skus"
}

// ProductName 返回所属商品名称，未加载时为空
func (s *ProductSKU) ProductName() string {
	if s == nil || s.Product == nil {
		return ""
	}
	return s.Product.Name
}
