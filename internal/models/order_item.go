package models

import "time"

// OrderItem 订单项快照，除评价标记外不可修改
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                               // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                     // 订单ID
	SKUID       uint      `gorm:"column:sku_id;index;not null" json:"sku_id"`         // SKU ID
	ProductName string    `gorm:"type:varchar(255)" json:"product_name"`              // 商品名称快照
	Quantity    int       `gorm:"not null" json:"quantity"`                           // 数量
	Price       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 成交单价
	Total       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total"` // 行小计
	IsReviewed  bool      `gorm:"not null;default:false" json:"is_reviewed"`          // 是否已评价
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                            // 创建时间

	SKU *ProductSKU `gorm:"foreignKey:SKUID" json:"sku,omitempty"` // 关联 SKU
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
