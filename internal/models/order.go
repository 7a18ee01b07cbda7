package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表，创建后金额字段不再变化，仅状态流转
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Code          string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"code"`         // 订单编号
	UserID        uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	Address       string         `gorm:"type:text;not null" json:"address"`                         // 地址快照
	Status        string         `gorm:"type:varchar(20);index;not null" json:"status"`             // 订单状态
	PaymentMethod string         `gorm:"type:varchar(20);not null" json:"payment_method"`           // 支付方式
	Total         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`        // 商品小计（不含运费与优惠）
	ShippingFee   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // 运费
	Discount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`     // 优惠金额
	FinalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"final_amount"` // 应付金额
	CouponID      *uint          `gorm:"index" json:"coupon_id,omitempty"`                          // 优惠券ID
	Note          string         `gorm:"type:text" json:"note"`                                     // 备注
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`          // 订单项
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"` // 状态流水
	Coupon        *Coupon              `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`        // 关联优惠券
	User          *User                `gorm:"foreignKey:UserID" json:"user,omitempty"`            // 下单用户
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// TotalQuantity 订单商品总件数
func (o *Order) TotalQuantity() int {
	if o == nil {
		return 0
	}
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
