package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券，有效期为 [StartDate, EndDate)
type Coupon struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                     // 主键
	Code              string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`        // 优惠码
	Description       string         `gorm:"type:text" json:"description"`                             // 描述
	Type              string         `gorm:"type:varchar(20);not null" json:"type"`                    // 类型（percentage/fixed）
	Value             Money          `gorm:"type:decimal(20,2);not null" json:"value"`                 // 数值（百分比或固定金额）
	MinOrderAmount    *Money         `gorm:"type:decimal(20,2)" json:"min_order_amount,omitempty"`     // 使用门槛
	MaxDiscountAmount *Money         `gorm:"type:decimal(20,2)" json:"max_discount_amount,omitempty"`  // 最大优惠金额（仅百分比）
	StartDate         time.Time      `gorm:"not null;index" json:"start_date"`                         // 生效时间
	EndDate           time.Time      `gorm:"not null;index" json:"end_date"`                           // 失效时间
	UsageLimit        int            `gorm:"not null;default:0" json:"usage_limit"`                    // 总使用上限（0 表示不限制）
	UsedCount         int            `gorm:"not null;default:0" json:"used_count"`                     // 已使用次数
	Status            string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"` // 状态
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
