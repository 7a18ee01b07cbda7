package models

import "time"

// Cart 购物车（每个用户一条，只清空不删除）
type Cart struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`                          // 用户ID
	CouponID       *uint     `gorm:"index" json:"coupon_id,omitempty"`                             // 已应用优惠券
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	Total          Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total"`           // 商品小计
	FinalAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"final_amount"`    // 应付金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`                                      // 更新时间

	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`              // 购物车项
	Coupon *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"` // 关联优惠券
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// FindItem 按购物车项 ID 查找
func (c *Cart) FindItem(itemID uint) *CartItem {
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItemBySKU 按 SKU 查找购物车项，exceptID 用于排除自身
func (c *Cart) FindItemBySKU(skuID, exceptID uint) *CartItem {
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].SKUID == skuID && c.Items[i].ID != exceptID {
			return &c.Items[i]
		}
	}
	return nil
}

// TotalQuantity 购物车商品总件数
func (c *Cart) TotalQuantity() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
