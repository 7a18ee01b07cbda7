package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Address 收货地址
type Address struct {
	ID           uint           `gorm:"primarykey" json:"id"`                   // 主键
	UserID       uint           `gorm:"not null;index" json:"user_id"`          // 所属用户
	ReceiverName string         `gorm:"type:varchar(100)" json:"receiver_name"` // 收件人
	Phone        string         `gorm:"type:varchar(32)" json:"phone"`          // 联系电话
	Province     string         `gorm:"type:varchar(100);not null" json:"province"`
	District     string         `gorm:"type:varchar(100);not null" json:"district"`
	Ward         string         `gorm:"type:varchar(100)" json:"ward"`
	Detail       string         `gorm:"type:varchar(255)" json:"detail"` // 街道门牌
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`         // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`         // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                  // 软删除时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}

// Snapshot 生成写入订单的地址文本，下单后与地址表解耦
func (a *Address) Snapshot() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 6)
	for _, part := range []string{a.ReceiverName, a.Phone, a.Detail, a.Ward, a.District, a.Province} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}
