package models

import "time"

// Notification 站内通知
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                 // 主键
	UserID    uint      `gorm:"index;not null" json:"user_id"`                        // 接收用户
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`              // 标题
	Message   string    `gorm:"type:text" json:"message"`                             // 内容
	Type      string    `gorm:"type:varchar(20);not null;default:'info'" json:"type"` // 类型
	Data      JSON      `gorm:"type:json" json:"data"`                                // 业务数据
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`          // 是否已读
	CreatedAt time.Time `gorm:"index" json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
