package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User 用户表（管理员以 role 区分）
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                           // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`              // 邮箱
	PasswordHash string         `gorm:"not null;default:''" json:"-"`                   // 密码哈希（不返回给前端）
	FirstName    string         `gorm:"type:varchar(100);default:''" json:"first_name"` // 名
	LastName     string         `gorm:"type:varchar(100);default:''" json:"last_name"`  // 姓
	Role         string         `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	Status       string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"` // 账号状态
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// FullName 展示用姓名
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
