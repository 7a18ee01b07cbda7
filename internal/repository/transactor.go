package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor 工作单元：回调内的所有仓库操作共享同一个事务句柄
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormTransactor GORM 实现
type GormTransactor struct {
	db *gorm.DB
}

// NewTransactor 创建事务管理器
func NewTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// Transaction 开启事务执行回调，回调返回错误时整体回滚
func (t *GormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return t.db.WithContext(ctx).Transaction(fn)
}
