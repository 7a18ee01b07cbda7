package repository

import "gorm.io/gorm"

const (
	maxPageSize    = 100
	newestFirstSQL = "created_at desc, id desc"
)

// pageWindow 把页码换算为 limit/offset，pageSize <= 0 表示不分页
func pageWindow(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		return -1, 0
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}

// findPage 先统计总数再取当前页，统一按新建时间倒序
// 总数在 Preload 之前统计，避免预加载影响计数语句
func findPage[T any](query *gorm.DB, page, pageSize int, preload func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if preload != nil {
		query = preload(query)
	}
	limit, offset := pageWindow(page, pageSize)
	var rows []T
	if err := query.Order(newestFirstSQL).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
