package repository

import "gorm.io/gorm"

const maxPageSize = 500

// applyPagination 应用分页参数。页码从 1 起算，非法入参收敛到
// 合法区间，页大小设硬上限防止整表拉取。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
