package repository

import (
	"errors"
	"time"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository 发件箱数据访问接口
type OutboxRepository interface {
	Create(item *models.OutboxItem) error
	GetByLocalID(localID string) (*models.OutboxItem, error)
	ListOldestQueued(limit int) ([]models.OutboxItem, error)
	List(filter OutboxListFilter) ([]models.OutboxItem, int64, error)
	RecordFailure(localID string, reason string, at time.Time) error
	MarkRejected(localID string, reason string, at time.Time) error
	MarkVoided(localID string) error
	Requeue(localID string) error
	DeleteByLocalID(localID string) error
	CountByStatus(status string) (int64, error)
	WithTx(tx *gorm.DB) *GormOutboxRepository
}

// OutboxListFilter 发件箱列表筛选
type OutboxListFilter struct {
	Kind     string
	Status   string
	Page     int
	PageSize int
}

// GormOutboxRepository GORM 实现
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建发件箱仓库
func NewOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	if tx == nil {
		return r
	}
	return &GormOutboxRepository{db: tx}
}

// Create 创建发件箱条目（与其描述的本地单据同事务写入）
func (r *GormOutboxRepository) Create(item *models.OutboxItem) error {
	return r.db.Create(item).Error
}

// GetByLocalID 根据本地标识获取条目
func (r *GormOutboxRepository) GetByLocalID(localID string) (*models.OutboxItem, error) {
	var item models.OutboxItem
	if err := r.db.Where("local_id = ?", localID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListOldestQueued 按创建顺序获取待同步条目（排空循环的读取入口）
func (r *GormOutboxRepository) ListOldestQueued(limit int) ([]models.OutboxItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []models.OutboxItem
	if err := r.db.Where("status = ?", constants.OutboxStatusQueued).
		Order("created_at asc, id asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// List 获取发件箱列表
func (r *GormOutboxRepository) List(filter OutboxListFilter) ([]models.OutboxItem, int64, error) {
	var items []models.OutboxItem
	query := r.db.Model(&models.OutboxItem{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("created_at asc, id asc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// RecordFailure 登记一次可重试失败（条目保持排队状态，幂等键不变）
func (r *GormOutboxRepository) RecordFailure(localID string, reason string, at time.Time) error {
	return r.db.Model(&models.OutboxItem{}).
		Where("local_id = ?", localID).
		Updates(map[string]interface{}{
			"retry_count":     gorm.Expr("retry_count + 1"),
			"last_error":      reason,
			"last_attempt_at": at,
		}).Error
}

// MarkRejected 标记为服务端终态拒绝（不再自动重试，等待人工处理）
func (r *GormOutboxRepository) MarkRejected(localID string, reason string, at time.Time) error {
	return r.db.Model(&models.OutboxItem{}).
		Where("local_id = ?", localID).
		Updates(map[string]interface{}{
			"status":          constants.OutboxStatusRejected,
			"last_error":      reason,
			"last_attempt_at": at,
		}).Error
}

// MarkVoided 标记为人工作废
func (r *GormOutboxRepository) MarkVoided(localID string) error {
	return r.db.Model(&models.OutboxItem{}).
		Where("local_id = ?", localID).
		UpdateColumn("status", constants.OutboxStatusVoided).Error
}

// Requeue 把被拒绝的条目重新排队（保留原幂等键）
func (r *GormOutboxRepository) Requeue(localID string) error {
	return r.db.Model(&models.OutboxItem{}).
		Where("local_id = ?", localID).
		Where("status = ?", constants.OutboxStatusRejected).
		Updates(map[string]interface{}{
			"status":     constants.OutboxStatusQueued,
			"last_error": "",
		}).Error
}

// DeleteByLocalID 删除条目（服务端确认后与映射日志写入同事务调用）
func (r *GormOutboxRepository) DeleteByLocalID(localID string) error {
	return r.db.Where("local_id = ?", localID).Delete(&models.OutboxItem{}).Error
}

// CountByStatus 按状态统计条目数量
func (r *GormOutboxRepository) CountByStatus(status string) (int64, error) {
	var total int64
	err := r.db.Model(&models.OutboxItem{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}
