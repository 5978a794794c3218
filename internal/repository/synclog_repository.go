package repository

import (
	"errors"

	"github.com/shouyin-pos/internal/models"

	"gorm.io/gorm"
)

// SyncLogRepository 本地标识映射日志数据访问接口
type SyncLogRepository interface {
	Get(key string) (*models.SyncLogEntry, error)
	Put(key string, serverID string) error
	List(page, pageSize int) ([]models.SyncLogEntry, int64, error)
	WithTx(tx *gorm.DB) *GormSyncLogRepository
}

// GormSyncLogRepository GORM 实现
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository 创建映射日志仓库
func NewSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSyncLogRepository) WithTx(tx *gorm.DB) *GormSyncLogRepository {
	if tx == nil {
		return r
	}
	return &GormSyncLogRepository{db: tx}
}

// Get 获取映射（不存在返回 nil）
func (r *GormSyncLogRepository) Get(key string) (*models.SyncLogEntry, error) {
	var entry models.SyncLogEntry
	if err := r.db.Where("key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Put 写入映射（同键重写为覆盖，确认重放时自然幂等）
func (r *GormSyncLogRepository) Put(key string, serverID string) error {
	entry, err := r.Get(key)
	if err != nil {
		return err
	}
	if entry == nil {
		return r.db.Create(&models.SyncLogEntry{Key: key, ServerID: serverID}).Error
	}
	entry.ServerID = serverID
	return r.db.Save(entry).Error
}

// List 获取映射列表
func (r *GormSyncLogRepository) List(page, pageSize int) ([]models.SyncLogEntry, int64, error) {
	var entries []models.SyncLogEntry
	query := r.db.Model(&models.SyncLogEntry{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	if err := query.Order("updated_at desc, id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
