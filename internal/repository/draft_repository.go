package repository

import (
	"errors"

	"github.com/shouyin-pos/internal/models"

	"gorm.io/gorm"
)

// DraftRepository 本地单据数据访问接口
type DraftRepository interface {
	Create(draft *models.DraftTransaction) error
	GetByLocalID(localID string) (*models.DraftTransaction, error)
	List(filter DraftListFilter) ([]models.DraftTransaction, int64, error)
	UpdateStatus(localID string, status string) error
	UpdatePaymentMethod(localID string, method string) error
	CountByStatus(status string) (int64, error)
	WithTx(tx *gorm.DB) *GormDraftRepository
}

// DraftListFilter 本地单据列表筛选
type DraftListFilter struct {
	Kind       string
	Status     string
	RefLocalID string
	Page       int
	PageSize   int
}

// GormDraftRepository GORM 实现
type GormDraftRepository struct {
	db *gorm.DB
}

// NewDraftRepository 创建本地单据仓库
func NewDraftRepository(db *gorm.DB) *GormDraftRepository {
	return &GormDraftRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDraftRepository) WithTx(tx *gorm.DB) *GormDraftRepository {
	if tx == nil {
		return r
	}
	return &GormDraftRepository{db: tx}
}

// Create 创建本地单据
func (r *GormDraftRepository) Create(draft *models.DraftTransaction) error {
	return r.db.Create(draft).Error
}

// GetByLocalID 根据本地标识获取单据
func (r *GormDraftRepository) GetByLocalID(localID string) (*models.DraftTransaction, error) {
	var draft models.DraftTransaction
	if err := r.db.Where("local_id = ?", localID).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

// List 获取本地单据列表
func (r *GormDraftRepository) List(filter DraftListFilter) ([]models.DraftTransaction, int64, error) {
	var drafts []models.DraftTransaction
	query := r.db.Model(&models.DraftTransaction{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RefLocalID != "" {
		query = query.Where("ref_local_id = ?", filter.RefLocalID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("created_at desc, id desc").Find(&drafts).Error; err != nil {
		return nil, 0, err
	}
	return drafts, total, nil
}

// UpdateStatus 更新单据状态（单据内容入队后不可变，只允许状态流转）
func (r *GormDraftRepository) UpdateStatus(localID string, status string) error {
	return r.db.Model(&models.DraftTransaction{}).
		Where("local_id = ?", localID).
		UpdateColumn("status", status).Error
}

// UpdatePaymentMethod 补记结算方式（仅在提交时未指定的情况下使用）
func (r *GormDraftRepository) UpdatePaymentMethod(localID string, method string) error {
	return r.db.Model(&models.DraftTransaction{}).
		Where("local_id = ?", localID).
		UpdateColumn("payment_method", method).Error
}

// CountByStatus 按状态统计单据数量
func (r *GormDraftRepository) CountByStatus(status string) (int64, error) {
	var total int64
	err := r.db.Model(&models.DraftTransaction{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}
