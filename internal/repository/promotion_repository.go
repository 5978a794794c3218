package repository

import (
	"errors"
	"time"

	"github.com/shouyin-pos/internal/models"

	"gorm.io/gorm"
)

// PromotionRepository 促销规则数据访问接口
type PromotionRepository interface {
	GetByID(id uint) (*models.Promotion, error)
	ListActive() ([]models.Promotion, error)
	List(filter PromotionListFilter) ([]models.Promotion, int64, error)
	ReplaceAll(promotions []models.Promotion) error
	WithTx(tx *gorm.DB) *GormPromotionRepository
}

// PromotionListFilter 促销列表筛选
type PromotionListFilter struct {
	Type     string
	IsActive *bool
	Page     int
	PageSize int
}

// GormPromotionRepository GORM 实现
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销规则仓库
func NewPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionRepository) WithTx(tx *gorm.DB) *GormPromotionRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionRepository{db: tx}
}

// GetByID 根据ID获取促销规则
func (r *GormPromotionRepository) GetByID(id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.First(&promotion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// ListActive 获取启用中的促销规则（时间窗口由评估引擎判定）
func (r *GormPromotionRepository) ListActive() ([]models.Promotion, error) {
	var promotions []models.Promotion
	if err := r.db.Where("is_active = ?", true).
		Order("priority asc, id asc").
		Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

// List 获取促销规则列表
func (r *GormPromotionRepository) List(filter PromotionListFilter) ([]models.Promotion, int64, error) {
	var promotions []models.Promotion
	query := r.db.Model(&models.Promotion{})

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("priority asc, id asc").Find(&promotions).Error; err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}

// ReplaceAll 整体替换促销规则缓存（服务端下发后调用）
func (r *GormPromotionRepository) ReplaceAll(promotions []models.Promotion) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.Promotion{}).Error; err != nil {
			return err
		}
		for i := range promotions {
			promotions[i].UpdatedAt = now
		}
		if len(promotions) == 0 {
			return nil
		}
		return tx.CreateInBatches(promotions, 200).Error
	})
}
