package repository

import (
	"errors"
	"time"

	"github.com/shouyin-pos/internal/models"

	"gorm.io/gorm"
)

// CatalogItemRepository 商品目录数据访问接口
type CatalogItemRepository interface {
	GetBySKU(sku string) (*models.CatalogItem, error)
	GetByBarcode(barcode string) (*models.CatalogItem, error)
	ListBySKUs(skus []string) ([]models.CatalogItem, error)
	List(filter CatalogListFilter) ([]models.CatalogItem, int64, error)
	ReplaceAll(items []models.CatalogItem, refreshedAt time.Time) error
	LastRefreshedAt() (*time.Time, error)
	WithTx(tx *gorm.DB) *GormCatalogItemRepository
}

// CatalogListFilter 商品列表筛选
type CatalogListFilter struct {
	SKU      string
	Category string
	Brand    string
	Keyword  string
	Page     int
	PageSize int
}

// GormCatalogItemRepository GORM 实现
type GormCatalogItemRepository struct {
	db *gorm.DB
}

// NewCatalogItemRepository 创建商品目录仓库
func NewCatalogItemRepository(db *gorm.DB) *GormCatalogItemRepository {
	return &GormCatalogItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogItemRepository) WithTx(tx *gorm.DB) *GormCatalogItemRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogItemRepository{db: tx}
}

// GetBySKU 根据商品编码获取商品
func (r *GormCatalogItemRepository) GetBySKU(sku string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.Where("sku = ?", sku).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByBarcode 根据条码获取商品
func (r *GormCatalogItemRepository) GetByBarcode(barcode string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.Where("barcode = ?", barcode).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListBySKUs 批量获取商品
func (r *GormCatalogItemRepository) ListBySKUs(skus []string) ([]models.CatalogItem, error) {
	if len(skus) == 0 {
		return []models.CatalogItem{}, nil
	}
	var items []models.CatalogItem
	if err := r.db.Where("sku IN ?", skus).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// List 获取商品列表
func (r *GormCatalogItemRepository) List(filter CatalogListFilter) ([]models.CatalogItem, int64, error) {
	var items []models.CatalogItem
	query := r.db.Model(&models.CatalogItem{})

	if filter.SKU != "" {
		query = query.Where("sku = ?", filter.SKU)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("(name LIKE ? OR sku LIKE ? OR barcode LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("sku asc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ReplaceAll 整体替换商品快照（服务端批量下发后调用，单事务内完成）
func (r *GormCatalogItemRepository) ReplaceAll(items []models.CatalogItem, refreshedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.CatalogItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].RefreshedAt = refreshedAt
		}
		if len(items) == 0 {
			return nil
		}
		return tx.CreateInBatches(items, 200).Error
	})
}

// LastRefreshedAt 最近一次快照刷新时间（无快照返回 nil）
func (r *GormCatalogItemRepository) LastRefreshedAt() (*time.Time, error) {
	var item models.CatalogItem
	if err := r.db.Order("refreshed_at desc").First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item.RefreshedAt, nil
}
