package repository

import (
	"errors"

	"github.com/shouyin-pos/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	Upsert(coupon *models.Coupon) error
	ReplaceAll(coupons []models.Coupon) error
	IncrementLocalUsedCount(id uint, delta int) error
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// CouponListFilter 优惠券列表筛选
type CouponListFilter struct {
	Code     string
	IsActive *bool
	Page     int
	PageSize int
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取优惠券
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// List 获取优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	query := r.db.Model(&models.Coupon{})

	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// Upsert 按券码更新或创建优惠券（保留本地已登记的使用次数）
func (r *GormCouponRepository) Upsert(coupon *models.Coupon) error {
	existing, err := r.GetByCode(coupon.Code)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(coupon).Error
	}
	coupon.ID = existing.ID
	coupon.LocalUsedCount = existing.LocalUsedCount
	return r.db.Save(coupon).Error
}

// ReplaceAll 整体替换优惠券缓存（服务端下发后调用，逐条保留本地使用次数）
func (r *GormCouponRepository) ReplaceAll(coupons []models.Coupon) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		scoped := r.WithTx(tx)
		codes := make([]string, 0, len(coupons))
		for i := range coupons {
			if err := scoped.Upsert(&coupons[i]); err != nil {
				return err
			}
			codes = append(codes, coupons[i].Code)
		}
		query := tx.Unscoped().Where("1 = 1")
		if len(codes) > 0 {
			query = query.Where("code NOT IN ?", codes)
		}
		return query.Delete(&models.Coupon{}).Error
	})
}

// IncrementLocalUsedCount 增加本地已登记的使用次数
func (r *GormCouponRepository) IncrementLocalUsedCount(id uint, delta int) error {
	if delta == 0 {
		delta = 1
	}
	return r.db.Model(&models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("local_used_count", gorm.Expr("local_used_count + ?", delta)).Error
}
