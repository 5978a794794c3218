package pos

import (
	"time"

	"github.com/shouyin-pos/internal/cache"
	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"

	"github.com/gin-gonic/gin"
)

const catalogLookupCacheTTL = time.Minute

// ListCatalog 本地商品目录列表
func (h *Handler) ListCatalog(c *gin.Context) {
	page, pageSize := normalizePagination(intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	items, total, err := h.CatalogRepo.List(repository.CatalogListFilter{
		SKU:      c.Query("sku"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "query failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages(total, pageSize),
	})
}

// LookupCatalogItem 扫码/输码查询商品，先按 SKU 再按条码。
// 扫码是收银台最高频的读路径，启用 Redis 时做短 TTL 缓存。
func (h *Handler) LookupCatalogItem(c *gin.Context) {
	code := c.Param("code")
	cacheKey := "catalog:lookup:" + code

	if cache.Enabled() {
		var cached models.CatalogItem
		hit, err := cache.GetJSON(c.Request.Context(), cacheKey, &cached)
		if err == nil && hit {
			response.Success(c, cached)
			return
		}
	}

	item, err := h.CatalogRepo.GetBySKU(code)
	if err != nil {
		respondError(c, response.CodeInternal, "query failed", err)
		return
	}
	if item == nil {
		item, err = h.CatalogRepo.GetByBarcode(code)
		if err != nil {
			respondError(c, response.CodeInternal, "query failed", err)
			return
		}
	}
	if item == nil {
		response.NotFound(c, "item not found")
		return
	}
	if cache.Enabled() {
		_ = cache.SetJSON(c.Request.Context(), cacheKey, item, catalogLookupCacheTTL)
	}
	response.Success(c, item)
}

// CatalogStatus 快照刷新状态
func (h *Handler) CatalogStatus(c *gin.Context) {
	refreshedAt, err := h.CatalogRepo.LastRefreshedAt()
	if err != nil {
		respondError(c, response.CodeInternal, "query failed", err)
		return
	}
	response.Success(c, gin.H{"refreshed_at": refreshedAt})
}
