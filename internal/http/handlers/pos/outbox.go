package pos

import (
	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/repository"

	"github.com/gin-gonic/gin"
)

// OutboxStatus 发件箱状态概览
func (h *Handler) OutboxStatus(c *gin.Context) {
	status, err := h.OutboxService.Status()
	if err != nil {
		respondError(c, response.CodeInternal, "query failed", err)
		return
	}
	response.Success(c, status)
}

// ListOutbox 发件箱条目列表
func (h *Handler) ListOutbox(c *gin.Context) {
	page, pageSize := normalizePagination(intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	items, total, err := h.OutboxService.List(repository.OutboxListFilter{
		Kind:     c.Query("kind"),
		Status:   c.Query("status"),
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

// RequeueOutboxItem 将被驳回的条目重新排队
func (h *Handler) RequeueOutboxItem(c *gin.Context) {
	localID := c.Param("local_id")
	if err := h.OutboxService.Requeue(localID); err != nil {
		respondWithMappedError(c, err, outboxErrorRules, response.CodeInternal, "requeue failed")
		return
	}
	if h.SyncProcessor != nil {
		h.SyncProcessor.Kick()
	}
	response.SuccessWithMsg(c, "requeued", nil)
}

// VoidOutboxItem 作废被驳回的条目
func (h *Handler) VoidOutboxItem(c *gin.Context) {
	localID := c.Param("local_id")
	if err := h.OutboxService.Void(localID); err != nil {
		respondWithMappedError(c, err, outboxErrorRules, response.CodeInternal, "void failed")
		return
	}
	response.SuccessWithMsg(c, "voided", nil)
}
