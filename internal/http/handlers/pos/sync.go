package pos

import (
	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/queue"

	"github.com/gin-gonic/gin"
)

// KickSync 手动触发一轮发件箱排空
func (h *Handler) KickSync(c *gin.Context) {
	if h.SyncProcessor == nil {
		respondError(c, response.CodeBadRequest, "sync gateway not configured", nil)
		return
	}
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueSyncKick(queue.SyncKickPayload{Reason: "manual"}); err != nil {
			respondError(c, response.CodeInternal, "enqueue failed", err)
			return
		}
	} else {
		h.SyncProcessor.Kick()
	}
	response.SuccessWithMsg(c, "sync kicked", nil)
}

// RefreshSnapshot 手动刷新商品目录快照
func (h *Handler) RefreshSnapshot(c *gin.Context) {
	if h.RefreshService == nil {
		respondError(c, response.CodeBadRequest, "sync gateway not configured", nil)
		return
	}
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueSnapshotRefresh(queue.SnapshotRefreshPayload{Reason: "manual"}); err != nil {
			respondError(c, response.CodeInternal, "enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "refresh enqueued", nil)
		return
	}
	if err := h.RefreshService.RefreshCatalog(c.Request.Context()); err != nil {
		respondError(c, response.CodeInternal, "refresh failed", err)
		return
	}
	response.SuccessWithMsg(c, "refreshed", nil)
}

// RefreshRules 手动刷新折扣规则与配置
func (h *Handler) RefreshRules(c *gin.Context) {
	if h.RefreshService == nil {
		respondError(c, response.CodeBadRequest, "sync gateway not configured", nil)
		return
	}
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueRuleRefresh(queue.RuleRefreshPayload{Reason: "manual"}); err != nil {
			respondError(c, response.CodeInternal, "enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "refresh enqueued", nil)
		return
	}
	if err := h.RefreshService.RefreshRules(c.Request.Context()); err != nil {
		respondError(c, response.CodeInternal, "refresh failed", err)
		return
	}
	if err := h.RefreshService.RefreshSettings(c.Request.Context()); err != nil {
		respondError(c, response.CodeInternal, "refresh failed", err)
		return
	}
	response.SuccessWithMsg(c, "refreshed", nil)
}
