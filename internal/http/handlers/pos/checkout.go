package pos

import (
	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CheckoutLineRequest 结算行请求
type CheckoutLineRequest struct {
	SKU string `json:"sku" binding:"required"`
	Qty int    `json:"qty" binding:"required"`
}

// ManualDiscountRequest 手动折扣请求
type ManualDiscountRequest struct {
	Type  string `json:"type" binding:"required"`
	Value string `json:"value" binding:"required"`
	Label string `json:"label"`
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	LocalID       string                 `json:"local_id"`
	Lines         []CheckoutLineRequest  `json:"lines" binding:"required"`
	CouponCode    string                 `json:"coupon_code"`
	Manual        *ManualDiscountRequest `json:"manual"`
	PaymentMethod string                 `json:"payment_method"`
	FirstPurchase bool                   `json:"first_purchase"`
}

func (r CheckoutRequest) toInput() (service.CheckoutInput, error) {
	input := service.CheckoutInput{
		LocalID:       r.LocalID,
		CouponCode:    r.CouponCode,
		PaymentMethod: r.PaymentMethod,
		FirstPurchase: r.FirstPurchase,
	}
	for _, line := range r.Lines {
		input.Lines = append(input.Lines, service.CheckoutLineInput{
			SKU: line.SKU,
			Qty: line.Qty,
		})
	}
	if r.Manual != nil {
		value, err := decimal.NewFromString(r.Manual.Value)
		if err != nil {
			return input, err
		}
		input.Manual = &service.ManualDiscountInput{
			Type:  r.Manual.Type,
			Value: value,
			Label: r.Manual.Label,
		}
	}
	return input, nil
}

// PreviewSale 结算金额预览
func (h *Handler) PreviewSale(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid manual discount value", err)
		return
	}

	quote, err := h.CheckoutService.PreviewSale(input)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "preview failed")
		return
	}

	response.Success(c, quote)
}

// CommitSale 提交销售单
func (h *Handler) CommitSale(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid manual discount value", err)
		return
	}

	draft, err := h.CheckoutService.CommitSale(input)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "commit failed")
		return
	}

	if h.SyncProcessor != nil {
		h.SyncProcessor.Kick()
	}

	response.Success(c, draft)
}

// GetTransaction 查询本地单据
func (h *Handler) GetTransaction(c *gin.Context) {
	localID := c.Param("local_id")
	draft, err := h.DraftRepo.GetByLocalID(localID)
	if err != nil {
		respondError(c, response.CodeInternal, "query failed", err)
		return
	}
	if draft == nil {
		response.NotFound(c, "transaction not found")
		return
	}
	response.Success(c, draft)
}

// ListTransactions 本地单据列表
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := normalizePagination(intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	drafts, total, err := h.DraftRepo.List(repositoryDraftFilter(c, page, pageSize))
	if err != nil {
		respondError(c, response.CodeInternal, "query failed", err)
		return
	}
	response.SuccessWithPage(c, drafts, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages(total, pageSize),
	})
}
