package pos

import (
	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/service"

	"github.com/gin-gonic/gin"
)

// ReturnLineRequest 退货行请求
type ReturnLineRequest struct {
	SKU string `json:"sku" binding:"required"`
	Qty int    `json:"qty" binding:"required"`
}

// ReturnRequest 退货请求
type ReturnRequest struct {
	LocalID     string              `json:"local_id"`
	OrigLocalID string              `json:"orig_local_id" binding:"required"`
	Lines       []ReturnLineRequest `json:"lines" binding:"required"`
	Reason      string              `json:"reason"`
}

// ExchangeRequest 换货请求
type ExchangeRequest struct {
	LocalID       string                `json:"local_id"`
	OrigLocalID   string                `json:"orig_local_id" binding:"required"`
	ReturnLines   []ReturnLineRequest   `json:"return_lines" binding:"required"`
	NewLines      []CheckoutLineRequest `json:"new_lines" binding:"required"`
	PaymentMethod string                `json:"payment_method"`
}

func (r ReturnRequest) toInput() service.ReturnInput {
	input := service.ReturnInput{
		LocalID:     r.LocalID,
		OrigLocalID: r.OrigLocalID,
		Reason:      r.Reason,
	}
	for _, line := range r.Lines {
		input.Lines = append(input.Lines, service.ReturnLineInput{
			SKU: line.SKU,
			Qty: line.Qty,
		})
	}
	return input
}

// PreviewReturn 退款金额预览
func (h *Handler) PreviewReturn(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	quote, err := h.RefundService.PreviewReturn(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, refundErrorRules, response.CodeInternal, "preview failed")
		return
	}

	response.Success(c, quote)
}

// CreateReturn 提交退货单
func (h *Handler) CreateReturn(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	draft, err := h.RefundService.CreateReturn(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, refundErrorRules, response.CodeInternal, "return failed")
		return
	}

	if h.SyncProcessor != nil {
		h.SyncProcessor.Kick()
	}

	response.Success(c, draft)
}

// CreateExchange 提交换货单
func (h *Handler) CreateExchange(c *gin.Context) {
	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	input := service.ExchangeInput{
		LocalID:       req.LocalID,
		OrigLocalID:   req.OrigLocalID,
		PaymentMethod: req.PaymentMethod,
	}
	for _, line := range req.ReturnLines {
		input.ReturnLines = append(input.ReturnLines, service.ReturnLineInput{
			SKU: line.SKU,
			Qty: line.Qty,
		})
	}
	for _, line := range req.NewLines {
		input.NewLines = append(input.NewLines, service.CheckoutLineInput{
			SKU: line.SKU,
			Qty: line.Qty,
		})
	}

	draft, err := h.RefundService.CreateExchange(input)
	if err != nil {
		respondWithMappedError(c, err, refundErrorRules, response.CodeInternal, "exchange failed")
		return
	}

	if h.SyncProcessor != nil {
		h.SyncProcessor.Kick()
	}

	response.Success(c, draft)
}
