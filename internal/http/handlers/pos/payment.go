package pos

import (
	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AddPaymentRequest 收款请求
type AddPaymentRequest struct {
	SaleLocalID string `json:"sale_local_id" binding:"required"`
	Method      string `json:"method" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
}

// AddPayment 登记收款
func (h *Handler) AddPayment(c *gin.Context) {
	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid amount", err)
		return
	}

	item, err := h.PaymentService.AddPayment(service.PaymentInput{
		SaleLocalID: req.SaleLocalID,
		Method:      req.Method,
		Amount:      amount,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "payment failed")
		return
	}

	if h.SyncProcessor != nil {
		h.SyncProcessor.Kick()
	}

	response.Success(c, item)
}
