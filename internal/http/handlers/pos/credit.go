package pos

import (
	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IssueCreditRequest 储值发放请求
type IssueCreditRequest struct {
	LocalID       string `json:"local_id"`
	CustomerRef   string `json:"customer_ref" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Reason        string `json:"reason"`
	ReturnLocalID string `json:"return_local_id"`
}

// RedeemCreditRequest 储值核销请求
type RedeemCreditRequest struct {
	LocalID       string `json:"local_id"`
	CustomerRef   string `json:"customer_ref" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	SaleLocalID   string `json:"sale_local_id"`
	CreditLocalID string `json:"credit_local_id"`
}

// IssueCredit 发放门店储值
func (h *Handler) IssueCredit(c *gin.Context) {
	var req IssueCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid amount", err)
		return
	}

	item, err := h.CreditService.IssueCredit(service.IssueCreditInput{
		LocalID:       req.LocalID,
		CustomerRef:   req.CustomerRef,
		Amount:        amount,
		Reason:        req.Reason,
		ReturnLocalID: req.ReturnLocalID,
	})
	if err != nil {
		respondWithMappedError(c, err, creditErrorRules, response.CodeInternal, "credit issue failed")
		return
	}

	if h.SyncProcessor != nil {
		h.SyncProcessor.Kick()
	}

	response.Success(c, item)
}

// RedeemCredit 核销门店储值
func (h *Handler) RedeemCredit(c *gin.Context) {
	var req RedeemCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid amount", err)
		return
	}

	item, err := h.CreditService.RedeemCredit(service.RedeemCreditInput{
		LocalID:       req.LocalID,
		CustomerRef:   req.CustomerRef,
		Amount:        amount,
		SaleLocalID:   req.SaleLocalID,
		CreditLocalID: req.CreditLocalID,
	})
	if err != nil {
		respondWithMappedError(c, err, creditErrorRules, response.CodeInternal, "credit redeem failed")
		return
	}

	if h.SyncProcessor != nil {
		h.SyncProcessor.Kick()
	}

	response.Success(c, item)
}
