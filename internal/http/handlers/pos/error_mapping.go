package pos

import (
	"errors"

	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrItemNotFound, code: response.CodeBadRequest, msg: "item not in local catalog"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrSnapshotStale, code: response.CodeConflict, msg: "catalog snapshot is stale"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "coupon inactive"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "coupon expired"},
	{target: service.ErrCouponUsageLimit, code: response.CodeBadRequest, msg: "coupon usage limit reached"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrDraftNotFound, code: response.CodeNotFound, msg: "sale not found"},
	{target: service.ErrInvalidAmount, code: response.CodeBadRequest, msg: "invalid amount"},
	{target: service.ErrDraftNotReturnable, code: response.CodeBadRequest, msg: "sale not payable"},
}

var refundErrorRules = []mappedHandlerError{
	{target: service.ErrDraftNotFound, code: response.CodeNotFound, msg: "original sale not found"},
	{target: service.ErrDraftNotReturnable, code: response.CodeBadRequest, msg: "original sale not returnable"},
	{target: service.ErrReturnExceedsSale, code: response.CodeBadRequest, msg: "return quantity exceeds sale"},
	{target: service.ErrItemNotFound, code: response.CodeBadRequest, msg: "item not in local catalog"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "no lines supplied"},
	{target: service.ErrSnapshotStale, code: response.CodeConflict, msg: "catalog snapshot is stale"},
}

var creditErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidAmount, code: response.CodeBadRequest, msg: "invalid amount"},
	{target: service.ErrDraftNotFound, code: response.CodeNotFound, msg: "referenced transaction not found"},
}

var outboxErrorRules = []mappedHandlerError{
	{target: service.ErrOutboxItemNotFound, code: response.CodeNotFound, msg: "outbox item not found"},
	{target: service.ErrOutboxItemNotRejected, code: response.CodeBadRequest, msg: "outbox item is not rejected"},
}
