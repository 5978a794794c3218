package pos

import (
	"errors"

	"github.com/shouyin-pos/internal/http/response"
	"github.com/shouyin-pos/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewCoupon 按券码校验优惠券
func (h *Handler) PreviewCoupon(c *gin.Context) {
	code := c.Param("code")
	preview, err := h.CouponService.Preview(code)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			response.NotFound(c, "coupon not found")
			return
		}
		respondError(c, response.CodeInternal, "query failed", err)
		return
	}
	response.Success(c, preview)
}
