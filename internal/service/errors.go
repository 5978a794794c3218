package service

import "errors"

// 结算与本地单据相关错误
var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrItemNotFound       = errors.New("catalog item not found")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrSnapshotStale      = errors.New("catalog snapshot is stale")
	ErrDraftNotFound      = errors.New("draft transaction not found")
	ErrDraftNotReturnable = errors.New("draft transaction cannot be returned")
	ErrReturnExceedsSale  = errors.New("return quantity exceeds original sale")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// 优惠券相关错误
var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponInactive   = errors.New("coupon inactive")
	ErrCouponExpired    = errors.New("coupon expired")
	ErrCouponUsageLimit = errors.New("coupon usage limit reached")
)

// 发件箱相关错误
var (
	ErrOutboxItemNotFound    = errors.New("outbox item not found")
	ErrOutboxItemNotRejected = errors.New("outbox item is not in rejected state")
)
