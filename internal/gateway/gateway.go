package gateway

import (
	"context"
	"errors"

	"github.com/shouyin-pos/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrGatewayUnavailable 网关暂不可达（网络错误、超时、5xx），可安全重试
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrGatewayRejected 服务端终态拒绝（4xx 业务错误），重试无意义
	ErrGatewayRejected = errors.New("gateway rejected")
	// ErrConfigInvalid 网关配置不合法
	ErrConfigInvalid = errors.New("gateway config invalid")
)

// Operation 一次待上报的离线操作（发件箱条目的网关视图）
type Operation struct {
	Kind           string      // 操作类型（封闭集合）
	LocalID        string      // 本地标识
	IdempotencyKey string      // 幂等键，重试间不变
	Payload        models.JSON // 请求载荷
}

// Ack 服务端确认结果
type Ack struct {
	ServerID string                 // 服务端为该操作分配的标识
	Raw      map[string]interface{} // 原始响应
}

// CustomerContext 服务端会员上下文（储值余额的权威来源）
type CustomerContext struct {
	CustomerRef   string          `json:"customer_ref"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

// RemoteGateway 门店后端网关。Submit 负责上报离线操作，
// Fetch 系列负责拉取服务端下发的快照与规则。
type RemoteGateway interface {
	Submit(ctx context.Context, op Operation) (*Ack, error)
	FetchCatalog(ctx context.Context) ([]models.CatalogItem, error)
	FetchPromotions(ctx context.Context) ([]models.Promotion, error)
	FetchCoupons(ctx context.Context) ([]models.Coupon, error)
	FetchSettings(ctx context.Context) (map[string]string, error)
	FetchCustomer(ctx context.Context, customerRef string) (*CustomerContext, error)
}
