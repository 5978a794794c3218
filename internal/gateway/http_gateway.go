package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/models"
)

// Config HTTP 网关配置
type Config struct {
	BaseURL  string        // 服务端基础地址，如 https://pos.example.com
	DeviceID string        // 终端标识，随每个请求上报
	Timeout  time.Duration // 单次请求超时
}

// HTTPGateway RemoteGateway 的 HTTP 实现
type HTTPGateway struct {
	cfg    Config
	client *http.Client
}

// NewHTTPGateway 创建 HTTP 网关
func NewHTTPGateway(cfg Config) (*HTTPGateway, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// submitPath 每种操作类型对应的上报端点
func submitPath(kind string) (string, error) {
	switch kind {
	case constants.OpKindCreateSale:
		return "/api/pos/v1/sales", nil
	case constants.OpKindAddPayment:
		return "/api/pos/v1/payments", nil
	case constants.OpKindCreateReturn:
		return "/api/pos/v1/returns", nil
	case constants.OpKindCreateExchange:
		return "/api/pos/v1/exchanges", nil
	case constants.OpKindRedeemCoupon:
		return "/api/pos/v1/coupons/redeem", nil
	case constants.OpKindIssueCredit:
		return "/api/pos/v1/credits/issue", nil
	case constants.OpKindRedeemCredit:
		return "/api/pos/v1/credits/redeem", nil
	default:
		return "", fmt.Errorf("%w: unknown op kind %q", ErrGatewayRejected, kind)
	}
}

// Submit 上报一次离线操作。幂等键通过 Idempotency-Key 头传递，
// 服务端对重放请求必须返回与首次相同的确认。
func (g *HTTPGateway) Submit(ctx context.Context, op Operation) (*Ack, error) {
	path, err := submitPath(op.Kind)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(op.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", ErrGatewayRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", op.IdempotencyKey)
	if g.cfg.DeviceID != "" {
		req.Header.Set("X-Device-ID", g.cfg.DeviceID)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fallthrough to parse
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: http status %d", ErrGatewayUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: http status %d: %s", ErrGatewayRejected, resp.StatusCode, summarizeBody(respBytes))
	}

	var parsed struct {
		ServerID string `json:"server_id"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode ack: %v", ErrGatewayUnavailable, err)
	}
	if parsed.ServerID == "" {
		return nil, fmt.Errorf("%w: ack missing server_id", ErrGatewayUnavailable)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &Ack{ServerID: parsed.ServerID, Raw: raw}, nil
}

// FetchCatalog 拉取商品目录快照
func (g *HTTPGateway) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	var out struct {
		Items []models.CatalogItem `json:"items"`
	}
	if err := g.getJSON(ctx, "/api/pos/v1/catalog", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// FetchPromotions 拉取促销规则
func (g *HTTPGateway) FetchPromotions(ctx context.Context) ([]models.Promotion, error) {
	var out struct {
		Promotions []models.Promotion `json:"promotions"`
	}
	if err := g.getJSON(ctx, "/api/pos/v1/promotions", &out); err != nil {
		return nil, err
	}
	return out.Promotions, nil
}

// FetchCoupons 拉取优惠券规则
func (g *HTTPGateway) FetchCoupons(ctx context.Context) ([]models.Coupon, error) {
	var out struct {
		Coupons []models.Coupon `json:"coupons"`
	}
	if err := g.getJSON(ctx, "/api/pos/v1/coupons", &out); err != nil {
		return nil, err
	}
	return out.Coupons, nil
}

// FetchSettings 拉取服务端下发的配置（税率表、币种等，键值均为 JSON 文本）
func (g *HTTPGateway) FetchSettings(ctx context.Context) (map[string]string, error) {
	var out struct {
		Settings map[string]string `json:"settings"`
	}
	if err := g.getJSON(ctx, "/api/pos/v1/settings", &out); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

// FetchCustomer 拉取会员上下文（储值余额）。仅作尽力而为的参考，
// 核销以服务端确认为准。
func (g *HTTPGateway) FetchCustomer(ctx context.Context, customerRef string) (*CustomerContext, error) {
	var out CustomerContext
	if err := g.getJSON(ctx, "/api/pos/v1/customers/"+url.PathEscape(customerRef), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if g.cfg.DeviceID != "" {
		req.Header.Set("X-Device-ID", g.cfg.DeviceID)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}
	return nil
}

// summarizeBody 截取响应体前段用于错误信息，避免日志里出现超长载荷
func summarizeBody(body []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
